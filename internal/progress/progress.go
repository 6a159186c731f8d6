package progress

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Progress is the centralized verbose system. Events arrive from many
// workers and are handed to the handler one at a time.
type Progress struct {
	enabled bool
	mu      sync.Mutex
	handler Handler
}

// New creates a new progress reporter
func New(enabled bool, handler Handler) *Progress {
	if handler == nil {
		handler = NewSimpleHandler(os.Stderr)
	}
	return &Progress{
		enabled: enabled,
		handler: handler,
	}
}

// Disabled returns a reporter that drops every event
func Disabled() *Progress {
	return New(false, NewNullHandler())
}

// ForWriter picks the handler for the requested verbosity. Styling is only
// applied when w is a terminal.
func ForWriter(w io.Writer, verbose, tree bool) *Progress {
	switch {
	case tree:
		return New(true, NewTreeHandler(w, IsTerminal(w)))
	case verbose:
		return New(true, NewSimpleHandler(w))
	}
	return Disabled()
}

// IsTerminal reports whether w writes to a terminal
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Enabled reports whether events are forwarded
func (p *Progress) Enabled() bool {
	return p != nil && p.enabled
}

// Report sends an event to the handler (only if enabled)
func (p *Progress) Report(event Event) {
	if !p.Enabled() {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handler.Handle(event)
}

// Convenience methods for the scanner to report events

func (p *Progress) ScanStart(path string, excludePatterns []string) {
	p.Report(Event{
		Type: EventScanStart,
		Path: path,
		Info: strings.Join(excludePatterns, ", "),
	})
}

func (p *Progress) ScanComplete(files, dirs, passes int, duration time.Duration) {
	p.Report(Event{
		Type:      EventScanComplete,
		FileCount: files,
		DirCount:  dirs,
		Pass:      passes,
		Duration:  duration,
	})
}

func (p *Progress) EnterDirectory(path string) {
	p.Report(Event{Type: EventEnterDirectory, Path: path})
}

func (p *Progress) FileCollected(path string, size int64) {
	p.Report(Event{Type: EventFileCollected, Path: path, Size: size})
}

func (p *Progress) Unpacked(path string, size int64, strategy string) {
	p.Report(Event{Type: EventUnpacked, Path: path, Size: size, Info: strategy})
}

func (p *Progress) UnpackFailed(path, reason string) {
	p.Report(Event{Type: EventUnpackFailed, Path: path, Reason: reason})
}

func (p *Progress) Skipped(path, reason string) {
	p.Report(Event{Type: EventSkipped, Path: path, Reason: reason})
}

func (p *Progress) PassComplete(pass, pending int, duration time.Duration) {
	p.Report(Event{Type: EventPassComplete, Pass: pass, FileCount: pending, Duration: duration})
}

func (p *Progress) ComponentDetected(name, source, path string) {
	p.Report(Event{Type: EventComponentDetected, Name: name, Info: source, Path: path})
}

func (p *Progress) DuplicateClaim(path string, owners []string) {
	p.Report(Event{Type: EventDuplicateClaim, Path: path, Info: strings.Join(owners, ", ")})
}

func (p *Progress) FileWriting(path string) {
	p.Report(Event{Type: EventFileWriting, Path: path})
}

func (p *Progress) FileWritten(path string) {
	p.Report(Event{Type: EventFileWritten, Path: path})
}

func (p *Progress) Info(message string) {
	p.Report(Event{Type: EventInfo, Info: message})
}
