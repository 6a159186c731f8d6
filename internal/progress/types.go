package progress

import (
	"sort"
	"strings"
	"time"
)

// EventType represents the type of progress event
type EventType int

const (
	EventScanStart EventType = iota
	EventScanComplete
	EventEnterDirectory
	EventFileCollected
	EventUnpacked
	EventUnpackFailed
	EventSkipped
	EventPassComplete
	EventComponentDetected
	EventDuplicateClaim
	EventFileWriting
	EventFileWritten
	EventInfo
)

// Event represents something that happened during scanning
type Event struct {
	Type      EventType
	Path      string
	Name      string
	Info      string
	Reason    string
	Size      int64
	Pass      int
	FileCount int
	DirCount  int
	Duration  time.Duration
}

// Reporter is the interface the scanner uses to report events
type Reporter interface {
	Report(event Event)
}

// Handler processes events and produces output
type Handler interface {
	Handle(event Event)
}

// UnpackEntry records an unpacked archive for the summary
type UnpackEntry struct {
	Path string
	Size int64
}

// getSizeIcon returns the icon for an archive size
func getSizeIcon(size int64) string {
	switch {
	case size >= 100<<20:
		return "🔴"
	case size >= 10<<20:
		return "🟡"
	}
	return "🟢"
}

// shortenPath shortens a path for display if it's too long
func shortenPath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	parts := strings.Split(path, "/")
	if len(parts) > 3 {
		return "..." + "/" + strings.Join(parts[len(parts)-2:], "/")
	}
	return path
}

// sortUnpacksBySize sorts unpack entries by size descending
func sortUnpacksBySize(entries []UnpackEntry) []UnpackEntry {
	sorted := make([]UnpackEntry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Size > sorted[j].Size
	})
	return sorted
}

// depth returns the nesting depth of a slash-separated relative path
func depth(path string) int {
	if path == "" || path == "." {
		return 0
	}
	return strings.Count(strings.Trim(path, "/"), "/") + 1
}
