package progress

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	dirStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	archiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	compStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

// TreeHandler outputs events with tree-like visualization. Events arrive in
// worker order, so indentation follows the path depth rather than the
// enter/leave sequence.
type TreeHandler struct {
	writer   io.Writer
	styled   bool
	unpacked []UnpackEntry
	files    int
}

func NewTreeHandler(writer io.Writer, styled bool) *TreeHandler {
	return &TreeHandler{writer: writer, styled: styled}
}

func (h *TreeHandler) render(style lipgloss.Style, s string) string {
	if !h.styled {
		return s
	}
	return style.Render(s)
}

func (h *TreeHandler) Handle(event Event) {
	indent := strings.Repeat("│  ", depth(event.Path))
	prefix := "├─ "

	switch event.Type {
	case EventScanStart:
		fmt.Fprintf(h.writer, "Scanning %s...\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "Excluding: %s\n", event.Info)
		}
		fmt.Fprintln(h.writer)

	case EventScanComplete:
		fmt.Fprintf(h.writer, "└─ Completed: %d files, %d directories in %d passes (%.1fs)\n",
			event.FileCount, event.DirCount, event.Pass, event.Duration.Seconds())
		h.printLargestArchives()

	case EventEnterDirectory:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix, h.render(dirStyle, event.Path+"/"))

	case EventFileCollected:
		h.files++
		fmt.Fprintf(h.writer, "%s%s%s %s\n", indent, prefix, event.Path,
			h.render(dimStyle, humanize.IBytes(uint64(event.Size))))

	case EventUnpacked:
		h.unpacked = append(h.unpacked, UnpackEntry{Path: event.Path, Size: event.Size})
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix,
			h.render(archiveStyle, fmt.Sprintf("📦 %s (%s, %s)", event.Path, humanize.IBytes(uint64(event.Size)), event.Info)))

	case EventUnpackFailed:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix,
			h.render(failStyle, fmt.Sprintf("✗ %s: %s", event.Path, event.Reason)))

	case EventSkipped:
		fmt.Fprintf(h.writer, "%s%sSkipping: %s (%s)\n", indent, prefix, event.Path, event.Reason)

	case EventPassComplete:
		fmt.Fprintf(h.writer, "── pass %d: %.2fs, %d archives queued\n", event.Pass, event.Duration.Seconds(), event.FileCount)

	case EventComponentDetected:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix,
			h.render(compStyle, fmt.Sprintf("Detected: %s (%s)", event.Name, event.Info)))

	case EventDuplicateClaim:
		fmt.Fprintf(h.writer, "%s%s%s\n", indent, prefix,
			h.render(failStyle, fmt.Sprintf("Duplicate: %s [%s]", event.Path, event.Info)))

	case EventFileWriting:
		fmt.Fprintf(h.writer, "%sWriting results to: %s\n", prefix, event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "%sResults written: %s\n", prefix, event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "%s%s\n", prefix, event.Info)
	}
}

// printLargestArchives outputs the 10 largest unpacked archives
func (h *TreeHandler) printLargestArchives() {
	if len(h.unpacked) == 0 {
		return
	}

	sorted := sortUnpacksBySize(h.unpacked)

	fmt.Fprintln(h.writer)
	fmt.Fprintf(h.writer, "📦 LARGEST ARCHIVES\n")
	fmt.Fprintf(h.writer, "═══════════════════════════════════════\n")

	maxShow := len(sorted)
	if maxShow > 10 {
		maxShow = 10
	}
	for i := 0; i < maxShow; i++ {
		e := sorted[i]
		fmt.Fprintf(h.writer, " %s %2d. %-45s %10s\n", getSizeIcon(e.Size), i+1, shortenPath(e.Path, 60), humanize.IBytes(uint64(e.Size)))
	}

	fmt.Fprintln(h.writer)
}

// NullHandler discards all events (for disabled verbose mode)
type NullHandler struct{}

func NewNullHandler() *NullHandler {
	return &NullHandler{}
}

func (h *NullHandler) Handle(event Event) {}
