package progress

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// SimpleHandler outputs events as simple lines (no tree)
type SimpleHandler struct {
	writer   io.Writer
	unpacked []UnpackEntry
	failed   int
}

func NewSimpleHandler(writer io.Writer) *SimpleHandler {
	return &SimpleHandler{writer: writer}
}

func (h *SimpleHandler) Handle(event Event) {
	switch event.Type {
	case EventScanStart:
		fmt.Fprintf(h.writer, "[SCAN] Starting: %s\n", event.Path)
		if event.Info != "" {
			fmt.Fprintf(h.writer, "[SCAN] Excluding: %s\n", event.Info)
		}

	case EventScanComplete:
		fmt.Fprintf(h.writer, "[SCAN] Completed: %d files, %d directories in %d passes (%.1fs)\n",
			event.FileCount, event.DirCount, event.Pass, event.Duration.Seconds())
		h.printConciseUnpackSummary()

	case EventEnterDirectory:
		fmt.Fprintf(h.writer, "[DIR]  Entering: %s\n", event.Path)

	case EventFileCollected:
		// too noisy for the simple view

	case EventUnpacked:
		h.unpacked = append(h.unpacked, UnpackEntry{Path: event.Path, Size: event.Size})
		fmt.Fprintf(h.writer, "[UNPK] Unpacked: %s (%s, %s)\n", event.Path, humanize.IBytes(uint64(event.Size)), event.Info)

	case EventUnpackFailed:
		h.failed++
		fmt.Fprintf(h.writer, "[UNPK] Failed: %s (%s)\n", event.Path, event.Reason)

	case EventSkipped:
		fmt.Fprintf(h.writer, "[SKIP] Excluding: %s (%s)\n", event.Path, event.Reason)

	case EventPassComplete:
		fmt.Fprintf(h.writer, "[PASS] Pass %d done in %.2fs, %d archives queued\n",
			event.Pass, event.Duration.Seconds(), event.FileCount)

	case EventComponentDetected:
		fmt.Fprintf(h.writer, "[COMP] Detected: %s (%s) at %s\n", event.Name, event.Info, event.Path)

	case EventDuplicateClaim:
		fmt.Fprintf(h.writer, "[DUPL] %s claimed by %s\n", event.Path, event.Info)

	case EventFileWriting:
		fmt.Fprintf(h.writer, "[OUT]  Writing results to: %s\n", event.Path)

	case EventFileWritten:
		fmt.Fprintf(h.writer, "[OUT]  Results written: %s\n", event.Path)

	case EventInfo:
		fmt.Fprintf(h.writer, "[INFO] %s\n", event.Info)
	}
}

// printConciseUnpackSummary provides a human-readable unpack summary
func (h *SimpleHandler) printConciseUnpackSummary() {
	if len(h.unpacked) == 0 && h.failed == 0 {
		return
	}

	var total int64
	for _, e := range h.unpacked {
		total += e.Size
	}

	fmt.Fprintf(h.writer, "\n📦 UNPACK SUMMARY\n")
	fmt.Fprintf(h.writer, "   • Archives unpacked: %d (%s)\n", len(h.unpacked), humanize.IBytes(uint64(total)))
	if h.failed > 0 {
		fmt.Fprintf(h.writer, "   • ⚠️  Failed: %d\n", h.failed)
	} else {
		fmt.Fprintf(h.writer, "   • ✅ No extraction failures\n")
	}
	if len(h.unpacked) > 0 {
		largest := sortUnpacksBySize(h.unpacked)[0]
		fmt.Fprintf(h.writer, "   • Largest: %s (%s)\n", shortenPath(largest.Path, 50), humanize.IBytes(uint64(largest.Size)))
	}
	fmt.Fprintln(h.writer)
}
