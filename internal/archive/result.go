package archive

import (
	"context"
	"fmt"
)

// Outcome is the tagged result of one extraction strategy
type Outcome int

const (
	// Success means the archive was fully unpacked
	Success Outcome = iota
	// Unsupported means the strategy does not handle this file; the next one is tried
	Unsupported
	// Failed means the strategy handles the format but could not unpack it
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Unsupported:
		return "unsupported"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Result is returned by every strategy. Issues carries non-fatal problems
// such as skipped entries.
type Result struct {
	Outcome Outcome
	Reason  string
	Issues  []string
}

// NewResult creates a result for custom strategies
func NewResult(outcome Outcome, reason string, issues ...string) Result {
	return Result{Outcome: outcome, Reason: reason, Issues: issues}
}

func succeeded(issues []string) Result {
	return Result{Outcome: Success, Issues: issues}
}

func unsupported(format string, args ...any) Result {
	return Result{Outcome: Unsupported, Reason: fmt.Sprintf(format, args...)}
}

func failed(format string, args ...any) Result {
	return Result{Outcome: Failed, Reason: fmt.Sprintf(format, args...)}
}

// Strategy unpacks one archive format into a directory
type Strategy interface {
	Name() string
	Extract(ctx context.Context, src, dst string) Result
}
