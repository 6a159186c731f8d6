package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

const (
	// DefaultTimeout bounds a single external extraction
	DefaultTimeout = time.Hour
	// killGrace is how long a tool may run after SIGTERM before it is killed
	killGrace = 10 * time.Second
	// maxStderr caps the tool output kept for error messages
	maxStderr = 2048
)

// errToolNotFound marks a missing external binary
var errToolNotFound = errors.New("tool not found")

// runCommand runs an external tool with an absolute timeout. On expiry the
// process receives SIGTERM and is killed once killGrace has elapsed.
func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) error {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = killGrace

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s", name, timeout)
	}
	if err != nil {
		if msg := tail(stderr.String(), maxStderr); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// findTool resolves the first candidate present on PATH. An explicit path
// takes precedence and must exist.
func findTool(explicit string, candidates ...string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("%w: %s", errToolNotFound, explicit)
		}
		return explicit, nil
	}
	for _, c := range candidates {
		if p, err := exec.LookPath(c); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: %s", errToolNotFound, strings.Join(candidates, ", "))
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
