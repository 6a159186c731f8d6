package archive

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Extractor unpacks archives by running the strategy chain registered for
// the file's extension until one succeeds
type Extractor struct {
	registry *Registry
	logger   *slog.Logger
}

// NewExtractor creates an extractor over the given registry
func NewExtractor(registry *Registry, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if registry == nil {
		registry = DefaultRegistry(Options{Logger: logger})
	}
	return &Extractor{registry: registry, logger: logger}
}

// Registry returns the extension registry
func (e *Extractor) Registry() *Registry {
	return e.registry
}

// Supports reports whether the file looks like an archive this extractor handles
func (e *Extractor) Supports(path string) bool {
	return e.registry.Supports(path)
}

// Unpack extracts file into targetDir. It returns whether a strategy
// succeeded plus human-readable issues. When targetDir did not exist before
// the call it is removed again if every strategy fails.
func (e *Extractor) Unpack(ctx context.Context, file, targetDir string) (bool, []string) {
	name := filepath.Base(file)
	ext, chain := e.registry.Lookup(file)
	if len(chain) == 0 {
		return false, []string{fmt.Sprintf("%s: no extraction strategy registered", name)}
	}

	created, err := ensureDir(targetDir)
	if err != nil {
		return false, []string{fmt.Sprintf("%s: cannot create target directory: %v", name, err)}
	}

	var issues []string
	for i, strategy := range chain {
		if err := ctx.Err(); err != nil {
			issues = append(issues, fmt.Sprintf("%s: extraction cancelled: %v", name, err))
			break
		}

		res := strategy.Extract(ctx, file, targetDir)
		switch res.Outcome {
		case Success:
			e.logger.Debug("Archive unpacked", "file", file, "strategy", strategy.Name(), "extension", ext)
			return true, append(issues, res.Issues...)
		case Unsupported:
			e.logger.Debug("Strategy does not support archive", "file", file, "strategy", strategy.Name(), "reason", res.Reason)
		case Failed:
			e.logger.Warn("Extraction strategy failed", "file", file, "strategy", strategy.Name(), "reason", res.Reason)
			issues = append(issues, fmt.Sprintf("%s: %s: %s", name, strategy.Name(), res.Reason))
		}

		if created && i < len(chain)-1 {
			if err := clearDir(targetDir); err != nil {
				e.logger.Warn("Failed to clear partial extraction", "dir", targetDir, "error", err)
			}
		}
	}

	if created {
		if err := os.RemoveAll(targetDir); err != nil {
			e.logger.Warn("Failed to roll back target directory", "dir", targetDir, "error", err)
		}
	}
	if len(issues) == 0 {
		issues = append(issues, fmt.Sprintf("%s: no strategy could unpack the file", name))
	}
	return false, issues
}

// ensureDir creates dir if needed and reports whether it was created
func ensureDir(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", dir)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}
	return true, nil
}

// clearDir removes the contents of dir but keeps dir itself
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}
