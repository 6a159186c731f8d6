package archive

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
)

// entryWriter materializes archive entries below root. It refuses entries
// that would land outside root lexically and entries whose parent directory
// is reached through a symlink.
type entryWriter struct {
	root   string
	issues []string
}

func newEntryWriter(root string) *entryWriter {
	return &entryWriter{root: filepath.Clean(root)}
}

func (w *entryWriter) issuef(format string, args ...any) {
	w.issues = append(w.issues, fmt.Sprintf(format, args...))
}

// resolve maps an entry name to a path below root
func (w *entryWriter) resolve(name string) (string, error) {
	rel := filepath.FromSlash(strings.TrimLeft(strings.ReplaceAll(name, "\\", "/"), "/"))
	if rel == "" || filepath.Clean(rel) == "." {
		return w.root, nil
	}
	if !filepath.IsLocal(rel) {
		return "", fmt.Errorf("entry %q escapes the target directory", name)
	}
	rel = filepath.Clean(rel)

	// a parent that is a symlink could redirect the write
	parent := filepath.Dir(rel)
	if parent == "." {
		return filepath.Join(w.root, rel), nil
	}
	resolved, err := securejoin.SecureJoin(w.root, parent)
	if err != nil {
		return "", fmt.Errorf("entry %q: %w", name, err)
	}
	if resolved != filepath.Join(w.root, parent) {
		return "", fmt.Errorf("entry %q is below symlink, resolves to %s", name, w.relative(resolved))
	}
	return filepath.Join(resolved, filepath.Base(rel)), nil
}

func (w *entryWriter) mkdir(target string) error {
	if err := os.MkdirAll(target, 0755); err != nil {
		return err
	}
	propagateOwner(target)
	return nil
}

func (w *entryWriter) writeFile(ctx context.Context, target string, r io.Reader, mode os.FileMode) error {
	if err := w.mkdir(filepath.Dir(target)); err != nil {
		return err
	}
	// replace whatever an earlier duplicate entry left behind
	if info, err := os.Lstat(target); err == nil && !info.IsDir() {
		_ = os.Remove(target)
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode.Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, &ctxReader{ctx: ctx, r: r}); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	propagateOwner(target)
	return nil
}

func (w *entryWriter) symlink(target, linkname string) error {
	if err := w.mkdir(filepath.Dir(target)); err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		_ = os.RemoveAll(target)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return err
	}
	propagateOwner(target)
	return nil
}

func (w *entryWriter) hardlink(target, source string) error {
	if err := w.mkdir(filepath.Dir(target)); err != nil {
		return err
	}
	if _, err := os.Lstat(target); err == nil {
		_ = os.Remove(target)
	}
	if err := os.Link(source, target); err == nil {
		propagateOwner(target)
		return nil
	}
	return copyFile(source, target)
}

func (w *entryWriter) relative(target string) string {
	rel, err := filepath.Rel(w.root, target)
	if err != nil {
		return target
	}
	return rel
}

// copyFile copies a regular file, keeping its permission bits
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm()|0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	propagateOwner(dst)
	return nil
}

// ctxReader stops a copy once the context is done
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
