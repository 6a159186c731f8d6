package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// jmodMagic prefixes JDK module files; the zip payload follows it
var jmodMagic = []byte{'J', 'M', 0x01, 0x00}

// zipStrategy unpacks zip-based formats natively
type zipStrategy struct {
	logger *slog.Logger
}

func (s *zipStrategy) Name() string { return "zip" }

func (s *zipStrategy) Extract(ctx context.Context, src, dst string) Result {
	r, err := zip.OpenReader(src)
	if err != nil {
		if errors.Is(err, zip.ErrFormat) {
			return unsupported("not a zip archive")
		}
		return failed("open: %v", err)
	}
	defer r.Close()
	return extractZip(ctx, &r.Reader, dst, s.logger)
}

// jmodStrategy skips the jmod header and reads the remainder as a zip
type jmodStrategy struct {
	logger *slog.Logger
}

func (s *jmodStrategy) Name() string { return "jmod" }

func (s *jmodStrategy) Extract(ctx context.Context, src, dst string) Result {
	f, err := os.Open(src)
	if err != nil {
		return failed("open: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return failed("stat: %v", err)
	}
	header := make([]byte, len(jmodMagic))
	if _, err := io.ReadFull(f, header); err != nil || !bytes.Equal(header, jmodMagic) {
		return unsupported("missing jmod header")
	}

	size := info.Size() - int64(len(jmodMagic))
	r, err := zip.NewReader(io.NewSectionReader(f, int64(len(jmodMagic)), size), size)
	if err != nil {
		return failed("read jmod payload: %v", err)
	}
	return extractZip(ctx, r, dst, s.logger)
}

func extractZip(ctx context.Context, r *zip.Reader, dst string, logger *slog.Logger) Result {
	w := newEntryWriter(dst)

	for _, f := range r.File {
		if err := ctx.Err(); err != nil {
			return failed("cancelled: %v", err)
		}

		target, err := w.resolve(f.Name)
		if err != nil {
			logger.Warn("Skipping zip entry", "entry", f.Name, "error", err)
			w.issuef("%v", err)
			continue
		}

		mode := f.Mode()
		switch {
		case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
			if err := w.mkdir(target); err != nil {
				return failed("create directory %s: %v", f.Name, err)
			}
		case mode&os.ModeSymlink != 0:
			linkname, err := readZipEntry(f)
			if err != nil {
				return failed("read symlink %s: %v", f.Name, err)
			}
			if err := w.symlink(target, linkname); err != nil {
				logger.Warn("Cannot create symlink, skipping", "entry", f.Name, "error", err)
				w.issuef("symlink %s skipped: %v", f.Name, err)
			}
		default:
			if err := writeZipEntry(ctx, w, f, target); err != nil {
				return failed("extract %s: %v", f.Name, err)
			}
		}
	}
	return succeeded(w.issues)
}

func writeZipEntry(ctx context.Context, w *entryWriter, f *zip.File, target string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	return w.writeFile(ctx, target, rc, f.Mode())
}

func readZipEntry(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, 4096))
	if err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty link target")
	}
	return string(data), nil
}
