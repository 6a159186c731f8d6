package archive

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/blakesmith/ar"
)

const arMagic = "!<arch>\n"

// debStrategy unpacks the ar container of a Debian package. The control and
// data tarballs are written out as files and picked up by the next scan pass.
type debStrategy struct {
	logger *slog.Logger
}

func (s *debStrategy) Name() string { return "ar" }

func (s *debStrategy) Extract(ctx context.Context, src, dst string) Result {
	f, err := os.Open(src)
	if err != nil {
		return failed("open: %v", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	magic, err := br.Peek(len(arMagic))
	if err != nil || string(magic) != arMagic {
		return unsupported("not an ar archive")
	}

	w := newEntryWriter(dst)
	r := ar.NewReader(br)
	for {
		if err := ctx.Err(); err != nil {
			return failed("cancelled: %v", err)
		}
		hdr, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return failed("read member: %v", err)
		}

		// GNU ar terminates member names with a slash
		name := strings.TrimSuffix(strings.TrimSpace(hdr.Name), "/")
		if name == "" {
			continue
		}
		target, err := w.resolve(name)
		if err != nil {
			s.logger.Warn("Skipping ar member", "member", name, "error", err)
			w.issuef("%v", err)
			continue
		}
		if err := w.writeFile(ctx, target, io.LimitReader(r, hdr.Size), os.FileMode(hdr.Mode)); err != nil {
			return failed("extract %s: %v", name, err)
		}
	}
	return succeeded(w.issues)
}
