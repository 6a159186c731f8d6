package archive

import (
	"archive/tar"
	"bytes"
	"compress/bzip2"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

// maxWrapperDepth bounds nested compression layers such as .tar.gz.gz
const maxWrapperDepth = 4

// compression describes one outer wrapper recognized by its magic bytes
type compression struct {
	name   string
	magic  []byte
	reader func(io.Reader) (io.ReadCloser, error)
}

var compressions = []compression{
	{
		name:  "gzip",
		magic: []byte{0x1f, 0x8b},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			gr, err := gzip.NewReader(r)
			if err != nil {
				return nil, err
			}
			return gr, nil
		},
	},
	{
		name:  "bzip2",
		magic: []byte("BZh"),
		reader: func(r io.Reader) (io.ReadCloser, error) {
			return io.NopCloser(bzip2.NewReader(r)), nil
		},
	},
	{
		name:  "xz",
		magic: []byte{0xfd, '7', 'z', 'X', 'Z', 0x00},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			xr, err := xz.NewReader(r)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(xr), nil
		},
	},
	{
		name:  "zstd",
		magic: []byte{0x28, 0xb5, 0x2f, 0xfd},
		reader: func(r io.Reader) (io.ReadCloser, error) {
			d, err := zstd.NewReader(r)
			if err != nil {
				return nil, err
			}
			return d.IOReadCloser(), nil
		},
	},
}

// compressedSuffixes are removed from the name of a decompressed non-tar payload
var compressedSuffixes = []string{".tgz", ".tbz", ".tbz2", ".txz", ".gz", ".bz2", ".xz", ".zst"}

// tarStrategy strips compression wrappers into intermediate files and then
// unpacks the tar layer. A decompressed payload that is not a tar is written
// to the target directory as a single file.
type tarStrategy struct {
	logger *slog.Logger
}

func (s *tarStrategy) Name() string { return "tar" }

func (s *tarStrategy) Extract(ctx context.Context, src, dst string) Result {
	var intermediates []string
	defer func() {
		for _, p := range intermediates {
			if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
				s.logger.Warn("Failed to remove intermediate file", "path", p, "error", err)
			}
		}
	}()

	current := src
	for depth := 0; depth < maxWrapperDepth; depth++ {
		c, err := sniffCompression(current)
		if err != nil {
			return failed("read: %v", err)
		}
		if c == nil {
			break
		}
		next, err := decompressToTemp(ctx, current, c)
		if next != "" {
			intermediates = append(intermediates, next)
		}
		if err != nil {
			return failed("%s: %v", c.name, err)
		}
		current = next
	}

	isTar, err := looksLikeTar(current)
	if err != nil {
		return failed("read: %v", err)
	}
	if isTar {
		return s.extractTar(ctx, current, dst)
	}
	if len(intermediates) > 0 {
		target := filepath.Join(dst, strippedName(src))
		if err := copyFile(current, target); err != nil {
			return failed("write payload: %v", err)
		}
		return succeeded(nil)
	}
	return unsupported("not a tar archive")
}

func (s *tarStrategy) extractTar(ctx context.Context, path, dst string) Result {
	f, err := os.Open(path)
	if err != nil {
		return failed("open: %v", err)
	}
	defer f.Close()

	w := newEntryWriter(dst)
	tr := tar.NewReader(f)
	for {
		if err := ctx.Err(); err != nil {
			return failed("cancelled: %v", err)
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return failed("read entry: %v", err)
		}

		if hdr.Typeflag == tar.TypeXGlobalHeader {
			continue
		}
		target, err := w.resolve(hdr.Name)
		if err != nil {
			s.logger.Warn("Skipping tar entry", "entry", hdr.Name, "error", err)
			w.issuef("%v", err)
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := w.mkdir(target); err != nil {
				return failed("create directory %s: %v", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := w.writeFile(ctx, target, tr, hdr.FileInfo().Mode()); err != nil {
				return failed("extract %s: %v", hdr.Name, err)
			}
			_ = os.Chtimes(target, hdr.AccessTime, hdr.ModTime)
		case tar.TypeSymlink:
			if err := w.symlink(target, hdr.Linkname); err != nil {
				s.logger.Warn("Cannot create symlink, skipping", "entry", hdr.Name, "link", hdr.Linkname, "error", err)
				w.issuef("symlink %s skipped: %v", hdr.Name, err)
			}
		case tar.TypeLink:
			source, err := w.resolve(hdr.Linkname)
			if err != nil {
				w.issuef("hard link %s skipped: %v", hdr.Name, err)
				continue
			}
			if err := w.hardlink(target, source); err != nil {
				s.logger.Warn("Cannot create hard link, skipping", "entry", hdr.Name, "link", hdr.Linkname, "error", err)
				w.issuef("hard link %s skipped: %v", hdr.Name, err)
			}
		default:
			s.logger.Debug("Skipping special tar entry", "entry", hdr.Name, "type", string(hdr.Typeflag))
		}
	}
	return succeeded(w.issues)
}

// sniffCompression returns the wrapper the file starts with, or nil
func sniffCompression(path string) (*compression, error) {
	head, err := readHead(path, 8)
	if err != nil {
		return nil, err
	}
	for i := range compressions {
		if bytes.HasPrefix(head, compressions[i].magic) {
			return &compressions[i], nil
		}
	}
	return nil, nil
}

func decompressToTemp(ctx context.Context, path string, c *compression) (string, error) {
	in, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer in.Close()

	rc, err := c.reader(in)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	out, err := os.CreateTemp("", "composition-scanner-"+c.name+"-*")
	if err != nil {
		return "", err
	}
	name := out.Name()
	if _, err := io.Copy(out, &ctxReader{ctx: ctx, r: rc}); err != nil {
		out.Close()
		return name, err
	}
	return name, out.Close()
}

// looksLikeTar checks the first header block for the ustar magic or a valid
// v7 header checksum. An all-zero block is an empty archive.
func looksLikeTar(path string) (bool, error) {
	block, err := readHead(path, 512)
	if err != nil {
		return false, err
	}
	if len(block) < 512 {
		return false, nil
	}
	if bytes.Equal(block[257:262], []byte("ustar")) {
		return true, nil
	}
	if bytes.Count(block, []byte{0}) == len(block) {
		return true, nil
	}

	recorded, err := strconv.ParseInt(strings.Trim(string(block[148:156]), " \x00"), 8, 64)
	if err != nil {
		return false, nil
	}
	var sum int64
	for i, b := range block {
		if i >= 148 && i < 156 {
			b = ' '
		}
		sum += int64(b)
	}
	return sum == recorded, nil
}

func readHead(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return buf[:read], nil
}

// strippedName derives the name of a decompressed single-file payload
func strippedName(src string) string {
	base := filepath.Base(src)
	lower := strings.ToLower(base)
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(lower, suffix) && len(base) > len(suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return fmt.Sprintf("%s.payload", base)
}
