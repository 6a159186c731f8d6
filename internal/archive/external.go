package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"
)

// jimageMagic starts every JDK runtime image (0xCAFEDADA, little endian)
var jimageMagic = []byte{0xda, 0xda, 0xfe, 0xca}

// sevenZipStrategy shells out to 7-zip
type sevenZipStrategy struct {
	binary  string
	timeout time.Duration
}

func (s *sevenZipStrategy) Name() string { return "7z" }

func (s *sevenZipStrategy) Extract(ctx context.Context, src, dst string) Result {
	bin, err := findTool(s.binary, "7z", "7zz", "7za")
	if err != nil {
		return failed("%v", err)
	}
	if err := runCommand(ctx, s.timeout, bin, "x", "-y", "-o"+dst, src); err != nil {
		return failed("%v", err)
	}
	return succeeded(nil)
}

// tarCommandStrategy shells out to the platform tar
type tarCommandStrategy struct {
	timeout time.Duration
}

func (s *tarCommandStrategy) Name() string { return "tar-command" }

func (s *tarCommandStrategy) Extract(ctx context.Context, src, dst string) Result {
	bin, err := findTool("", "tar")
	if err != nil {
		return failed("%v", err)
	}
	if err := runCommand(ctx, s.timeout, bin, "-xf", src, "-C", dst); err != nil {
		return failed("%v", err)
	}
	return succeeded(nil)
}

// jdkToolStrategy runs "jmod extract" or "jimage extract" from a JDK.
// JAVA_HOME is consulted before PATH.
type jdkToolStrategy struct {
	tool    string
	timeout time.Duration
	magic   []byte
}

func (s *jdkToolStrategy) Name() string { return s.tool }

func (s *jdkToolStrategy) Extract(ctx context.Context, src, dst string) Result {
	if len(s.magic) > 0 {
		head, err := readHead(src, len(s.magic))
		if err != nil {
			return failed("read: %v", err)
		}
		if !bytes.Equal(head, s.magic) {
			return unsupported("not a %s file", s.tool)
		}
	}

	explicit := ""
	if home := os.Getenv("JAVA_HOME"); home != "" {
		candidate := filepath.Join(home, "bin", s.tool)
		if _, err := os.Stat(candidate); err == nil {
			explicit = candidate
		}
	}
	bin, err := findTool(explicit, s.tool)
	if err != nil {
		return failed("JDK %v", err)
	}
	if err := runCommand(ctx, s.timeout, bin, "extract", "--dir", dst, src); err != nil {
		return failed("%v", err)
	}
	return succeeded(nil)
}
