package provider

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petrarca/composition-scanner/internal/types"
)

// FSProvider implements the Provider interface for local file systems
type FSProvider struct {
	rootPath string
}

var _ types.Provider = (*FSProvider)(nil)

// NewFSProvider creates a new file system provider
func NewFSProvider(rootPath string) *FSProvider {
	return &FSProvider{
		rootPath: strings.TrimSuffix(rootPath, "/"),
	}
}

// ListDir returns the contents of a directory sorted by name.
// Symbolic links are reported with type "symlink" and never followed.
func (p *FSProvider) ListDir(path string) ([]types.File, error) {
	fullPath := p.getFullPath(path)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	files := make([]types.File, 0, len(entries))

	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue // Entry vanished between ReadDir and Lstat
		}

		fileType := "file"
		switch {
		case entry.Type()&os.ModeSymlink != 0:
			fileType = "symlink"
		case entry.IsDir():
			fileType = "dir"
		case !info.Mode().IsRegular():
			// sockets, devices and pipes cannot be collected
			continue
		}

		files = append(files, types.File{
			Name:     entry.Name(),
			Path:     filepath.Join(fullPath, entry.Name()),
			Type:     fileType,
			Size:     info.Size(),
			Modified: info.ModTime().Unix(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ReadFile reads file content as bytes
func (p *FSProvider) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(p.getFullPath(path))
}

// Rel returns path relative to the provider root using forward slashes
func (p *FSProvider) Rel(path string) string {
	rel, err := filepath.Rel(p.rootPath, p.getFullPath(path))
	if err != nil {
		return filepath.ToSlash(path)
	}
	if rel == "." {
		return ""
	}
	return filepath.ToSlash(rel)
}

// getFullPath converts a relative path to an absolute path
func (p *FSProvider) getFullPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	if path == "." || path == "" {
		return p.rootPath
	}

	return filepath.Join(p.rootPath, path)
}

// GetBasePath returns the base path for this provider
func (p *FSProvider) GetBasePath() string {
	return p.rootPath
}
