package types

// Provider defines the interface for file system operations
type Provider interface {
	// ListDir returns the contents of a directory. Symbolic links are
	// reported, never followed.
	ListDir(path string) ([]File, error)

	// ReadFile reads file content as bytes
	ReadFile(path string) ([]byte, error)

	// Rel returns a path relative to the base path, slash separated. The
	// base path itself is "".
	Rel(path string) string

	// GetBasePath returns the base path for this provider
	GetBasePath() string
}

// File represents a file or directory entry
type File struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Type     string `json:"type"` // "file", "dir" or "symlink"
	Size     int64  `json:"size"`
	Modified int64  `json:"modified"`
}

// IsDir reports whether the entry is a directory
func (f File) IsDir() bool {
	return f.Type == "dir"
}
