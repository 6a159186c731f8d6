package archive

import (
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Registry maps normalized extensions to ordered strategy chains
type Registry struct {
	mu     sync.RWMutex
	byExt  map[string][]Strategy
	byName map[string][]Strategy
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		byExt:  make(map[string][]Strategy),
		byName: make(map[string][]Strategy),
	}
}

// Register sets the strategy chain for an extension such as "jar" or ".tar.gz"
func (r *Registry) Register(ext string, chain ...Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byExt[NormalizeExtension(ext)] = chain
}

// RegisterName sets the strategy chain for files with an exact base name
func (r *Registry) RegisterName(name string, chain ...Strategy) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(name)] = chain
}

// Lookup returns the matched extension and strategy chain for a file.
// The longest registered suffix wins, so "a.tar.gz" resolves to "tar.gz".
func (r *Registry) Lookup(path string) (string, []Strategy) {
	base := strings.ToLower(filepath.Base(path))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if chain, ok := r.byName[base]; ok {
		return base, chain
	}
	for i := 0; i < len(base); i++ {
		if base[i] != '.' {
			continue
		}
		if chain, ok := r.byExt[base[i+1:]]; ok {
			return base[i+1:], chain
		}
	}
	return "", nil
}

// Supports reports whether any strategy is registered for the file
func (r *Registry) Supports(path string) bool {
	_, chain := r.Lookup(path)
	return len(chain) > 0
}

// Extensions returns the registered extensions, sorted
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// NormalizeExtension lower-cases and strips leading dots
func NormalizeExtension(ext string) string {
	return strings.TrimLeft(strings.ToLower(strings.TrimSpace(ext)), ".")
}

// Options configure the default strategies
type Options struct {
	// Timeout bounds each external tool invocation
	Timeout time.Duration
	// SevenZipPath overrides the 7-zip binary lookup
	SevenZipPath string
	Logger       *slog.Logger
}

var zipExtensions = []string{
	"zip", "jar", "war", "ear", "aar", "nupkg", "whl", "egg", "xpi",
	"hpi", "jpi", "kar", "sar", "rar", "ipa", "crx", "vsix",
}

var tarExtensions = []string{
	"tar", "tgz", "tar.gz", "tar.bz2", "tbz", "tbz2", "bz2",
	"tar.xz", "txz", "xz", "tar.zst", "zst", "gem",
}

// DefaultRegistry returns the registry with all built-in format families
func DefaultRegistry(opts Options) *Registry {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	zipNative := &zipStrategy{logger: logger}
	tarNative := &tarStrategy{logger: logger}
	sevenZip := &sevenZipStrategy{binary: opts.SevenZipPath, timeout: timeout}
	tarCommand := &tarCommandStrategy{timeout: timeout}

	r := NewRegistry()
	for _, ext := range zipExtensions {
		r.Register(ext, zipNative, sevenZip)
	}
	for _, ext := range tarExtensions {
		r.Register(ext, tarNative, sevenZip, tarCommand)
	}
	r.Register("gz", tarNative, sevenZip)
	// Android packages are zips, Alpine packages are gzipped tar streams
	r.Register("apk", zipNative, tarNative, sevenZip, tarCommand)
	r.Register("deb", &debStrategy{logger: logger}, sevenZip, tarCommand)
	r.Register("jmod", &jmodStrategy{logger: logger}, &jdkToolStrategy{tool: "jmod", timeout: timeout})
	r.Register("jimage", &jdkToolStrategy{tool: "jimage", timeout: timeout, magic: jimageMagic})
	r.RegisterName("modules", &jdkToolStrategy{tool: "jimage", timeout: timeout, magic: jimageMagic})
	for _, ext := range []string{"cab", "exe", "msi"} {
		r.Register(ext, sevenZip)
	}
	return r
}
