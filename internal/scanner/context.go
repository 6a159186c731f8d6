package scanner

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/petrarca/composition-scanner/internal/archive"
	"github.com/petrarca/composition-scanner/internal/checksum"
	"github.com/petrarca/composition-scanner/internal/inventory"
	"github.com/petrarca/composition-scanner/internal/progress"
	"github.com/petrarca/composition-scanner/internal/provider"
	"github.com/petrarca/composition-scanner/internal/scanner/matchers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Options supply the collaborators of a scan. Zero values are replaced by
// the defaults built from the scan parameters.
type Options struct {
	Extractor *archive.Extractor
	Checksums checksum.Service
	Progress  *progress.Progress
	Logger    *slog.Logger
	// RootAssetID overrides the id of the scan root asset
	RootAssetID string
}

type fileEntry struct {
	abs  string
	size int64
}

// ScanContext is the state shared by all tasks of one scan run. It owns the
// inventory; tasks only hold a pointer to the context.
type ScanContext struct {
	BaseDir   string
	Param     types.ScanParam
	Inventory *inventory.Inventory
	Provider  types.Provider
	Extractor *archive.Extractor
	Checksums checksum.Service
	Progress  *progress.Progress
	Logger    *slog.Logger

	collect *matchers.Filter
	unwrap  *matchers.Filter
	queue   *TaskQueue

	rootAssetID string
	assets      sync.Map // relative dir -> asset id
	files       sync.Map // relative path -> fileEntry

	issuesMu sync.Mutex
	issues   []string
}

// NewScanContext prepares a scan of baseDir. It fails when the base
// directory cannot be read.
func NewScanContext(baseDir string, param types.ScanParam, opts Options) (*ScanContext, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("cannot access base directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("base directory %s is not a directory", abs)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return nil, fmt.Errorf("cannot read base directory: %w", err)
	}

	param = param.WithDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	extractor := opts.Extractor
	if extractor == nil {
		registry := archive.DefaultRegistry(archive.Options{
			Timeout:      param.ExtractionTimeout,
			SevenZipPath: param.SevenZipPath,
			Logger:       logger,
		})
		extractor = archive.NewExtractor(registry, logger)
	}
	checksums := opts.Checksums
	if checksums == nil {
		calc, err := checksum.NewCalculator(checksum.DefaultCacheSize)
		if err != nil {
			return nil, err
		}
		checksums = calc
	}
	prog := opts.Progress
	if prog == nil {
		prog = progress.Disabled()
	}

	sc := &ScanContext{
		BaseDir:   abs,
		Param:     param,
		Inventory: inventory.New(),
		Provider:  provider.NewFSProvider(abs),
		Extractor: extractor,
		Checksums: checksums,
		Progress:  prog,
		Logger:    logger,
		collect:   matchers.NewFilter(param.CollectIncludes, param.CollectExcludes),
		unwrap:    matchers.NewFilter(param.UnwrapIncludes, param.UnwrapExcludes),
	}

	rootID := opts.RootAssetID
	if rootID == "" {
		rootID = types.AssetIDPrefix + filepath.Base(abs)
	}
	sc.rootAssetID = rootID
	sc.assets.Store("", rootID)
	sc.Inventory.PutAsset(types.NewAssetMetadata(rootID, ".", ""))
	return sc, nil
}

// RootAssetID returns the id of the scan root asset
func (sc *ScanContext) RootAssetID() string {
	return sc.rootAssetID
}

// Rel returns an absolute path relative to the base directory
func (sc *ScanContext) Rel(abs string) string {
	return sc.Provider.Rel(abs)
}

// Abs resolves a path relative to the base directory
func (sc *ScanContext) Abs(rel string) string {
	if rel == "" || rel == "." {
		return sc.BaseDir
	}
	return filepath.Join(sc.BaseDir, filepath.FromSlash(rel))
}

// Push schedules a task on the running queue
func (sc *ScanContext) Push(t Task) {
	sc.queue.Push(t)
}

// AddArtifact contributes an artifact to the inventory
func (sc *ScanContext) AddArtifact(a *types.Artifact) error {
	return sc.Inventory.AddArtifact(a)
}

// IndexFile records a collected file
func (sc *ScanContext) IndexFile(rel, abs string, size int64) {
	sc.files.Store(rel, fileEntry{abs: abs, size: size})
}

// Files returns every indexed file relative to the base directory, sorted
func (sc *ScanContext) Files() []string {
	var files []string
	sc.files.Range(func(k, _ any) bool {
		files = append(files, k.(string))
		return true
	})
	sort.Strings(files)
	return files
}

// FileChecksum returns the SHA-256 of an indexed file
func (sc *ScanContext) FileChecksum(rel string) (string, error) {
	v, ok := sc.files.Load(rel)
	if !ok {
		return "", fmt.Errorf("file %s is not indexed", rel)
	}
	digest, err := sc.Checksums.Compute(v.(fileEntry).abs)
	if err != nil {
		return "", err
	}
	return digest.SHA256, nil
}

// RegisterAsset records an unpacked archive as an asset rooted at relDir
// and returns its id
func (sc *ScanContext) RegisterAsset(relDir, name, sum string) string {
	id := assetID(name, sum)
	actual, loaded := sc.assets.LoadOrStore(relDir, id)
	if loaded {
		return actual.(string)
	}
	meta := types.NewAssetMetadata(id, relDir, sum)
	meta.Set("Archive", name)
	sc.Inventory.PutAsset(meta)
	return id
}

func assetID(name, sum string) string {
	if len(sum) > 16 {
		sum = sum[:16]
	}
	if sum == "" {
		return types.AssetIDPrefix + name
	}
	return types.AssetIDPrefix + name + "-" + sum
}

// AssetID returns the asset registered for a directory
func (sc *ScanContext) AssetID(relDir string) (string, bool) {
	v, ok := sc.assets.Load(relDir)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// AssetIDChain returns the ids of the assets enclosing rel, innermost first.
// The scan root asset is always last.
func (sc *ScanContext) AssetIDChain(rel string) []string {
	var chain []string
	p := rel
	for {
		if id, ok := sc.AssetID(p); ok {
			chain = append(chain, id)
		}
		if p == "" {
			break
		}
		p = parentDir(p)
	}
	return chain
}

func parentDir(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}

// AddIssue records human-readable extraction problems
func (sc *ScanContext) AddIssue(issues ...string) {
	if len(issues) == 0 {
		return
	}
	sc.issuesMu.Lock()
	defer sc.issuesMu.Unlock()
	sc.issues = append(sc.issues, issues...)
}

// Issues returns all recorded issues, sorted
func (sc *ScanContext) Issues() []string {
	sc.issuesMu.Lock()
	defer sc.issuesMu.Unlock()
	out := append([]string(nil), sc.issues...)
	sort.Strings(out)
	return out
}

// virtualDirFor returns the synthetic directory an archive is unpacked into
func virtualDirFor(abs string) string {
	return filepath.Join(filepath.Dir(abs), "["+filepath.Base(abs)+"]")
}
