package scanner

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/petrarca/composition-scanner/internal/types"
)

type baseTask struct {
	state atomic.Int32
}

func (b *baseTask) State() TaskState {
	return TaskState(b.state.Load())
}

func (b *baseTask) setState(s TaskState) {
	b.state.Store(int32(s))
}

// DirectoryScanTask lists one directory and fans out a task per accepted child
type DirectoryScanTask struct {
	baseTask
	Path string
}

// NewDirectoryScanTask creates a task for an absolute directory path
func NewDirectoryScanTask(path string) *DirectoryScanTask {
	return &DirectoryScanTask{Path: path}
}

func (t *DirectoryScanTask) Name() string {
	return "scan-dir:" + t.Path
}

func (t *DirectoryScanTask) Run(ctx context.Context, sc *ScanContext) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	entries, err := sc.Provider.ListDir(t.Path)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", t.Path, err)
	}

	sc.Progress.EnterDirectory(sc.Rel(t.Path))
	for _, entry := range entries {
		rel := sc.Rel(entry.Path)
		switch {
		case entry.Type == "symlink":
			sc.Progress.Skipped(rel, "symlink")
		case entry.IsDir():
			// directories are only pruned by excludes; includes select files
			if sc.collect.Excluded(rel) || sc.collect.Excluded(rel+"/") {
				sc.Progress.Skipped(rel, "excluded")
				continue
			}
			sc.Push(NewDirectoryScanTask(entry.Path))
		default:
			if !sc.collect.Accept(rel) {
				continue
			}
			sc.Push(NewFileCollectTask(entry.Path, entry.Size))
		}
	}
	return nil
}

// FileCollectTask records one file and either unpacks it or turns it into
// an artifact. An unpacked archive is kept as a superseded container so
// that components derived from its contents can be merged into it.
type FileCollectTask struct {
	baseTask
	Path string
	Size int64
}

// NewFileCollectTask creates a task for an absolute file path
func NewFileCollectTask(path string, size int64) *FileCollectTask {
	return &FileCollectTask{Path: path, Size: size}
}

func (t *FileCollectTask) Name() string {
	return "collect:" + t.Path
}

func (t *FileCollectTask) Run(ctx context.Context, sc *ScanContext) error {
	rel := sc.Rel(t.Path)
	sc.IndexFile(rel, t.Path, t.Size)
	sc.Progress.FileCollected(rel, t.Size)

	digest, err := sc.Checksums.Compute(t.Path)
	if err != nil {
		return fmt.Errorf("failed to checksum %s: %w", rel, err)
	}

	a := newFileArtifact(sc, t.Path, rel, digest.SHA256, digest.SHA1)

	if sc.Param.ImplicitUnwrap && sc.unwrap.Accept(rel) && sc.Extractor.Supports(t.Path) {
		if unwrapInto(ctx, sc, a, t.Path, t.Size) {
			a.Set(types.AttrSuperseded, "true")
		} else {
			a.Set(types.AttrUnwrapFailed, "true")
		}
	}
	return sc.AddArtifact(a)
}

// ArtifactUnwrapTask unpacks an archive artifact that inspection flagged
type ArtifactUnwrapTask struct {
	baseTask
	Artifact *types.Artifact
}

// NewArtifactUnwrapTask creates a task for an inventory artifact
func NewArtifactUnwrapTask(a *types.Artifact) *ArtifactUnwrapTask {
	return &ArtifactUnwrapTask{Artifact: a}
}

func (t *ArtifactUnwrapTask) Name() string {
	return "unwrap:" + t.Artifact.Get(types.AttrArtifactPath)
}

func (t *ArtifactUnwrapTask) Run(ctx context.Context, sc *ScanContext) error {
	a := t.Artifact
	var path string
	skip := false
	sc.Inventory.Update(a, func(a *types.Artifact) {
		path = a.Get(types.AttrArtifactPath)
		skip = a.IsClassified(types.ClassificationAtomic) || a.Has(types.AttrUnwrapped) ||
			a.Has(types.AttrUnwrapFailed) || path == ""
	})
	if skip {
		return nil
	}

	size := int64(0)
	if v, ok := sc.files.Load(sc.Rel(path)); ok {
		size = v.(fileEntry).size
	}

	clone := a.Clone()
	ok := unwrapInto(ctx, sc, clone, path, size)
	sc.Inventory.Update(a, func(a *types.Artifact) {
		a.Set(types.AttrScanDirective, "")
		if !ok {
			a.Set(types.AttrUnwrapFailed, "true")
			return
		}
		a.Classify(types.ClassificationScan)
		a.Set(types.AttrUnwrapped, "true")
		a.Set(types.AttrExtractedPath, clone.Get(types.AttrExtractedPath))
		a.Set(types.AttrComponentSourceType, types.SourceTypeArchive)
	})
	return nil
}

// unwrapInto extracts the archive at abs into its [name] directory. On
// success a is turned into the scan-classified container artifact, the
// directory is registered as an asset and queued for scanning.
func unwrapInto(ctx context.Context, sc *ScanContext, a *types.Artifact, abs string, size int64) bool {
	rel := sc.Rel(abs)
	target := virtualDirFor(abs)

	ok, issues := sc.Extractor.Unpack(ctx, abs, target)
	if !ok {
		sc.AddIssue(issues...)
		sc.Progress.UnpackFailed(rel, strings.Join(issues, "; "))
		sc.Logger.Warn("Archive left un-decomposed", "path", rel, "issues", len(issues))
		return false
	}

	targetRel := sc.Rel(target)
	sc.RegisterAsset(targetRel, filepath.Base(abs), a.Checksum)
	ext, _ := sc.Extractor.Registry().Lookup(abs)
	sc.Progress.Unpacked(rel, size, ext)

	a.Classify(types.ClassificationScan)
	a.Set(types.AttrUnwrapped, "true")
	a.Set(types.AttrExtractedPath, targetRel)
	a.Set(types.AttrComponentSourceType, types.SourceTypeArchive)
	a.Set(types.AttrScanDirective, "")

	sc.Push(NewDirectoryScanTask(target))
	return true
}

// newFileArtifact builds the leaf artifact for a collected file
func newFileArtifact(sc *ScanContext, abs, rel, sha256, sha1 string) *types.Artifact {
	a := types.NewArtifact(filepath.Base(abs))
	a.Checksum = sha256
	a.SecondaryHash = sha1
	a.Set(types.AttrChecksumSHA1, sha1)
	a.Set(types.AttrComponentSourceType, types.SourceTypeFile)
	a.Set(types.AttrArtifactPath, abs)
	a.AddPathInAsset(rel)
	a.Set(types.AttrAssetIDChain, strings.Join(sc.AssetIDChain(parentDir(rel)), types.ChainSeparator))
	return a
}
