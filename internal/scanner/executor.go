package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/petrarca/composition-scanner/internal/componentpattern"
	"github.com/petrarca/composition-scanner/internal/git"
	"github.com/petrarca/composition-scanner/internal/inventory"
	"github.com/petrarca/composition-scanner/internal/metadata"
	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/matchers"
	"github.com/petrarca/composition-scanner/internal/types"

	// Import component detectors to trigger init() registration
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/golang"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/java"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/nodejs"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/php"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/python"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/rust"
	_ "github.com/petrarca/composition-scanner/internal/scanner/components/terraform"
)

// sourceReference marks components found by reference patterns in progress output
const sourceReference = "reference"

// Result is the outcome of a scan run
type Result struct {
	Inventory  *inventory.Inventory
	Validation *componentpattern.ValidationResult
	Metadata   *metadata.ScanMetadata
	Passes     int
	Files      int
	Dirs       int
	Issues     []string
	Duration   time.Duration
}

// ScanExecutor drives the task pipeline to a fixed point and turns the
// collected files and artifacts into the final inventory
type ScanExecutor struct {
	sc        *ScanContext
	logger    *slog.Logger
	nested    []Inspector
	final     []Inspector
	detectors []components.Detector
	matcher   *componentpattern.Matcher
	validator *componentpattern.Validator
	merger    *inventory.Merger

	applied map[string]bool
	matches map[string]*componentpattern.Match

	files atomic.Int64
	dirs  atomic.Int64
}

// NewScanExecutor creates an executor with the default inspectors and the
// registered detectors
func NewScanExecutor(sc *ScanContext) *ScanExecutor {
	return &ScanExecutor{
		sc:        sc,
		logger:    sc.Logger,
		nested:    NestedInspectors(),
		final:     FinalInspectors(),
		detectors: components.GetDetectors(),
		matcher:   componentpattern.NewMatcher(sc.Logger),
		validator: componentpattern.NewValidator(sc.Logger),
		merger:    inventory.NewMerger(sc.Logger),
		applied:   make(map[string]bool),
		matches:   make(map[string]*componentpattern.Match),
	}
}

// SetInspectors replaces the nested and final inspectors
func (e *ScanExecutor) SetInspectors(nested, final []Inspector) {
	e.nested = nested
	e.final = final
}

// SetDetectors replaces the dynamic pattern detectors
func (e *ScanExecutor) SetDetectors(detectors []components.Detector) {
	e.detectors = detectors
}

// OnPush implements Listener
func (e *ScanExecutor) OnPush(Task) {}

// OnComplete implements Listener
func (e *ScanExecutor) OnComplete(t Task, state TaskState, _ error) {
	if state != TaskCompleted {
		return
	}
	switch t.(type) {
	case *DirectoryScanTask:
		e.dirs.Add(1)
	case *FileCollectTask:
		e.files.Add(1)
	}
}

// Execute scans the base directory. Passes repeat until inspection flags no
// further archive for unwrapping or MaxPasses is reached.
func (e *ScanExecutor) Execute(ctx context.Context) (*Result, error) {
	sc := e.sc
	start := time.Now()
	sc.Progress.ScanStart(sc.BaseDir, sc.Param.CollectExcludes)

	q := NewTaskQueue(sc, sc.Param.Workers, e)
	q.Start(ctx)
	defer q.Close()

	var reference, deferred []*types.ComponentPatternData
	for _, p := range sc.Param.ReferencePatterns {
		if p.Deferred {
			deferred = append(deferred, p)
		} else {
			reference = append(reference, p)
		}
	}

	q.Push(NewDirectoryScanTask(sc.BaseDir))
	passes := 0
	for {
		passes++
		passStart := time.Now()
		if err := q.Drain(ctx); err != nil {
			return nil, fmt.Errorf("scan pass %d: %w", passes, err)
		}

		e.inspectNew(ctx)
		if err := e.applyPatterns(reference, sourceReference); err != nil {
			return nil, err
		}

		flagged := e.flaggedForUnwrap()
		pending := len(flagged)
		if pending > 0 && passes >= sc.Param.MaxPasses {
			e.logger.Warn("Pass limit reached, archives left un-decomposed", "passes", passes, "pending", pending)
			sc.AddIssue(fmt.Sprintf("pass limit %d reached with %d archives pending", sc.Param.MaxPasses, pending))
			sc.Progress.PassComplete(passes, 0, time.Since(passStart))
			break
		}
		for _, a := range flagged {
			q.Push(NewArtifactUnwrapTask(a))
		}
		sc.Progress.PassComplete(passes, pending, time.Since(passStart))
		e.logger.Info("Scan pass complete", "pass", passes, "queued", pending, "duration", time.Since(passStart))
		if pending == 0 {
			break
		}
	}
	if err := q.Close(); err != nil {
		return nil, err
	}

	if sc.Param.DetectComponentPatterns {
		detected := e.detect(ctx)
		if err := e.applyPatterns(detected, ""); err != nil {
			return nil, err
		}
	}
	if err := e.applyPatterns(deferred, sourceReference); err != nil {
		return nil, err
	}
	validation := e.resolveClaims()

	e.inspectAll(ctx, e.final)
	propagateContainment(sc)
	if info := git.GetGitInfo(sc.BaseDir); info != nil {
		sc.Inventory.UpdateAsset(sc.RootAssetID(), info.Annotate)
	}

	merged := e.merger.MergeScanned(sc.Inventory)
	merged += e.merger.DropSuperseded(sc.Inventory)
	sc.Inventory.StripProcessingAttributes()
	merged += e.merger.MergeDuplicates(sc.Inventory)
	e.logger.Debug("Merged artifacts", "removed", merged)

	result := &Result{
		Inventory:  sc.Inventory,
		Validation: validation,
		Passes:     passes,
		Files:      int(e.files.Load()),
		Dirs:       int(e.dirs.Load()),
		Issues:     sc.Issues(),
		Duration:   time.Since(start),
	}
	result.Metadata = e.buildMetadata(result)
	sc.Progress.ScanComplete(result.Files, result.Dirs, passes, result.Duration)
	return result, nil
}

// inspectNew runs the nested inspectors on artifacts not inspected yet
func (e *ScanExecutor) inspectNew(ctx context.Context) {
	fresh := e.sc.Inventory.FindArtifacts(func(a *types.Artifact) bool {
		return !a.Has(types.AttrInspected)
	})
	for _, a := range fresh {
		e.inspect(ctx, e.nested, a)
		e.sc.Inventory.Update(a, func(a *types.Artifact) { a.Set(types.AttrInspected, "true") })
	}
}

func (e *ScanExecutor) inspectAll(ctx context.Context, inspectors []Inspector) {
	for _, a := range e.sc.Inventory.Artifacts() {
		e.inspect(ctx, inspectors, a)
	}
}

func (e *ScanExecutor) inspect(ctx context.Context, inspectors []Inspector, a *types.Artifact) {
	for _, in := range inspectors {
		if err := in.Inspect(ctx, e.sc, a); err != nil {
			e.logger.Warn("Inspection failed", "inspector", in.Name(), "artifact", a.ID, "error", err)
		}
	}
}

// flaggedForUnwrap returns the artifacts inspection marked for unwrapping
// that have not been processed yet
func (e *ScanExecutor) flaggedForUnwrap() []*types.Artifact {
	return e.sc.Inventory.FindArtifacts(func(a *types.Artifact) bool {
		return a.Get(types.AttrScanDirective) == types.DirectiveUnwrap &&
			!a.IsClassified(types.ClassificationAtomic) &&
			!a.Has(types.AttrUnwrapped) && !a.Has(types.AttrUnwrapFailed)
	})
}

func (e *ScanExecutor) index() componentpattern.Index {
	sc := e.sc
	return componentpattern.Index{
		Files:    sc.Files(),
		ScanRoot: sc.BaseDir,
		Checksum: sc.FileChecksum,
		AssetIDChain: func(rel string) []string {
			return sc.AssetIDChain(parentDir(rel))
		},
	}
}

// applyPatterns matches patterns against the current file index. Each
// occurrence contributes its artifact once; claims of known occurrences
// are refreshed so files unpacked in later passes are included.
func (e *ScanExecutor) applyPatterns(patterns []*types.ComponentPatternData, source string) error {
	if len(patterns) == 0 {
		return nil
	}
	for _, m := range e.matcher.Match(patterns, e.index()) {
		key := m.Key()
		e.matches[key] = m
		if e.applied[key] {
			continue
		}
		e.applied[key] = true

		a := m.Artifact()
		if err := e.sc.AddArtifact(a); err != nil {
			return fmt.Errorf("component pattern %s: %w", m.Pattern.Qualifier(), err)
		}
		e.sc.Inventory.AddComponentPattern(m.Pattern)

		from := source
		if from == "" {
			from = m.Pattern.Attributes[components.AttrDetector]
		}
		e.sc.Progress.ComponentDetected(a.ID, from, a.Get(types.AttrPathInAsset))
		e.logger.Debug("Component pattern matched", "qualifier", m.Pattern.Qualifier(), "anchor", m.AnchorPath)
	}
	return nil
}

// detect runs the dynamic detectors on every indexed file matching their anchors
func (e *ScanExecutor) detect(ctx context.Context) []*types.ComponentPatternData {
	files := e.sc.Files()
	var patterns []*types.ComponentPatternData
	for _, d := range e.detectors {
		anchors := matchers.NewPatternMatcher(d.Anchors()...)
		for _, rel := range files {
			if ctx.Err() != nil {
				return patterns
			}
			if !anchors.Match(rel) {
				continue
			}
			content, err := e.sc.Provider.ReadFile(e.sc.Abs(rel))
			if err != nil {
				e.logger.Warn("Cannot read manifest", "detector", d.Name(), "path", rel, "error", err)
				continue
			}
			found, err := d.Detect(rel, content)
			if err != nil {
				e.logger.Warn("Manifest not understood", "detector", d.Name(), "path", rel, "error", err)
				continue
			}
			patterns = append(patterns, found...)
		}
	}
	e.logger.Info("Dynamic detection complete", "patterns", len(patterns))
	return patterns
}

// resolveClaims validates the claims of all occurrences and removes the
// plain file artifacts that ended up inside a component
func (e *ScanExecutor) resolveClaims() *componentpattern.ValidationResult {
	keys := make([]string, 0, len(e.matches))
	for k := range e.matches {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	matches := make([]*componentpattern.Match, 0, len(keys))
	for _, k := range keys {
		matches = append(matches, e.matches[k])
	}

	result := e.validator.Validate(componentpattern.ClaimsFromMatches(matches))
	for _, path := range result.DuplicatePaths() {
		e.sc.Progress.DuplicateClaim(path, result.Duplicates[path])
	}
	if !result.Valid() {
		e.logger.Warn("Files claimed by several components", "count", len(result.Duplicates))
	}

	claimed := result.ClaimedFiles()
	contained := e.sc.Inventory.FindArtifacts(func(a *types.Artifact) bool {
		if a.IsClassified(types.ClassificationScan) || a.Get(types.AttrComponentSourceType) != types.SourceTypeFile {
			return false
		}
		paths := a.PathsInAsset()
		return len(paths) == 1 && claimed[paths[0]]
	})
	e.sc.Inventory.RemoveArtifacts(contained...)
	e.logger.Debug("Removed files contained in components", "count", len(contained))
	return result
}

func (e *ScanExecutor) buildMetadata(r *Result) *metadata.ScanMetadata {
	m := metadata.NewScanMetadata(e.sc.BaseDir)
	m.SetDuration(r.Duration)
	m.SetWalkCounts(r.Passes, r.Files, r.Dirs)
	m.SetInventoryCounts(len(r.Inventory.Artifacts()), len(r.Inventory.ComponentPatterns()), len(r.Inventory.Assets()))
	m.Issues = r.Issues
	m.Duplicates = r.Validation.DuplicatePaths()
	m.Git = git.GetGitInfo(e.sc.BaseDir)
	return m
}
