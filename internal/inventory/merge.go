package inventory

import (
	"log/slog"
	"strings"

	"github.com/petrarca/composition-scanner/internal/types"
)

// Merger collapses artifacts that describe the same logical artifact
type Merger struct {
	logger *slog.Logger
}

// NewMerger creates a merger
func NewMerger(logger *slog.Logger) *Merger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Merger{logger: logger}
}

// MergeDuplicates groups artifacts with equal content: by checksum when one
// is present, else by qualifier. Within each group the first artifact in
// sorted order survives, takes the union of all path-in-asset values and
// absorbs anything it lacks from the others, which are removed. It returns
// the number of removed artifacts.
func (m *Merger) MergeDuplicates(inv *Inventory) int {
	artifacts := inv.Artifacts()
	SortArtifacts(artifacts)

	groups := make(map[string][]*types.Artifact)
	var order []string
	for _, a := range artifacts {
		key := mergeKey(a)
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], a)
	}

	var removed []*types.Artifact
	for _, key := range order {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		survivor := group[0]
		inv.Update(survivor, func(s *types.Artifact) {
			paths := s.PathsInAsset()
			for _, other := range group[1:] {
				paths = append(paths, other.PathsInAsset()...)
				s.Absorb(other)
			}
			s.SetPathsInAsset(paths)
		})
		removed = append(removed, group[1:]...)
		m.logger.Debug("Merged duplicate artifacts", "key", key, "count", len(group))
	}

	inv.RemoveArtifacts(removed...)
	return len(removed)
}

// MergeScanned folds artifacts derived for an unpacked archive into the
// scan-classified artifact of that archive. The two are paired when id and
// version agree and the derived artifact's virtual root is the directory
// the archive was extracted to. It returns the number of removed artifacts.
func (m *Merger) MergeScanned(inv *Inventory) int {
	artifacts := inv.Artifacts()
	SortArtifacts(artifacts)

	scanned := make(map[string]*types.Artifact)
	for _, a := range artifacts {
		if !a.IsClassified(types.ClassificationScan) {
			continue
		}
		extracted := a.Get(types.AttrExtractedPath)
		if extracted == "" {
			continue
		}
		key := scanKey(a.ID, a.Version, extracted)
		if _, ok := scanned[key]; !ok {
			scanned[key] = a
		}
	}
	if len(scanned) == 0 {
		return 0
	}

	var removed []*types.Artifact
	for _, a := range artifacts {
		if a.IsClassified(types.ClassificationScan) {
			continue
		}
		root := a.Get(types.AttrVirtualRootPath)
		if root == "" {
			continue
		}
		target, ok := scanned[scanKey(a.ID, a.Version, root)]
		if !ok {
			continue
		}
		inv.Update(target, func(s *types.Artifact) {
			transferAttributes(s, a)
			s.Set(types.AttrScanMerged, "true")
		})
		removed = append(removed, a)
		m.logger.Debug("Merged artifact into scanned archive", "id", a.ID, "version", a.Version, "path", root)
	}

	inv.RemoveArtifacts(removed...)
	return len(removed)
}

// DropSuperseded removes unpacked archives that nothing was merged into.
// Their contents stand in for them. It returns the number of removed
// artifacts.
func (m *Merger) DropSuperseded(inv *Inventory) int {
	superseded := inv.FindArtifacts(func(a *types.Artifact) bool {
		return a.Has(types.AttrSuperseded) && !a.Has(types.AttrScanMerged)
	})
	for _, a := range superseded {
		m.logger.Debug("Dropped archive superseded by its contents", "id", a.ID, "path", a.Get(types.AttrPathInAsset))
	}
	inv.RemoveArtifacts(superseded...)
	return len(superseded)
}

// mergeKey identifies artifacts with equal content. Two files with the same
// checksum are the same artifact whatever their names.
func mergeKey(a *types.Artifact) string {
	if a.Checksum != "" {
		return "[" + a.Checksum + "]"
	}
	return a.Qualifier()
}

func scanKey(id, version, path string) string {
	return id + "/" + version + "/" + path
}

// transferAttributes moves everything but path, containment markers and
// processing attributes from src into dst
func transferAttributes(dst, src *types.Artifact) {
	for k, v := range src.Attributes {
		if k == types.AttrPathInAsset || types.IsAssetMarker(k) || strings.HasPrefix(k, types.ProcessingPrefix) {
			continue
		}
		dst.Set(k, v)
	}
	if dst.Component == "" {
		dst.Component = src.Component
	}
	if dst.Version == "" {
		dst.Version = src.Version
	}
	if dst.GroupID == "" {
		dst.GroupID = src.GroupID
	}
	for _, p := range src.Projects {
		dst.AddProject(p)
	}
}
