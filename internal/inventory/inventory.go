package inventory

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/petrarca/composition-scanner/internal/types"
)

// ErrInvariant marks contributions that indicate a defect in the caller
var ErrInvariant = errors.New("inventory invariant violated")

// Inventory is the ledger of a scan: artifacts, applied component patterns
// and asset metadata. Every mutation goes through its methods and holds the
// single ledger lock.
type Inventory struct {
	mu        sync.Mutex
	artifacts []*types.Artifact
	patterns  []*types.ComponentPatternData
	assets    map[string]*types.AssetMetadata
}

// New creates an empty inventory
func New() *Inventory {
	return &Inventory{assets: make(map[string]*types.AssetMetadata)}
}

// Snapshot is the serializable form of an inventory
type Snapshot struct {
	Artifacts         []*types.Artifact             `json:"artifacts" yaml:"artifacts"`
	ComponentPatterns []*types.ComponentPatternData `json:"component_patterns,omitempty" yaml:"component_patterns,omitempty"`
	Assets            []*types.AssetMetadata        `json:"assets,omitempty" yaml:"assets,omitempty"`
}

// AddArtifact appends an artifact. A nil artifact or a blank id is rejected
// with ErrInvariant.
func (inv *Inventory) AddArtifact(a *types.Artifact) error {
	if a == nil {
		return fmt.Errorf("%w: nil artifact", ErrInvariant)
	}
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("%w: artifact with blank id (path %q)", ErrInvariant, a.Get(types.AttrArtifactPath))
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.artifacts = append(inv.artifacts, a)
	return nil
}

// RemoveArtifacts removes the given artifacts by identity
func (inv *Inventory) RemoveArtifacts(remove ...*types.Artifact) {
	if len(remove) == 0 {
		return
	}
	drop := make(map[*types.Artifact]bool, len(remove))
	for _, a := range remove {
		drop[a] = true
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	kept := inv.artifacts[:0]
	for _, a := range inv.artifacts {
		if !drop[a] {
			kept = append(kept, a)
		}
	}
	for i := len(kept); i < len(inv.artifacts); i++ {
		inv.artifacts[i] = nil
	}
	inv.artifacts = kept
}

// Update runs fn on an artifact while holding the ledger lock
func (inv *Inventory) Update(a *types.Artifact, fn func(*types.Artifact)) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	fn(a)
}

// Artifacts returns a copy of the artifact list in insertion order
func (inv *Inventory) Artifacts() []*types.Artifact {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]*types.Artifact(nil), inv.artifacts...)
}

// FindArtifacts returns the artifacts accepted by match
func (inv *Inventory) FindArtifacts(match func(*types.Artifact) bool) []*types.Artifact {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	var out []*types.Artifact
	for _, a := range inv.artifacts {
		if match(a) {
			out = append(out, a)
		}
	}
	return out
}

// AddComponentPattern records a pattern that produced at least one match.
// Patterns with an already recorded qualifier are ignored.
func (inv *Inventory) AddComponentPattern(p *types.ComponentPatternData) bool {
	if p == nil {
		return false
	}
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, existing := range inv.patterns {
		if existing.Qualifier() == p.Qualifier() && existing.VersionAnchor == p.VersionAnchor {
			return false
		}
	}
	inv.patterns = append(inv.patterns, p)
	return true
}

// ComponentPatterns returns the recorded component patterns
func (inv *Inventory) ComponentPatterns() []*types.ComponentPatternData {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	return append([]*types.ComponentPatternData(nil), inv.patterns...)
}

// PutAsset stores asset metadata, replacing an entry with the same id
func (inv *Inventory) PutAsset(m *types.AssetMetadata) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.assets[m.AssetID] = m
}

// UpdateAsset runs fn on the asset with the given id while holding the
// ledger lock. It reports whether the asset exists.
func (inv *Inventory) UpdateAsset(assetID string, fn func(*types.AssetMetadata)) bool {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	m, ok := inv.assets[assetID]
	if ok {
		fn(m)
	}
	return ok
}

// Asset returns the asset metadata for an id
func (inv *Inventory) Asset(assetID string) (*types.AssetMetadata, bool) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	m, ok := inv.assets[assetID]
	return m, ok
}

// Assets returns all asset metadata sorted by path
func (inv *Inventory) Assets() []*types.AssetMetadata {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	out := make([]*types.AssetMetadata, 0, len(inv.assets))
	for _, m := range inv.assets {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Path == out[j].Path {
			return out[i].AssetID < out[j].AssetID
		}
		return out[i].Path < out[j].Path
	})
	return out
}

// StripProcessingAttributes removes intermediate attributes from all artifacts
func (inv *Inventory) StripProcessingAttributes() {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	for _, a := range inv.artifacts {
		a.StripProcessingAttributes()
	}
}

// Snapshot returns the inventory with artifacts in a stable order
func (inv *Inventory) Snapshot() Snapshot {
	artifacts := inv.Artifacts()
	SortArtifacts(artifacts)
	return Snapshot{
		Artifacts:         artifacts,
		ComponentPatterns: inv.ComponentPatterns(),
		Assets:            inv.Assets(),
	}
}

// SortArtifacts orders artifacts by id, then version, then checksum
func SortArtifacts(artifacts []*types.Artifact) {
	sort.SliceStable(artifacts, func(i, j int) bool {
		a, b := artifacts[i], artifacts[j]
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		if a.Version != b.Version {
			return a.Version < b.Version
		}
		if a.Checksum != b.Checksum {
			return a.Checksum < b.Checksum
		}
		return a.Get(types.AttrPathInAsset) < b.Get(types.AttrPathInAsset)
	})
}
