package types

import "strings"

// AnyChecksum disables the anchor checksum constraint
const AnyChecksum = "*"

// ComponentPatternData is a component signature: an anchor file plus the
// globs describing which files around the anchor belong to the component.
// Pattern fields hold comma-separated glob lists relative to the anchor root.
type ComponentPatternData struct {
	ComponentName    string `yaml:"component_name" json:"component_name"`
	ComponentPart    string `yaml:"component_part,omitempty" json:"component_part,omitempty"`
	ComponentVersion string `yaml:"component_version,omitempty" json:"component_version,omitempty"`

	VersionAnchor         string `yaml:"version_anchor" json:"version_anchor"`
	VersionAnchorChecksum string `yaml:"version_anchor_checksum,omitempty" json:"version_anchor_checksum,omitempty"`
	// AnchorRoot pins the pattern to one occurrence: only anchors whose
	// version anchor root equals this path match. "." pins the scan root.
	AnchorRoot string `yaml:"anchor_root,omitempty" json:"anchor_root,omitempty"`

	IncludePattern       string `yaml:"include_pattern" json:"include_pattern"`
	ExcludePattern       string `yaml:"exclude_pattern,omitempty" json:"exclude_pattern,omitempty"`
	SharedIncludePattern string `yaml:"shared_include_pattern,omitempty" json:"shared_include_pattern,omitempty"`
	SharedExcludePattern string `yaml:"shared_exclude_pattern,omitempty" json:"shared_exclude_pattern,omitempty"`

	Type       string            `yaml:"type,omitempty" json:"type,omitempty"`
	Deferred   bool              `yaml:"deferred,omitempty" json:"deferred,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty" json:"attributes,omitempty"`
}

// Qualifier identifies the component the pattern describes
func (p *ComponentPatternData) Qualifier() string {
	return strings.Join([]string{p.ComponentName, p.ComponentPart, p.ComponentVersion}, "-")
}

// ArtifactID returns the id of the artifact derived from a match
func (p *ComponentPatternData) ArtifactID() string {
	if p.ComponentPart != "" {
		return p.ComponentPart
	}
	if p.ComponentVersion == "" {
		return p.ComponentName
	}
	return p.ComponentName + "-" + p.ComponentVersion
}

// RequiresChecksum reports whether the anchor must have a specific checksum
func (p *ComponentPatternData) RequiresChecksum() bool {
	return p.VersionAnchorChecksum != "" && p.VersionAnchorChecksum != AnyChecksum
}

// MatchResult is one occurrence of a component pattern at an anchor file
type MatchResult struct {
	Pattern *ComponentPatternData
	// AnchorPath is the anchor file relative to the scan root.
	AnchorPath string
	// ScanRoot is the absolute base directory of the scan.
	ScanRoot string
	// VirtualRoot is the nearest enclosing unpacked-archive directory, relative to ScanRoot.
	VirtualRoot string
	// VersionAnchorRoot is the directory the pattern globs are evaluated against, relative to ScanRoot.
	VersionAnchorRoot string
	AssetIDChain      []string
}
