package types

import (
	"sort"
	"strings"
)

// Attribute keys carried into the final inventory
const (
	AttrType                = "Type"
	AttrComponentSourceType = "Component Source Type"
	AttrPURL                = "PURL"
	AttrPathInAsset         = "Path in Asset"
	AttrLicenses            = "Licenses"
	AttrLanguage            = "Language"
	AttrChecksumSHA1        = "Checksum (SHA-1)"
	AttrGroupID             = "Group Id"
)

// Processing attributes. Everything starting with ProcessingPrefix is removed
// before the inventory leaves the scanner. AttrSuperseded marks an archive
// replaced by its unpacked contents; it only survives when MergeScanned set
// AttrScanMerged on it.
const (
	ProcessingPrefix = "_"

	AttrArtifactPath     = "_artifact-path"
	AttrScanDirective    = "_scan-directive"
	AttrInspected        = "_inspected"
	AttrUnwrapped        = "_unwrapped"
	AttrUnwrapFailed     = "_unwrap-failed"
	AttrExtractedPath    = "_extracted-path"
	AttrAssetIDChain     = "_asset-id-chain"
	AttrComponentPattern = "_component-pattern"
	AttrVirtualRootPath  = "_virtual-root-path"
	AttrSuperseded       = "_superseded"
	AttrScanMerged       = "_scan-merged"
)

// Values used with the attributes above
const (
	DirectiveUnwrap = "unwrap"

	ClassificationScan   = "scan"
	ClassificationAtomic = "atomic"

	SourceTypeFile             = "file"
	SourceTypeArchive          = "archive"
	SourceTypeComponentPattern = "component-pattern"

	// MarkerContained is set on an artifact under the id of the asset it was found in.
	MarkerContained = "x"
	// MarkerContains is set on an asset under the id of the asset that holds it.
	MarkerContains = "c"

	// PathSeparator joins multiple path-in-asset values.
	PathSeparator = "|\n"
	// ChainSeparator joins asset ids in AttrAssetIDChain.
	ChainSeparator = ","
)

// Artifact is a discovered software unit in the inventory
type Artifact struct {
	ID             string            `json:"id" yaml:"id"`
	Component      string            `json:"component,omitempty" yaml:"component,omitempty"`
	Version        string            `json:"version,omitempty" yaml:"version,omitempty"`
	GroupID        string            `json:"group_id,omitempty" yaml:"group_id,omitempty"`
	Checksum       string            `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	SecondaryHash  string            `json:"secondary_hash,omitempty" yaml:"secondary_hash,omitempty"`
	Projects       []string          `json:"projects,omitempty" yaml:"projects,omitempty"`
	Classification []string          `json:"classification,omitempty" yaml:"classification,omitempty"`
	Attributes     map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// NewArtifact creates an artifact with the given id
func NewArtifact(id string) *Artifact {
	return &Artifact{
		ID:         id,
		Attributes: make(map[string]string),
	}
}

// Get returns an attribute value or empty string
func (a *Artifact) Get(key string) string {
	if a.Attributes == nil {
		return ""
	}
	return a.Attributes[key]
}

// Set sets an attribute; an empty value removes it
func (a *Artifact) Set(key, value string) {
	if value == "" {
		delete(a.Attributes, key)
		return
	}
	if a.Attributes == nil {
		a.Attributes = make(map[string]string)
	}
	a.Attributes[key] = value
}

// Has reports whether an attribute is present
func (a *Artifact) Has(key string) bool {
	_, ok := a.Attributes[key]
	return ok
}

// Qualifier returns the grouping key used for deduplication
func (a *Artifact) Qualifier() string {
	if a.Checksum != "" {
		return "[" + a.ID + "-" + a.Checksum + "]"
	}
	return "[" + a.ID + "-" + a.GroupID + "-" + a.Version + "]"
}

// IsClassified reports whether the artifact carries the classification tag
func (a *Artifact) IsClassified(tag string) bool {
	for _, c := range a.Classification {
		if c == tag {
			return true
		}
	}
	return false
}

// Classify adds a classification tag
func (a *Artifact) Classify(tag string) {
	a.Classification = addToSet(a.Classification, tag)
}

// AddProject adds a project path
func (a *Artifact) AddProject(project string) {
	a.Projects = addToSet(a.Projects, project)
}

// PathsInAsset returns the individual path-in-asset values
func (a *Artifact) PathsInAsset() []string {
	return SplitPaths(a.Get(AttrPathInAsset))
}

// AddPathInAsset adds one path-in-asset value
func (a *Artifact) AddPathInAsset(path string) {
	a.SetPathsInAsset(append(a.PathsInAsset(), path))
}

// SetPathsInAsset replaces the path set. Values are deduplicated, sorted
// case-insensitively and joined with PathSeparator.
func (a *Artifact) SetPathsInAsset(paths []string) {
	a.Set(AttrPathInAsset, JoinPaths(paths))
}

// AssetIDChain returns the ids of the enclosing assets, innermost first
func (a *Artifact) AssetIDChain() []string {
	raw := a.Get(AttrAssetIDChain)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ChainSeparator)
}

// Absorb copies every field and attribute the artifact lacks from other
func (a *Artifact) Absorb(other *Artifact) {
	if a.Component == "" {
		a.Component = other.Component
	}
	if a.Version == "" {
		a.Version = other.Version
	}
	if a.GroupID == "" {
		a.GroupID = other.GroupID
	}
	if a.Checksum == "" {
		a.Checksum = other.Checksum
	}
	if a.SecondaryHash == "" {
		a.SecondaryHash = other.SecondaryHash
	}
	for _, p := range other.Projects {
		a.AddProject(p)
	}
	for _, c := range other.Classification {
		a.Classify(c)
	}
	for k, v := range other.Attributes {
		if !a.Has(k) {
			a.Set(k, v)
		}
	}
}

// StripProcessingAttributes removes all intermediate attributes
func (a *Artifact) StripProcessingAttributes() {
	for k := range a.Attributes {
		if strings.HasPrefix(k, ProcessingPrefix) {
			delete(a.Attributes, k)
		}
	}
}

// Clone returns a deep copy
func (a *Artifact) Clone() *Artifact {
	c := *a
	c.Projects = append([]string(nil), a.Projects...)
	c.Classification = append([]string(nil), a.Classification...)
	c.Attributes = make(map[string]string, len(a.Attributes))
	for k, v := range a.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// JoinPaths deduplicates, sorts case-insensitively and joins path values
func JoinPaths(paths []string) string {
	seen := make(map[string]bool, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		unique = append(unique, p)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		li, lj := strings.ToLower(unique[i]), strings.ToLower(unique[j])
		if li == lj {
			return unique[i] < unique[j]
		}
		return li < lj
	})
	return strings.Join(unique, PathSeparator)
}

// SplitPaths is the inverse of JoinPaths
func SplitPaths(joined string) []string {
	if joined == "" {
		return nil
	}
	return strings.Split(joined, PathSeparator)
}

func addToSet(set []string, value string) []string {
	if value == "" {
		return set
	}
	i := sort.SearchStrings(set, value)
	if i < len(set) && set[i] == value {
		return set
	}
	set = append(set, "")
	copy(set[i+1:], set[i:])
	set[i] = value
	return set
}
