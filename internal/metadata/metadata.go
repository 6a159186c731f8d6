package metadata

import (
	"path/filepath"
	"time"

	"github.com/petrarca/composition-scanner/internal/git"
)

// FormatVersion is the version of the inventory output format. It changes
// when breaking changes are made to the output structure.
const FormatVersion = "0.1"

// ScanMetadata contains information about the scan execution
type ScanMetadata struct {
	Timestamp      string         `json:"timestamp" yaml:"timestamp"`
	ScanPath       string         `json:"scan_path" yaml:"scan_path"`
	FormatVersion  string         `json:"format_version" yaml:"format_version"`
	DurationMs     int64          `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	Passes         int            `json:"passes,omitempty" yaml:"passes,omitempty"`
	FileCount      int            `json:"file_count,omitempty" yaml:"file_count,omitempty"`
	DirectoryCount int            `json:"directory_count,omitempty" yaml:"directory_count,omitempty"`
	ArtifactCount  int            `json:"artifact_count,omitempty" yaml:"artifact_count,omitempty"`
	ComponentCount int            `json:"component_count,omitempty" yaml:"component_count,omitempty"`
	AssetCount     int            `json:"asset_count,omitempty" yaml:"asset_count,omitempty"`
	Issues         []string       `json:"issues,omitempty" yaml:"issues,omitempty"`
	Duplicates     []string       `json:"duplicate_claims,omitempty" yaml:"duplicate_claims,omitempty"`
	Git            *git.GitInfo   `json:"git,omitempty" yaml:"git,omitempty"`
	Properties     map[string]any `json:"properties,omitempty" yaml:"properties,omitempty"`
}

// NewScanMetadata creates a new scan metadata instance
func NewScanMetadata(scanPath string) *ScanMetadata {
	absPath, _ := filepath.Abs(scanPath)

	return &ScanMetadata{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		ScanPath:      absPath,
		FormatVersion: FormatVersion,
	}
}

// SetDuration sets the scan duration in milliseconds
func (m *ScanMetadata) SetDuration(duration time.Duration) {
	m.DurationMs = duration.Milliseconds()
}

// SetWalkCounts sets the pass, file and directory counts of the pipeline
func (m *ScanMetadata) SetWalkCounts(passes, files, dirs int) {
	m.Passes = passes
	m.FileCount = files
	m.DirectoryCount = dirs
}

// SetInventoryCounts sets the artifact, component and asset counts
func (m *ScanMetadata) SetInventoryCounts(artifacts, components, assets int) {
	m.ArtifactCount = artifacts
	m.ComponentCount = components
	m.AssetCount = assets
}

// SetProperties sets custom properties from configuration
func (m *ScanMetadata) SetProperties(properties map[string]any) {
	if len(properties) > 0 {
		m.Properties = properties
	}
}
