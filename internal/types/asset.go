package types

import "strings"

// AssetIDPrefix starts every asset id. Attributes keyed by an asset id are
// containment markers.
const AssetIDPrefix = "AID-"

// IsAssetMarker reports whether an attribute key is an asset containment marker
func IsAssetMarker(key string) bool {
	return strings.HasPrefix(key, AssetIDPrefix)
}

// AssetMetadata describes a scanned unit: the scan root or an unpacked archive
type AssetMetadata struct {
	AssetID    string            `json:"asset_id" yaml:"asset_id"`
	Path       string            `json:"path" yaml:"path"`
	Checksum   string            `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// NewAssetMetadata creates asset metadata
func NewAssetMetadata(assetID, path, checksum string) *AssetMetadata {
	return &AssetMetadata{
		AssetID:    assetID,
		Path:       path,
		Checksum:   checksum,
		Attributes: make(map[string]string),
	}
}

// Set sets an attribute on the asset
func (m *AssetMetadata) Set(key, value string) {
	if m.Attributes == nil {
		m.Attributes = make(map[string]string)
	}
	m.Attributes[key] = value
}
