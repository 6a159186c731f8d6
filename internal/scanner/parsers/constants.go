// Package parsers reads the package manifests the component detectors
// anchor on. Each parser returns the identity a manifest declares and
// leaves the pattern construction to the detector.
package parsers

import "strings"

// Package URL types per ecosystem
const (
	PurlTypeNpm       = "npm"
	PurlTypeGolang    = "golang"
	PurlTypeMaven     = "maven"
	PurlTypePyPI      = "pypi"
	PurlTypeCargo     = "cargo"
	PurlTypeComposer  = "composer"
	PurlTypeTerraform = "terraform"
)

// Manifest is the identity a package manifest declares
type Manifest struct {
	Name    string
	Version string
	License string
	// Namespace is the group, vendor or scope part of the name, when the
	// ecosystem has one
	Namespace string
}

// Valid reports whether the manifest names a versioned package
func (m Manifest) Valid() bool {
	return m.Name != "" && m.Version != ""
}

// Purl renders a package URL for the manifest
func Purl(purlType string, m Manifest) string {
	name := m.Name
	var b strings.Builder
	b.WriteString("pkg:")
	b.WriteString(purlType)
	b.WriteByte('/')
	if m.Namespace != "" {
		name = strings.TrimPrefix(name, m.Namespace+"/")
		b.WriteString(strings.ReplaceAll(m.Namespace, "@", "%40"))
		b.WriteByte('/')
	}
	b.WriteString(name)
	if m.Version != "" {
		b.WriteByte('@')
		b.WriteString(m.Version)
	}
	return b.String()
}
