package rust

import (
	"path"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements Rust crate detection
type Detector struct{}

func (d *Detector) Name() string {
	return "rust"
}

func (d *Detector) Anchors() []string {
	return []string{"**/Cargo.toml"}
}

// Detect describes a crate with a [package] section and an explicit
// version. Workspace manifests are skipped.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	m, err := parsers.ParseCargoToml(content)
	if err != nil {
		return nil, err
	}
	if !m.Valid() {
		return nil, nil
	}

	p := components.NewPattern(d.Name(), m.Name, m.Version, path.Dir(anchor), anchor)
	p.IncludePattern = "**/*"
	p.ExcludePattern = "target/**"
	p.Type = "cargo"
	p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeCargo, m)
	if m.License != "" {
		p.Attributes[types.AttrLicenses] = m.License
	}
	return []*types.ComponentPatternData{p}, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
