package nodejs

import (
	"path"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements Node.js component detection for installed npm packages
type Detector struct{}

// Name returns the detector name
func (d *Detector) Name() string {
	return "nodejs"
}

// Anchors selects package.json files of packages installed in node_modules
func (d *Detector) Anchors() []string {
	return []string{"**/node_modules/*/package.json", "**/node_modules/@*/*/package.json"}
}

// Detect describes the package directory. Nested node_modules belong to
// the packages installed there.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	m, err := parsers.ParsePackageJSON(content)
	if err != nil {
		return nil, err
	}
	if !m.Valid() {
		return nil, nil
	}

	root := path.Dir(anchor)
	p := components.NewPattern(d.Name(), m.Name, m.Version, root, anchor)
	p.IncludePattern = "**/*"
	p.ExcludePattern = "node_modules/**"
	p.Type = "npm"
	p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeNpm, m)
	if m.License != "" {
		p.Attributes[types.AttrLicenses] = m.License
	}
	return []*types.ComponentPatternData{p}, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
