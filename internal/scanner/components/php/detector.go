package php

import (
	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements detection of Composer packages installed in vendor/
type Detector struct{}

func (d *Detector) Name() string {
	return "php"
}

func (d *Detector) Anchors() []string {
	return []string{"**/vendor/composer/installed.json"}
}

// Detect returns one pattern per installed package. The anchor root is the
// project directory holding vendor/.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	pkgs, err := parsers.ParseInstalledJSON(content)
	if err != nil {
		return nil, err
	}
	root, ok := components.Root(anchor, 3)
	if !ok {
		return nil, nil
	}

	var patterns []*types.ComponentPatternData
	for _, pkg := range pkgs {
		m := pkg.Manifest()
		if !m.Valid() {
			continue
		}
		p := components.NewPattern(d.Name(), m.Name, m.Version, root, anchor)
		p.IncludePattern = "vendor/" + m.Name + "/**"
		p.Type = "composer"
		p.Attributes[types.AttrGroupID] = m.Namespace
		p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeComposer, m)
		if m.License != "" {
			p.Attributes[types.AttrLicenses] = m.License
		}
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
