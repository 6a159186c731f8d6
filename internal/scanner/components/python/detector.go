package python

import (
	"path"
	"strings"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements detection of installed Python distributions
type Detector struct{}

func (d *Detector) Name() string {
	return "python"
}

func (d *Detector) Anchors() []string {
	return []string{"**/*.dist-info/METADATA"}
}

// Detect describes one distribution in a site-packages directory. The
// distribution claims its dist-info directory plus the top-level package
// or module named after it.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	m, err := parsers.ParseWheelMetadata(content)
	if err != nil {
		return nil, err
	}
	if !m.Valid() {
		return nil, nil
	}
	root, ok := components.Root(anchor, 2)
	if !ok {
		return nil, nil
	}

	distInfo := path.Base(path.Dir(anchor))
	module := strings.ReplaceAll(parsers.NormalizePythonName(m.Name), "-", "_")

	p := components.NewPattern(d.Name(), parsers.NormalizePythonName(m.Name), m.Version, root, anchor)
	p.IncludePattern = strings.Join([]string{distInfo + "/**", module + "/**", module + ".py"}, ",")
	p.Type = "python"
	p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypePyPI, parsers.Manifest{
		Name:    parsers.NormalizePythonName(m.Name),
		Version: m.Version,
	})
	if m.License != "" {
		p.Attributes[types.AttrLicenses] = m.License
	}
	return []*types.ComponentPatternData{p}, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
