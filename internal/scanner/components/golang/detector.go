package golang

import (
	"path"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements Go module detection in module caches
type Detector struct{}

func (d *Detector) Name() string {
	return "golang"
}

// Anchors selects go.mod files in versioned module cache directories
func (d *Detector) Anchors() []string {
	return []string{"**/*@v*/go.mod"}
}

// Detect describes a module extracted into a cache directory named
// <elem>@<version>. Source trees without a version in the directory name
// are not third-party components and are skipped.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	root := path.Dir(anchor)
	_, version, ok := parsers.SplitModuleCacheDir(path.Base(root))
	if !ok {
		return nil, nil
	}
	m, err := parsers.ParseGoMod(content)
	if err != nil {
		return nil, err
	}
	m.Version = version

	p := components.NewPattern(d.Name(), m.Name, m.Version, root, anchor)
	p.IncludePattern = "**/*"
	p.ExcludePattern = "vendor/**"
	p.Type = "go-module"
	p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeGolang, m)
	return []*types.ComponentPatternData{p}, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
