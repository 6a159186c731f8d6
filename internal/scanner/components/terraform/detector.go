package terraform

import (
	"path"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements Terraform provider detection from the dependency lock file
type Detector struct{}

func (d *Detector) Name() string {
	return "terraform"
}

func (d *Detector) Anchors() []string {
	return []string{"**/.terraform.lock.hcl"}
}

// Detect returns one pattern per locked provider. Each claims the provider
// plugin installed by terraform init below .terraform/providers.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	providers, err := parsers.ParseTerraformLock(content)
	if err != nil {
		return nil, err
	}

	root := path.Dir(anchor)
	var patterns []*types.ComponentPatternData
	for _, provider := range providers {
		m := provider.Manifest()
		p := components.NewPattern(d.Name(), m.Namespace+"/"+m.Name, m.Version, root, anchor)
		p.IncludePattern = ".terraform/providers/" + provider.Source + "/" + provider.Version + "/**"
		p.Type = "terraform-provider"
		p.Attributes[types.AttrGroupID] = m.Namespace
		p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeTerraform, m)
		patterns = append(patterns, p)
	}
	return patterns, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
