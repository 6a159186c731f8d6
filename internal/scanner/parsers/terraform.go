package parsers

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
)

// DefaultTerraformRegistry is the host of provider sources without one
const DefaultTerraformRegistry = "registry.terraform.io"

// TerraformProvider represents a provider block in .terraform.lock.hcl
type TerraformProvider struct {
	// Source is the fully qualified address, e.g. registry.terraform.io/hashicorp/aws
	Source  string
	Version string
}

// Manifest returns the provider identity: namespace/type plus version
func (p TerraformProvider) Manifest() Manifest {
	parts := strings.Split(p.Source, "/")
	m := Manifest{Version: p.Version}
	switch len(parts) {
	case 3:
		m.Namespace, m.Name = parts[1], parts[2]
	case 2:
		m.Namespace, m.Name = parts[0], parts[1]
	default:
		m.Name = p.Source
	}
	return m
}

// ParseTerraformLock parses .terraform.lock.hcl and returns its providers.
// Providers without a version are skipped.
func ParseTerraformLock(content []byte) ([]TerraformProvider, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(content, ".terraform.lock.hcl")
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid lock file: %s", diags.Error())
	}

	body, _, diags := file.Body.PartialContent(&hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "provider", LabelNames: []string{"source"}}},
	})
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid lock file: %s", diags.Error())
	}

	var providers []TerraformProvider
	for _, block := range body.Blocks.OfType("provider") {
		attrs, _ := block.Body.JustAttributes()
		versionAttr, ok := attrs["version"]
		if !ok {
			continue
		}
		val, diags := versionAttr.Expr.Value(nil)
		if diags.HasErrors() || val.Type() != cty.String || val.IsNull() {
			continue
		}
		source := block.Labels[0]
		if strings.Count(source, "/") == 1 {
			source = DefaultTerraformRegistry + "/" + source
		}
		providers = append(providers, TerraformProvider{Source: source, Version: val.AsString()})
	}
	return providers, nil
}
