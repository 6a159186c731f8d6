package parsers

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// CargoToml represents the parts of Cargo.toml that identify a crate
type CargoToml struct {
	Package *struct {
		Name    string `toml:"name"`
		Version any    `toml:"version"`
		License string `toml:"license"`
	} `toml:"package"`
	Workspace map[string]any `toml:"workspace"`
}

// ParseCargoToml returns the crate identity. Workspace manifests and crates
// that inherit their version from the workspace report no version.
func ParseCargoToml(content []byte) (Manifest, error) {
	var cargo CargoToml
	if err := toml.Unmarshal(content, &cargo); err != nil {
		return Manifest{}, fmt.Errorf("invalid Cargo.toml: %w", err)
	}
	if cargo.Package == nil {
		return Manifest{}, nil
	}
	m := Manifest{Name: cargo.Package.Name, License: cargo.Package.License}
	if v, ok := cargo.Package.Version.(string); ok {
		m.Version = v
	}
	return m, nil
}
