package parsers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PackageJSON represents the parts of package.json that identify a package
type PackageJSON struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	License json.RawMessage `json:"license"`
	Private bool            `json:"private"`
}

// ParsePackageJSON returns the identity declared by package.json. A scoped
// name such as @babel/core reports the scope as namespace.
func ParsePackageJSON(content []byte) (Manifest, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(content, &pkg); err != nil {
		return Manifest{}, fmt.Errorf("invalid package.json: %w", err)
	}
	m := Manifest{Name: pkg.Name, Version: pkg.Version, License: npmLicense(pkg.License)}
	if strings.HasPrefix(pkg.Name, "@") {
		if scope, _, ok := strings.Cut(pkg.Name, "/"); ok {
			m.Namespace = scope
		}
	}
	return m, nil
}

// npmLicense handles both the SPDX string and the legacy {"type": ...} form
func npmLicense(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Type
	}
	return ""
}
