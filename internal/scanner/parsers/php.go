package parsers

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ComposerPackage is one entry of vendor/composer/installed.json
type ComposerPackage struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Type        string   `json:"type"`
	License     []string `json:"license"`
	InstallPath string   `json:"install-path"`
}

// ParseInstalledJSON reads vendor/composer/installed.json. Composer 1
// writes a bare array, Composer 2 wraps it in {"packages": [...]}.
func ParseInstalledJSON(content []byte) ([]ComposerPackage, error) {
	trimmed := strings.TrimSpace(string(content))
	var pkgs []ComposerPackage
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(content, &pkgs); err != nil {
			return nil, fmt.Errorf("invalid installed.json: %w", err)
		}
		return pkgs, nil
	}
	var v2 struct {
		Packages []ComposerPackage `json:"packages"`
	}
	if err := json.Unmarshal(content, &v2); err != nil {
		return nil, fmt.Errorf("invalid installed.json: %w", err)
	}
	return v2.Packages, nil
}

// Manifest returns the package identity with the vendor as namespace
func (p ComposerPackage) Manifest() Manifest {
	m := Manifest{Name: p.Name, Version: strings.TrimPrefix(p.Version, "v"), License: strings.Join(p.License, " OR ")}
	if vendor, _, ok := strings.Cut(p.Name, "/"); ok {
		m.Namespace = vendor
	}
	return m
}
