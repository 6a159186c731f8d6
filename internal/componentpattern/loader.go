package componentpattern

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/petrarca/composition-scanner/internal/validation"
	"gopkg.in/yaml.v3"
)

// SchemaName is the embedded JSON schema reference pattern files are validated against
const SchemaName = "component-patterns.json"

// File is the on-disk layout of a reference pattern file
type File struct {
	ComponentPatterns []*types.ComponentPatternData `yaml:"component_patterns" json:"component_patterns"`
}

// LoadFile loads and validates one reference pattern file
func LoadFile(path string) ([]*types.ComponentPatternData, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pattern file %s: %w", path, err)
	}
	return Parse(path, content)
}

// Parse validates content against the schema and decodes it. name is only
// used in error messages.
func Parse(name string, content []byte) ([]*types.ComponentPatternData, error) {
	if err := validation.ValidateYAML(SchemaName, content); err != nil {
		return nil, fmt.Errorf("invalid pattern file %s: %w", name, err)
	}

	var file File
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse pattern file %s: %w", name, err)
	}

	for i, p := range file.ComponentPatterns {
		if err := validatePattern(p); err != nil {
			return nil, fmt.Errorf("invalid pattern %d in %s: %w", i, name, err)
		}
	}
	return file.ComponentPatterns, nil
}

// LoadDir loads every YAML file below dir in path order
func LoadDir(dir string) ([]*types.ComponentPatternData, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk pattern directory: %w", err)
	}
	sort.Strings(files)

	var patterns []*types.ComponentPatternData
	seen := make(map[string]string)
	for _, path := range files {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		for _, p := range loaded {
			key := p.Qualifier() + "@" + p.VersionAnchor
			if first, ok := seen[key]; ok {
				return nil, fmt.Errorf("pattern %s in %s already defined in %s", p.Qualifier(), path, first)
			}
			seen[key] = path
			patterns = append(patterns, p)
		}
	}
	return patterns, nil
}

// validatePattern checks what the schema cannot express
func validatePattern(p *types.ComponentPatternData) error {
	if p == nil {
		return fmt.Errorf("empty pattern")
	}
	if strings.TrimSpace(p.ComponentName) == "" {
		return fmt.Errorf("component_name is required")
	}
	if strings.TrimSpace(p.VersionAnchor) == "" {
		return fmt.Errorf("version_anchor is required")
	}
	if strings.TrimSpace(p.ArtifactID()) == "" {
		return fmt.Errorf("pattern derives a blank artifact id")
	}
	return nil
}
