package config

import (
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// ProjectConfigFile is the name of the per-project configuration file
// looked up in the scan root
const ProjectConfigFile = ".composition-scanner.yml"

// ProjectConfig represents the .composition-scanner.yml configuration file
type ProjectConfig struct {
	Properties map[string]any `yaml:"properties,omitempty"`
	Exclude    []string       `yaml:"exclude,omitempty"`
	RootID     string         `yaml:"root_id,omitempty"` // Override the derived root asset id for deterministic scans
}

// LoadProjectConfig attempts to load .composition-scanner.yml from the scan root
// Returns an empty config if the file doesn't exist (not an error)
func LoadProjectConfig(scanPath string) (*ProjectConfig, error) {
	configPath := filepath.Join(scanPath, ProjectConfigFile)

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		// No config file - return empty config (not an error)
		return &ProjectConfig{}, nil
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Parse YAML
	var config ProjectConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	return &config, nil
}

// MergeExcludes merges config excludes with CLI excludes into a sorted,
// duplicate-free list
func (c *ProjectConfig) MergeExcludes(cliExcludes []string) []string {
	if c == nil {
		return cliExcludes
	}

	// Create a map to deduplicate
	excludeMap := make(map[string]bool)

	// Add config excludes first
	for _, exclude := range c.Exclude {
		excludeMap[exclude] = true
	}

	// Add CLI excludes
	for _, exclude := range cliExcludes {
		excludeMap[exclude] = true
	}

	// Convert back to a sorted slice
	result := make([]string, 0, len(excludeMap))
	for exclude := range excludeMap {
		result = append(result, exclude)
	}
	sort.Strings(result)
	return result
}
