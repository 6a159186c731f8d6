package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/petrarca/composition-scanner/internal/util"
	"github.com/petrarca/composition-scanner/internal/validation"
)

// ScanConfigSchema is the embedded schema scan configuration files are validated against
const ScanConfigSchema = "scan-config.json"

// ScanConfigFile represents the external scan configuration file
type ScanConfigFile struct {
	Scan       ScanConfigSection `yaml:"scan,omitempty" json:"scan,omitempty"`
	Output     OutputConfig      `yaml:"output,omitempty" json:"output,omitempty"`
	Properties map[string]any    `yaml:"properties,omitempty" json:"properties,omitempty"`
}

// ScanConfigSection contains all scan configuration options
type ScanConfigSection struct {
	// What to scan
	Paths []string `yaml:"paths,omitempty" json:"paths,omitempty"`

	CollectIncludes []string `yaml:"collect_includes,omitempty" json:"collect_includes,omitempty"`
	CollectExcludes []string `yaml:"collect_excludes,omitempty" json:"collect_excludes,omitempty"`
	UnwrapIncludes  []string `yaml:"unwrap_includes,omitempty" json:"unwrap_includes,omitempty"`
	UnwrapExcludes  []string `yaml:"unwrap_excludes,omitempty" json:"unwrap_excludes,omitempty"`

	// Pointers distinguish "not set" from false
	ImplicitUnwrap          *bool `yaml:"implicit_unwrap,omitempty" json:"implicit_unwrap,omitempty"`
	IncludeEmbedded         *bool `yaml:"include_embedded,omitempty" json:"include_embedded,omitempty"`
	DetectComponentPatterns *bool `yaml:"detect_component_patterns,omitempty" json:"detect_component_patterns,omitempty"`
	FailOnDuplicates        *bool `yaml:"fail_on_duplicates,omitempty" json:"fail_on_duplicates,omitempty"`

	PatternsDir       string `yaml:"patterns_dir,omitempty" json:"patterns_dir,omitempty"`
	Workers           int    `yaml:"workers,omitempty" json:"workers,omitempty"`
	ExtractionTimeout string `yaml:"extraction_timeout,omitempty" json:"extraction_timeout,omitempty"`
	SevenZipPath      string `yaml:"seven_zip_path,omitempty" json:"seven_zip_path,omitempty"`
}

// OutputConfig defines output settings
type OutputConfig struct {
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
	Pretty *bool  `yaml:"pretty,omitempty" json:"pretty,omitempty"`
}

// LoadScanConfig loads scan configuration from file path or inline JSON
func LoadScanConfig(configPath string) (*ScanConfigFile, error) {
	if configPath == "" {
		return nil, nil
	}

	// Check if it's inline JSON (starts with {)
	if strings.HasPrefix(strings.TrimSpace(configPath), "{") {
		return loadScanConfigFromJSON(configPath)
	}

	// Load from file
	return loadScanConfigFromFile(configPath)
}

// loadScanConfigFromFile loads configuration from a YAML or JSON file. JSON
// is a subset of YAML, so both go through the YAML decoder.
func loadScanConfigFromFile(configPath string) (*ScanConfigFile, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := validation.ValidateYAML(ScanConfigSchema, data); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", configPath, err)
	}

	var config ScanConfigFile
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &config, nil
}

// loadScanConfigFromJSON loads configuration from inline JSON string
func loadScanConfigFromJSON(jsonStr string) (*ScanConfigFile, error) {
	var raw any
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse inline JSON config: %w", err)
	}
	if err := validation.ValidateJSON(ScanConfigSchema, raw); err != nil {
		return nil, fmt.Errorf("invalid inline config: %w", err)
	}

	var config ScanConfigFile
	if err := json.Unmarshal([]byte(jsonStr), &config); err != nil {
		return nil, fmt.Errorf("failed to parse inline JSON config: %w", err)
	}
	return &config, nil
}

// MergeWithSettings merges scan config with existing settings.
// CLI flags take precedence over config file settings: a value is only
// taken from the file while the setting still has its default.
func (c *ScanConfigFile) MergeWithSettings(settings *Settings) error {
	if c == nil || settings == nil {
		return nil
	}
	defaults := DefaultSettings()

	// Output settings
	if c.Output.File != "" && settings.OutputFile == defaults.OutputFile {
		settings.OutputFile = c.Output.File
	}
	if c.Output.Format != "" && settings.Format == defaults.Format {
		settings.Format = util.NormalizeFormat(c.Output.Format)
	}
	mergeBool(&settings.PrettyPrint, defaults.PrettyPrint, c.Output.Pretty)

	// Scan options
	s := c.Scan
	mergeList(&settings.CollectIncludes, s.CollectIncludes)
	mergeList(&settings.CollectExcludes, s.CollectExcludes)
	mergeList(&settings.UnwrapIncludes, s.UnwrapIncludes)
	mergeList(&settings.UnwrapExcludes, s.UnwrapExcludes)
	mergeBool(&settings.ImplicitUnwrap, defaults.ImplicitUnwrap, s.ImplicitUnwrap)
	mergeBool(&settings.IncludeEmbedded, defaults.IncludeEmbedded, s.IncludeEmbedded)
	mergeBool(&settings.DetectComponentPatterns, defaults.DetectComponentPatterns, s.DetectComponentPatterns)
	mergeBool(&settings.FailOnDuplicates, defaults.FailOnDuplicates, s.FailOnDuplicates)

	if s.PatternsDir != "" && settings.PatternsDir == "" {
		settings.PatternsDir = s.PatternsDir
	}
	if s.Workers > 0 && settings.Workers == defaults.Workers {
		settings.Workers = s.Workers
	}
	if s.ExtractionTimeout != "" && settings.ExtractionTimeout == defaults.ExtractionTimeout {
		d, err := time.ParseDuration(s.ExtractionTimeout)
		if err != nil {
			return fmt.Errorf("invalid extraction_timeout: %w", err)
		}
		settings.ExtractionTimeout = d
	}
	if s.SevenZipPath != "" && settings.SevenZipPath == "" {
		settings.SevenZipPath = s.SevenZipPath
	}
	return nil
}

func mergeBool(target *bool, def bool, value *bool) {
	if value != nil && *target == def {
		*target = *value
	}
}

func mergeList(target *[]string, values []string) {
	if len(*target) == 0 && len(values) > 0 {
		*target = append([]string(nil), values...)
	}
}

// GetScanPaths returns the paths to scan, defaulting to ["."] if not specified
func (c *ScanConfigFile) GetScanPaths() []string {
	if c == nil || len(c.Scan.Paths) == 0 {
		return []string{"."}
	}
	return c.Scan.Paths
}

// GetMergedConfig merges scan config with the project config found in the
// scan root. Project values take precedence.
func (c *ScanConfigFile) GetMergedConfig(projectConfig *ProjectConfig) *ProjectConfig {
	if c == nil {
		return projectConfig
	}

	merged := &ProjectConfig{
		Properties: make(map[string]any),
		Exclude:    make([]string, 0),
	}
	for k, v := range c.Properties {
		merged.Properties[k] = v
	}

	if projectConfig != nil {
		for k, v := range projectConfig.Properties {
			merged.Properties[k] = v
		}
		merged.Exclude = append(merged.Exclude, projectConfig.Exclude...)
		merged.RootID = projectConfig.RootID
	}
	return merged
}
