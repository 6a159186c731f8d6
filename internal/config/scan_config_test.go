package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const scanConfigYAML = `scan:
  paths: ["./image"]
  collect_excludes: ["**/*.log"]
  implicit_unwrap: false
  workers: 8
  extraction_timeout: 30m
  patterns_dir: patterns
output:
  file: inventory.yaml
  format: yaml
  pretty: false
properties:
  product: Demo
`

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadScanConfig_File(t *testing.T) {
	cfg, err := LoadScanConfig(writeConfig(t, "scan.yml", scanConfigYAML))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, []string{"./image"}, cfg.GetScanPaths())
	assert.Equal(t, []string{"**/*.log"}, cfg.Scan.CollectExcludes)
	require.NotNil(t, cfg.Scan.ImplicitUnwrap)
	assert.False(t, *cfg.Scan.ImplicitUnwrap)
	assert.Nil(t, cfg.Scan.IncludeEmbedded)
	assert.Equal(t, "Demo", cfg.Properties["product"])
}

func TestLoadScanConfig_InlineJSON(t *testing.T) {
	cfg, err := LoadScanConfig(`{"scan": {"workers": 2}, "output": {"format": "json"}}`)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Scan.Workers)
	assert.Equal(t, []string{"."}, cfg.GetScanPaths())
}

func TestLoadScanConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		config string
	}{
		{"unknown key", "scan:\n  bogus: true\n"},
		{"bad timeout", "scan:\n  extraction_timeout: one hour\n"},
		{"absolute output", "output:\n  file: /tmp/out.json\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScanConfig(writeConfig(t, "scan.yml", tt.config))
			assert.Error(t, err)
		})
	}

	_, err := LoadScanConfig(`{"scan": {"workers": 0}}`)
	assert.Error(t, err)

	_, err = LoadScanConfig(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)

	cfg, err := LoadScanConfig("")
	assert.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestScanConfigFile_MergeWithSettings(t *testing.T) {
	cfg, err := LoadScanConfig(writeConfig(t, "scan.yml", scanConfigYAML))
	require.NoError(t, err)

	settings := DefaultSettings()
	settings.Workers = 3 // set on the command line
	require.NoError(t, cfg.MergeWithSettings(settings))

	assert.Equal(t, "inventory.yaml", settings.OutputFile)
	assert.Equal(t, "yaml", settings.Format)
	assert.False(t, settings.PrettyPrint)
	assert.False(t, settings.ImplicitUnwrap)
	assert.True(t, settings.IncludeEmbedded, "unset options keep their value")
	assert.Equal(t, []string{"**/*.log"}, settings.CollectExcludes)
	assert.Equal(t, 3, settings.Workers, "command line wins")
	assert.Equal(t, 30*time.Minute, settings.ExtractionTimeout)
	assert.Equal(t, "patterns", settings.PatternsDir)

	var nilCfg *ScanConfigFile
	assert.NoError(t, nilCfg.MergeWithSettings(settings))
}

func TestScanConfigFile_GetMergedConfig(t *testing.T) {
	cfg := &ScanConfigFile{Properties: map[string]any{"product": "Demo", "team": "a"}}
	project := &ProjectConfig{
		Properties: map[string]any{"team": "b"},
		Exclude:    []string{"tmp/**"},
		RootID:     "AID-fixed",
	}

	merged := cfg.GetMergedConfig(project)

	assert.Equal(t, map[string]any{"product": "Demo", "team": "b"}, merged.Properties)
	assert.Equal(t, []string{"tmp/**"}, merged.Exclude)
	assert.Equal(t, "AID-fixed", merged.RootID)

	var nilCfg *ScanConfigFile
	assert.Same(t, project, nilCfg.GetMergedConfig(project))
}

func TestLoadProjectConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.Exclude)

	content := "root_id: AID-demo\nexclude:\n  - build/**\nproperties:\n  owner: team\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ProjectConfigFile), []byte(content), 0644))

	cfg, err = LoadProjectConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "AID-demo", cfg.RootID)
	assert.Equal(t, []string{"build/**"}, cfg.Exclude)
	assert.Equal(t, "team", cfg.Properties["owner"])
	assert.Equal(t, []string{"build/**", "dist/**"}, cfg.MergeExcludes([]string{"dist/**", "build/**"}))
}
