package cmd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/petrarca/composition-scanner/internal/config"
	"github.com/petrarca/composition-scanner/internal/scanner"
	"github.com/petrarca/composition-scanner/internal/types"
)

func scanFixture(t *testing.T) *scanner.Result {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hello\n"), 0644))

	sc, err := scanner.NewScanContext(dir, types.DefaultScanParam(), scanner.Options{RootAssetID: "AID-fixture"})
	require.NoError(t, err)
	result, err := scanner.NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)
	return result
}

func TestWriteDocument_JSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "inventory.json")
	require.NoError(t, writeDocument(NewReport(scanFixture(t)), "json", true, out, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "artifacts", "snapshot fields are inlined")
	artifacts := doc["artifacts"].([]any)
	require.Len(t, artifacts, 1)
	assert.Equal(t, "hello.txt", artifacts[0].(map[string]any)["id"])
}

func TestWriteDocument_YAML(t *testing.T) {
	out := filepath.Join(t.TempDir(), "inventory.yaml")
	require.NoError(t, writeDocument(NewReport(scanFixture(t)), "yaml", false, out, nil))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))
	assert.Contains(t, doc, "metadata")
	assert.Contains(t, doc, "artifacts")
	assets := doc["assets"].([]any)
	require.Len(t, assets, 1)
	assert.Equal(t, "AID-fixture", assets[0].(map[string]any)["asset_id"])
}

func TestMarshal_InvalidFormat(t *testing.T) {
	_, err := marshal(map[string]string{}, "xml", false)
	assert.Error(t, err)
}

func TestResolveRootID(t *testing.T) {
	saved := settings
	t.Cleanup(func() { settings = saved })
	settings = config.DefaultSettings()
	dir := t.TempDir()

	assert.Regexp(t, `^AID-`+regexp.QuoteMeta(filepath.Base(dir))+`-\w+$`, resolveRootID(dir, nil))
	assert.Equal(t, "AID-project", resolveRootID(dir, &config.ProjectConfig{RootID: "AID-project"}))

	settings.RootID = "AID-flag"
	assert.Equal(t, "AID-flag", resolveRootID(dir, &config.ProjectConfig{RootID: "AID-project"}))
}
