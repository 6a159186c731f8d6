package php

import (
	"testing"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Name(t *testing.T) {
	detector := &Detector{}
	assert.Equal(t, "php", detector.Name())
}

func TestDetector_Detect(t *testing.T) {
	detector := &Detector{}
	content := []byte(`{"packages": [
		{"name": "monolog/monolog", "version": "3.5.0", "license": ["MIT"]},
		{"name": "psr/log", "version": "v3.0.0"},
		{"name": "broken"}
	]}`)

	patterns, err := detector.Detect("app/vendor/composer/installed.json", content)
	require.NoError(t, err)
	require.Len(t, patterns, 2)

	p := patterns[0]
	assert.Equal(t, "monolog/monolog", p.ComponentName)
	assert.Equal(t, "app", p.AnchorRoot)
	assert.Equal(t, "vendor/composer/installed.json", p.VersionAnchor)
	assert.Equal(t, "vendor/monolog/monolog/**", p.IncludePattern)
	assert.Equal(t, "monolog", p.Attributes[types.AttrGroupID])
	assert.Equal(t, "MIT", p.Attributes[types.AttrLicenses])
	assert.Equal(t, "3.0.0", patterns[1].ComponentVersion)

	root, err := detector.Detect("vendor/composer/installed.json", content)
	require.NoError(t, err)
	require.NotEmpty(t, root)
	assert.Equal(t, ".", root[0].AnchorRoot)
}
