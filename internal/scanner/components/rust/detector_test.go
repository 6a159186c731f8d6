package rust

import (
	"testing"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetector_Name(t *testing.T) {
	detector := &Detector{}
	assert.Equal(t, "rust", detector.Name())
}

func TestDetector_Detect(t *testing.T) {
	detector := &Detector{}

	tests := []struct {
		name       string
		anchor     string
		content    string
		wantRoot   string
		wantAnchor string
		wantNone   bool
	}{
		{
			name:       "vendored crate",
			anchor:     "vendor/serde/Cargo.toml",
			content:    "[package]\nname = \"serde\"\nversion = \"1.0.197\"\nlicense = \"MIT OR Apache-2.0\"\n",
			wantRoot:   "vendor/serde",
			wantAnchor: "Cargo.toml",
		},
		{
			name:       "crate at scan root",
			anchor:     "Cargo.toml",
			content:    "[package]\nname = \"serde\"\nversion = \"1.0.197\"\n",
			wantRoot:   ".",
			wantAnchor: "Cargo.toml",
		},
		{
			name:     "workspace manifest",
			anchor:   "Cargo.toml",
			content:  "[workspace]\nmembers = [\"a\", \"b\"]\n",
			wantNone: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			patterns, err := detector.Detect(tt.anchor, []byte(tt.content))
			require.NoError(t, err)
			if tt.wantNone {
				assert.Nil(t, patterns)
				return
			}
			require.Len(t, patterns, 1)
			p := patterns[0]
			assert.Equal(t, "serde", p.ComponentName)
			assert.Equal(t, "1.0.197", p.ComponentVersion)
			assert.Equal(t, tt.wantRoot, p.AnchorRoot)
			assert.Equal(t, tt.wantAnchor, p.VersionAnchor)
			assert.Equal(t, "target/**", p.ExcludePattern)
			assert.Equal(t, "pkg:cargo/serde@1.0.197", p.Attributes[types.AttrPURL])
		})
	}

	_, err := detector.Detect("Cargo.toml", []byte("[package"))
	assert.Error(t, err)
}
