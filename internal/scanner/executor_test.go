package scanner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrarca/composition-scanner/internal/types"
)

func nestedArchiveTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	inner := zipBytes(t, map[string]string{"hello.txt": "hello"})
	writeTree(t, dir, map[string][]byte{
		"bundle.tar.gz": tarGzBytes(t, map[string][]byte{"inner.zip": inner}),
		"README.md":     []byte("# demo\n"),
	})
	return dir
}

func TestScanExecutor_ImplicitUnwrapSinglePass(t *testing.T) {
	dir := nestedArchiveTree(t)
	sc := newTestContext(t, dir, types.DefaultScanParam())

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Passes)
	assert.Equal(t, 4, result.Files, "README, bundle, inner.zip and hello.txt")
	assert.Equal(t, 3, result.Dirs, "root and two unpack directories")
	assert.Empty(t, result.Issues)

	artifacts := result.Inventory.Artifacts()
	hello := artifactByPath(artifacts, "[bundle.tar.gz]/[inner.zip]/hello.txt")
	require.NotNil(t, hello)
	assert.Equal(t, "hello.txt", hello.ID)
	assert.NotEmpty(t, hello.Checksum)
	assert.NotEmpty(t, hello.Get(types.AttrChecksumSHA1))

	// unpacked archives are superseded by their contents
	assert.Len(t, artifacts, 2, "README and hello.txt")
	assert.Nil(t, artifactByPath(artifacts, "bundle.tar.gz"))
	assert.Nil(t, artifactByPath(artifacts, "[bundle.tar.gz]/inner.zip"))
	assert.Len(t, result.Inventory.Assets(), 3, "unpacked archives stay assets")
	for _, a := range artifacts {
		for k := range a.Attributes {
			assert.False(t, strings.HasPrefix(k, types.ProcessingPrefix), "processing attribute %s left on %s", k, a.ID)
		}
	}
}

func TestScanExecutor_EmbeddedArchivesTakeOnePassPerLevel(t *testing.T) {
	dir := nestedArchiveTree(t)
	param := types.DefaultScanParam()
	param.ImplicitUnwrap = false
	param.IncludeEmbedded = true
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	// pass 1 collects the bundle, pass 2 unwraps it, pass 3 unwraps inner.zip
	assert.Equal(t, 3, result.Passes)
	assert.Empty(t, result.Issues)

	artifacts := result.Inventory.Artifacts()
	hello := artifactByPath(artifacts, "[bundle.tar.gz]/[inner.zip]/hello.txt")
	require.NotNil(t, hello)

	// the file is marked as contained in both archives and the scan root
	assets := result.Inventory.Assets()
	require.Len(t, assets, 3)
	for _, m := range assets {
		assert.Equal(t, types.MarkerContained, hello.Get(m.AssetID), "marker for %s", m.Path)
	}

	innerID, ok := sc.AssetID("[bundle.tar.gz]/[inner.zip]")
	require.True(t, ok)
	bundleID, ok := sc.AssetID("[bundle.tar.gz]")
	require.True(t, ok)
	inner, ok := result.Inventory.Asset(innerID)
	require.True(t, ok)
	assert.Equal(t, types.MarkerContains, inner.Attributes[bundleID])
	assert.Equal(t, types.MarkerContains, inner.Attributes[sc.RootAssetID()])
}

func TestScanExecutor_PassLimit(t *testing.T) {
	dir := nestedArchiveTree(t)
	param := types.DefaultScanParam()
	param.ImplicitUnwrap = false
	param.MaxPasses = 1
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Passes)
	require.Len(t, result.Issues, 1)
	assert.Contains(t, result.Issues[0], "pass limit")
	bundle := artifactByPath(result.Inventory.Artifacts(), "bundle.tar.gz")
	require.NotNil(t, bundle)
	assert.NotEqual(t, types.SourceTypeArchive, bundle.Get(types.AttrComponentSourceType))
}

func TestScanExecutor_EmbeddedExcluded(t *testing.T) {
	dir := nestedArchiveTree(t)
	param := types.DefaultScanParam()
	param.ImplicitUnwrap = false
	param.IncludeEmbedded = false
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Passes)
	assert.Len(t, result.Inventory.Artifacts(), 2)
	assert.Len(t, result.Inventory.Assets(), 1)
}

func TestScanExecutor_UnwrapExcludeKeepsArchiveAtomic(t *testing.T) {
	dir := nestedArchiveTree(t)
	param := types.DefaultScanParam()
	param.UnwrapExcludes = []string{"**/*.zip"}
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	artifacts := result.Inventory.Artifacts()
	require.NotNil(t, artifactByPath(artifacts, "[bundle.tar.gz]/inner.zip"))
	assert.Nil(t, artifactByPath(artifacts, "[bundle.tar.gz]/[inner.zip]/hello.txt"))
}

func TestScanExecutor_CollectExcludes(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string][]byte{
		"src/main.go":      []byte("package main\n"),
		"build/output.bin": {0x00, 0x01},
		"docs/guide.md":    []byte("guide\n"),
	})
	param := types.DefaultScanParam()
	param.CollectExcludes = []string{"build/**", "**/*.md"}
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	artifacts := result.Inventory.Artifacts()
	require.Len(t, artifacts, 1)
	assert.Equal(t, "main.go", artifacts[0].ID)
	assert.Equal(t, "Go", artifacts[0].Get(types.AttrLanguage))
}

func TestScanExecutor_ImplicitUnwrapSupersedesJar(t *testing.T) {
	dir := t.TempDir()
	jar := zipBytes(t, map[string]string{
		"META-INF/MANIFEST.MF":                       "Manifest-Version: 1.0\n",
		"META-INF/maven/com.acme/app/pom.properties": "groupId=com.acme\nartifactId=app\nversion=1.0\n",
		"com/acme/App.class":                         "\xca\xfe\xba\xbe",
	})
	writeTree(t, dir, map[string][]byte{"app/app.jar": jar})

	param := types.DefaultScanParam()
	param.CollectIncludes = []string{"**/*"}
	param.DetectComponentPatterns = false
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	artifacts := result.Inventory.Artifacts()
	require.Len(t, artifacts, 3)
	for _, path := range []string{
		"app/[app.jar]/com/acme/App.class",
		"app/[app.jar]/META-INF/MANIFEST.MF",
		"app/[app.jar]/META-INF/maven/com.acme/app/pom.properties",
	} {
		assert.NotNil(t, artifactByPath(artifacts, path), path)
	}
	for _, a := range artifacts {
		assert.NotEqual(t, "app.jar", a.ID)
	}
	assert.Nil(t, artifactByPath(artifacts, "app/app.jar"))
}

func TestScanExecutor_JarMergesWithDetectedComponent(t *testing.T) {
	dir := t.TempDir()
	jar := zipBytes(t, map[string]string{
		"META-INF/MANIFEST.MF":                       "Manifest-Version: 1.0\n",
		"META-INF/maven/com.acme/app/pom.properties": "groupId=com.acme\nartifactId=app\nversion=1.0\n",
		"com/acme/App.class":                         "\xca\xfe\xba\xbe",
	})
	writeTree(t, dir, map[string][]byte{"app/app.jar": jar})

	param := types.DefaultScanParam()
	param.DetectComponentPatterns = true
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)
	require.True(t, result.Validation.Valid())

	artifacts := result.Inventory.Artifacts()
	require.Len(t, artifacts, 1, "claimed files are folded into the jar")
	a := artifacts[0]
	assert.Equal(t, "app.jar", a.ID)
	assert.Equal(t, "1.0", a.Version)
	assert.Equal(t, "com.acme", a.GroupID)
	assert.Equal(t, "app", a.Component)
	assert.Equal(t, "pkg:maven/com.acme/app@1.0", a.Get(types.AttrPURL))
	assert.Equal(t, "app/app.jar", a.Get(types.AttrPathInAsset))
	assert.Len(t, result.Inventory.ComponentPatterns(), 1)
}

func TestScanExecutor_NodeModules(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string][]byte{
		"web/node_modules/lodash/package.json": []byte(`{"name":"lodash","version":"4.17.21","license":"MIT"}`),
		"web/node_modules/lodash/lodash.js":    []byte("module.exports = {};\n"),
		"web/index.js":                         []byte("require('lodash');\n"),
	})
	param := types.DefaultScanParam()
	param.DetectComponentPatterns = true
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	artifacts := result.Inventory.Artifacts()
	require.Len(t, artifacts, 2)
	lodash := artifactByPath(artifacts, "web/node_modules/lodash")
	require.NotNil(t, lodash)
	assert.Equal(t, "lodash-4.17.21", lodash.ID)
	assert.Equal(t, "pkg:npm/lodash@4.17.21", lodash.Get(types.AttrPURL))
	assert.Equal(t, "MIT", lodash.Get(types.AttrLicenses))
	assert.Equal(t, "nodejs", lodash.Get("Detector"))
	require.NotNil(t, artifactByPath(artifacts, "web/index.js"))
}

func TestScanExecutor_ReferencePatterns(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string][]byte{
		"third_party/zlib/zlib.h":    []byte("#define ZLIB_VERSION \"1.3\"\n"),
		"third_party/zlib/inflate.c": []byte("int inflate(void);\n"),
		"main.c":                     []byte("int main(void) { return 0; }\n"),
	})
	param := types.DefaultScanParam()
	param.ReferencePatterns = []*types.ComponentPatternData{{
		ComponentName:         "zlib",
		ComponentVersion:      "1.3",
		VersionAnchor:         "zlib.h",
		VersionAnchorChecksum: types.AnyChecksum,
		IncludePattern:        "**/*",
	}}
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	artifacts := result.Inventory.Artifacts()
	require.Len(t, artifacts, 2)
	zlib := artifactByPath(artifacts, "third_party/zlib")
	require.NotNil(t, zlib)
	assert.Equal(t, "zlib-1.3", zlib.ID)
	assert.Equal(t, types.SourceTypeComponentPattern, zlib.Get(types.AttrComponentSourceType))
	require.NotNil(t, artifactByPath(artifacts, "main.c"))
}

func TestScanExecutor_DuplicateClaims(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, map[string][]byte{
		"lib/VERSION": []byte("1\n"),
		"lib/a.c":     []byte("a\n"),
		"lib/b.c":     []byte("b\n"),
	})
	param := types.DefaultScanParam()
	param.ReferencePatterns = []*types.ComponentPatternData{
		{ComponentName: "one", ComponentVersion: "1", VersionAnchor: "VERSION", IncludePattern: "VERSION,a.c"},
		{ComponentName: "two", ComponentVersion: "1", VersionAnchor: "VERSION", IncludePattern: "a.c,b.c"},
	}
	sc := newTestContext(t, dir, param)

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Validation.Valid())
	assert.Contains(t, result.Validation.DuplicatePaths(), "lib/a.c")
	assert.Contains(t, result.Metadata.Duplicates, "lib/a.c")
}

func TestScanExecutor_Metadata(t *testing.T) {
	dir := nestedArchiveTree(t)
	sc := newTestContext(t, dir, types.DefaultScanParam())

	result, err := NewScanExecutor(sc).Execute(context.Background())
	require.NoError(t, err)

	m := result.Metadata
	require.NotNil(t, m)
	assert.Equal(t, dir, m.ScanPath)
	assert.Equal(t, 1, m.Passes)
	assert.Equal(t, result.Files, m.FileCount)
	assert.Equal(t, len(result.Inventory.Artifacts()), m.ArtifactCount)
	assert.Equal(t, 3, m.AssetCount)
}

func TestScanExecutor_Cancelled(t *testing.T) {
	dir := nestedArchiveTree(t)
	sc := newTestContext(t, dir, types.DefaultScanParam())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewScanExecutor(sc).Execute(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewScanContext_InvalidBaseDir(t *testing.T) {
	tests := []struct {
		name string
		dir  func(t *testing.T) string
	}{
		{"missing", func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing") }},
		{"file", func(t *testing.T) string {
			dir := t.TempDir()
			writeTree(t, dir, map[string][]byte{"f.txt": []byte("x")})
			return filepath.Join(dir, "f.txt")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewScanContext(tt.dir(t), types.DefaultScanParam(), Options{})
			assert.Error(t, err)
		})
	}
}
