package componentpattern

import (
	"fmt"
	"testing"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIndex(files ...string) Index {
	return Index{
		Files:    files,
		ScanRoot: "/scan",
		Checksum: func(rel string) (string, error) {
			return fmt.Sprintf("%064x", len(rel)), nil
		},
		AssetIDChain: func(rel string) []string {
			return []string{"AID-scan"}
		},
	}
}

func TestMatcher_AnchorRootAndClaims(t *testing.T) {
	idx := testIndex(
		"opt/zlib/include/zlib.h",
		"opt/zlib/src/inflate.c",
		"opt/zlib/test/example.c",
		"opt/other/readme.txt",
	)
	p := &types.ComponentPatternData{
		ComponentName:    "zlib",
		ComponentVersion: "1.3",
		VersionAnchor:    "include/zlib.h",
		IncludePattern:   "**/*.c,**/*.h",
		ExcludePattern:   "test/**",
		Type:             "library",
	}

	matches := NewMatcher(nil).Match([]*types.ComponentPatternData{p}, idx)

	require.Len(t, matches, 1)
	m := matches[0]
	assert.Equal(t, "opt/zlib/include/zlib.h", m.AnchorPath)
	assert.Equal(t, "opt/zlib", m.VersionAnchorRoot)
	assert.Equal(t, "", m.VirtualRoot)
	assert.Equal(t, []string{"opt/zlib/include/zlib.h", "opt/zlib/src/inflate.c"}, m.ClaimedFiles())
	assert.Equal(t, "src/inflate.c", m.Claimed["opt/zlib/src/inflate.c"])
	assert.Equal(t, "zlib-1.3@opt/zlib/include/zlib.h", m.Key())

	a := m.Artifact()
	assert.Equal(t, "zlib-1.3", a.ID)
	assert.Equal(t, "zlib", a.Component)
	assert.Equal(t, "1.3", a.Version)
	assert.Equal(t, "library", a.Get(types.AttrType))
	assert.Equal(t, types.SourceTypeComponentPattern, a.Get(types.AttrComponentSourceType))
	assert.Equal(t, "zlib--1.3", a.Get(types.AttrComponentPattern))
	assert.Equal(t, "opt/zlib", a.Get(types.AttrVirtualRootPath))
	assert.Equal(t, "opt/zlib", a.Get(types.AttrPathInAsset))
	assert.Equal(t, []string{"AID-scan"}, a.AssetIDChain())
}

func TestMatcher_VirtualRoot(t *testing.T) {
	idx := testIndex(
		"app/[app.jar]/META-INF/maven/com.acme/app/pom.properties",
		"app/[app.jar]/com/acme/App.class",
	)
	p := &types.ComponentPatternData{
		ComponentName:  "app",
		ComponentPart:  "app.jar",
		VersionAnchor:  "META-INF/maven/com.acme/app/pom.properties",
		IncludePattern: "**/*",
		Attributes:     map[string]string{types.AttrGroupID: "com.acme"},
	}

	matches := NewMatcher(nil).Match([]*types.ComponentPatternData{p}, idx)

	require.Len(t, matches, 1)
	assert.Equal(t, "app/[app.jar]", matches[0].VersionAnchorRoot)
	assert.Equal(t, "app/[app.jar]", matches[0].VirtualRoot)
	assert.Len(t, matches[0].Claimed, 2)

	a := matches[0].Artifact()
	assert.Equal(t, "app.jar", a.ID)
	assert.Equal(t, "com.acme", a.GroupID)
}

func TestMatcher_ChecksumConstraint(t *testing.T) {
	idx := testIndex("a/zlib.h", "bb/zlib.h")
	want := fmt.Sprintf("%064x", len("bb/zlib.h"))

	tests := []struct {
		name     string
		checksum string
		expected []string
	}{
		{name: "any checksum", checksum: "*", expected: []string{"a/zlib.h", "bb/zlib.h"}},
		{name: "empty checksum", checksum: "", expected: []string{"a/zlib.h", "bb/zlib.h"}},
		{name: "pinned checksum", checksum: want, expected: []string{"bb/zlib.h"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &types.ComponentPatternData{ComponentName: "zlib", VersionAnchor: "zlib.h", VersionAnchorChecksum: tt.checksum}
			var anchors []string
			for _, m := range NewMatcher(nil).Match([]*types.ComponentPatternData{p}, idx) {
				anchors = append(anchors, m.AnchorPath)
			}
			assert.Equal(t, tt.expected, anchors)
		})
	}
}

func TestMatcher_AnchorRootConstraintAndRootedAnchor(t *testing.T) {
	idx := testIndex("x/node_modules/a/package.json", "y/node_modules/a/package.json", "etc/os-release")

	pinned := &types.ComponentPatternData{ComponentName: "a", VersionAnchor: "package.json", AnchorRoot: "y/node_modules/a"}
	rooted := &types.ComponentPatternData{ComponentName: "os", VersionAnchor: "/etc/os-release"}

	matches := NewMatcher(nil).Match([]*types.ComponentPatternData{pinned, rooted}, idx)

	require.Len(t, matches, 2)
	assert.Equal(t, "etc", matches[0].VersionAnchorRoot)
	assert.Equal(t, []string{"etc/os-release"}, matches[0].ClaimedFiles(), "empty include claims the anchor only")
	assert.Equal(t, "y/node_modules/a", matches[1].VersionAnchorRoot)
}

func TestMatcher_ResultIndependentOfInputOrder(t *testing.T) {
	files := []string{"b/zlib.h", "a/zlib.h", "c/zlib.h", "a/x.c", "b/x.c"}
	reversed := make([]string, len(files))
	for i, f := range files {
		reversed[len(files)-1-i] = f
	}
	p := &types.ComponentPatternData{ComponentName: "zlib", VersionAnchor: "zlib.h", IncludePattern: "**/*"}
	q := &types.ComponentPatternData{ComponentName: "x", VersionAnchor: "x.c"}

	first := NewMatcher(nil).Match([]*types.ComponentPatternData{p, q}, testIndex(files...))
	second := NewMatcher(nil).Match([]*types.ComponentPatternData{q, p}, testIndex(reversed...))

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Key(), second[i].Key())
		assert.Equal(t, first[i].Claimed, second[i].Claimed)
	}
}

func TestIsVirtualDir(t *testing.T) {
	assert.True(t, IsVirtualDir("[app.jar]"))
	assert.False(t, IsVirtualDir("[]"))
	assert.False(t, IsVirtualDir("app.jar"))
}

func TestMatcher_AnchorRootPinsScanRoot(t *testing.T) {
	idx := testIndex("go.mod", "main.go", "sub/go.mod", "sub/x.go")
	p := &types.ComponentPatternData{ComponentName: "app", VersionAnchor: "go.mod", AnchorRoot: ".", IncludePattern: "**/*.go"}

	matches := NewMatcher(nil).Match([]*types.ComponentPatternData{p}, idx)

	require.Len(t, matches, 1)
	assert.Equal(t, "go.mod", matches[0].AnchorPath)
	assert.Equal(t, "", matches[0].VersionAnchorRoot)
	assert.Equal(t, []string{"main.go", "sub/x.go"}, matches[0].ClaimedFiles())
	assert.Equal(t, ".", matches[0].Artifact().Get(types.AttrPathInAsset))
}
