package inventory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInventory_AddArtifactRejectsInvalid(t *testing.T) {
	inv := New()

	err := inv.AddArtifact(nil)
	require.ErrorIs(t, err, ErrInvariant)

	err = inv.AddArtifact(types.NewArtifact("  "))
	require.ErrorIs(t, err, ErrInvariant)

	require.NoError(t, inv.AddArtifact(types.NewArtifact("ok.jar")))
	assert.Len(t, inv.Artifacts(), 1)
}

func TestInventory_ConcurrentAdds(t *testing.T) {
	inv := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = inv.AddArtifact(types.NewArtifact(fmt.Sprintf("file-%d", i)))
		}(i)
	}
	wg.Wait()
	assert.Len(t, inv.Artifacts(), 50)
}

func TestInventory_RemoveArtifacts(t *testing.T) {
	inv := New()
	a := types.NewArtifact("a")
	b := types.NewArtifact("b")
	c := types.NewArtifact("c")
	for _, x := range []*types.Artifact{a, b, c} {
		require.NoError(t, inv.AddArtifact(x))
	}

	inv.RemoveArtifacts(b)

	assert.Equal(t, []*types.Artifact{a, c}, inv.Artifacts())
	assert.Len(t, inv.FindArtifacts(func(x *types.Artifact) bool { return x.ID == "c" }), 1)
}

func TestInventory_ComponentPatternsAndAssets(t *testing.T) {
	inv := New()
	p := &types.ComponentPatternData{ComponentName: "zlib", ComponentVersion: "1.3", VersionAnchor: "zlib.h"}

	assert.True(t, inv.AddComponentPattern(p))
	assert.False(t, inv.AddComponentPattern(&types.ComponentPatternData{ComponentName: "zlib", ComponentVersion: "1.3", VersionAnchor: "zlib.h"}))
	assert.Len(t, inv.ComponentPatterns(), 1)

	inv.PutAsset(types.NewAssetMetadata("AID-b", "b", ""))
	inv.PutAsset(types.NewAssetMetadata("AID-a", "a", ""))
	assets := inv.Assets()
	require.Len(t, assets, 2)
	assert.Equal(t, "a", assets[0].Path)

	got, ok := inv.Asset("AID-b")
	require.True(t, ok)
	assert.Equal(t, "b", got.Path)
}

func TestInventory_SnapshotIsSorted(t *testing.T) {
	inv := New()
	require.NoError(t, inv.AddArtifact(types.NewArtifact("z.jar")))
	require.NoError(t, inv.AddArtifact(types.NewArtifact("a.jar")))

	snap := inv.Snapshot()
	require.Len(t, snap.Artifacts, 2)
	assert.Equal(t, "a.jar", snap.Artifacts[0].ID)
}

func TestInventory_UpdateAsset(t *testing.T) {
	inv := New()
	inv.PutAsset(types.NewAssetMetadata("AID-a", "a", ""))

	assert.True(t, inv.UpdateAsset("AID-a", func(m *types.AssetMetadata) { m.Set("AID-root", types.MarkerContains) }))
	assert.False(t, inv.UpdateAsset("AID-missing", func(*types.AssetMetadata) {}))

	got, _ := inv.Asset("AID-a")
	assert.Equal(t, types.MarkerContains, got.Attributes["AID-root"])
}
