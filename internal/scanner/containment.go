package scanner

import (
	"github.com/petrarca/composition-scanner/internal/types"
)

// propagateContainment marks every artifact with the assets enclosing it
// and every unpacked-archive asset with the assets that hold it
func propagateContainment(sc *ScanContext) {
	for _, a := range sc.Inventory.Artifacts() {
		sc.Inventory.Update(a, func(a *types.Artifact) {
			for _, id := range a.AssetIDChain() {
				a.Set(id, types.MarkerContained)
			}
		})
	}

	for _, m := range sc.Inventory.Assets() {
		if m.AssetID == sc.RootAssetID() {
			continue
		}
		parents := sc.AssetIDChain(parentDir(m.Path))
		sc.Inventory.UpdateAsset(m.AssetID, func(m *types.AssetMetadata) {
			for _, id := range parents {
				m.Set(id, types.MarkerContains)
			}
		})
	}
}
