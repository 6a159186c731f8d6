package components

import (
	"path"
	"strings"

	"github.com/petrarca/composition-scanner/internal/componentpattern"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector derives component patterns from package manifests found in the
// scanned tree
type Detector interface {
	// Name returns the name of this detector (e.g., "nodejs", "python")
	Name() string

	// Anchors returns the globs, relative to the scan root, selecting the
	// manifest files the detector reads
	Anchors() []string

	// Detect turns one manifest into patterns. anchor is the manifest path
	// relative to the scan root. Returns nil if the manifest does not
	// describe an installed package.
	Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error)
}

// AttrDetector names the detector that produced a pattern
const AttrDetector = "Detector"

// Root strips the last n segments from a slash separated path. The scan
// root is returned as "".
func Root(anchor string, n int) (string, bool) {
	parts := strings.Split(anchor, "/")
	if n > len(parts) {
		return "", false
	}
	return strings.Join(parts[:len(parts)-n], "/"), true
}

// NewPattern creates a pattern pinned to one occurrence of anchor below
// root. The version anchor is the anchor path relative to root.
func NewPattern(detector, name, version, root, anchor string) *types.ComponentPatternData {
	if root == "." {
		root = ""
	}
	relAnchor := strings.TrimPrefix(anchor, root+"/")
	pinned := root
	if root == "" {
		relAnchor = anchor
		pinned = "."
	}
	return &types.ComponentPatternData{
		ComponentName:    name,
		ComponentVersion: version,
		VersionAnchor:    relAnchor,
		AnchorRoot:       pinned,
		Attributes:       map[string]string{AttrDetector: detector},
	}
}

// VirtualArchiveName returns the archive name when dir is the unpack
// directory of an archive, e.g. "app.jar" for "lib/[app.jar]"
func VirtualArchiveName(dir string) (string, bool) {
	base := path.Base(dir)
	if componentpattern.IsVirtualDir(base) {
		return base[1 : len(base)-1], true
	}
	return "", false
}
