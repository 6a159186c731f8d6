package java

import (
	"strings"

	"github.com/petrarca/composition-scanner/internal/scanner/components"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Detector implements Maven artifact detection from embedded pom.properties
type Detector struct{}

func (d *Detector) Name() string {
	return "java"
}

func (d *Detector) Anchors() []string {
	return []string{"**/META-INF/maven/*/*/pom.properties"}
}

// Detect describes the archive or exploded directory holding META-INF.
// Inside an unpacked archive the pattern is named after the archive so the
// result pairs with the archive's own artifact. Coordinates of shaded
// dependencies, whose artifactId does not prefix the archive name, are
// ignored.
func (d *Detector) Detect(anchor string, content []byte) ([]*types.ComponentPatternData, error) {
	m := parsers.ParsePomProperties(content)
	if !m.Valid() {
		return nil, nil
	}
	root, ok := components.Root(anchor, 5)
	if !ok {
		return nil, nil
	}

	archive, inArchive := components.VirtualArchiveName(root)
	if inArchive && !strings.HasPrefix(archive, m.Name) {
		return nil, nil
	}

	p := components.NewPattern(d.Name(), m.Name, m.Version, root, anchor)
	if inArchive {
		p.ComponentPart = archive
	}
	p.IncludePattern = "**/*"
	p.Type = "maven"
	p.Attributes[types.AttrGroupID] = m.Namespace
	p.Attributes[types.AttrPURL] = parsers.Purl(parsers.PurlTypeMaven, m)
	return []*types.ComponentPatternData{p}, nil
}

func init() {
	// Auto-register this detector
	components.Register(&Detector{})
}
