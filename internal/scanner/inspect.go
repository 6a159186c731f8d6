package scanner

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/klauspost/compress/zip"

	"github.com/petrarca/composition-scanner/internal/license"
	"github.com/petrarca/composition-scanner/internal/scanner/parsers"
	"github.com/petrarca/composition-scanner/internal/types"
)

// Inspector looks at one artifact and enriches it in place. Inspectors run
// while the task pipeline is quiescent.
type Inspector interface {
	Name() string
	Inspect(ctx context.Context, sc *ScanContext, a *types.Artifact) error
}

// NestedInspectors run once per artifact inside the pass loop
func NestedInspectors() []Inspector {
	return []Inspector{&ArchiveClassifier{}, &JarInspector{}}
}

// FinalInspectors run once after the pass loop
func FinalInspectors() []Inspector {
	return []Inspector{NewTypeInspector(), NewLicenseInspector()}
}

// ArchiveClassifier decides what happens to archives that were not unpacked
// on collection: unwrap-excluded archives become atomic, the rest are
// flagged for unwrap when embedded archives are included.
type ArchiveClassifier struct{}

func (i *ArchiveClassifier) Name() string { return "archive" }

func (i *ArchiveClassifier) Inspect(_ context.Context, sc *ScanContext, a *types.Artifact) error {
	abs := a.Get(types.AttrArtifactPath)
	if abs == "" || a.IsClassified(types.ClassificationScan) || !sc.Extractor.Supports(abs) {
		return nil
	}
	if a.Has(types.AttrUnwrapped) || a.Has(types.AttrUnwrapFailed) {
		return nil
	}
	if !sc.unwrap.Accept(sc.Rel(abs)) {
		a.Classify(types.ClassificationAtomic)
		return nil
	}
	if sc.Param.IncludeEmbedded && !a.IsClassified(types.ClassificationAtomic) {
		a.Set(types.AttrScanDirective, types.DirectiveUnwrap)
	}
	return nil
}

const pomPropertiesGlob = "META-INF/maven/*/*/pom.properties"

// JarInspector reads the Maven coordinates of Java archives from their
// embedded pom.properties
type JarInspector struct{}

func (i *JarInspector) Name() string { return "jar" }

func (i *JarInspector) Inspect(_ context.Context, sc *ScanContext, a *types.Artifact) error {
	if !isJavaArchive(a.ID) || a.GroupID != "" {
		return nil
	}

	var props []map[string]string
	var err error
	if extracted := a.Get(types.AttrExtractedPath); extracted != "" {
		props, err = pomPropertiesFromDir(sc.Abs(extracted))
	} else if abs := a.Get(types.AttrArtifactPath); abs != "" {
		props, err = pomPropertiesFromZip(abs)
	}
	if err != nil {
		return fmt.Errorf("failed to read pom.properties of %s: %w", a.ID, err)
	}

	p := selectPomProperties(props, a.ID)
	if p == nil {
		return nil
	}
	a.GroupID = p["groupId"]
	a.Component = p["artifactId"]
	if a.Version == "" {
		a.Version = p["version"]
	}
	a.Set(types.AttrGroupID, a.GroupID)
	if a.GroupID != "" && a.Component != "" && a.Version != "" {
		a.Set(types.AttrPURL, fmt.Sprintf("pkg:maven/%s/%s@%s", a.GroupID, a.Component, a.Version))
	}
	return nil
}

func isJavaArchive(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".jar", ".war", ".ear":
		return true
	}
	return false
}

func pomPropertiesFromDir(dir string) ([]map[string]string, error) {
	fsys := os.DirFS(dir)
	matches, err := doublestar.Glob(fsys, pomPropertiesGlob)
	if err != nil {
		return nil, err
	}
	var out []map[string]string
	for _, m := range matches {
		data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(m)))
		if err != nil {
			return nil, err
		}
		out = append(out, parsers.ParseProperties(data))
	}
	return out, nil
}

func pomPropertiesFromZip(file string) ([]map[string]string, error) {
	r, err := zip.OpenReader(file)
	if err != nil {
		// not every .jar is a readable zip; nothing to report
		return nil, nil
	}
	defer r.Close()

	var out []map[string]string
	for _, f := range r.File {
		if ok, _ := doublestar.Match(pomPropertiesGlob, f.Name); !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(io.LimitReader(rc, 1<<20))
		rc.Close()
		if err != nil {
			return nil, err
		}
		out = append(out, parsers.ParseProperties(data))
	}
	return out, nil
}

// selectPomProperties picks the coordinates describing the archive itself.
// Shaded archives carry several; the one whose artifactId prefixes the file
// name wins.
func selectPomProperties(props []map[string]string, fileName string) map[string]string {
	if len(props) == 1 {
		return props[0]
	}
	for _, p := range props {
		if id := p["artifactId"]; id != "" && strings.HasPrefix(fileName, id) {
			return p
		}
	}
	return nil
}

// LicenseInspector detects license files at the root of components and
// unpacked archives
type LicenseInspector struct {
	detector *license.LicenseDetector
}

// NewLicenseInspector creates a license inspector
func NewLicenseInspector() *LicenseInspector {
	return &LicenseInspector{detector: license.NewLicenseDetector()}
}

func (i *LicenseInspector) Name() string { return "license" }

func (i *LicenseInspector) Inspect(_ context.Context, sc *ScanContext, a *types.Artifact) error {
	if a.Get(types.AttrLicenses) != "" {
		return nil
	}
	var root string
	switch {
	case a.Get(types.AttrComponentSourceType) == types.SourceTypeComponentPattern:
		root = a.Get(types.AttrVirtualRootPath)
	case a.IsClassified(types.ClassificationScan):
		root = a.Get(types.AttrExtractedPath)
	default:
		return nil
	}
	matches := i.detector.DetectLicensesInDirectory(sc.Abs(root))
	if len(matches) > 0 {
		a.Set(types.AttrLicenses, license.Join(matches))
	}
	return nil
}
