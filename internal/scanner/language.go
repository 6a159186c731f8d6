package scanner

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/go-enry/go-enry/v2"

	"github.com/petrarca/composition-scanner/internal/types"
)

// headSize is how much of a file is read for binary and language sniffing
const headSize = 8 << 10

// Type attribute values
const (
	TypeArchive       = "archive"
	TypeBinary        = "binary"
	TypeProgramming   = "programming"
	TypeMarkup        = "markup"
	TypeData          = "data"
	TypeProse         = "prose"
	TypeDocumentation = "documentation"
	TypeText          = "text"
)

// LanguageDetector handles language detection using go-enry (GitHub Linguist)
type LanguageDetector struct{}

// NewLanguageDetector creates a new language detector
func NewLanguageDetector() *LanguageDetector {
	return &LanguageDetector{}
}

// DetectLanguage detects the programming language from a filename and optional content.
// Content is only consulted for ambiguous extensions.
func (d *LanguageDetector) DetectLanguage(filename string, content []byte) string {
	lang, safe := enry.GetLanguageByExtension(filename)

	if !safe && lang != "" && len(content) > 0 {
		lang = enry.GetLanguage(filepath.Base(filename), content)
	}

	// Makefile, Dockerfile and friends
	if lang == "" {
		lang, _ = enry.GetLanguageByFilename(filename)
	}

	return lang
}

// Classify returns the Type attribute value for a file
func (d *LanguageDetector) Classify(filename, language string, head []byte) string {
	switch {
	case len(head) > 0 && enry.IsBinary(head):
		return TypeBinary
	case enry.IsDocumentation(filename):
		return TypeDocumentation
	}
	switch enry.GetLanguageType(language) {
	case enry.Programming:
		return TypeProgramming
	case enry.Markup:
		return TypeMarkup
	case enry.Data:
		return TypeData
	case enry.Prose:
		return TypeProse
	}
	return TypeText
}

// TypeInspector sets the Type and Language attributes of file artifacts
type TypeInspector struct {
	languages *LanguageDetector
}

// NewTypeInspector creates a type inspector
func NewTypeInspector() *TypeInspector {
	return &TypeInspector{languages: NewLanguageDetector()}
}

func (i *TypeInspector) Name() string { return "type" }

func (i *TypeInspector) Inspect(_ context.Context, sc *ScanContext, a *types.Artifact) error {
	if a.Get(types.AttrType) != "" {
		return nil
	}
	abs := a.Get(types.AttrArtifactPath)
	if a.IsClassified(types.ClassificationScan) || (abs != "" && sc.Extractor.Supports(abs)) {
		a.Set(types.AttrType, TypeArchive)
		return nil
	}
	if abs == "" {
		return nil
	}

	head, err := readHead(abs)
	if err != nil {
		return err
	}
	lang := i.languages.DetectLanguage(a.ID, head)
	a.Set(types.AttrType, i.languages.Classify(a.ID, lang, head))
	a.Set(types.AttrLanguage, lang)
	return nil
}

func readHead(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	buf := make([]byte, headSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
