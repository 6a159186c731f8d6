package license

import (
	"sort"
	"strings"

	"github.com/go-enry/go-license-detector/v4/licensedb"
	"github.com/go-enry/go-license-detector/v4/licensedb/filer"
)

// MinConfidence is the lowest detector confidence reported as a license
const MinConfidence = 0.9

// LicenseDetector handles file-based license detection
type LicenseDetector struct {
	minConfidence float32
}

// LicenseMatch represents a detected license with metadata
type LicenseMatch struct {
	License    string
	Confidence float32
	File       string
}

// NewLicenseDetector creates a new license detector
func NewLicenseDetector() *LicenseDetector {
	return &LicenseDetector{minConfidence: MinConfidence}
}

// DetectLicensesInDirectory detects licenses from LICENSE files in a directory.
// Matches are sorted by license id.
func (d *LicenseDetector) DetectLicensesInDirectory(dirPath string) []LicenseMatch {
	// Create a filer for the directory
	fs, err := filer.FromDirectory(dirPath)
	if err != nil {
		return nil
	}

	// Detect licenses
	matches, err := licensedb.Detect(fs)
	if err != nil {
		return nil
	}

	// Extract license matches above the confidence threshold
	var licenses []LicenseMatch
	for licenseID, match := range matches {
		if match.Confidence > d.minConfidence {
			licenses = append(licenses, LicenseMatch{
				License:    licenseID,
				Confidence: match.Confidence,
				File:       match.File,
			})
		}
	}
	sort.Slice(licenses, func(i, j int) bool { return licenses[i].License < licenses[j].License })
	return licenses
}

// Join renders matches as the comma separated license attribute value
func Join(matches []LicenseMatch) string {
	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.License)
	}
	return strings.Join(ids, ", ")
}
