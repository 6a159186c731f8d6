package util

import (
	"fmt"
	"sort"
	"strings"
)

// ValidOutputFormats defines the supported output formats
var ValidOutputFormats = map[string]bool{
	"json": true,
	"yaml": true,
}

// ValidateOutputFormat checks if the given format is valid
func ValidateOutputFormat(format string) error {
	if !ValidOutputFormats[NormalizeFormat(format)] {
		return fmt.Errorf("invalid format: %s. Valid formats are: %s", format, strings.Join(GetValidFormats(), ", "))
	}
	return nil
}

// GetValidFormats returns the valid output formats in sorted order
func GetValidFormats() []string {
	formats := make([]string, 0, len(ValidOutputFormats))
	for format := range ValidOutputFormats {
		formats = append(formats, format)
	}
	sort.Strings(formats)
	return formats
}

// NormalizeFormat normalizes the format string to lowercase. "yml" is an
// alias for "yaml".
func NormalizeFormat(format string) string {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "yml" {
		return "yaml"
	}
	return format
}

// FormatForFile infers the output format from a file extension. It returns
// "" when the extension does not name a format.
func FormatForFile(path string) string {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return "json"
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return "yaml"
	}
	return ""
}
