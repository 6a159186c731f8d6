package parsers

import (
	"bufio"
	"bytes"
	"fmt"
	"net/textproto"
	"strings"
)

// ParseWheelMetadata reads the core metadata of an installed distribution
// (*.dist-info/METADATA). The header block uses RFC 822 syntax; the body
// after the first blank line is the description and is ignored.
func ParseWheelMetadata(content []byte) (Manifest, error) {
	r := textproto.NewReader(bufio.NewReader(bytes.NewReader(content)))
	header, err := r.ReadMIMEHeader()
	if err != nil && len(header) == 0 {
		return Manifest{}, fmt.Errorf("invalid METADATA: %w", err)
	}
	m := Manifest{
		Name:    header.Get("Name"),
		Version: header.Get("Version"),
		License: header.Get("License-Expression"),
	}
	if m.License == "" {
		m.License = header.Get("License")
	}
	if strings.Contains(m.License, "\n") {
		// full license text pasted into the header
		m.License = ""
	}
	return m, nil
}

// NormalizePythonName applies the PEP 503 name normalization
func NormalizePythonName(name string) string {
	var b strings.Builder
	sep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			sep = true
			continue
		}
		if sep && b.Len() > 0 {
			b.WriteByte('-')
		}
		sep = false
		b.WriteRune(r)
	}
	return b.String()
}
