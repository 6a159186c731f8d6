package types

import "time"

// Defaults for ScanParam
const (
	DefaultWorkers           = 4
	DefaultExtractionTimeout = time.Hour
	DefaultMaxPasses         = 64
)

// ScanParam controls which files are visited and how archives are handled
type ScanParam struct {
	CollectIncludes []string
	CollectExcludes []string
	UnwrapIncludes  []string
	UnwrapExcludes  []string

	ImplicitUnwrap          bool
	IncludeEmbedded         bool
	DetectComponentPatterns bool

	// ReferencePatterns are the static component patterns to apply
	ReferencePatterns []*ComponentPatternData

	Workers           int
	ExtractionTimeout time.Duration
	MaxPasses         int
	SevenZipPath      string
}

// DefaultScanParam visits and unwraps everything
func DefaultScanParam() ScanParam {
	return ScanParam{
		CollectIncludes:   []string{"**/*"},
		UnwrapIncludes:    []string{"**/*"},
		ImplicitUnwrap:    true,
		IncludeEmbedded:   true,
		Workers:           DefaultWorkers,
		ExtractionTimeout: DefaultExtractionTimeout,
		MaxPasses:         DefaultMaxPasses,
	}
}

// WithDefaults fills zero-valued limits
func (p ScanParam) WithDefaults() ScanParam {
	if p.Workers <= 0 {
		p.Workers = DefaultWorkers
	}
	if p.ExtractionTimeout <= 0 {
		p.ExtractionTimeout = DefaultExtractionTimeout
	}
	if p.MaxPasses <= 0 {
		p.MaxPasses = DefaultMaxPasses
	}
	if len(p.CollectIncludes) == 0 {
		p.CollectIncludes = []string{"**/*"}
	}
	return p
}
