package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"log/slog"

	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/petrarca/composition-scanner/internal/util"
)

// EnvPrefix starts every environment variable read by LoadSettings
const EnvPrefix = "COMPOSITION_SCANNER_"

// Settings holds all scanner configuration
type Settings struct {
	// Output settings
	OutputFile  string
	Format      string
	PrettyPrint bool

	// Scan behavior
	CollectIncludes         []string
	CollectExcludes         []string
	UnwrapIncludes          []string
	UnwrapExcludes          []string
	ImplicitUnwrap          bool
	IncludeEmbedded         bool
	DetectComponentPatterns bool
	PatternsDir             string
	Workers                 int
	ExtractionTimeout       time.Duration
	MaxPasses               int
	SevenZipPath            string
	FailOnDuplicates        bool
	RootID                  string // Override the derived root asset id
	Verbose                 bool
	Debug                   bool

	// Logging
	LogLevel  slog.Level
	LogFormat string // "text" or "json"
	LogFile   string // Optional: write logs to file instead of stderr
}

// DefaultSettings returns default configuration
func DefaultSettings() *Settings {
	return &Settings{
		OutputFile:              "inventory.json",
		Format:                  "json",
		PrettyPrint:             true,
		CollectIncludes:         []string{},
		CollectExcludes:         []string{},
		UnwrapIncludes:          []string{},
		UnwrapExcludes:          []string{},
		ImplicitUnwrap:          true,
		IncludeEmbedded:         true,
		DetectComponentPatterns: true,
		Workers:                 types.DefaultWorkers,
		ExtractionTimeout:       types.DefaultExtractionTimeout,
		MaxPasses:               types.DefaultMaxPasses,
		LogLevel:                slog.LevelError, // only errors by default
		LogFormat:               "text",
		LogFile:                 "", // Empty = stderr
	}
}

// LoadSettings creates settings from defaults and applies environment variable overrides
func LoadSettings() *Settings {
	settings := DefaultSettings()

	// Apply environment variable overrides
	if outputFile := getenv("OUTPUT"); outputFile != "" {
		settings.OutputFile = outputFile
	}
	if format := getenv("FORMAT"); format != "" {
		settings.Format = util.NormalizeFormat(format)
	}
	envBool("PRETTY", &settings.PrettyPrint)

	envList("COLLECT_INCLUDES", &settings.CollectIncludes)
	envList("COLLECT_EXCLUDES", &settings.CollectExcludes)
	envList("UNWRAP_INCLUDES", &settings.UnwrapIncludes)
	envList("UNWRAP_EXCLUDES", &settings.UnwrapExcludes)
	envBool("IMPLICIT_UNWRAP", &settings.ImplicitUnwrap)
	envBool("INCLUDE_EMBEDDED", &settings.IncludeEmbedded)
	envBool("DETECT_COMPONENTS", &settings.DetectComponentPatterns)
	envBool("FAIL_ON_DUPLICATES", &settings.FailOnDuplicates)

	if dir := getenv("PATTERNS_DIR"); dir != "" {
		settings.PatternsDir = dir
	}
	if workers := getenv("WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			settings.Workers = n
		}
	}
	if timeout := getenv("EXTRACTION_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			settings.ExtractionTimeout = d
		}
	}
	if passes := getenv("MAX_PASSES"); passes != "" {
		if n, err := strconv.Atoi(passes); err == nil {
			settings.MaxPasses = n
		}
	}
	if sevenZip := getenv("7Z_PATH"); sevenZip != "" {
		settings.SevenZipPath = sevenZip
	}
	if rootID := getenv("ROOT_ID"); rootID != "" {
		settings.RootID = rootID
	}
	envBool("VERBOSE", &settings.Verbose)
	envBool("DEBUG", &settings.Debug)

	// Logging settings
	if logLevel := getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLogLevel(logLevel); err == nil {
			settings.LogLevel = level
		}
	}
	if logFormat := getenv("LOG_FORMAT"); logFormat != "" {
		settings.LogFormat = logFormat
	}
	if logFile := getenv("LOG_FILE"); logFile != "" {
		settings.LogFile = logFile
	}

	return settings
}

func getenv(name string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + name))
}

func envBool(name string, target *bool) {
	if v := getenv(name); v != "" {
		*target = strings.ToLower(v) == "true"
	}
}

func envList(name string, target *[]string) {
	if v := getenv(name); v != "" {
		*target = SplitList(v)
	}
}

// SplitList splits a comma separated list and drops blank entries
func SplitList(list string) []string {
	var out []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseLogLevel converts string log level to slog.Level
func ParseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	case "fatal":
		return slog.LevelError, nil // slog doesn't have fatal, use error
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level: %s", level)
	}
}

// ConfigureLogger sets up the global logger based on settings
func (s *Settings) ConfigureLogger() *slog.Logger {
	var handler slog.Handler

	// Set output destination
	var output io.Writer = os.Stderr
	if s.LogFile != "" {
		file, err := os.OpenFile(s.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			// Fallback to stderr if file can't be opened
			fmt.Fprintf(os.Stderr, "Warning: Cannot open log file %s: %v\n", s.LogFile, err)
			output = os.Stderr
		} else {
			output = file
		}
	}

	// Set log format and level
	opts := &slog.HandlerOptions{
		Level: s.LogLevel,
	}

	if s.LogFormat == "json" {
		handler = slog.NewJSONHandler(output, opts)
	} else {
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}

// Validate checks if settings are valid
func (s *Settings) Validate() error {
	var errs []error
	if s.Verbose && s.Debug {
		errs = append(errs, errors.New("cannot use --verbose and --debug together"))
	}
	if err := util.ValidateOutputFormat(s.Format); err != nil {
		errs = append(errs, err)
	}
	if s.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", s.Workers))
	}
	if s.ExtractionTimeout <= 0 {
		errs = append(errs, fmt.Errorf("extraction timeout must be positive, got %s", s.ExtractionTimeout))
	}
	if s.MaxPasses < 1 {
		errs = append(errs, fmt.Errorf("max passes must be at least 1, got %d", s.MaxPasses))
	}
	if s.LogFormat != "text" && s.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("invalid log format: %s", s.LogFormat))
	}
	return errors.Join(errs...)
}

// ScanParam builds the scan parameters. patterns are the loaded reference
// component patterns.
func (s *Settings) ScanParam(patterns []*types.ComponentPatternData) types.ScanParam {
	param := types.ScanParam{
		CollectIncludes:         s.CollectIncludes,
		CollectExcludes:         s.CollectExcludes,
		UnwrapIncludes:          s.UnwrapIncludes,
		UnwrapExcludes:          s.UnwrapExcludes,
		ImplicitUnwrap:          s.ImplicitUnwrap,
		IncludeEmbedded:         s.IncludeEmbedded,
		DetectComponentPatterns: s.DetectComponentPatterns,
		ReferencePatterns:       patterns,
		Workers:                 s.Workers,
		ExtractionTimeout:       s.ExtractionTimeout,
		MaxPasses:               s.MaxPasses,
		SevenZipPath:            s.SevenZipPath,
	}
	return param.WithDefaults()
}
