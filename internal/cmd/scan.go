package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"log/slog"

	"github.com/spf13/cobra"

	"github.com/petrarca/composition-scanner/internal/componentpattern"
	"github.com/petrarca/composition-scanner/internal/config"
	"github.com/petrarca/composition-scanner/internal/git"
	"github.com/petrarca/composition-scanner/internal/progress"
	"github.com/petrarca/composition-scanner/internal/scanner"
	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/petrarca/composition-scanner/internal/util"
)

// errDuplicateClaims is returned when --fail-on-duplicates is set and files
// remain claimed by several components
var errDuplicateClaims = errors.New("files are claimed by several components")

var (
	settings   *config.Settings
	configPath string
)

var scanCmd = &cobra.Command{
	Use:   "scan [path]",
	Short: "Scan a directory and its archives for artifacts and components",
	Long: `Scan walks a directory, unpacks nested archives until none are left and
writes the resulting inventory of artifacts, components and assets.

Examples:
  composition-scanner scan /path/to/product
  composition-scanner scan --collect-exclude "**/*.log" /path/to/product
  composition-scanner scan --unwrap-exclude "**/*.iso" --no-implicit-unwrap /path/to/image
  composition-scanner scan --patterns ./patterns --fail-on-duplicates /path/to/product
  composition-scanner scan --config scan.yml -o - --format yaml`,
	Args: cobra.MaximumNArgs(1),
	Run:  runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)

	// Initialize settings with defaults and environment variables
	settings = config.LoadSettings()
	flags := scanCmd.Flags()

	// Set up flags with defaults from environment variables
	flags.StringVarP(&settings.OutputFile, "output", "o", settings.OutputFile, "Output file path, - for stdout")
	flags.StringVarP(&settings.Format, "format", "f", settings.Format, "Output format: json or yaml")
	flags.BoolVar(&settings.PrettyPrint, "pretty", settings.PrettyPrint, "Pretty print JSON output")
	flags.StringVar(&configPath, "config", "", "Scan configuration file (YAML or JSON) or inline JSON")

	// Include and exclude patterns - support multiple flags or comma-separated values
	flags.StringSliceVar(&settings.CollectIncludes, "collect-include", settings.CollectIncludes, "Only collect files matching these globs")
	flags.StringSliceVar(&settings.CollectExcludes, "collect-exclude", settings.CollectExcludes, "Skip files and directories matching these globs")
	flags.StringSliceVar(&settings.UnwrapIncludes, "unwrap-include", settings.UnwrapIncludes, "Only unpack archives matching these globs")
	flags.StringSliceVar(&settings.UnwrapExcludes, "unwrap-exclude", settings.UnwrapExcludes, "Never unpack archives matching these globs")

	// Archive handling
	noImplicit := !settings.ImplicitUnwrap
	noEmbedded := !settings.IncludeEmbedded
	noDetect := !settings.DetectComponentPatterns
	flags.Bool("no-implicit-unwrap", noImplicit, "Do not unpack archives while collecting; unpack them in later passes")
	flags.Bool("no-embedded", noEmbedded, "Do not unpack archives that were not unpacked on collection")
	flags.Bool("no-detect", noDetect, "Disable manifest based component detection")
	flags.StringVar(&settings.PatternsDir, "patterns", settings.PatternsDir, "Directory with reference component pattern YAML files")
	flags.IntVarP(&settings.Workers, "workers", "w", settings.Workers, "Number of concurrent workers")
	flags.DurationVar(&settings.ExtractionTimeout, "extraction-timeout", settings.ExtractionTimeout, "Timeout of a single external extraction")
	flags.IntVar(&settings.MaxPasses, "max-passes", settings.MaxPasses, "Maximum number of unpack passes")
	flags.StringVar(&settings.SevenZipPath, "7z", settings.SevenZipPath, "Path of the 7z binary (default: search PATH)")
	flags.BoolVar(&settings.FailOnDuplicates, "fail-on-duplicates", settings.FailOnDuplicates, "Exit non-zero when files are claimed by several components")
	flags.StringVar(&settings.RootID, "root-id", settings.RootID, "Override the root asset id")

	// Progress output
	flags.BoolVarP(&settings.Verbose, "verbose", "v", settings.Verbose, "Show progress with simple output")
	flags.BoolVarP(&settings.Debug, "debug", "d", settings.Debug, "Show progress with tree structure (cannot be used with --verbose)")

	// Logging flags - use defaults from environment variables
	flags.String("log-level", levelName(settings.LogLevel), "Log level: debug, info, warn, error")
	flags.String("log-format", settings.LogFormat, "Log format: text or json")
	flags.String("log-file", settings.LogFile, "Log file path (default: stderr)")
}

func levelName(level slog.Level) string {
	return strings.ToLower(level.String())
}

// configureLogging sets up logging based on command flags
func configureLogging(cmd *cobra.Command) *slog.Logger {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logFormat, _ := cmd.Flags().GetString("log-format")
	logFile, _ := cmd.Flags().GetString("log-file")

	if level, err := config.ParseLogLevel(logLevel); err == nil {
		settings.LogLevel = level
	}
	settings.LogFormat = logFormat
	settings.LogFile = logFile

	return settings.ConfigureLogger()
}

// applyNegatedFlags maps the --no-* flags onto settings
func applyNegatedFlags(cmd *cobra.Command) {
	if v, err := cmd.Flags().GetBool("no-implicit-unwrap"); err == nil {
		settings.ImplicitUnwrap = !v
	}
	if v, err := cmd.Flags().GetBool("no-embedded"); err == nil {
		settings.IncludeEmbedded = !v
	}
	if v, err := cmd.Flags().GetBool("no-detect"); err == nil {
		settings.DetectComponentPatterns = !v
	}
}

// resolveScanPath resolves and validates the directory to scan
func resolveScanPath(args []string, scanConfig *config.ScanConfigFile) (string, error) {
	path := scanConfig.GetScanPaths()[0]
	if len(args) > 0 {
		path = args[0]
	}

	absPath, err := filepath.Abs(strings.TrimSpace(path))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("path does not exist: %s", absPath)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}
	return absPath, nil
}

// resolveRootID picks the root asset id: flag or environment, then the
// project config, then an id derived from git or the path
func resolveRootID(absPath string, project *config.ProjectConfig) string {
	if settings.RootID != "" {
		return settings.RootID
	}
	if project != nil && project.RootID != "" {
		return project.RootID
	}
	return git.RootAssetID(absPath)
}

func loadPatterns(dir string, logger *slog.Logger) ([]*types.ComponentPatternData, error) {
	if dir == "" {
		return nil, nil
	}
	patterns, err := componentpattern.LoadDir(dir)
	if err != nil {
		return nil, err
	}
	logger.Info("Loaded reference patterns", "dir", dir, "count", len(patterns))
	return patterns, nil
}

func runScan(cmd *cobra.Command, args []string) {
	logger := configureLogging(cmd)
	if err := scan(cmd, args, logger); err != nil {
		logger.Error("Scan failed", "error", err)
		os.Exit(1)
	}
}

func scan(cmd *cobra.Command, args []string, logger *slog.Logger) error {
	applyNegatedFlags(cmd)

	scanConfig, err := config.LoadScanConfig(configPath)
	if err != nil {
		return err
	}
	if err := scanConfig.MergeWithSettings(settings); err != nil {
		return err
	}

	absPath, err := resolveScanPath(args, scanConfig)
	if err != nil {
		return err
	}

	projectConfig, err := config.LoadProjectConfig(absPath)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", config.ProjectConfigFile, err)
	}
	merged := scanConfig.GetMergedConfig(projectConfig)
	settings.CollectExcludes = merged.MergeExcludes(settings.CollectExcludes)

	// Handle special case: -o - means stdout
	if settings.OutputFile == "-" {
		settings.OutputFile = ""
	}
	if settings.OutputFile != "" && !cmd.Flags().Changed("format") {
		if format := util.FormatForFile(settings.OutputFile); format != "" {
			settings.Format = format
		}
	}
	settings.Format = util.NormalizeFormat(settings.Format)
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	patterns, err := loadPatterns(settings.PatternsDir, logger)
	if err != nil {
		return err
	}

	// Show scan start message (always, even without verbose)
	fmt.Fprintf(os.Stderr, "Scanning: %s\n", absPath)

	prog := progress.ForWriter(os.Stderr, settings.Verbose, settings.Debug)
	sc, err := scanner.NewScanContext(absPath, settings.ScanParam(patterns), scanner.Options{
		Progress:    prog,
		Logger:      logger,
		RootAssetID: resolveRootID(absPath, merged),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("Starting scan",
		"path", absPath,
		"workers", settings.Workers,
		"collect_excludes", settings.CollectExcludes,
		"patterns", len(patterns))

	result, err := scanner.NewScanExecutor(sc).Execute(ctx)
	if err != nil {
		return err
	}
	if merged != nil {
		result.Metadata.SetProperties(merged.Properties)
	}

	if err := writeDocument(NewReport(result), settings.Format, settings.PrettyPrint, settings.OutputFile, prog); err != nil {
		return err
	}

	if !result.Validation.Valid() {
		logger.Warn("Duplicate component claims", "files", len(result.Validation.Duplicates))
		if settings.FailOnDuplicates {
			return fmt.Errorf("%w: %s", errDuplicateClaims, strings.Join(result.Validation.DuplicatePaths(), ", "))
		}
	}
	return nil
}
