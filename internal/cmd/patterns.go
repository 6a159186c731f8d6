package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/petrarca/composition-scanner/internal/componentpattern"
	"github.com/petrarca/composition-scanner/internal/types"
	"github.com/petrarca/composition-scanner/internal/util"
)

var patternsFormat string

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Work with reference component patterns",
}

var patternsValidateCmd = &cobra.Command{
	Use:   "validate [dir]",
	Short: "Validate reference component pattern files",
	Long: `Validate loads every YAML file below dir, checks it against the component
pattern schema and lists the patterns it defines.

Examples:
  composition-scanner patterns validate ./patterns
  composition-scanner patterns validate --format yaml ./patterns`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if patternsFormat == "" {
			return nil
		}
		patternsFormat = util.NormalizeFormat(patternsFormat)
		return util.ValidateOutputFormat(patternsFormat)
	},
	RunE: runPatternsValidate,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.AddCommand(patternsValidateCmd)
	patternsValidateCmd.Flags().StringVarP(&patternsFormat, "format", "f", "", "Output format: json or yaml (default: table)")
}

func runPatternsValidate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	patterns, err := componentpattern.LoadDir(dir)
	if err != nil {
		return err
	}

	if patternsFormat != "" {
		return writeDocument(componentpattern.File{ComponentPatterns: patterns}, patternsFormat, true, "", nil)
	}
	writePatternTable(cmd.OutOrStdout(), patterns)
	fmt.Fprintf(os.Stderr, "%d patterns valid\n", len(patterns))
	return nil
}

func writePatternTable(w io.Writer, patterns []*types.ComponentPatternData) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "QUALIFIER\tVERSION ANCHOR\tINCLUDE\tDEFERRED")
	for _, p := range patterns {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", p.Qualifier(), p.VersionAnchor, p.IncludePattern, p.Deferred)
	}
	tw.Flush()
}
