package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X .../internal/cmd.version=..."
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "composition-scanner",
	Short: "Software composition scanner for directories and archives",
	Long: `Composition Scanner walks a directory tree, unpacks every archive it finds
(zip, jar, tar, compressed tarballs, deb, rpm, iso and more) and reports every
file and every identified third-party component as an inventory of artifacts.

Components are identified by reference patterns loaded from YAML files and by
manifest detectors for npm, Go modules, Maven, Python, Cargo, Composer and
Terraform providers.`,
	Version: version,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
