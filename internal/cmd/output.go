package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/petrarca/composition-scanner/internal/inventory"
	"github.com/petrarca/composition-scanner/internal/metadata"
	"github.com/petrarca/composition-scanner/internal/progress"
	"github.com/petrarca/composition-scanner/internal/scanner"
	"github.com/petrarca/composition-scanner/internal/util"
)

// Report is the document written by the scan command
type Report struct {
	Metadata           *metadata.ScanMetadata `json:"metadata" yaml:"metadata"`
	inventory.Snapshot `yaml:",inline"`
}

// NewReport builds the output document of a scan run
func NewReport(result *scanner.Result) *Report {
	return &Report{
		Metadata: result.Metadata,
		Snapshot: result.Inventory.Snapshot(),
	}
}

// marshal encodes data in the given format
func marshal(data any, format string, pretty bool) ([]byte, error) {
	switch util.NormalizeFormat(format) {
	case "json":
		if pretty {
			return json.MarshalIndent(data, "", "  ")
		}
		return json.Marshal(data)
	case "yaml":
		return yaml.Marshal(data)
	}
	return nil, util.ValidateOutputFormat(format)
}

// writeDocument writes data to outputFile, or to stdout when outputFile is empty
func writeDocument(data any, format string, pretty bool, outputFile string, prog *progress.Progress) error {
	content, err := marshal(data, format, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", format, err)
	}

	if outputFile == "" {
		_, err = os.Stdout.Write(append(content, '\n'))
		return err
	}

	prog.FileWriting(outputFile)
	if err := os.WriteFile(outputFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	prog.FileWritten(outputFile)
	// Always show confirmation to user (like curl -o)
	fmt.Fprintf(os.Stderr, "Results written to %s\n", outputFile)
	return nil
}
