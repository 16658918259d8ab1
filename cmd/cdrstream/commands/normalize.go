package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
)

var (
	normalizeTypeFile string
	normalizeInFile   string
	normalizeOutFile  string
	normalizeVersion  string
	normalizeSwap     bool
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize",
	Short: "Validate and byte-swap a buffer in place against a type's program",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadTypeDescriptor(normalizeTypeFile)
		if err != nil {
			return err
		}

		version, err := parseVersion(normalizeVersion)
		if err != nil {
			return err
		}

		buf, err := os.ReadFile(normalizeInFile)
		if err != nil {
			return fmt.Errorf("reading input %s: %w", normalizeInFile, err)
		}

		consumed, err := interp.Normalize(desc.Program, buf, normalizeSwap, version)
		if err != nil {
			return fmt.Errorf("normalizing buffer: %w", err)
		}
		cmd.Printf("normalized %d of %d bytes\n", consumed, len(buf))

		return writeOutput(normalizeOutFile, buf)
	},
}

func init() {
	normalizeCmd.Flags().StringVar(&normalizeTypeFile, "type-file", "", "path to a type descriptor JSON file")
	normalizeCmd.Flags().StringVar(&normalizeInFile, "in", "", "path to a CDR-encoded binary file")
	normalizeCmd.Flags().StringVar(&normalizeOutFile, "out", "", "output file for the normalized buffer (default: stdout)")
	normalizeCmd.Flags().StringVar(&normalizeVersion, "version", "xcdr2", "wire version: xcdr1 or xcdr2")
	normalizeCmd.Flags().BoolVar(&normalizeSwap, "swap", false, "byte-swap multi-byte fields while validating")
	_ = normalizeCmd.MarkFlagRequired("type-file")
	_ = normalizeCmd.MarkFlagRequired("in")
}
