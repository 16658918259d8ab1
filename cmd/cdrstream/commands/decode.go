package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/cdr/interp"
	"github.com/ddsx/cdrstream/internal/cdr/stream"
	"github.com/ddsx/cdrstream/pkg/dynrecord"
)

var (
	decodeTypeFile string
	decodeInFile   string
	decodeOutFile  string
	decodeVersion  string
	decodeNativeOrder bool
)

var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Deserialize CDR bytes into a JSON sample document",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadTypeDescriptor(decodeTypeFile)
		if err != nil {
			return err
		}

		version, err := parseVersion(decodeVersion)
		if err != nil {
			return err
		}

		buf, err := os.ReadFile(decodeInFile)
		if err != nil {
			return fmt.Errorf("reading input %s: %w", decodeInFile, err)
		}

		in := stream.NewInput(buf, version).WithMaxDepth(CurrentConfig().Interpreter.MaxNestingDepth)
		if decodeNativeOrder {
			in = in.WithByteOrder(stream.NativeOrder())
		}
		rec := dynrecord.New()
		if err := interp.Read(desc.Program, rec, in); err != nil {
			return fmt.Errorf("decoding sample: %w", err)
		}

		b, err := json.MarshalIndent(rec.Value(), "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling decoded sample: %w", err)
		}
		return writeOutput(decodeOutFile, append(b, '\n'))
	},
}

func init() {
	decodeCmd.Flags().StringVar(&decodeTypeFile, "type-file", "", "path to a type descriptor JSON file")
	decodeCmd.Flags().StringVar(&decodeInFile, "in", "", "path to a CDR-encoded binary file")
	decodeCmd.Flags().StringVar(&decodeOutFile, "out", "", "output file (default: stdout)")
	decodeCmd.Flags().StringVar(&decodeVersion, "version", "xcdr2", "wire version of the input: xcdr1 or xcdr2")
	decodeCmd.Flags().BoolVar(&decodeNativeOrder, "native-order", true, "read in native (little-endian) byte order instead of the CDR default (big-endian)")
	_ = decodeCmd.MarkFlagRequired("type-file")
	_ = decodeCmd.MarkFlagRequired("in")
}
