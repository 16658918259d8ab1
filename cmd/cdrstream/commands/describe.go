package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/pkg/typedesc/schema"
)

var (
	describeTypeFile  string
	describeTypesDir  string
	describeType      string
	describeJSONSchema bool
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print a type descriptor's metadata",
	Long: `describe prints a registered type's extensibility, key count, minimum
XCDR version, and native layout. With no --type and more than one candidate
in --types-dir, prompts interactively for which type to describe.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if describeJSONSchema {
			b, err := schema.MarshalIndent()
			if err != nil {
				return err
			}
			cmd.Println(string(b))
			return nil
		}

		desc, err := resolveTypeDescriptor(describeTypeFile, describeTypesDir, describeType)
		if err != nil {
			return err
		}

		out := map[string]interface{}{
			"name":             desc.Name,
			"extensibility":    desc.Extensibility.String(),
			"native_size":      desc.NativeSize,
			"native_align":     desc.NativeAlign,
			"key_count":        len(desc.Keys),
			"min_xcdr_version": desc.MinimumXCDRVersion(),
			"program_length":   len(desc.Program),
			"representations": map[string]bool{
				"xcdr1": desc.Representations.XCDR1,
				"xcdr2": desc.Representations.XCDR2,
			},
		}
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling description: %w", err)
		}
		cmd.Println(string(b))
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeTypeFile, "type-file", "", "path to a single type descriptor JSON file")
	describeCmd.Flags().StringVar(&describeTypesDir, "types-dir", "", "directory of type descriptor JSON files to choose among")
	describeCmd.Flags().StringVar(&describeType, "type", "", "type name to describe, when --types-dir has more than one candidate")
	describeCmd.Flags().BoolVar(&describeJSONSchema, "json-schema", false, "print the JSON Schema for type descriptor documents instead")
}
