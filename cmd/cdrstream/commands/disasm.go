package commands

import (
	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/cdr/opcode"
)

var disasmTypeFile string

var disasmCmd = &cobra.Command{
	Use:   "disasm",
	Short: "Disassemble a type descriptor's opcode program",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadTypeDescriptor(disasmTypeFile)
		if err != nil {
			return err
		}
		cmd.Printf("%s (%s, %d key(s))\n", desc.Name, desc.Extensibility.String(), len(desc.Keys))
		return opcode.Disassemble(cmd.OutOrStdout(), desc.Program)
	},
}

func init() {
	disasmCmd.Flags().StringVar(&disasmTypeFile, "type-file", "", "path to a type descriptor JSON file")
	_ = disasmCmd.MarkFlagRequired("type-file")
}
