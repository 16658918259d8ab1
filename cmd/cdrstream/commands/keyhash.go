package commands

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/cdr/key"
	"github.com/ddsx/cdrstream/pkg/dynrecord"
)

var (
	keyhashTypeFile string
	keyhashInFile   string
)

var keyhashCmd = &cobra.Command{
	Use:   "keyhash",
	Short: "Compute the key hash of a JSON sample document",
	RunE: func(cmd *cobra.Command, args []string) error {
		desc, err := loadTypeDescriptor(keyhashTypeFile)
		if err != nil {
			return err
		}
		if len(desc.Keys) == 0 {
			return fmt.Errorf("type %q declares no key fields", desc.Name)
		}

		sampleBytes, err := os.ReadFile(keyhashInFile)
		if err != nil {
			return fmt.Errorf("reading sample %s: %w", keyhashInFile, err)
		}
		var v dynrecord.Value
		if err := json.Unmarshal(sampleBytes, &v); err != nil {
			return fmt.Errorf("parsing sample %s: %w", keyhashInFile, err)
		}
		rec := dynrecord.Wrap(&v)

		hash, err := key.Keyhash(desc.Program, desc.Keys, rec, desc.Flags.FixedKeyXCDR2)
		if err != nil {
			return fmt.Errorf("computing keyhash: %w", err)
		}

		cmd.Println(hex.EncodeToString(hash[:]))
		return nil
	},
}

func init() {
	keyhashCmd.Flags().StringVar(&keyhashTypeFile, "type-file", "", "path to a type descriptor JSON file")
	keyhashCmd.Flags().StringVar(&keyhashInFile, "in", "", "path to a JSON sample document")
	_ = keyhashCmd.MarkFlagRequired("type-file")
	_ = keyhashCmd.MarkFlagRequired("in")
}
