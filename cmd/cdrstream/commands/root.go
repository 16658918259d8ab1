// Package commands implements cdrstream's CLI commands.
package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/logger"
	"github.com/ddsx/cdrstream/pkg/config"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string

	// loadedConfig is the process config loaded once, lazily, by
	// persistentPreRunE, shared by every subcommand's RunE.
	loadedConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "cdrstream",
	Short: "Inspect and exercise DDS-XTypes CDR serialization programs",
	Long: `cdrstream is a debugging and operator tool for the cdrstream CDR
serialization engine: it encodes, decodes, and normalizes samples against a
registered opcode program, reports key hashes, and disassembles programs for
inspection.

Use "cdrstream [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		loadedConfig = cfg
		return logger.Init(logger.Config{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: cfg.Logging.Output,
		})
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/cdrstream/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(encodeCmd)
	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(normalizeCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(keyhashCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(serveDebugCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.Printf("cdrstream %s (commit %s, built %s)\n", Version, Commit, Date)
		return nil
	},
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}

// CurrentConfig returns the config loaded by PersistentPreRunE.
func CurrentConfig() *config.Config {
	return loadedConfig
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

// Exit prints an error and exits with code 1.
func Exit(format string, args ...any) {
	PrintErr(format, args...)
	os.Exit(1)
}
