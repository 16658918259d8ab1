package commands

import (
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ddsx/cdrstream/internal/logger"
	"github.com/ddsx/cdrstream/pkg/introspect"
	"github.com/ddsx/cdrstream/pkg/metrics"
	_ "github.com/ddsx/cdrstream/pkg/metrics/prometheus"
	"github.com/ddsx/cdrstream/pkg/registry"
)

var serveDebugTypesDir string

var serveDebugCmd = &cobra.Command{
	Use:   "serve-debug",
	Short: "Serve the read-only /metrics and /debug/programs introspection endpoints",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := CurrentConfig()

		var reg *registry.Registry
		if cfg.Registry.EvictionPolicy == "retain" {
			reg = registry.NewRegistryRetaining()
		} else {
			reg = registry.NewRegistry()
		}
		if serveDebugTypesDir != "" {
			matches, err := filepath.Glob(filepath.Join(serveDebugTypesDir, "*.json"))
			if err != nil {
				return err
			}
			for _, m := range matches {
				desc, err := loadTypeDescriptor(m)
				if err != nil {
					return err
				}
				if _, err := reg.Register(desc.Name, desc); err != nil {
					return err
				}
			}
		}

		var promReg = metrics.InitRegistry()
		if !cfg.Metrics.Enabled {
			promReg = nil
		}

		handler := introspect.NewRouter(reg, promReg)
		logger.Info("serving introspection endpoints", "address", cfg.Metrics.BindAddress)
		return http.ListenAndServe(cfg.Metrics.BindAddress, handler)
	},
}

func init() {
	serveDebugCmd.Flags().StringVar(&serveDebugTypesDir, "types-dir", "", "directory of type descriptor JSON files to register on startup")
}
