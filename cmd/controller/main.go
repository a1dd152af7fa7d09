// Command controller serves the ASL bridge: websocket sessions and REST on
// HTTP, the interpreter service on gRPC.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/config"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/logging"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/router"
	"github.com/danielpatrickdp/asl-bridge/go-controller/internal/templates"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "controller",
	Short:         "ASL gloss to English bridge",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// #region main
func main() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", envOr("ASL_CONFIG", "controller.yaml"), "path to YAML config (missing file uses defaults)")
	rootCmd.AddCommand(serveCmd(), respondCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, logger, nil
}

// loadBank returns the configured template bank, or the built-in one.
func loadBank(cfg *config.Config) (*templates.Bank, error) {
	if cfg.Templates.Path == "" {
		return templates.NewDefaultBank(), nil
	}
	bank := templates.NewBank()
	if err := bank.LoadFile(cfg.Templates.Path); err != nil {
		return nil, err
	}
	return bank, nil
}

func newRouter(cfg *config.Config) (*router.Router, error) {
	bank, err := loadBank(cfg)
	if err != nil {
		return nil, err
	}
	return router.New(bank, templates.DefaultSource), nil
}

// #endregion helpers
