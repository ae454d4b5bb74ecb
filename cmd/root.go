package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "empliq-scraper",
	Short: "Company website locator for Peruvian businesses",
	Long:  "Finds a company's official website from its registered name and RUC, combining search engines, business directories and a rotating proxy pool.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
