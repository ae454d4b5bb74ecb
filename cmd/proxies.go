package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/proxy"
)

var proxiesRefresh bool

var proxiesCmd = &cobra.Command{
	Use:   "proxies",
	Short: "Show or refresh the rotating proxy pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		rotator := proxy.NewRotator(cfg.Proxy)
		if proxiesRefresh {
			if err := rotator.Refresh(ctx); err != nil {
				return err
			}
			zap.L().Info("proxy pool refreshed", zap.Int("count", rotator.Pool().Len()))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"count":   rotator.Pool().Len(),
			"proxies": rotator.Pool().Entries(),
		})
	},
}

func init() {
	proxiesCmd.Flags().BoolVar(&proxiesRefresh, "refresh", false, "download and health-test a fresh proxy list first")
	rootCmd.AddCommand(proxiesCmd)
}
