package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

var (
	searchRUC      string
	searchStrategy string
)

var searchCmd = &cobra.Command{
	Use:   "search <company name>",
	Short: "Find the official website for a single company",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initSearch(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		companyName := args[0]
		result, lastStrategy := env.Orchestrator.Search(ctx, companyName, searchRUC, searchStrategy)
		if result == nil {
			result = &model.SearchResult{
				CompanyName: companyName,
				RUC:         searchRUC,
				Strategy:    lastStrategy,
			}
		}

		zap.L().Info("search complete",
			zap.String("company", companyName),
			zap.Bool("found", result.Found),
			zap.Int("score", result.Score),
			zap.String("strategy", result.Strategy),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	searchCmd.Flags().StringVar(&searchRUC, "ruc", "", "company RUC for directory verification")
	searchCmd.Flags().StringVar(&searchStrategy, "strategy", "", "strategy to try first (duckduckgo, bing, datosperu)")
	rootCmd.AddCommand(searchCmd)
}
