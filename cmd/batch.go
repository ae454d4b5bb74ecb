package main

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Mingbling1/empliq-scraper-api/internal/model"
)

var (
	batchInput string
	batchLimit int
	batchDelay time.Duration
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Find websites for a CSV of companies",
	Long:  "Reads a CSV with company_name and optional ruc columns, runs the phased search for each row sequentially, and prints one JSON result per line.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		items, err := readBatchCSV(batchInput)
		if err != nil {
			return err
		}
		if batchLimit > 0 && len(items) > batchLimit {
			items = items[:batchLimit]
		}
		if len(items) == 0 {
			return eris.New("batch: no companies in input")
		}

		env, err := initSearch(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		zap.L().Info("batch started", zap.Int("companies", len(items)))

		results := env.Orchestrator.BatchSearch(ctx, items, batchDelay)

		found := 0
		enc := json.NewEncoder(os.Stdout)
		for _, result := range results {
			if result.Found {
				found++
			}
			if err := enc.Encode(result); err != nil {
				return eris.Wrap(err, "batch: encode result")
			}
		}

		zap.L().Info("batch complete",
			zap.Int("processed", len(results)),
			zap.Int("found", found),
		)
		return nil
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "CSV file with company_name[,ruc] rows (required)")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max rows to process (0 = all)")
	batchCmd.Flags().DurationVar(&batchDelay, "delay", 0, "pause between lookups (0 = per-strategy pacing window)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}

// readBatchCSV loads companies from a CSV file. A header row naming
// company_name is skipped; column one is the name, column two the RUC.
func readBatchCSV(path string) ([]model.BatchItem, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "batch: open input")
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var items []model.BatchItem
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "batch: read input")
		}
		if len(record) == 0 {
			continue
		}

		name := strings.TrimSpace(record[0])
		if name == "" || strings.EqualFold(name, "company_name") {
			continue
		}
		item := model.BatchItem{CompanyName: name}
		if len(record) > 1 {
			item.RUC = strings.TrimSpace(record[1])
		}
		items = append(items, item)
	}
	return items, nil
}
