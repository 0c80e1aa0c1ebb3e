package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smpss92118/stock/internal/backtest"
	"github.com/smpss92118/stock/internal/logger"
	"github.com/smpss92118/stock/internal/market"
	"github.com/smpss92118/stock/internal/metrics"
	"github.com/smpss92118/stock/internal/report"
	"github.com/smpss92118/stock/internal/storage/results"
)

var (
	gridCandles string
	gridSignals string
	gridSave    bool
)

var gridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Sweep exit-policy parameters over one signal set",
	Long:  "Run every exit-policy combination of the configured grid and rank the results by Sharpe",
	RunE:  runGridCmd,
}

func init() {
	gridCmd.Flags().StringVar(&gridCandles, "candles", "", "OHLCV CSV file (required)")
	gridCmd.Flags().StringVar(&gridSignals, "signals", "", "signal CSV file (required)")
	gridCmd.Flags().BoolVar(&gridSave, "save", false, "archive the leaderboard to the configured storage")

	gridCmd.MarkFlagRequired("candles")
	gridCmd.MarkFlagRequired("signals")

	rootCmd.AddCommand(gridCmd)
}

func runGridCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	tables, err := market.LoadCandles(gridCandles)
	if err != nil {
		return fmt.Errorf("loading candles: %w", err)
	}
	series, err := market.BuildSeries(tables)
	if err != nil {
		return fmt.Errorf("indexing candles: %w", err)
	}
	signals, err := market.LoadSignals(gridSignals)
	if err != nil {
		return fmt.Errorf("loading signals: %w", err)
	}

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	eng := backtest.New(cfg.Backtest, log, reg)
	cells, err := eng.RunGrid(cmd.Context(), series, signals, cfg.Grid)
	if err != nil {
		return fmt.Errorf("running grid sweep: %w", err)
	}
	log.Info("grid sweep finished", zap.Int("cells", len(cells)))

	rep := report.RenderGrid(cells)
	fmt.Println(rep.Markdown)

	if gridSave {
		store, err := results.FromConfig(cfg.Storage)
		if err != nil {
			return fmt.Errorf("creating results store: %w", err)
		}
		writer := report.NewWriter(store, logger.ForRun(log, rep.RunID))
		if err := writer.Save(cmd.Context(), rep); err != nil {
			return fmt.Errorf("archiving report: %w", err)
		}
		fmt.Printf("Report archived under runs/%s\n", rep.RunID)
	}

	return nil
}
