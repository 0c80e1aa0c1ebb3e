package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/smpss92118/stock/internal/backtest"
	"github.com/smpss92118/stock/internal/config"
	"github.com/smpss92118/stock/internal/llm/factory"
	"github.com/smpss92118/stock/internal/logger"
	"github.com/smpss92118/stock/internal/market"
	"github.com/smpss92118/stock/internal/metrics"
	"github.com/smpss92118/stock/internal/report"
	"github.com/smpss92118/stock/internal/storage/results"
)

var (
	backtestCandles string
	backtestSignals string
	backtestSave    bool
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run one backtest over breakout signals",
	Long:  "Replay breakout signals against daily OHLCV history and print the performance report",
	RunE:  runBacktestCmd,
}

func init() {
	backtestCmd.Flags().StringVar(&backtestCandles, "candles", "", "OHLCV CSV file (required)")
	backtestCmd.Flags().StringVar(&backtestSignals, "signals", "", "signal CSV file (required)")
	backtestCmd.Flags().BoolVar(&backtestSave, "save", false, "archive the report to the configured storage")

	backtestCmd.MarkFlagRequired("candles")
	backtestCmd.MarkFlagRequired("signals")

	rootCmd.AddCommand(backtestCmd)
}

func loadConfig(log *zap.Logger) (*config.Config, error) {
	var cfg *config.Config
	var err error

	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	} else {
		cfg = config.Defaults()
		log.Warn("no config file specified, using defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func runBacktestCmd(cmd *cobra.Command, args []string) error {
	log := logger.Must(debug)
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	tables, err := market.LoadCandles(backtestCandles)
	if err != nil {
		return fmt.Errorf("loading candles: %w", err)
	}
	series, err := market.BuildSeries(tables)
	if err != nil {
		return fmt.Errorf("indexing candles: %w", err)
	}
	signals, err := market.LoadSignals(backtestSignals)
	if err != nil {
		return fmt.Errorf("loading signals: %w", err)
	}
	log.Info("inputs loaded",
		zap.Int("symbols", len(series)),
		zap.Int("signals", len(signals)),
	)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	eng := backtest.New(cfg.Backtest, log, reg)
	res, err := eng.Run(cmd.Context(), series, signals)
	if err != nil {
		return fmt.Errorf("running backtest: %w", err)
	}

	rep := report.Render(res)

	if cfg.Analyst.Enabled {
		provider, err := factory.New(cfg.Analyst)
		if err != nil {
			return fmt.Errorf("creating analyst provider: %w", err)
		}
		if err := report.Narrate(cmd.Context(), provider, rep); err != nil {
			log.Warn("analyst commentary failed", zap.Error(err))
		}
	}

	fmt.Println(rep.Markdown)
	if rep.Commentary != "" {
		fmt.Println("## Analyst commentary")
		fmt.Println()
		fmt.Println(rep.Commentary)
	}

	if backtestSave {
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
