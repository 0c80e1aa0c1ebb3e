package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "stock",
	Short: "Pattern-breakout backtesting for Taiwan equities",
	Long: `stock replays pattern-breakout entry signals against daily OHLCV
history under realistic fills, transaction costs and portfolio capital
constraints, and reports the resulting performance statistics.`,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug mode")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
