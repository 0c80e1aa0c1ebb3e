// Package report renders backtest results as markdown and CSV artifacts
// and archives them under a unique run ID.
package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/smpss92118/stock/internal/backtest"
	"github.com/smpss92118/stock/internal/core"
	"github.com/smpss92118/stock/internal/stats"
	"github.com/smpss92118/stock/internal/storage/results"
)

// Report is one rendered run, ready to print or archive.
type Report struct {
	RunID     string
	CreatedAt time.Time
	Markdown  string
	TradesCSV string

	// Commentary holds the optional analyst narrative, empty when disabled.
	Commentary string
}

// NewRunID returns a fresh identifier for one backtest run.
func NewRunID() string {
	return uuid.NewString()
}

// Render builds the markdown report and trades CSV for one run.
func Render(res *backtest.Result) *Report {
	return &Report{
		RunID:     NewRunID(),
		CreatedAt: time.Now().UTC(),
		Markdown:  renderMarkdown(res),
		TradesCSV: renderTradesCSV(res),
	}
}

func renderMarkdown(res *backtest.Result) string {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Backtest Report\n\n")
	fmt.Fprintf(&b, "- Exit policy: %s\n", res.Policy)
	fmt.Fprintf(&b, "- Candidates: %d\n", res.Candidates)
	fmt.Fprintf(&b, "- Admitted: %d\n", res.Portfolio.Admitted)
	fmt.Fprintf(&b, "- Dropped: %d\n\n", res.Portfolio.Dropped)

	b.WriteString("## Performance\n\n")
	writeSummaryTable(&b, res.Summary)

	if res.Unlimited != nil {
		b.WriteString("\n## Unlimited-capital baseline\n\n")
		writeSummaryTable(&b, *res.Unlimited)
	}

	return b.String()
}

func writeSummaryTable(b *bytes.Buffer, s stats.Summary) {
	b.WriteString("| Metric | Value |\n")
	b.WriteString("|---|---|\n")
	fmt.Fprintf(b, "| Trades | %d |\n", s.TradeCount)
	fmt.Fprintf(b, "| Win rate | %.2f%% |\n", s.WinRate*100)
	fmt.Fprintf(b, "| Total profit | %.0f |\n", s.TotalProfit)
	fmt.Fprintf(b, "| Final equity | %.0f |\n", s.FinalEquity)
	fmt.Fprintf(b, "| Annualized return | %.2f%% |\n", s.AnnualizedReturn*100)
	fmt.Fprintf(b, "| Sharpe | %.2f |\n", s.Sharpe)
	fmt.Fprintf(b, "| Max drawdown | %.2f%% |\n", s.MaxDrawdown*100)
	fmt.Fprintf(b, "| Max win streak | %d |\n", s.MaxWinStreak)
	fmt.Fprintf(b, "| Max loss streak | %d |\n", s.MaxLossStreak)
}

func renderTradesCSV(res *backtest.Result) string {
	var b bytes.Buffer
	w := csv.NewWriter(&b)

	w.Write([]string{"symbol", "entry_date", "exit_date", "capital", "profit", "net_return"})
	for _, t := range res.Portfolio.Trades {
		w.Write([]string{
			t.Symbol,
			t.EntryDate.Format("2006-01-02"),
			t.ExitDate.Format("2006-01-02"),
			strconv.FormatFloat(t.CapitalCommitted, 'f', 2, 64),
			strconv.FormatFloat(t.ProfitCash, 'f', 2, 64),
			strconv.FormatFloat(t.NetReturn, 'f', 6, 64),
		})
	}
	w.Flush()
	return b.String()
}

// RenderGrid builds a single markdown leaderboard for a parameter sweep,
// one row per cell, already sorted best first by the caller.
func RenderGrid(cells []backtest.GridResult) *Report {
	var b bytes.Buffer

	b.WriteString("# Grid Sweep Report\n\n")
	fmt.Fprintf(&b, "Cells evaluated: %d\n\n", len(cells))
	b.WriteString("| Policy | Trades | Win rate | Ann. return | Sharpe | Max DD |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, c := range cells {
		s := c.Result.Summary
		fmt.Fprintf(&b, "| %s | %d | %.2f%% | %.2f%% | %.2f | %.2f%% |\n",
			c.Result.Policy, s.TradeCount, s.WinRate*100,
			s.AnnualizedReturn*100, s.Sharpe, s.MaxDrawdown*100)
	}

	return &Report{
		RunID:     NewRunID(),
		CreatedAt: time.Now().UTC(),
		Markdown:  b.String(),
	}
}

// Writer archives rendered reports through a results store.
type Writer struct {
	store  results.Store
	logger *zap.Logger
}

// NewWriter creates a report writer. logger may be nil.
func NewWriter(store results.Store, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{store: store, logger: logger}
}

// Save archives the report artifacts under runs/<run-id>/.
func (w *Writer) Save(ctx context.Context, r *Report) error {
	base := "runs/" + r.RunID

	if err := w.store.Put(ctx, base+"/report.md", []byte(r.Markdown)); err != nil {
		return core.WrapError(core.ErrStorageFailed, err)
	}
	if r.TradesCSV != "" {
		if err := w.store.Put(ctx, base+"/trades.csv", []byte(r.TradesCSV)); err != nil {
			return core.WrapError(core.ErrStorageFailed, err)
		}
	}
	if r.Commentary != "" {
		if err := w.store.Put(ctx, base+"/commentary.md", []byte(r.Commentary)); err != nil {
			return core.WrapError(core.ErrStorageFailed, err)
		}
	}

	w.logger.Info("report archived",
		zap.String("run_id", r.RunID),
		zap.Time("created_at", r.CreatedAt),
	)
	return nil
}
