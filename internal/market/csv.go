package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/smpss92118/stock/internal/core"
)

// Column headers accepted in input tables. The crawler emits "sid"; other
// tools use "symbol".
var symbolHeaders = map[string]bool{"sid": true, "symbol": true}

// LoadCandles reads a per-symbol OHLCV table from a CSV file. Rows with
// unparseable numeric fields are kept as NaN and filtered later by
// NewPriceSeries, so one bad row never aborts the batch.
func LoadCandles(path string) (map[string][]core.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, err)
	}
	defer f.Close()
	return ParseCandles(f)
}

// ParseCandles reads candle rows from r. The header row must name at least
// sid/symbol, date, open, high, low, close and volume columns.
func ParseCandles(r io.Reader) (map[string][]core.Candle, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrBadInput, err)
	}
	cols := headerIndex(header)

	symCol, ok := findSymbolColumn(cols)
	if !ok {
		return nil, core.WrapError(core.ErrBadInput, fmt.Errorf("missing sid/symbol column"))
	}
	for _, name := range []string{"date", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[name]; !ok {
			return nil, core.WrapError(core.ErrBadInput, fmt.Errorf("missing %s column", name))
		}
	}

	out := make(map[string][]core.Candle)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrBadInput, err)
		}

		date, err := parseDate(rec[cols["date"]])
		if err != nil {
			continue // skip rows with unparseable dates
		}
		sym := strings.TrimSpace(rec[symCol])
		if sym == "" {
			continue
		}

		out[sym] = append(out[sym], core.Candle{
			Date:   date,
			Open:   parseFloat(rec[cols["open"]]),
			High:   parseFloat(rec[cols["high"]]),
			Low:    parseFloat(rec[cols["low"]]),
			Close:  parseFloat(rec[cols["close"]]),
			Volume: parseInt(rec[cols["volume"]]),
		})
	}
	return out, nil
}

// LoadSignals reads a signal table from a CSV file with columns
// sid/symbol, date, buy_price, stop_price. Extra pattern-metadata columns
// are ignored.
func LoadSignals(path string) ([]core.Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, core.WrapError(core.ErrNoData, err)
	}
	defer f.Close()
	return ParseSignals(f)
}

// ParseSignals reads signal rows from r.
func ParseSignals(r io.Reader) ([]core.Signal, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, core.WrapError(core.ErrBadInput, err)
	}
	cols := headerIndex(header)

	symCol, ok := findSymbolColumn(cols)
	if !ok {
		return nil, core.WrapError(core.ErrBadInput, fmt.Errorf("missing sid/symbol column"))
	}
	for _, name := range []string{"date", "buy_price", "stop_price"} {
		if _, ok := cols[name]; !ok {
			return nil, core.WrapError(core.ErrBadInput, fmt.Errorf("missing %s column", name))
		}
	}

	var out []core.Signal
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, core.WrapError(core.ErrBadInput, err)
		}

		date, err := parseDate(rec[cols["date"]])
		if err != nil {
			continue
		}
		out = append(out, core.Signal{
			Symbol:    strings.TrimSpace(rec[symCol]),
			Date:      date,
			BuyPrice:  parseFloat(rec[cols["buy_price"]]),
			StopPrice: parseFloat(rec[cols["stop_price"]]),
		})
	}
	return out, nil
}

func headerIndex(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func findSymbolColumn(cols map[string]int) (int, bool) {
	for name := range symbolHeaders {
		if i, ok := cols[name]; ok {
			return i, true
		}
	}
	return 0, false
}

func parseDate(s string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return core.Day(t), nil
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func parseInt(s string) int64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0
	}
	return int64(v)
}
