package strategy

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/shopspring/decimal"
)

// Summary is the end-of-run performance report, written as a single JSON
// object. Monetary figures are computed in decimal from the fixed-point
// ledger; float64 appears only in the marshaled output.
type Summary struct {
	RunID          string  `json:"run_id"`
	InitialCapital float64 `json:"initial_capital"`
	FinalCapital   float64 `json:"final_capital"`
	TotalPnl       float64 `json:"total_pnl"`
	ReturnPct      float64 `json:"return_pct"`
	NumTrades      int     `json:"num_trades"`
	WinRate        int     `json:"win_rate"`
	SharpeRatio    float64 `json:"sharpe_ratio"`
}

// Summary computes the performance report over all recorded trades.
func (s *Reversion) Summary(runID string) Summary {
	initial := decimal.New(s.cfg.InitialCapital, -4)
	final := decimal.New(s.capital, -4)

	var totalPnl int64
	for _, pnl := range s.pnls {
		totalPnl += pnl
	}

	out := Summary{
		RunID:          runID,
		InitialCapital: initial.InexactFloat64(),
		FinalCapital:   final.InexactFloat64(),
		TotalPnl:       decimal.New(totalPnl, -4).InexactFloat64(),
		NumTrades:      s.numTrades,
		SharpeRatio:    s.sharpe(),
	}
	if !initial.IsZero() {
		out.ReturnPct = final.Sub(initial).
			Div(initial).
			Mul(decimal.NewFromInt(100)).
			InexactFloat64()
	}
	if s.numTrades > 0 {
		out.WinRate = s.wins * 100 / s.numTrades
	}
	return out
}

// sharpe annualizes the per-trade return series by sqrt(252); 0 when there
// are no trades or no variance.
func (s *Reversion) sharpe() float64 {
	if len(s.pnls) == 0 {
		return 0
	}

	returns := make([]float64, 0, len(s.pnls))
	prev := float64(s.cfg.InitialCapital)
	for _, pnl := range s.pnls {
		if prev == 0 {
			return 0
		}
		r := float64(pnl) / prev
		returns = append(returns, r)
		prev += float64(pnl)
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var sqSum float64
	for _, r := range returns {
		sqSum += (r - mean) * (r - mean)
	}
	stdDev := math.Sqrt(sqSum / float64(len(returns)))
	if stdDev == 0 {
		return 0
	}
	return mean / stdDev * math.Sqrt(252)
}

// WriteSummary writes the report as indented JSON.
func WriteSummary(path string, sum Summary) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}
	return nil
}
