package strategy

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/book"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// stubQuotes answers BestPrices from a fixed table.
type stubQuotes map[string][2]quant.Price4

func (q stubQuotes) BestPrices(symbol string) (quant.Price4, quant.Price4) {
	p := q[symbol]
	return p[0], p[1]
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.EntryThreshold = 0.75
	cfg.ExitThreshold = -0.75
	cfg.HoldTicks = 3
	cfg.WarmupTicks = 1
	return cfg
}

func update(symbol string, bid, ask quant.Price4, bidVol, askVol uint64, ts uint64) book.Update {
	u := book.Update{Symbol: symbol, Bid: bid, Ask: ask, BidVol: bidVol, AskVol: askVol, Timestamp: quant.Timestamp(ts)}
	if total := bidVol + askVol; total > 0 {
		u.Imbalance = (float64(bidVol) - float64(askVol)) / float64(total)
	}
	return u
}

func TestReversion_ImbalanceEntry(t *testing.T) {
	quotes := stubQuotes{"X": {1000000, 1010000}}
	s, err := NewReversion(testConfig(), quotes, nil, nil)
	if err != nil {
		t.Fatalf("NewReversion: %v", err)
	}

	// bids 900 vs asks 100 -> imbalance 0.8 > 0.75 -> long at the ask.
	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))

	if s.OpenPositions() != 1 {
		t.Fatalf("open positions = %d; want 1", s.OpenPositions())
	}
	if s.numTrades != 1 {
		t.Fatalf("trades = %d; want 1 entry row", s.numTrades)
	}

	// Same signal again: entry suppressed while the position is open.
	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 2000))
	if s.numTrades != 1 {
		t.Errorf("trades = %d; want 1 (no re-entry while open)", s.numTrades)
	}
}

func TestReversion_ShortEntry(t *testing.T) {
	quotes := stubQuotes{"X": {1000000, 1010000}}
	s, _ := NewReversion(testConfig(), quotes, nil, nil)

	// bids 100 vs asks 900 -> imbalance -0.8 < -0.75 -> short at the bid.
	s.OnUpdate(update("X", 1000000, 1010000, 100, 900, 1000))

	if s.OpenPositions() != 1 {
		t.Fatalf("open positions = %d; want 1", s.OpenPositions())
	}
	pos := s.positions["X"]
	if pos.Quantity >= 0 {
		t.Errorf("quantity = %d; want negative (short)", pos.Quantity)
	}
	if pos.EntryPrice != 1000000 {
		t.Errorf("entry price = %d; want bid 1000000", pos.EntryPrice)
	}
}

func TestReversion_InvalidQuotesDropped(t *testing.T) {
	s, _ := NewReversion(testConfig(), stubQuotes{}, nil, nil)

	s.OnUpdate(update("X", 0, 1010000, 900, 100, 1000))
	s.OnUpdate(update("X", 1000000, 0, 900, 100, 2000))

	if s.OpenPositions() != 0 || s.numTrades != 0 {
		t.Errorf("snapshots with a zero side should be dropped entirely")
	}
}

func TestReversion_HoldTicksClosePnl(t *testing.T) {
	quotes := stubQuotes{"X": {1040000, 1060000}} // close mid = 105.0000
	cfg := testConfig()
	s, _ := NewReversion(cfg, quotes, nil, nil)

	// Long 100 @ ask 101.0000.
	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))
	if s.OpenPositions() != 1 {
		t.Fatal("expected an open position")
	}

	// Neutral updates age the position to the hold limit.
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 2000))
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 3000))
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 4000))

	if s.OpenPositions() != 0 {
		t.Fatalf("position should be closed after %d ticks", cfg.HoldTicks)
	}
	if s.numTrades != 2 {
		t.Fatalf("trades = %d; want entry + close", s.numTrades)
	}

	// pnl = (exit - entry) * qty = (105.0000 - 101.0000) * 100
	wantPnl := int64(1050000-1010000) * 100
	if got := s.pnls[1]; got != wantPnl {
		t.Errorf("close pnl = %d; want %d", got, wantPnl)
	}

	// Cash conservation: final capital = initial + pnl once flat.
	if got, want := s.Capital(), cfg.InitialCapital+wantPnl; got != want {
		t.Errorf("capital = %d; want %d", got, want)
	}
}

func TestReversion_GlobalAgingCrossSymbol(t *testing.T) {
	quotes := stubQuotes{
		"X": {1000000, 1010000},
		"Y": {2000000, 2010000},
	}
	cfg := testConfig()
	cfg.Aging = AgingGlobal
	s, _ := NewReversion(cfg, quotes, nil, nil)

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))

	// A burst on Y ages the X position even though X never ticks again.
	for i := uint64(0); i < 3; i++ {
		s.OnUpdate(update("Y", 2000000, 2010000, 500, 500, 2000+i))
	}
	if s.OpenPositions() != 0 {
		t.Error("global aging should close X off Y's updates")
	}
}

func TestReversion_SymbolAgingIsolated(t *testing.T) {
	quotes := stubQuotes{
		"X": {1000000, 1010000},
		"Y": {2000000, 2010000},
	}
	cfg := testConfig()
	cfg.Aging = AgingSymbol
	s, _ := NewReversion(cfg, quotes, nil, nil)

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))

	for i := uint64(0); i < 5; i++ {
		s.OnUpdate(update("Y", 2000000, 2010000, 500, 500, 2000+i))
	}
	if s.OpenPositions() != 1 {
		t.Error("per-symbol aging should not close X off Y's updates")
	}
}

func TestReversion_WarmupGatesEntry(t *testing.T) {
	cfg := testConfig()
	cfg.WarmupTicks = 3
	s, _ := NewReversion(cfg, stubQuotes{"X": {1000000, 1010000}}, nil, nil)

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))
	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 2000))
	if s.OpenPositions() != 0 {
		t.Fatal("entry before warmup should be suppressed")
	}

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 3000))
	if s.OpenPositions() != 1 {
		t.Fatal("entry after warmup should fire")
	}
}

func TestReversion_FinishClosesAtLastMid(t *testing.T) {
	cfg := testConfig()
	s, _ := NewReversion(cfg, stubQuotes{"X": {1000000, 1010000}}, nil, nil)

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000))
	if closed := s.Finish(5000); closed != 1 {
		t.Fatalf("Finish closed %d positions; want 1", closed)
	}
	if s.OpenPositions() != 0 {
		t.Error("positions should be empty after Finish")
	}
	// Entry long @ 101.0000, last mid = 100.5000 -> pnl = -0.5 * 100.
	wantPnl := int64(1005000-1010000) * 100
	if got := s.pnls[1]; got != wantPnl {
		t.Errorf("shutdown close pnl = %d; want %d", got, wantPnl)
	}
}

func TestReversion_SummaryStats(t *testing.T) {
	cfg := testConfig()
	cfg.InitialCapital = 1_000_000 * quant.Price4Scale
	quotes := stubQuotes{"X": {1040000, 1060000}}
	s, _ := NewReversion(cfg, quotes, nil, nil)

	s.OnUpdate(update("X", 1000000, 1010000, 900, 100, 1000)) // long @ 101
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 2000))
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 3000))
	s.OnUpdate(update("X", 1040000, 1060000, 500, 500, 4000)) // close @ 105 mid

	sum := s.Summary("run-1")
	if sum.NumTrades != 2 {
		t.Errorf("NumTrades = %d; want 2", sum.NumTrades)
	}
	if sum.WinRate != 50 { // one winning close, one zero-pnl entry
		t.Errorf("WinRate = %d; want 50", sum.WinRate)
	}
	if sum.InitialCapital != 1_000_000 {
		t.Errorf("InitialCapital = %f; want 1000000", sum.InitialCapital)
	}
	wantPnl := 400.0 // (105 - 101) * 100
	if sum.TotalPnl != wantPnl {
		t.Errorf("TotalPnl = %f; want %f", sum.TotalPnl, wantPnl)
	}
	if sum.FinalCapital != 1_000_000+wantPnl {
		t.Errorf("FinalCapital = %f; want %f", sum.FinalCapital, 1_000_000+wantPnl)
	}
	if sum.RunID != "run-1" {
		t.Errorf("RunID = %q; want run-1", sum.RunID)
	}
}

func TestReversion_SharpeZeroWithoutTrades(t *testing.T) {
	s, _ := NewReversion(testConfig(), stubQuotes{}, nil, nil)
	if sum := s.Summary("r"); sum.SharpeRatio != 0 || sum.WinRate != 0 {
		t.Errorf("empty run summary = %+v; want zeroed stats", sum)
	}
}

func TestTradeLog_CSVFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.csv")
	tl, err := NewTradeLog(path, nil)
	if err != nil {
		t.Fatalf("NewTradeLog: %v", err)
	}

	tl.Write(Trade{Timestamp: 123456789, Symbol: "AAPL", Side: "Buy", Quantity: 100, Price: 1500000, Pnl: 0})
	tl.Write(Trade{Timestamp: 123456999, Symbol: "AAPL", Side: "Sell", Quantity: 100, Price: 1512500, Pnl: 125000})
	if err := tl.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading trade log: %v", err)
	}
	rows, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parsing trade log: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d; want header + 2", len(rows))
	}
	wantHeader := []string{"timestamp", "symbol", "side", "quantity", "price", "pnl"}
	for i, col := range wantHeader {
		if rows[0][i] != col {
			t.Errorf("header[%d] = %q; want %q", i, rows[0][i], col)
		}
	}
	if rows[1][4] != "150.0000" || rows[1][5] != "0.00" {
		t.Errorf("entry row price/pnl = %q/%q; want 150.0000/0.00", rows[1][4], rows[1][5])
	}
	if rows[2][4] != "151.2500" || rows[2][5] != "12.50" {
		t.Errorf("close row price/pnl = %q/%q; want 151.2500/12.50", rows[2][4], rows[2][5])
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"zero capital", func(c *Config) { c.InitialCapital = 0 }, false},
		{"inverted thresholds", func(c *Config) { c.ExitThreshold = c.EntryThreshold + 1 }, false},
		{"zero size", func(c *Config) { c.PositionSize = 0 }, false},
		{"zero hold", func(c *Config) { c.HoldTicks = 0 }, false},
		{"bad aging", func(c *Config) { c.Aging = "sometimes" }, false},
	}

	for _, tt := range tests {
		cfg := DefaultConfig()
		tt.mutate(&cfg)
		err := cfg.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v; want ok=%v", tt.name, err, tt.ok)
		}
	}
}
