package strategy

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Trade is one row of the trade log. Pnl is zero on entries and the realized
// amount on closes, in the same 10^-4 fixed-point units as prices.
type Trade struct {
	Timestamp quant.Timestamp
	Symbol    string
	Side      string
	Quantity  int64
	Price     quant.Price4
	Pnl       int64
}

// TradeLog appends trades to a CSV file. Write failures do not stop the
// replay; they are logged once per row and reflected in the exit code so the
// computation is not lost.
type TradeLog struct {
	f      *os.File
	w      *csv.Writer
	log    *slog.Logger
	failed bool
}

func NewTradeLog(path string, log *slog.Logger) (*TradeLog, error) {
	if log == nil {
		log = slog.Default()
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating trade log: %w", err)
	}

	t := &TradeLog{f: f, w: csv.NewWriter(f), log: log}
	if err := t.w.Write([]string{"timestamp", "symbol", "side", "quantity", "price", "pnl"}); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing trade log header: %w", err)
	}
	return t, nil
}

func (t *TradeLog) Write(tr Trade) {
	row := []string{
		strconv.FormatUint(uint64(tr.Timestamp), 10),
		tr.Symbol,
		tr.Side,
		strconv.FormatInt(tr.Quantity, 10),
		decimal.New(int64(tr.Price), -4).StringFixed(4),
		decimal.New(tr.Pnl, -4).StringFixed(2),
	}
	if err := t.w.Write(row); err != nil {
		t.failed = true
		t.log.Error("TRADE_LOG_WRITE_FAILED", slog.Any("error", err))
	}
}

// Failed reports whether any row or the final flush could not be written.
func (t *TradeLog) Failed() bool { return t.failed }

func (t *TradeLog) Close() error {
	t.w.Flush()
	if err := t.w.Error(); err != nil {
		t.failed = true
		t.log.Error("TRADE_LOG_FLUSH_FAILED", slog.Any("error", err))
	}
	if err := t.f.Close(); err != nil {
		t.failed = true
		return err
	}
	return nil
}
