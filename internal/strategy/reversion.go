package strategy

import (
	"fmt"
	"log/slog"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/book"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/safe"
)

// AgingMode selects how position hold time is counted. The global mode ages
// every open position on every market update regardless of symbol, which is
// what the strategy has always done: a burst of updates on one symbol ages
// positions on all of them. The symbol mode ages a position only on updates
// for its own symbol.
type AgingMode string

const (
	AgingGlobal AgingMode = "global"
	AgingSymbol AgingMode = "symbol"
)

// Config carries the liquidity-reversion parameters. InitialCapital and
// prices share the 10^-4 fixed-point scale.
type Config struct {
	InitialCapital int64
	EntryThreshold float64
	ExitThreshold  float64
	PositionSize   int64
	HoldTicks      int
	WarmupTicks    int
	Aging          AgingMode
}

func DefaultConfig() Config {
	return Config{
		InitialCapital: 1_000_000 * quant.Price4Scale,
		EntryThreshold: 0.6,
		ExitThreshold:  -0.6,
		PositionSize:   100,
		HoldTicks:      15,
		WarmupTicks:    5,
		Aging:          AgingGlobal,
	}
}

func (c Config) Validate() error {
	if c.InitialCapital <= 0 {
		return fmt.Errorf("initial capital must be positive")
	}
	if c.ExitThreshold >= c.EntryThreshold {
		return fmt.Errorf("exit threshold %.2f must be below entry threshold %.2f", c.ExitThreshold, c.EntryThreshold)
	}
	if c.PositionSize <= 0 {
		return fmt.Errorf("position size must be positive")
	}
	if c.HoldTicks <= 0 {
		return fmt.Errorf("hold ticks must be positive")
	}
	switch c.Aging {
	case AgingGlobal, AgingSymbol:
	default:
		return fmt.Errorf("unknown aging mode %q", c.Aging)
	}
	return nil
}

// QuoteView is the narrow read-only capability the strategy holds on the
// book: closing a position needs the current best prices for its symbol,
// nothing else.
type QuoteView interface {
	BestPrices(symbol string) (bid, ask quant.Price4)
}

// Position is the single open position allowed per symbol.
type Position struct {
	Symbol     string
	Quantity   int64 // signed; negative is short
	EntryPrice quant.Price4
	EntryTime  quant.Timestamp
	Age        int
}

// Reversion opens positions against top-of-book volume imbalance and closes
// them after a fixed number of ticks. One position per symbol at a time.
type Reversion struct {
	cfg    Config
	quotes QuoteView
	trades *TradeLog
	log    *slog.Logger

	positions map[string]*Position
	seen      map[string]int
	lastMid   map[string]quant.Price4

	capital   int64
	pnls      []int64
	numTrades int
	wins      int
}

func NewReversion(cfg Config, quotes QuoteView, trades *TradeLog, log *slog.Logger) (*Reversion, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid strategy config: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Reversion{
		cfg:       cfg,
		quotes:    quotes,
		trades:    trades,
		log:       log,
		positions: make(map[string]*Position),
		seen:      make(map[string]int),
		lastMid:   make(map[string]quant.Price4),
		capital:   cfg.InitialCapital,
	}, nil
}

// OnUpdate consumes one market snapshot in arrival order.
func (s *Reversion) OnUpdate(u book.Update) {
	if u.Bid == 0 || u.Ask == 0 {
		return
	}

	s.lastMid[u.Symbol] = quant.Mid(u.Bid, u.Ask)
	s.seen[u.Symbol]++

	s.agePositions(u.Symbol, u.Timestamp)

	if _, open := s.positions[u.Symbol]; open {
		return
	}
	if s.seen[u.Symbol] < s.cfg.WarmupTicks {
		return
	}

	if u.Imbalance > s.cfg.EntryThreshold {
		s.open(u.Symbol, s.cfg.PositionSize, u.Ask, u.Timestamp)
	} else if u.Imbalance < s.cfg.ExitThreshold {
		s.open(u.Symbol, -s.cfg.PositionSize, u.Bid, u.Timestamp)
	}
}

func (s *Reversion) agePositions(symbol string, now quant.Timestamp) {
	var expired []string
	for sym, pos := range s.positions {
		if s.cfg.Aging == AgingSymbol && sym != symbol {
			continue
		}
		pos.Age++
		if pos.Age >= s.cfg.HoldTicks {
			expired = append(expired, sym)
		}
	}

	for _, sym := range expired {
		bid, ask := s.quotes.BestPrices(sym)
		if bid == 0 || ask == 0 {
			// One side vanished; hold until it quotes again or shutdown.
			continue
		}
		s.close(sym, quant.Mid(bid, ask), now)
	}
}

func (s *Reversion) open(symbol string, quantity int64, price quant.Price4, ts quant.Timestamp) {
	s.positions[symbol] = &Position{
		Symbol:     symbol,
		Quantity:   quantity,
		EntryPrice: price,
		EntryTime:  ts,
	}

	side := "Buy"
	qty := quantity
	if quantity < 0 {
		side = "Sell"
		qty = -quantity
	}

	notional := safe.Mul(int64(price), qty)
	if quantity > 0 {
		s.capital = safe.Sub(s.capital, notional)
	} else {
		s.capital = safe.Add(s.capital, notional)
	}

	s.record(Trade{Timestamp: ts, Symbol: symbol, Side: side, Quantity: qty, Price: price, Pnl: 0})
}

func (s *Reversion) close(symbol string, price quant.Price4, ts quant.Timestamp) {
	pos, ok := s.positions[symbol]
	if !ok {
		return
	}

	qty := pos.Quantity
	if qty < 0 {
		qty = -qty
	}

	// pnl = (exit - entry) * signed quantity
	diff := safe.Sub(int64(price), int64(pos.EntryPrice))
	pnl := safe.Mul(diff, pos.Quantity)

	side := "Sell"
	notional := safe.Mul(int64(price), qty)
	if pos.Quantity > 0 {
		s.capital = safe.Add(s.capital, notional)
	} else {
		side = "Buy"
		s.capital = safe.Sub(s.capital, notional)
	}

	delete(s.positions, symbol)
	s.record(Trade{Timestamp: ts, Symbol: symbol, Side: side, Quantity: qty, Price: price, Pnl: pnl})
}

func (s *Reversion) record(tr Trade) {
	s.numTrades++
	s.pnls = append(s.pnls, tr.Pnl)
	if tr.Pnl > 0 {
		s.wins++
	}
	if s.trades != nil {
		s.trades.Write(tr)
	}
}

// Finish closes every remaining position at its last known mid and returns
// the number it closed. Positions whose symbol never produced a valid quote
// are dropped with a warning; their capital stays marked to entry.
func (s *Reversion) Finish(now quant.Timestamp) int {
	closed := 0
	for sym := range s.positions {
		mid, ok := s.lastMid[sym]
		if !ok || mid == 0 {
			s.log.Warn("POSITION_WITHOUT_QUOTE", slog.String("symbol", sym))
			delete(s.positions, sym)
			continue
		}
		s.close(sym, mid, now)
		closed++
	}
	return closed
}

// OpenPositions is the number of positions currently held.
func (s *Reversion) OpenPositions() int { return len(s.positions) }

// Capital is the current cash balance in 10^-4 units.
func (s *Reversion) Capital() int64 { return s.capital }
