// Package backtest replays a recorded snapshot stream through the strategy
// without touching the decode pipeline, so parameter changes can be evaluated
// against the same market data in seconds.
package backtest

import (
	"fmt"
	"log/slog"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/storage"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/strategy"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Replayer feeds stored snapshots into a strategy in their original order.
type Replayer struct {
	store *storage.SnapshotStore
	log   *slog.Logger
}

func NewReplayer(dbPath string, log *slog.Logger) (*Replayer, error) {
	if log == nil {
		log = slog.Default()
	}
	store, err := storage.NewSnapshotStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot store: %w", err)
	}
	return &Replayer{store: store, log: log}, nil
}

// quotes answers the strategy's close-time price reads from the stream
// itself: the last snapshot seen per symbol is the market as of "now".
type quotes map[string][2]quant.Price4

func (q quotes) BestPrices(symbol string) (quant.Price4, quant.Price4) {
	p := q[symbol]
	return p[0], p[1]
}

// Run replays every stored snapshot through a fresh strategy instance and
// returns its performance summary.
func (r *Replayer) Run(cfg strategy.Config, runID string) (strategy.Summary, error) {
	updates, err := r.store.Load(1)
	if err != nil {
		return strategy.Summary{}, fmt.Errorf("loading snapshots: %w", err)
	}
	r.log.Info("snapshot replay starting", slog.Int("snapshots", len(updates)))

	q := quotes{}
	strat, err := strategy.NewReversion(cfg, q, nil, r.log)
	if err != nil {
		return strategy.Summary{}, err
	}

	var lastTs quant.Timestamp
	for _, u := range updates {
		q[u.Symbol] = [2]quant.Price4{u.Bid, u.Ask}
		strat.OnUpdate(u)
		lastTs = u.Timestamp
	}
	strat.Finish(lastTs)

	return strat.Summary(runID), nil
}

func (r *Replayer) Close() error {
	return r.store.Close()
}
