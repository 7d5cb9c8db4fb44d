package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/book"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/itch"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/strategy"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Config tunes the pipeline topology.
type Config struct {
	Workers       int      // 0 = one per CPU
	QueueSize     int      // per-shard and snapshot queue depth
	MessageLimit  uint64   // 0 = unlimited
	Symbols       []string // empty = all symbols
	ProgressEvery uint64   // messages between progress lines; 0 disables
}

// Stats summarizes a replay.
type Stats struct {
	Messages       uint64
	ByTag          [256]uint64
	Mutations      uint64
	Snapshots      uint64
	ExecutedShares uint64
	NonCrossShares uint64
	CrossShares    uint64
	OutputFailed   bool
	Elapsed        time.Duration
}

// SnapshotSink receives every derived market update, in the order the
// strategy sees them.
type SnapshotSink interface {
	Save(book.Update) error
}

// Pipeline wires the three replay stages together:
//
//	decode -> per-shard book workers -> strategy
//
// Messages are routed to shards by stock locate, which is constant per
// symbol across every message type, so each symbol's events land on one
// worker in decode order and per-symbol ordering needs no further locking.
type Pipeline struct {
	cfg    Config
	books  []*book.Book
	filter map[itch.Stock]bool
	log    *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	shards := cfg.Workers
	if shards <= 0 {
		shards = runtime.GOMAXPROCS(0)
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	cfg.Workers = shards

	books := make([]*book.Book, shards)
	for i := range books {
		books[i] = book.New(log)
	}

	var filter map[itch.Stock]bool
	if len(cfg.Symbols) > 0 {
		filter = make(map[itch.Stock]bool, len(cfg.Symbols))
		for _, sym := range cfg.Symbols {
			filter[itch.NewStock(sym)] = true
		}
	}

	return &Pipeline{cfg: cfg, books: books, filter: filter, log: log}
}

// Quotes is the read-only view the strategy closes positions against.
func (p *Pipeline) Quotes() strategy.QuoteView {
	return shardView{books: p.books}
}

type shardView struct {
	books []*book.Book
}

func (v shardView) BestPrices(symbol string) (quant.Price4, quant.Price4) {
	stock := itch.NewStock(symbol)
	for _, b := range v.books {
		if b.Has(stock) {
			return b.BestPrices(stock)
		}
	}
	return 0, 0
}

// Run replays the stream to completion. A decode or I/O failure aborts the
// run and is returned; output failures are tolerated and flagged in Stats so
// the computation is not lost.
func (p *Pipeline) Run(ctx context.Context, dec *itch.Decoder, strat *strategy.Reversion, sink SnapshotSink) (Stats, error) {
	shards := p.cfg.Workers
	shardCh := make([]chan *itch.Message, shards)
	for i := range shardCh {
		shardCh[i] = make(chan *itch.Message, p.cfg.QueueSize)
	}
	updates := make(chan book.Update, p.cfg.QueueSize)

	start := time.Now()
	var stats Stats
	var decodeErr error

	// Stage A: single decoder goroutine. Closing the shard channels is the
	// done signal for Stage B.
	go func() {
		defer func() {
			for _, ch := range shardCh {
				close(ch)
			}
		}()

		for {
			select {
			case <-ctx.Done():
				decodeErr = ctx.Err()
				return
			default:
			}

			m, err := dec.Next()
			if err == io.EOF {
				return
			}
			if err != nil {
				decodeErr = err
				p.log.Error("DECODE_FAILED", slog.Any("error", err))
				return
			}

			stats.Messages++
			stats.ByTag[m.Tag]++
			if p.cfg.ProgressEvery > 0 && stats.Messages%p.cfg.ProgressEvery == 0 {
				elapsed := time.Since(start)
				p.log.Info("replay progress",
					slog.Uint64("messages", stats.Messages),
					slog.Int("rate_per_sec", int(float64(stats.Messages)/elapsed.Seconds())),
				)
			}

			shardCh[int(m.StockLocate)%shards] <- m

			if p.cfg.MessageLimit > 0 && stats.Messages >= p.cfg.MessageLimit {
				return
			}
		}
	}()

	// Stage B: one worker per shard, each owning its shard's books outright.
	workerStats := make([]Stats, shards)
	var wg sync.WaitGroup
	for i := 0; i < shards; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p.runWorker(shardCh[i], p.books[i], updates, &workerStats[i])
		}(i)
	}

	// The snapshot queue is marked done once the last worker drains out.
	go func() {
		wg.Wait()
		close(updates)
	}()

	// Stage C: strategy consumes snapshots on this goroutine.
	var lastTs quant.Timestamp
	for u := range updates {
		if sink != nil {
			if err := sink.Save(u); err != nil {
				p.log.Error("SNAPSHOT_SINK_FAILED", slog.Any("error", err))
				stats.OutputFailed = true
				sink = nil
			}
		}
		strat.OnUpdate(u)
		lastTs = u.Timestamp
	}

	if closed := strat.Finish(lastTs); closed > 0 {
		p.log.Info("closed remaining positions", slog.Int("count", closed))
	}

	for i := range workerStats {
		stats.Mutations += workerStats[i].Mutations
		stats.Snapshots += workerStats[i].Snapshots
		stats.ExecutedShares += workerStats[i].ExecutedShares
		stats.NonCrossShares += workerStats[i].NonCrossShares
		stats.CrossShares += workerStats[i].CrossShares
	}
	stats.Elapsed = time.Since(start)

	if decodeErr != nil && decodeErr != context.Canceled {
		return stats, fmt.Errorf("replay aborted after %d messages: %w", stats.Messages, decodeErr)
	}
	return stats, nil
}

func (p *Pipeline) runWorker(in <-chan *itch.Message, b *book.Book, updates chan<- book.Update, ws *Stats) {
	for m := range in {
		stock, mutated := book.Apply(b, m)

		switch body := m.Body.(type) {
		case *itch.OrderExecuted:
			if mutated {
				ws.ExecutedShares += uint64(body.Executed)
			}
		case *itch.OrderExecutedWithPrice:
			if mutated {
				ws.ExecutedShares += uint64(body.Executed)
			}
		case *itch.NonCrossTrade:
			ws.NonCrossShares += uint64(body.Shares)
		case *itch.CrossTrade:
			ws.CrossShares += body.Shares
		}

		if !mutated {
			continue
		}
		ws.Mutations++

		if p.filter != nil && !p.filter[stock] {
			continue
		}
		updates <- book.Snapshot(b, stock, m.Timestamp)
		ws.Snapshots++
	}
}
