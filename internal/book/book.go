package book

import (
	"log/slog"
	"sync"

	"github.com/tidwall/btree"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/itch"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Order is one live resting order, keyed externally by its exchange
// reference number.
type Order struct {
	Stock     itch.Stock
	Side      itch.Side
	Price     quant.Price4
	Shares    uint32
	Timestamp quant.Timestamp
}

// ladder is one side of a symbol's book: price level -> aggregated shares,
// plus the running total across all levels. The btree keeps levels
// price-sorted so the extremum is an O(log n) lookup.
type ladder struct {
	levels btree.Map[uint32, uint64]
	total  uint64
}

func (l *ladder) add(price quant.Price4, shares uint32) {
	agg, _ := l.levels.Get(price.Raw())
	l.levels.Set(price.Raw(), agg+uint64(shares))
	l.total += uint64(shares)
}

// reduce removes shares from a level, deleting the level when it empties.
// Returns true when the level was removed.
func (l *ladder) reduce(price quant.Price4, shares uint32) bool {
	agg, ok := l.levels.Get(price.Raw())
	if !ok {
		return false
	}
	take := uint64(shares)
	if take > agg {
		take = agg
	}
	l.total -= take
	if agg -= take; agg == 0 {
		l.levels.Delete(price.Raw())
		return true
	}
	l.levels.Set(price.Raw(), agg)
	return false
}

// market is the per-symbol pair of ladders with the cached best prices.
// Best prices are maintained incrementally: adds widen them directly, and a
// removal of the top level re-derives them from the ladder extremum.
type market struct {
	bids ladder
	asks ladder

	bestBid quant.Price4
	bestAsk quant.Price4
}

func (m *market) side(s itch.Side) *ladder {
	if s == itch.Buy {
		return &m.bids
	}
	return &m.asks
}

func (m *market) onAdd(side itch.Side, price quant.Price4) {
	if side == itch.Buy {
		if price > m.bestBid {
			m.bestBid = price
		}
	} else if m.bestAsk == 0 || price < m.bestAsk {
		m.bestAsk = price
	}
}

func (m *market) onLevelRemoved(side itch.Side, price quant.Price4) {
	if side == itch.Buy {
		if price == m.bestBid {
			if p, _, ok := m.bids.levels.Max(); ok {
				m.bestBid = quant.Price4(p)
			} else {
				m.bestBid = 0
			}
		}
	} else if price == m.bestAsk {
		if p, _, ok := m.asks.levels.Min(); ok {
			m.bestAsk = quant.Price4(p)
		} else {
			m.bestAsk = 0
		}
	}
}

// Book is a collection of per-symbol limit order books driven by exchange
// order events. Mutations are serialized by the caller's topology (one
// goroutine per shard); the mutex exists for external readers.
type Book struct {
	mu      sync.RWMutex
	orders  map[uint64]*Order
	markets map[itch.Stock]*market
	log     *slog.Logger
}

func New(log *slog.Logger) *Book {
	if log == nil {
		log = slog.Default()
	}
	return &Book{
		orders:  make(map[uint64]*Order),
		markets: make(map[itch.Stock]*market),
		log:     log,
	}
}

func (b *Book) marketFor(stock itch.Stock) *market {
	m, ok := b.markets[stock]
	if !ok {
		m = &market{}
		b.markets[stock] = m
	}
	return m
}

// Add inserts a new order and its shares at the order's price level. A
// reference that is already live is a feed integrity violation; the add is
// refused and logged rather than double-counted.
func (b *Book) Add(ref uint64, o Order) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, exists := b.orders[ref]; exists {
		b.log.Warn("DUPLICATE_ORDER_REFERENCE", slog.Uint64("ref", ref), slog.String("stock", o.Stock.String()))
		return false
	}

	ord := o
	b.orders[ref] = &ord
	m := b.marketFor(o.Stock)
	m.side(o.Side).add(o.Price, o.Shares)
	m.onAdd(o.Side, o.Price)
	return true
}

// Execute removes min(shares, remaining) from the referenced order and its
// level. An unknown reference is a silent no-op: replays that start
// mid-session see executions for orders they never saw added.
func (b *Book) Execute(ref uint64, shares uint32) (itch.Stock, bool) {
	return b.take(ref, shares)
}

// Cancel has the same book effect as Execute; the shares simply do not count
// as traded volume downstream.
func (b *Book) Cancel(ref uint64, shares uint32) (itch.Stock, bool) {
	return b.take(ref, shares)
}

func (b *Book) take(ref uint64, shares uint32) (itch.Stock, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ord, ok := b.orders[ref]
	if !ok {
		b.log.Debug("UNKNOWN_ORDER_REFERENCE", slog.Uint64("ref", ref))
		return itch.Stock{}, false
	}

	take := shares
	if take > ord.Shares {
		take = ord.Shares
	}

	m := b.marketFor(ord.Stock)
	if m.side(ord.Side).reduce(ord.Price, take) {
		m.onLevelRemoved(ord.Side, ord.Price)
	}

	ord.Shares -= take
	if ord.Shares == 0 {
		delete(b.orders, ref)
	}
	return ord.Stock, true
}

// Delete removes the order's entire remaining size.
func (b *Book) Delete(ref uint64) (itch.Stock, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.deleteLocked(ref)
}

func (b *Book) deleteLocked(ref uint64) (itch.Stock, bool) {
	ord, ok := b.orders[ref]
	if !ok {
		b.log.Debug("UNKNOWN_ORDER_REFERENCE", slog.Uint64("ref", ref))
		return itch.Stock{}, false
	}

	m := b.marketFor(ord.Stock)
	if m.side(ord.Side).reduce(ord.Price, ord.Shares) {
		m.onLevelRemoved(ord.Side, ord.Price)
	}
	delete(b.orders, ref)
	return ord.Stock, true
}

// Replace retires oldRef and introduces newRef atomically, inheriting the
// old order's side, symbol and timestamp. Unknown oldRef is a no-op.
func (b *Book) Replace(oldRef, newRef uint64, shares uint32, price quant.Price4) (itch.Stock, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	old, ok := b.orders[oldRef]
	if !ok {
		b.log.Debug("UNKNOWN_ORDER_REFERENCE", slog.Uint64("ref", oldRef))
		return itch.Stock{}, false
	}
	if newRef == oldRef {
		b.log.Warn("REPLACE_SAME_REFERENCE", slog.Uint64("ref", oldRef))
		return itch.Stock{}, false
	}

	stock, side, ts := old.Stock, old.Side, old.Timestamp
	b.deleteLocked(oldRef)

	ord := Order{Stock: stock, Side: side, Price: price, Shares: shares, Timestamp: ts}
	b.orders[newRef] = &ord
	m := b.marketFor(stock)
	m.side(side).add(price, shares)
	m.onAdd(side, price)
	return stock, true
}

// BestPrices returns the cached best bid and ask, 0 for an empty side.
func (b *Book) BestPrices(stock itch.Stock) (bid, ask quant.Price4) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.markets[stock]
	if !ok {
		return 0, 0
	}
	return m.bestBid, m.bestAsk
}

// Has reports whether the book has ever seen the symbol.
func (b *Book) Has(stock itch.Stock) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.markets[stock]
	return ok
}

// Volumes returns the aggregate resting shares on each side.
func (b *Book) Volumes(stock itch.Stock) (bidVol, askVol uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	m, ok := b.markets[stock]
	if !ok {
		return 0, 0
	}
	return m.bids.total, m.asks.total
}

// Imbalance is (bid - ask) / (bid + ask) over the side volumes, in [-1, 1];
// 0 when both sides are empty.
func (b *Book) Imbalance(stock itch.Stock) float64 {
	bidVol, askVol := b.Volumes(stock)
	if bidVol+askVol == 0 {
		return 0
	}
	return (float64(bidVol) - float64(askVol)) / (float64(bidVol) + float64(askVol))
}

// Order returns a copy of the live order with the given reference.
func (b *Book) Order(ref uint64) (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	ord, ok := b.orders[ref]
	if !ok {
		return Order{}, false
	}
	return *ord, true
}

// LiveOrders is the number of orders currently resting.
func (b *Book) LiveOrders() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}
