package book

import (
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/itch"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// Update is the per-symbol top-of-book snapshot derived after a mutation;
// the strategy consumes these in arrival order.
type Update struct {
	Symbol    string
	Bid       quant.Price4
	Ask       quant.Price4
	BidVol    uint64
	AskVol    uint64
	Imbalance float64
	Timestamp quant.Timestamp
}

// Apply translates a decoded message into a book mutation. It returns the
// affected symbol and whether price-level state changed; informational
// variants and trade reports leave the book untouched.
func Apply(b *Book, m *itch.Message) (itch.Stock, bool) {
	switch body := m.Body.(type) {
	case *itch.AddOrder:
		ok := b.Add(body.Reference, Order{
			Stock:     body.Stock,
			Side:      body.Side,
			Price:     body.Price,
			Shares:    body.Shares,
			Timestamp: m.Timestamp,
		})
		return body.Stock, ok
	case *itch.OrderExecuted:
		return b.Execute(body.Reference, body.Executed)
	case *itch.OrderExecutedWithPrice:
		// The book moves at the resting order's price; the trade price is a
		// statistics-only field.
		return b.Execute(body.Reference, body.Executed)
	case *itch.OrderCancelled:
		return b.Cancel(body.Reference, body.Cancelled)
	case *itch.DeleteOrder:
		return b.Delete(body.Reference)
	case *itch.ReplaceOrder:
		return b.Replace(body.OldReference, body.NewReference, body.Shares, body.Price)
	}
	return itch.Stock{}, false
}

// Snapshot reads back the symbol's aggregates as one consistent tuple.
func Snapshot(b *Book, stock itch.Stock, ts quant.Timestamp) Update {
	b.mu.RLock()
	defer b.mu.RUnlock()

	u := Update{Symbol: stock.String(), Timestamp: ts}
	m, ok := b.markets[stock]
	if !ok {
		return u
	}
	u.Bid, u.Ask = m.bestBid, m.bestAsk
	u.BidVol, u.AskVol = m.bids.total, m.asks.total
	if total := u.BidVol + u.AskVol; total > 0 {
		u.Imbalance = (float64(u.BidVol) - float64(u.AskVol)) / float64(total)
	}
	return u
}
