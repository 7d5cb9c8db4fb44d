package book

import (
	"testing"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/itch"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

var aapl = itch.NewStock("AAPL")
var msft = itch.NewStock("MSFT")

func buy(stock itch.Stock, shares uint32, price quant.Price4) Order {
	return Order{Stock: stock, Side: itch.Buy, Price: price, Shares: shares, Timestamp: 1000}
}

func sell(stock itch.Stock, shares uint32, price quant.Price4) Order {
	return Order{Stock: stock, Side: itch.Sell, Price: price, Shares: shares, Timestamp: 1000}
}

func TestBook_EmptyBestPrices(t *testing.T) {
	b := New(nil)

	bid, ask := b.BestPrices(aapl)
	if bid != 0 || ask != 0 {
		t.Errorf("BestPrices on empty book = (%d, %d); want (0, 0)", bid, ask)
	}
	if imb := b.Imbalance(aapl); imb != 0 {
		t.Errorf("Imbalance on empty book = %f; want 0", imb)
	}
}

func TestBook_AddExecuteDelete(t *testing.T) {
	b := New(nil)

	b.Add(1, buy(aapl, 100, 1500000)) // 150.0000
	bid, _ := b.BestPrices(aapl)
	if bid != 1500000 {
		t.Fatalf("best bid after add = %d; want 1500000", bid)
	}
	if bidVol, _ := b.Volumes(aapl); bidVol != 100 {
		t.Fatalf("bid volume after add = %d; want 100", bidVol)
	}

	if _, ok := b.Execute(1, 40); !ok {
		t.Fatal("Execute(1, 40) should apply")
	}
	bid, _ = b.BestPrices(aapl)
	if bid != 1500000 {
		t.Errorf("best bid after partial execute = %d; want 1500000", bid)
	}
	if bidVol, _ := b.Volumes(aapl); bidVol != 60 {
		t.Errorf("bid volume after partial execute = %d; want 60", bidVol)
	}

	if _, ok := b.Delete(1); !ok {
		t.Fatal("Delete(1) should apply")
	}
	bid, _ = b.BestPrices(aapl)
	if bid != 0 {
		t.Errorf("best bid after delete = %d; want 0", bid)
	}
	if bidVol, _ := b.Volumes(aapl); bidVol != 0 {
		t.Errorf("bid volume after delete = %d; want 0", bidVol)
	}
}

func TestBook_TopLevelDeleteRevealsNext(t *testing.T) {
	b := New(nil)

	b.Add(1, buy(aapl, 10, 1000000)) // 100.0000
	b.Add(2, buy(aapl, 20, 1010000)) // 101.0000

	bid, _ := b.BestPrices(aapl)
	if bid != 1010000 {
		t.Fatalf("best bid = %d; want 1010000", bid)
	}

	b.Delete(2)
	bid, _ = b.BestPrices(aapl)
	if bid != 1000000 {
		t.Errorf("best bid after top delete = %d; want 1000000", bid)
	}
}

func TestBook_ReplaceReassignsReference(t *testing.T) {
	b := New(nil)

	b.Add(1, sell(msft, 50, 3000000)) // 300.0000
	stock, ok := b.Replace(1, 2, 30, 2990000)
	if !ok || stock != msft {
		t.Fatalf("Replace(1, 2) = (%v, %v); want (MSFT, true)", stock, ok)
	}

	if _, live := b.Order(1); live {
		t.Error("order 1 should be retired after replace")
	}
	ord, live := b.Order(2)
	if !live {
		t.Fatal("order 2 should be live after replace")
	}
	if ord.Shares != 30 || ord.Price != 2990000 {
		t.Errorf("order 2 = %d sh @ %d; want 30 sh @ 2990000", ord.Shares, ord.Price)
	}
	if ord.Side != itch.Sell {
		t.Errorf("order 2 side = %v; want Sell (inherited)", ord.Side)
	}
	if ord.Timestamp != 1000 {
		t.Errorf("order 2 timestamp = %d; want 1000 (inherited)", ord.Timestamp)
	}

	_, ask := b.BestPrices(msft)
	if ask != 2990000 {
		t.Errorf("best ask = %d; want 2990000", ask)
	}
	bidVol, askVol := b.Volumes(msft)
	if bidVol != 0 || askVol != 30 {
		t.Errorf("volumes = (%d, %d); want (0, 30)", bidVol, askVol)
	}
}

func TestBook_ReplaceEquivalentToDeleteAdd(t *testing.T) {
	viaReplace := New(nil)
	viaReplace.Add(1, buy(aapl, 40, 1200000))
	viaReplace.Replace(1, 2, 25, 1190000)

	viaDeleteAdd := New(nil)
	viaDeleteAdd.Add(1, buy(aapl, 40, 1200000))
	viaDeleteAdd.Delete(1)
	viaDeleteAdd.Add(2, buy(aapl, 25, 1190000))

	rb, ra := viaReplace.BestPrices(aapl)
	db, da := viaDeleteAdd.BestPrices(aapl)
	if rb != db || ra != da {
		t.Errorf("best prices diverge: replace (%d, %d), delete+add (%d, %d)", rb, ra, db, da)
	}
	rbv, rav := viaReplace.Volumes(aapl)
	dbv, dav := viaDeleteAdd.Volumes(aapl)
	if rbv != dbv || rav != dav {
		t.Errorf("volumes diverge: replace (%d, %d), delete+add (%d, %d)", rbv, rav, dbv, dav)
	}
}

func TestBook_UnknownReferenceIsNoOp(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 100, 1500000))

	if _, ok := b.Execute(42, 10); ok {
		t.Error("Execute on unknown reference should not apply")
	}
	if _, ok := b.Cancel(42, 10); ok {
		t.Error("Cancel on unknown reference should not apply")
	}
	if _, ok := b.Delete(42); ok {
		t.Error("Delete on unknown reference should not apply")
	}
	if _, ok := b.Replace(42, 43, 10, 1500000); ok {
		t.Error("Replace on unknown reference should not apply")
	}

	bid, _ := b.BestPrices(aapl)
	bidVol, _ := b.Volumes(aapl)
	if bid != 1500000 || bidVol != 100 {
		t.Errorf("book changed after unknown-reference ops: bid=%d vol=%d", bid, bidVol)
	}
}

func TestBook_ExecuteFullSizeRetiresOrder(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 100, 1500000))

	b.Execute(1, 100)
	if _, live := b.Order(1); live {
		t.Error("fully executed order should be retired")
	}
	bid, _ := b.BestPrices(aapl)
	bidVol, _ := b.Volumes(aapl)
	if bid != 0 || bidVol != 0 {
		t.Errorf("book not returned to pre-add state: bid=%d vol=%d", bid, bidVol)
	}
}

func TestBook_ExecuteOversizedClampsToRemaining(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 100, 1500000))

	b.Execute(1, 500)
	if _, live := b.Order(1); live {
		t.Error("over-executed order should be retired")
	}
	if bidVol, _ := b.Volumes(aapl); bidVol != 0 {
		t.Errorf("bid volume = %d; want 0", bidVol)
	}
}

func TestBook_CancelPartial(t *testing.T) {
	b := New(nil)
	b.Add(1, sell(aapl, 80, 1520000))

	b.Cancel(1, 30)
	ord, live := b.Order(1)
	if !live || ord.Shares != 50 {
		t.Fatalf("order after cancel = %+v, live=%v; want 50 shares live", ord, live)
	}
	if _, askVol := b.Volumes(aapl); askVol != 50 {
		t.Errorf("ask volume = %d; want 50", askVol)
	}
}

func TestBook_ImbalanceScale(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 900, 1500000))
	b.Add(2, sell(aapl, 100, 1510000))

	if imb := b.Imbalance(aapl); imb != 0.8 {
		t.Errorf("Imbalance = %f; want 0.8", imb)
	}
}

func TestBook_AggregatedLevels(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 10, 1000000))
	b.Add(2, buy(aapl, 15, 1000000)) // same level

	if bidVol, _ := b.Volumes(aapl); bidVol != 25 {
		t.Fatalf("bid volume = %d; want 25", bidVol)
	}

	// Removing one order leaves the level with the other's shares.
	b.Delete(1)
	bid, _ := b.BestPrices(aapl)
	bidVol, _ := b.Volumes(aapl)
	if bid != 1000000 || bidVol != 15 {
		t.Errorf("after partial level delete: bid=%d vol=%d; want 1000000, 15", bid, bidVol)
	}
}

func TestBook_DuplicateReferenceRefused(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 10, 1000000))
	if ok := b.Add(1, buy(aapl, 99, 1000000)); ok {
		t.Fatal("duplicate reference add should be refused")
	}
	if bidVol, _ := b.Volumes(aapl); bidVol != 10 {
		t.Errorf("bid volume = %d; want 10 (duplicate not counted)", bidVol)
	}
}

func TestBook_ReplaceSameReferenceRefused(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 10, 1000000))
	if _, ok := b.Replace(1, 1, 5, 1000000); ok {
		t.Fatal("replace onto the same reference should be refused")
	}
	if ord, live := b.Order(1); !live || ord.Shares != 10 {
		t.Errorf("order 1 should be untouched, got %+v live=%v", ord, live)
	}
}

func TestBook_SymbolsIndependent(t *testing.T) {
	b := New(nil)
	b.Add(1, buy(aapl, 100, 1500000))
	b.Add(2, buy(msft, 200, 3000000))

	aaplBid, _ := b.BestPrices(aapl)
	msftBid, _ := b.BestPrices(msft)
	if aaplBid != 1500000 || msftBid != 3000000 {
		t.Errorf("per-symbol bids = (%d, %d); want (1500000, 3000000)", aaplBid, msftBid)
	}

	b.Delete(1)
	if msftBid, _ = b.BestPrices(msft); msftBid != 3000000 {
		t.Errorf("MSFT bid disturbed by AAPL delete: %d", msftBid)
	}
}
