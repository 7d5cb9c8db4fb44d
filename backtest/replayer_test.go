package backtest

import (
	"path/filepath"
	"testing"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/book"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/storage"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/strategy"
)

func TestReplayer_ReproducesStrategyRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "snapshots.db")

	// Record a short stream: one heavy-bid snapshot then neutral ones.
	store, err := storage.NewSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	stream := []book.Update{
		{Symbol: "X", Bid: 1000000, Ask: 1010000, BidVol: 900, AskVol: 100, Imbalance: 0.8, Timestamp: 1000},
		{Symbol: "X", Bid: 1040000, Ask: 1060000, BidVol: 500, AskVol: 500, Imbalance: 0, Timestamp: 2000},
		{Symbol: "X", Bid: 1040000, Ask: 1060000, BidVol: 500, AskVol: 500, Imbalance: 0, Timestamp: 3000},
		{Symbol: "X", Bid: 1040000, Ask: 1060000, BidVol: 500, AskVol: 500, Imbalance: 0, Timestamp: 4000},
	}
	for _, u := range stream {
		if err := store.Save(u); err != nil {
			t.Fatalf("saving snapshot: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("closing store: %v", err)
	}

	replayer, err := NewReplayer(dbPath, nil)
	if err != nil {
		t.Fatalf("NewReplayer: %v", err)
	}
	defer replayer.Close()

	cfg := strategy.DefaultConfig()
	cfg.EntryThreshold = 0.75
	cfg.ExitThreshold = -0.75
	cfg.HoldTicks = 3
	cfg.WarmupTicks = 1

	sum, err := replayer.Run(cfg, "backtest-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Entry long @ 101.0000 on the first snapshot, hold-tick close at the
	// 105.0000 mid: pnl = 4.0 * 100.
	if sum.NumTrades != 2 {
		t.Errorf("NumTrades = %d; want 2", sum.NumTrades)
	}
	if sum.TotalPnl != 400 {
		t.Errorf("TotalPnl = %f; want 400", sum.TotalPnl)
	}
}

func TestReplayer_EmptyStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.db")
	store, err := storage.NewSnapshotStore(dbPath)
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	store.Close()

	replayer, err := NewReplayer(dbPath, nil)
	if err != nil {
		t.Fatalf("NewReplayer: %v", err)
	}
	defer replayer.Close()

	sum, err := replayer.Run(strategy.DefaultConfig(), "empty")
	if err != nil {
		t.Fatalf("Run on empty store: %v", err)
	}
	if sum.NumTrades != 0 {
		t.Errorf("NumTrades = %d; want 0", sum.NumTrades)
	}
}
