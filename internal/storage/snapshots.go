package storage

import (
	"database/sql"
	"fmt"

	_ "github.com/glebarez/go-sqlite"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/book"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/pkg/quant"
)

// batchSize bounds the open transaction; one commit per thousand snapshots
// keeps insert overhead negligible next to the decode loop.
const batchSize = 1000

// SnapshotStore persists the derived market-update stream to SQLite so runs
// can be inspected offline. WAL mode; single writer.
type SnapshotStore struct {
	db      *sql.DB
	tx      *sql.Tx
	stmt    *sql.Stmt
	pending int
	seq     uint64
}

// NewSnapshotStore opens (or creates) the snapshot database.
func NewSnapshotStore(dbPath string) (*SnapshotStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA cache_size=-2000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %s: %w", pragma, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS snapshots (
			seq INTEGER PRIMARY KEY,
			ts INTEGER NOT NULL,
			symbol TEXT NOT NULL,
			bid INTEGER NOT NULL,
			ask INTEGER NOT NULL,
			bid_vol INTEGER NOT NULL,
			ask_vol INTEGER NOT NULL,
			imbalance REAL NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating snapshots table: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			summary TEXT NOT NULL,
			finished_ts INTEGER NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating runs table: %w", err)
	}

	return &SnapshotStore{db: db}, nil
}

// Save appends one snapshot; inserts are batched into transactions.
func (s *SnapshotStore) Save(u book.Update) error {
	if s.tx == nil {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning snapshot batch: %w", err)
		}
		stmt, err := tx.Prepare(
			"INSERT INTO snapshots (seq, ts, symbol, bid, ask, bid_vol, ask_vol, imbalance) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("preparing snapshot insert: %w", err)
		}
		s.tx, s.stmt = tx, stmt
	}

	s.seq++
	_, err := s.stmt.Exec(s.seq, uint64(u.Timestamp), u.Symbol,
		int64(u.Bid), int64(u.Ask), int64(u.BidVol), int64(u.AskVol), u.Imbalance)
	if err != nil {
		return fmt.Errorf("inserting snapshot %d: %w", s.seq, err)
	}

	s.pending++
	if s.pending >= batchSize {
		return s.Flush()
	}
	return nil
}

// Flush commits the open batch.
func (s *SnapshotStore) Flush() error {
	if s.tx == nil {
		return nil
	}
	s.stmt.Close()
	err := s.tx.Commit()
	s.tx, s.stmt, s.pending = nil, nil, 0
	if err != nil {
		return fmt.Errorf("committing snapshot batch: %w", err)
	}
	return nil
}

// SaveRun records the run's summary JSON keyed by run id.
func (s *SnapshotStore) SaveRun(runID, summaryJSON string, finishedTs int64) error {
	_, err := s.db.Exec(
		"INSERT INTO runs (run_id, summary, finished_ts) VALUES (?, ?, ?) ON CONFLICT(run_id) DO UPDATE SET summary=excluded.summary, finished_ts=excluded.finished_ts",
		runID, summaryJSON, finishedTs)
	return err
}

// Count returns the number of stored snapshots.
func (s *SnapshotStore) Count() (uint64, error) {
	var n sql.NullInt64
	if err := s.db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&n); err != nil {
		return 0, err
	}
	return uint64(n.Int64), nil
}

// Load reads back snapshots in sequence order, starting at fromSeq.
func (s *SnapshotStore) Load(fromSeq uint64) ([]book.Update, error) {
	rows, err := s.db.Query(
		"SELECT ts, symbol, bid, ask, bid_vol, ask_vol, imbalance FROM snapshots WHERE seq >= ? ORDER BY seq ASC",
		fromSeq)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []book.Update
	for rows.Next() {
		var (
			u              book.Update
			ts             uint64
			bid, ask       int64
			bidVol, askVol int64
		)
		if err := rows.Scan(&ts, &u.Symbol, &bid, &ask, &bidVol, &askVol, &u.Imbalance); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		u.Timestamp = quant.Timestamp(ts)
		u.Bid, u.Ask = quant.Price4(bid), quant.Price4(ask)
		u.BidVol, u.AskVol = uint64(bidVol), uint64(askVol)
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating snapshots: %w", err)
	}
	return out, nil
}

// Close flushes any open batch and closes the database.
func (s *SnapshotStore) Close() error {
	flushErr := s.Flush()
	if err := s.db.Close(); err != nil {
		return err
	}
	return flushErr
}
