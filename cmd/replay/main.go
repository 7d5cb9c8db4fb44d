package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/engine"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/infra"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/itch"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/storage"
	"github.com/saadzaki7/NASDAQ-SIMULATOR/internal/strategy"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath  = flag.String("config", "", "YAML config file")
		limit       = flag.Uint64("limit", 0, "message limit, 0 = unlimited")
		outDir      = flag.String("out", "", "output directory")
		workers     = flag.Int("workers", -1, "book workers, 0 = one per CPU")
		symbols     = flag.String("symbols", "", "comma-separated symbol whitelist")
		snapshotsDB = flag.String("snapshots", "", "SQLite file for the snapshot stream")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <itch-file>\n", os.Args[0])
		fmt.Fprintln(flag.CommandLine.Output(), "Replays a NASDAQ ITCH 5.0 capture (optionally gzipped) through the book and strategy.")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		return 1
	}
	inputPath := flag.Arg(0)

	cfg := infra.Default()
	if *configPath != "" {
		loaded, err := infra.LoadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	// Flags override whatever the file and environment decided.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "limit":
			cfg.Replay.MessageLimit = *limit
		case "out":
			cfg.Output.Dir = *outDir
		case "workers":
			cfg.Replay.Workers = *workers
		case "symbols":
			cfg.Replay.Symbols = splitSymbols(*symbols)
		case "snapshots":
			cfg.Output.SnapshotsDB = *snapshotsDB
		}
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 1
	}

	logger := infra.NewLogger(cfg.Logging.Level)
	slog.SetDefault(logger)

	runID := uuid.New().String()
	logger.Info("replay starting",
		slog.String("run_id", runID),
		slog.String("input", inputPath),
		slog.Int("workers", cfg.Replay.Workers),
	)

	src, err := itch.Open(inputPath)
	if err != nil {
		logger.Error("INPUT_OPEN_FAILED", slog.Any("error", err))
		return 1
	}
	defer src.Close()

	if err := os.MkdirAll(cfg.Output.Dir, 0755); err != nil {
		logger.Error("OUTPUT_DIR_FAILED", slog.Any("error", err))
		return 1
	}

	tradeLog, err := strategy.NewTradeLog(filepath.Join(cfg.Output.Dir, cfg.Output.TradesFile), logger)
	if err != nil {
		logger.Error("TRADE_LOG_OPEN_FAILED", slog.Any("error", err))
		return 1
	}

	pipeline := engine.New(engine.Config{
		Workers:       cfg.Replay.Workers,
		QueueSize:     cfg.Replay.QueueSize,
		MessageLimit:  cfg.Replay.MessageLimit,
		Symbols:       cfg.Replay.Symbols,
		ProgressEvery: cfg.Replay.ProgressEvery,
	}, logger)

	strat, err := strategy.NewReversion(strategy.Config{
		InitialCapital: int64(math.Round(cfg.Strategy.InitialCapital * 10_000)),
		EntryThreshold: cfg.Strategy.EntryThreshold,
		ExitThreshold:  cfg.Strategy.ExitThreshold,
		PositionSize:   cfg.Strategy.PositionSize,
		HoldTicks:      cfg.Strategy.HoldTicks,
		WarmupTicks:    cfg.Strategy.WarmupTicks,
		Aging:          strategy.AgingMode(cfg.Strategy.Aging),
	}, pipeline.Quotes(), tradeLog, logger)
	if err != nil {
		logger.Error("STRATEGY_INIT_FAILED", slog.Any("error", err))
		return 1
	}

	var sink *storage.SnapshotStore
	if cfg.Output.SnapshotsDB != "" {
		sink, err = storage.NewSnapshotStore(cfg.Output.SnapshotsDB)
		if err != nil {
			logger.Error("SNAPSHOT_STORE_OPEN_FAILED", slog.Any("error", err))
			return 1
		}
		defer sink.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var sinkArg engine.SnapshotSink
	if sink != nil {
		sinkArg = sink
	}
	stats, runErr := pipeline.Run(ctx, itch.NewDecoder(src), strat, sinkArg)

	outputFailed := stats.OutputFailed
	summary := strat.Summary(runID)
	summaryPath := filepath.Join(cfg.Output.Dir, cfg.Output.SummaryFile)
	if err := strategy.WriteSummary(summaryPath, summary); err != nil {
		logger.Error("SUMMARY_WRITE_FAILED", slog.Any("error", err))
		outputFailed = true
	}
	if sink != nil {
		if err := sink.SaveRun(runID, summaryJSON(summary), time.Now().Unix()); err != nil {
			logger.Error("RUN_RECORD_FAILED", slog.Any("error", err))
			outputFailed = true
		}
	}
	if err := tradeLog.Close(); err != nil {
		logger.Error("TRADE_LOG_CLOSE_FAILED", slog.Any("error", err))
	}
	if tradeLog.Failed() {
		outputFailed = true
	}

	logger.Info("replay finished",
		slog.Uint64("messages", stats.Messages),
		slog.Uint64("mutations", stats.Mutations),
		slog.Uint64("snapshots", stats.Snapshots),
		slog.Uint64("executed_shares", stats.ExecutedShares),
		slog.Uint64("noncross_shares", stats.NonCrossShares),
		slog.Uint64("cross_shares", stats.CrossShares),
		slog.Int("trades", summary.NumTrades),
		slog.Duration("elapsed", stats.Elapsed),
	)

	if runErr != nil {
		logger.Error("REPLAY_FAILED", slog.Any("error", runErr))
		return 1
	}
	if outputFailed {
		return 1
	}
	return 0
}

func splitSymbols(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

// summaryJSON mirrors the summary file for the runs table.
func summaryJSON(sum strategy.Summary) string {
	b, err := json.Marshal(sum)
	if err != nil {
		return "{}"
	}
	return string(b)
}
