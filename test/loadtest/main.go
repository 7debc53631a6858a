// Package main implements a load test harness for the archive store. It
// generates synthetic transactions and receipts, pushes them through the
// bulk insert path against a real SQLite database, and reports throughput,
// latency percentiles, and error rate. An optional rate limit paces the
// writers the way a well-behaved producer would.
//
// Usage:
//
//	go run ./test/loadtest \
//	  -db-path /tmp/archive-load.sqlite3 \
//	  -batch-size 50 \
//	  -concurrency 4 \
//	  -duration 30s \
//	  -rate 100 \
//	  -verify
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
	"github.com/tanzinabd23/relayer-distributor/internal/store/sqlite"
)

func main() {
	var (
		dbPath      = flag.String("db-path", "archive-load.sqlite3", "SQLite database path")
		batchSize   = flag.Int("batch-size", 50, "Records per bulk insert")
		concurrency = flag.Int("concurrency", 4, "Number of parallel writers")
		duration    = flag.Duration("duration", 30*time.Second, "Test duration")
		rateLimit   = flag.Float64("rate", 0, "Bulk inserts per second across all writers (0 = unlimited)")
		verify      = flag.Bool("verify", false, "Verify row counts after the run")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Info("load test configuration",
		"db_path", *dbPath,
		"batch_size", *batchSize,
		"concurrency", *concurrency,
		"duration", *duration,
		"rate", *rateLimit,
	)

	db, err := sqlite.Open(sqlite.Config{Path: *dbPath, MaxOpenConns: *concurrency + 1})
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	txRepo := sqlite.NewTransactionRepo(db)
	receiptRepo := sqlite.NewReceiptRepo(db, 0, 0)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *duration)
	defer cancel()

	var limiter *rate.Limiter
	if *rateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(*rateLimit), 1)
	}

	var (
		batches   atomic.Int64
		records   atomic.Int64
		failures  atomic.Int64
		cycle     atomic.Int64
		latencyMu sync.Mutex
		latencies []time.Duration
	)

	start := time.Now()
	var wg sync.WaitGroup
	for w := 0; w < *concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(worker) + start.UnixNano()))
			for {
				if ctx.Err() != nil {
					return
				}
				if limiter != nil {
					if err := limiter.Wait(ctx); err != nil {
						return
					}
				}

				c := cycle.Add(1)
				txns, receipts := generateBatch(rng, *batchSize, c)

				batchStart := time.Now()
				err := txRepo.BulkInsert(ctx, txns)
				if err == nil {
					err = receiptRepo.BulkInsert(ctx, receipts)
				}
				elapsed := time.Since(batchStart)

				if err != nil {
					failures.Add(1)
					logger.Error("bulk insert failed", "worker", worker, "error", err)
					continue
				}

				batches.Add(1)
				records.Add(int64(len(txns) + len(receipts)))
				latencyMu.Lock()
				latencies = append(latencies, elapsed)
				latencyMu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	logger.Info("load test complete",
		"batches", batches.Load(),
		"records", records.Load(),
		"failures", failures.Load(),
		"elapsed", elapsed.String(),
		"records_per_sec", fmt.Sprintf("%.1f", float64(records.Load())/elapsed.Seconds()),
		"p50", percentile(latencies, 50).String(),
		"p99", percentile(latencies, 99).String(),
	)

	if *verify {
		verifyCtx, verifyCancel := context.WithTimeout(context.Background(), time.Minute)
		defer verifyCancel()

		txCount, err := txRepo.Count(verifyCtx)
		if err != nil {
			logger.Error("verify: count transactions", "error", err)
			os.Exit(1)
		}
		receiptCount, err := receiptRepo.Count(verifyCtx)
		if err != nil {
			logger.Error("verify: count receipts", "error", err)
			os.Exit(1)
		}
		expected := records.Load()
		if txCount+receiptCount != expected {
			logger.Error("verify failed: row count mismatch",
				"expected", expected, "transactions", txCount, "receipts", receiptCount)
			os.Exit(1)
		}
		logger.Info("verify passed", "transactions", txCount, "receipts", receiptCount)
	}
}

// generateBatch builds one cycle's worth of paired transactions and
// receipts with distinct primary keys.
func generateBatch(rng *rand.Rand, size int, cycle int64) ([]*model.Transaction, []*model.Receipt) {
	txns := make([]*model.Transaction, 0, size)
	receipts := make([]*model.Receipt, 0, size)
	now := time.Now().UnixMilli()

	for i := 0; i < size; i++ {
		txID := uuid.NewString()
		receiptID := uuid.NewString()
		ts := now + int64(i)

		payload, _ := json.Marshal(map[string]any{
			"amount": rng.Int63n(1_000_000),
			"nonce":  rng.Int63(),
		})

		txns = append(txns, &model.Transaction{
			TxID:           txID,
			AppReceiptID:   &receiptID,
			Timestamp:      ts,
			CycleNumber:    cycle,
			Data:           payload,
			OriginalTxData: payload,
		})

		receipts = append(receipts, &model.Receipt{
			ReceiptID:      receiptID,
			Timestamp:      ts,
			ApplyTimestamp: ts + rng.Int63n(50),
			Cycle:          cycle,
			SignedReceipt: &model.SignedReceipt{
				Proposal:     payload,
				ProposalHash: uuid.NewString(),
			},
			AppReceiptData: payload,
			AfterStates: []model.AccountState{{
				AccountID:   uuid.NewString(),
				Data:        payload,
				Timestamp:   ts,
				Hash:        uuid.NewString(),
				CycleNumber: cycle,
			}},
			ExecutionShardKey:  fmt.Sprintf("shard-%d", rng.Intn(8)),
			GlobalModification: rng.Intn(10) == 0,
		})
	}
	return txns, receipts
}

func percentile(latencies []time.Duration, p int) time.Duration {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]time.Duration, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := len(sorted) * p / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
