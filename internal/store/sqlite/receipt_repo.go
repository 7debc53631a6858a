package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tanzinabd23/relayer-distributor/internal/cache"
	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
	"github.com/tanzinabd23/relayer-distributor/internal/metrics"
	"github.com/tanzinabd23/relayer-distributor/internal/store"
	"github.com/tanzinabd23/relayer-distributor/internal/store/rowcodec"
	"github.com/tanzinabd23/relayer-distributor/internal/tracing"
)

const (
	defaultReceiptCacheSize = 4096
	defaultReceiptCacheTTL  = 5 * time.Minute
)

var receiptTable = &table[model.Receipt]{
	name:     "receipts",
	idCol:    "receipt_id",
	cycleCol: "cycle",
	tsCol:    "timestamp",
	fields: []rowcodec.Field{
		{Column: "receipt_id"},
		{Column: "timestamp"},
		{Column: "apply_timestamp"},
		{Column: "cycle"},
		{Column: "signed_receipt", JSON: true},
		{Column: "app_receipt_data", JSON: true},
		{Column: "before_states", JSON: true},
		{Column: "after_states", JSON: true},
		{Column: "execution_shard_key"},
		{Column: "global_modification", Bool: true},
	},
	id: func(r *model.Receipt) string { return r.ReceiptID },
	values: func(r *model.Receipt) []any {
		return []any{
			r.ReceiptID, r.Timestamp, r.ApplyTimestamp, r.Cycle,
			r.SignedReceipt, r.AppReceiptData, r.BeforeStates, r.AfterStates,
			r.ExecutionShardKey, r.GlobalModification,
		}
	},
	scan: scanReceipt,
}

// scanReceipt inverts the row mapping: each independently serialized nested
// field is decoded on its own, and the stored 0/1 form of
// global_modification is normalized back to a bool. Absent payload columns
// stay absent on the decoded record.
func scanReceipt(s scanner) (*model.Receipt, error) {
	var r model.Receipt
	var signedReceipt, appReceiptData, beforeStates, afterStates, executionShardKey sql.NullString
	var globalModification int64
	if err := s.Scan(
		&r.ReceiptID, &r.Timestamp, &r.ApplyTimestamp, &r.Cycle,
		&signedReceipt, &appReceiptData, &beforeStates, &afterStates,
		&executionShardKey, &globalModification,
	); err != nil {
		return nil, err
	}

	var sr model.SignedReceipt
	decoded, err := rowcodec.DecodeJSON(signedReceipt, &sr)
	if err != nil {
		return nil, fmt.Errorf("decode signed receipt for %s: %w", r.ReceiptID, err)
	}
	if decoded {
		r.SignedReceipt = &sr
	}

	r.AppReceiptData = rowcodec.DecodeRaw(appReceiptData)

	if _, err := rowcodec.DecodeJSON(beforeStates, &r.BeforeStates); err != nil {
		return nil, fmt.Errorf("decode before states for %s: %w", r.ReceiptID, err)
	}
	if _, err := rowcodec.DecodeJSON(afterStates, &r.AfterStates); err != nil {
		return nil, fmt.Errorf("decode after states for %s: %w", r.ReceiptID, err)
	}

	if executionShardKey.Valid {
		r.ExecutionShardKey = executionShardKey.String
	}
	r.GlobalModification = rowcodec.DecodeBool(globalModification)
	return &r, nil
}

// ReceiptRepo implements store.ReceiptRepository on SQLite. Point lookups
// go through an LRU read cache, invalidated on insert-or-replace so a retry
// carrying corrected content is never shadowed by a stale decode.
type ReceiptRepo struct {
	db        *DB
	readCache *cache.LRU[string, *model.Receipt]
}

// NewReceiptRepo creates a receipt repository. Non-positive cache sizing
// falls back to the defaults.
func NewReceiptRepo(db *DB, cacheCapacity int, cacheTTL time.Duration) *ReceiptRepo {
	if cacheCapacity <= 0 {
		cacheCapacity = defaultReceiptCacheSize
	}
	if cacheTTL <= 0 {
		cacheTTL = defaultReceiptCacheTTL
	}
	return &ReceiptRepo{
		db:        db,
		readCache: cache.NewLRU[string, *model.Receipt](cacheCapacity, cacheTTL),
	}
}

func (r *ReceiptRepo) Insert(ctx context.Context, rec *model.Receipt) (store.WriteOutcome, error) {
	outcome, err := receiptTable.insert(ctx, r.db, rec)
	if err != nil {
		metrics.StoreWriteErrorsTotal.WithLabelValues("receipt").Inc()
		return outcome, err
	}
	r.readCache.Remove(rec.ReceiptID)
	metrics.StoreWritesTotal.WithLabelValues("receipt", string(outcome)).Inc()
	return outcome, nil
}

func (r *ReceiptRepo) BulkInsert(ctx context.Context, receipts []*model.Receipt) error {
	ctx, span := tracing.Tracer("store").Start(ctx, "receipts.bulk_insert")
	defer span.End()

	if err := receiptTable.bulkInsert(ctx, r.db, receipts); err != nil {
		metrics.StoreWriteErrorsTotal.WithLabelValues("receipt").Inc()
		return err
	}
	for _, rec := range receipts {
		r.readCache.Remove(rec.ReceiptID)
	}
	metrics.StoreBulkBatchSize.WithLabelValues("receipt").Observe(float64(len(receipts)))
	metrics.StoreWritesTotal.WithLabelValues("receipt", string(store.WriteInserted)).Add(float64(len(receipts)))
	return nil
}

func (r *ReceiptRepo) GetByID(ctx context.Context, receiptID string) (*model.Receipt, error) {
	defer observeQuery("receipt", "get_by_id", time.Now())

	if rec, ok := r.readCache.Get(receiptID); ok {
		metrics.CacheHitsTotal.WithLabelValues("receipts").Inc()
		return rec, nil
	}
	metrics.CacheMissesTotal.WithLabelValues("receipts").Inc()

	rec, err := receiptTable.getBy(ctx, r.db, "receipt_id", receiptID)
	if err != nil || rec == nil {
		return rec, err
	}
	r.readCache.Put(receiptID, rec)
	return rec, nil
}

// GetByExecutionShardKey looks up a receipt by its execution shard key. The
// column is indexed but not unique; when several rows match, which one is
// returned is undefined.
func (r *ReceiptRepo) GetByExecutionShardKey(ctx context.Context, shardKey string) (*model.Receipt, error) {
	defer observeQuery("receipt", "get_by_execution_shard_key", time.Now())
	return receiptTable.getBy(ctx, r.db, "execution_shard_key", shardKey)
}

func (r *ReceiptRepo) GetLatest(ctx context.Context, count int) ([]*model.Receipt, error) {
	defer observeQuery("receipt", "latest", time.Now())
	return receiptTable.latest(ctx, r.db, count)
}

func (r *ReceiptRepo) GetPage(ctx context.Context, skip, limit int64) ([]*model.Receipt, error) {
	defer observeQuery("receipt", "page", time.Now())
	return receiptTable.page(ctx, r.db, skip, limit)
}

func (r *ReceiptRepo) GetPageInCycleRange(ctx context.Context, skip, limit, startCycle, endCycle int64) ([]*model.Receipt, error) {
	defer observeQuery("receipt", "page_in_cycle_range", time.Now())
	return receiptTable.pageInCycleRange(ctx, r.db, skip, limit, startCycle, endCycle)
}

func (r *ReceiptRepo) Count(ctx context.Context) (int64, error) {
	defer observeQuery("receipt", "count", time.Now())
	return receiptTable.count(ctx, r.db)
}

func (r *ReceiptRepo) CountInCycleRange(ctx context.Context, startCycle, endCycle int64) (int64, error) {
	defer observeQuery("receipt", "count_in_cycle_range", time.Now())
	return receiptTable.countInCycleRange(ctx, r.db, startCycle, endCycle)
}

// CountByCycle returns one count per distinct cycle in the inclusive range,
// ascending by cycle.
func (r *ReceiptRepo) CountByCycle(ctx context.Context, startCycle, endCycle int64) ([]model.CycleCount, error) {
	defer observeQuery("receipt", "count_by_cycle", time.Now())
	return receiptTable.countByCycle(ctx, r.db, startCycle, endCycle)
}
