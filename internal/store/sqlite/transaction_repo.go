package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
	"github.com/tanzinabd23/relayer-distributor/internal/metrics"
	"github.com/tanzinabd23/relayer-distributor/internal/store"
	"github.com/tanzinabd23/relayer-distributor/internal/store/rowcodec"
)

// transactionTable declares the transaction row layout. Descriptor order,
// value order, and scan order must agree; the tests lock this alignment in.
var transactionTable = &table[model.Transaction]{
	name:     "transactions",
	idCol:    "tx_id",
	cycleCol: "cycle_number",
	tsCol:    "timestamp",
	fields: []rowcodec.Field{
		{Column: "tx_id"},
		{Column: "app_receipt_id"},
		{Column: "timestamp"},
		{Column: "cycle_number"},
		{Column: "data", JSON: true},
		{Column: "original_tx_data", JSON: true},
	},
	id: func(t *model.Transaction) string { return t.TxID },
	values: func(t *model.Transaction) []any {
		return []any{t.TxID, t.AppReceiptID, t.Timestamp, t.CycleNumber, t.Data, t.OriginalTxData}
	},
	scan: scanTransaction,
}

func scanTransaction(s scanner) (*model.Transaction, error) {
	var (
		t                                  model.Transaction
		appReceiptID, data, originalTxData sql.NullString
	)
	if err := s.Scan(&t.TxID, &appReceiptID, &t.Timestamp, &t.CycleNumber, &data, &originalTxData); err != nil {
		return nil, err
	}
	if appReceiptID.Valid {
		t.AppReceiptID = &appReceiptID.String
	}
	t.Data = rowcodec.DecodeRaw(data)
	t.OriginalTxData = rowcodec.DecodeRaw(originalTxData)
	return &t, nil
}

// TransactionRepo implements store.TransactionRepository on SQLite.
type TransactionRepo struct {
	db *DB
}

func NewTransactionRepo(db *DB) *TransactionRepo {
	return &TransactionRepo{db: db}
}

func (r *TransactionRepo) Insert(ctx context.Context, t *model.Transaction) (store.WriteOutcome, error) {
	outcome, err := transactionTable.insert(ctx, r.db, t)
	if err != nil {
		metrics.StoreWriteErrorsTotal.WithLabelValues("transaction").Inc()
		return outcome, err
	}
	metrics.StoreWritesTotal.WithLabelValues("transaction", string(outcome)).Inc()
	return outcome, nil
}

func (r *TransactionRepo) BulkInsert(ctx context.Context, txns []*model.Transaction) error {
	if err := transactionTable.bulkInsert(ctx, r.db, txns); err != nil {
		metrics.StoreWriteErrorsTotal.WithLabelValues("transaction").Inc()
		return err
	}
	metrics.StoreBulkBatchSize.WithLabelValues("transaction").Observe(float64(len(txns)))
	metrics.StoreWritesTotal.WithLabelValues("transaction", string(store.WriteInserted)).Add(float64(len(txns)))
	return nil
}

func (r *TransactionRepo) GetByID(ctx context.Context, txID string) (*model.Transaction, error) {
	defer observeQuery("transaction", "get_by_id", time.Now())
	return transactionTable.getBy(ctx, r.db, "tx_id", txID)
}

// GetByAppReceiptID looks up a transaction by its application receipt
// reference. The column is indexed but not unique; when several rows match,
// which one is returned is undefined.
func (r *TransactionRepo) GetByAppReceiptID(ctx context.Context, appReceiptID string) (*model.Transaction, error) {
	defer observeQuery("transaction", "get_by_app_receipt_id", time.Now())
	return transactionTable.getBy(ctx, r.db, "app_receipt_id", appReceiptID)
}

func (r *TransactionRepo) GetLatest(ctx context.Context, count int) ([]*model.Transaction, error) {
	defer observeQuery("transaction", "latest", time.Now())
	return transactionTable.latest(ctx, r.db, count)
}

func (r *TransactionRepo) GetPage(ctx context.Context, skip, limit int64) ([]*model.Transaction, error) {
	defer observeQuery("transaction", "page", time.Now())
	return transactionTable.page(ctx, r.db, skip, limit)
}

func (r *TransactionRepo) GetPageInCycleRange(ctx context.Context, skip, limit, startCycle, endCycle int64) ([]*model.Transaction, error) {
	defer observeQuery("transaction", "page_in_cycle_range", time.Now())
	return transactionTable.pageInCycleRange(ctx, r.db, skip, limit, startCycle, endCycle)
}

func (r *TransactionRepo) Count(ctx context.Context) (int64, error) {
	defer observeQuery("transaction", "count", time.Now())
	return transactionTable.count(ctx, r.db)
}

func (r *TransactionRepo) CountInCycleRange(ctx context.Context, startCycle, endCycle int64) (int64, error) {
	defer observeQuery("transaction", "count_in_cycle_range", time.Now())
	return transactionTable.countInCycleRange(ctx, r.db, startCycle, endCycle)
}

func observeQuery(record, query string, start time.Time) {
	metrics.StoreQueryLatency.WithLabelValues(record, query).Observe(time.Since(start).Seconds())
}
