package store

import (
	"context"

	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
)

// WriteOutcome is the discriminated result of an insert-or-replace write.
// Failures are returned as errors alongside WriteFailed, so callers can
// retry or surface them instead of fishing outcomes out of logs.
type WriteOutcome string

const (
	// WriteInserted means the record's primary key was not present before.
	WriteInserted WriteOutcome = "inserted"
	// WriteReplaced means an existing row with the same primary key was
	// overwritten. For immutable records this is an idempotent retry.
	WriteReplaced WriteOutcome = "replaced"
	// WriteFailed means the statement did not execute; the accompanying
	// error carries the cause.
	WriteFailed WriteOutcome = "failed"
)

// TransactionRepository provides access to archived transactions.
type TransactionRepository interface {
	Insert(ctx context.Context, t *model.Transaction) (WriteOutcome, error)
	BulkInsert(ctx context.Context, txns []*model.Transaction) error
	GetByID(ctx context.Context, txID string) (*model.Transaction, error)
	GetByAppReceiptID(ctx context.Context, appReceiptID string) (*model.Transaction, error)
	GetLatest(ctx context.Context, count int) ([]*model.Transaction, error)
	GetPage(ctx context.Context, skip, limit int64) ([]*model.Transaction, error)
	GetPageInCycleRange(ctx context.Context, skip, limit, startCycle, endCycle int64) ([]*model.Transaction, error)
	Count(ctx context.Context) (int64, error)
	CountInCycleRange(ctx context.Context, startCycle, endCycle int64) (int64, error)
}

// ReceiptRepository provides access to archived receipts.
type ReceiptRepository interface {
	Insert(ctx context.Context, r *model.Receipt) (WriteOutcome, error)
	BulkInsert(ctx context.Context, receipts []*model.Receipt) error
	GetByID(ctx context.Context, receiptID string) (*model.Receipt, error)
	GetByExecutionShardKey(ctx context.Context, shardKey string) (*model.Receipt, error)
	GetLatest(ctx context.Context, count int) ([]*model.Receipt, error)
	GetPage(ctx context.Context, skip, limit int64) ([]*model.Receipt, error)
	GetPageInCycleRange(ctx context.Context, skip, limit, startCycle, endCycle int64) ([]*model.Receipt, error)
	Count(ctx context.Context) (int64, error)
	CountInCycleRange(ctx context.Context, startCycle, endCycle int64) (int64, error)
	CountByCycle(ctx context.Context, startCycle, endCycle int64) ([]model.CycleCount, error)
}
