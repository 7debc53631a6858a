package sqlite

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tanzinabd23/relayer-distributor/internal/domain/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "archive.sqlite3")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeTransaction(txID string, cycle, timestamp int64) *model.Transaction {
	appReceiptID := "app-receipt-" + txID
	return &model.Transaction{
		TxID:           txID,
		AppReceiptID:   &appReceiptID,
		Timestamp:      timestamp,
		CycleNumber:    cycle,
		Data:           json.RawMessage(fmt.Sprintf(`{"tx":%q,"amount":100}`, txID)),
		OriginalTxData: json.RawMessage(fmt.Sprintf(`{"tx":%q}`, txID)),
	}
}

func makeReceipt(receiptID string, cycle, timestamp int64) *model.Receipt {
	return &model.Receipt{
		ReceiptID:      receiptID,
		Timestamp:      timestamp,
		ApplyTimestamp: timestamp + 5,
		Cycle:          cycle,
		SignedReceipt: &model.SignedReceipt{
			Proposal:      json.RawMessage(`{"applied":true}`),
			ProposalHash:  "hash-" + receiptID,
			AppliedVotes:  json.RawMessage(`[{"voter":"n1"}]`),
			SignaturePack: json.RawMessage(`[{"sig":"s1"}]`),
		},
		AppReceiptData: json.RawMessage(fmt.Sprintf(`{"receipt":%q}`, receiptID)),
		BeforeStates: []model.AccountState{{
			AccountID:   "acct-1",
			Data:        json.RawMessage(`{"balance":10}`),
			Timestamp:   timestamp,
			Hash:        "before-hash",
			CycleNumber: cycle,
		}},
		AfterStates: []model.AccountState{{
			AccountID:   "acct-1",
			Data:        json.RawMessage(`{"balance":7}`),
			Timestamp:   timestamp + 5,
			Hash:        "after-hash",
			CycleNumber: cycle,
			IsGlobal:    false,
		}},
		ExecutionShardKey:  "shard-1",
		GlobalModification: false,
	}
}
