package model

import "encoding/json"

// Transaction is a single observed ledger transaction as submitted by the
// upstream producer. Records are immutable after the first write; re-sending
// the same txId is an idempotent replace.
//
// JSON tags are the wire contract with producers and API consumers — renaming
// a field here is a breaking change.
type Transaction struct {
	TxID           string          `json:"txId"`
	AppReceiptID   *string         `json:"appReceiptId,omitempty"`
	Timestamp      int64           `json:"timestamp"`
	CycleNumber    int64           `json:"cycleNumber"`
	Data           json.RawMessage `json:"data,omitempty"`
	OriginalTxData json.RawMessage `json:"originalTxData,omitempty"`
}

// CycleCount is one per-cycle bucket of a grouped count query.
type CycleCount struct {
	Cycle int64 `json:"cycle"`
	Count int64 `json:"count"`
}
