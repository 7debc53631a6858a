package model

import "encoding/json"

// AccountState is a snapshot of one account taken before or after a
// transaction executed.
type AccountState struct {
	AccountID   string          `json:"accountId"`
	Data        json.RawMessage `json:"data,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Hash        string          `json:"hash"`
	CycleNumber int64           `json:"cycleNumber"`
	IsGlobal    bool            `json:"isGlobal"`
}

// SignedReceipt is the consensus proof bundle attached to a receipt. The
// proposal and vote payloads are produced and verified elsewhere; this layer
// stores them opaquely and never inspects their contents.
type SignedReceipt struct {
	Proposal      json.RawMessage `json:"proposal,omitempty"`
	ProposalHash  string          `json:"proposalHash,omitempty"`
	AppliedVotes  json.RawMessage `json:"appliedVotes,omitempty"`
	VoteOfferHash string          `json:"voteOfferHash,omitempty"`
	SignaturePack json.RawMessage `json:"signaturePack,omitempty"`
}

// Receipt is the attested record of a transaction's finalized execution:
// outcome data, account state snapshots, and the signed consensus proof.
// ApplyTimestamp is when execution finalized and is never earlier than
// Timestamp.
type Receipt struct {
	ReceiptID          string          `json:"receiptId"`
	Timestamp          int64           `json:"timestamp"`
	ApplyTimestamp     int64           `json:"applyTimestamp"`
	Cycle              int64           `json:"cycle"`
	SignedReceipt      *SignedReceipt  `json:"signedReceipt,omitempty"`
	AppReceiptData     json.RawMessage `json:"appReceiptData,omitempty"`
	BeforeStates       []AccountState  `json:"beforeStates,omitempty"`
	AfterStates        []AccountState  `json:"afterStates,omitempty"`
	ExecutionShardKey  string          `json:"executionShardKey,omitempty"`
	GlobalModification bool            `json:"globalModification"`
}
