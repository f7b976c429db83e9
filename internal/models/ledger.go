package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types. Entries are immutable once written; corrections are new
// entries, never edits.
const (
	LedgerEntryReserve        = "reserve"
	LedgerEntryRelease        = "release"
	LedgerEntryRefund         = "refund"
	LedgerEntryDisputeFreeze  = "dispute_freeze"
	LedgerEntryDisputeResolve = "dispute_resolve"
)

// ValidLedgerEntryTypes lists the accepted ledger entry types.
var ValidLedgerEntryTypes = map[string]struct{}{
	LedgerEntryReserve:        {},
	LedgerEntryRelease:        {},
	LedgerEntryRefund:         {},
	LedgerEntryDisputeFreeze:  {},
	LedgerEntryDisputeResolve: {},
}

// LedgerEntry records a single fund movement between a campaign's escrow pool
// and participant wallets. The ledger is the sole source of truth for
// balances: campaign spend and wallet balances are always recomputed by
// summing entries, never cached and mutated. Wallet-scoped entries (such as
// the refund written when a withdrawal request is rejected) carry no campaign.
type LedgerEntry struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	CampaignID *uuid.UUID `db:"campaign_id" json:"campaign_id,omitempty"`
	BidID      *uuid.UUID `db:"bid_id" json:"bid_id,omitempty"`
	EntryType  string     `db:"entry_type" json:"entry_type"`
	Amount     int64      `db:"amount" json:"amount"`

	// Resulting balances at write time, for audit display. Authoritative
	// values are still derived by summation.
	CampaignSpentAfter int64      `db:"campaign_spent_after" json:"campaign_spent_after"`
	WalletUserID       *uuid.UUID `db:"wallet_user_id" json:"wallet_user_id,omitempty"`
	WalletBalanceAfter *int64     `db:"wallet_balance_after" json:"wallet_balance_after,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
