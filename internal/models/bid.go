package models

import (
	"time"

	"github.com/google/uuid"
)

// Bid statuses. The production states (accepted, submitted,
// revision_requested) cycle until the final deliverable is approved.
const (
	BidStatusPending           = "pending"
	BidStatusAccepted          = "accepted"
	BidStatusSubmitted         = "submitted"
	BidStatusRevisionRequested = "revision_requested"
	BidStatusDisputed          = "disputed"
	BidStatusPaid              = "paid"
	BidStatusRejected          = "rejected"
	BidStatusWithdrawn         = "withdrawn"
)

// ValidBidStatuses lists the accepted bid statuses.
var ValidBidStatuses = map[string]struct{}{
	BidStatusPending:           {},
	BidStatusAccepted:          {},
	BidStatusSubmitted:         {},
	BidStatusRevisionRequested: {},
	BidStatusDisputed:          {},
	BidStatusPaid:              {},
	BidStatusRejected:          {},
	BidStatusWithdrawn:         {},
}

// bidTransitions is the legal transition matrix for bid status. Illegal
// transitions are rejected here centrally instead of relying on callers.
var bidTransitions = map[string]map[string]struct{}{
	BidStatusPending: {
		BidStatusAccepted:  {},
		BidStatusRejected:  {},
		BidStatusWithdrawn: {},
		BidStatusDisputed:  {},
	},
	BidStatusAccepted: {
		BidStatusSubmitted: {},
		BidStatusDisputed:  {},
	},
	BidStatusSubmitted: {
		BidStatusSubmitted:         {}, // further deliverables in the same round
		BidStatusRevisionRequested: {},
		BidStatusPaid:              {},
		BidStatusDisputed:          {},
	},
	BidStatusRevisionRequested: {
		BidStatusSubmitted: {},
		BidStatusDisputed:  {},
	},
	BidStatusDisputed: {
		BidStatusPaid:     {}, // dispute resolved in favor of the influencer
		BidStatusRejected: {}, // dispute resolved in favor of the brand
	},
	BidStatusPaid:      {},
	BidStatusRejected:  {}, // no escrow reservation left, nothing to dispute
	BidStatusWithdrawn: {},
}

// CanBidTransition reports whether a bid may move from one status to another.
func CanBidTransition(from, to string) bool {
	targets, ok := bidTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// IsBidTerminal reports whether a bid status allows no further transitions.
func IsBidTerminal(status string) bool {
	return len(bidTransitions[status]) == 0
}

// IsBidInProduction reports whether the influencer may submit deliverables.
func IsBidInProduction(status string) bool {
	return status == BidStatusAccepted ||
		status == BidStatusSubmitted ||
		status == BidStatusRevisionRequested
}

// Bid is an influencer's offer against a campaign. An accepted bid owns
// exactly one active escrow reservation in the ledger.
type Bid struct {
	ID                uuid.UUID `db:"id" json:"id"`
	CampaignID        uuid.UUID `db:"campaign_id" json:"campaign_id"`
	InfluencerID      uuid.UUID `db:"influencer_id" json:"influencer_id"`
	Amount            int64     `db:"amount" json:"amount"`
	Platform          string    `db:"platform" json:"platform"`
	ContentType       string    `db:"content_type" json:"content_type"`
	DeliverablesCount int       `db:"deliverables_count" json:"deliverables_count"`
	TimelineDays      int       `db:"timeline_days" json:"timeline_days"`
	Proposal          string    `db:"proposal" json:"proposal"`
	Status            string    `db:"status" json:"status"`
	Version           int64     `db:"version" json:"version"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}
