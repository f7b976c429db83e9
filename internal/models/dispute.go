package models

import (
	"time"

	"github.com/google/uuid"
)

// Dispute statuses and outcomes.
const (
	DisputeStatusOpen                    = "open"
	DisputeStatusResolvedFavorBrand      = "resolved_favor_brand"
	DisputeStatusResolvedFavorInfluencer = "resolved_favor_influencer"

	DisputeOutcomeFavorBrand      = "favor_brand"
	DisputeOutcomeFavorInfluencer = "favor_influencer"
)

// ValidDisputeOutcomes lists the accepted resolution outcomes.
var ValidDisputeOutcomes = map[string]struct{}{
	DisputeOutcomeFavorBrand:      {},
	DisputeOutcomeFavorInfluencer: {},
}

// Dispute is a manual-review hold placed on a bid's escrow by either party.
// A bid carries at most one open dispute.
type Dispute struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	BidID           uuid.UUID  `db:"bid_id" json:"bid_id"`
	CampaignID      uuid.UUID  `db:"campaign_id" json:"campaign_id"`
	RaisedBy        uuid.UUID  `db:"raised_by" json:"raised_by"`
	Reason          string     `db:"reason" json:"reason"`
	Status          string     `db:"status" json:"status"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedBy      *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}
