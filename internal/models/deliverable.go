package models

import (
	"time"

	"github.com/google/uuid"
)

// Deliverable statuses.
const (
	DeliverableStatusSubmitted         = "submitted"
	DeliverableStatusRevisionRequested = "revision_requested"
	DeliverableStatusApproved          = "approved"
)

// ValidDeliverableStatuses lists the accepted deliverable statuses.
var ValidDeliverableStatuses = map[string]struct{}{
	DeliverableStatusSubmitted:         {},
	DeliverableStatusRevisionRequested: {},
	DeliverableStatusApproved:          {},
}

// Deliverable is one unit of submitted work tied to a bid. A bid accumulates
// deliverables over revision rounds; only approved ones count toward the
// bid's required total.
type Deliverable struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	BidID       uuid.UUID  `db:"bid_id" json:"bid_id"`
	Platform    string     `db:"platform" json:"platform"`
	ContentType string     `db:"content_type" json:"content_type"`
	ArtifactURL string     `db:"artifact_url" json:"artifact_url"`
	Description *string    `db:"description" json:"description,omitempty"`
	Status      string     `db:"status" json:"status"`
	Feedback    *string    `db:"feedback" json:"feedback,omitempty"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	ReviewedAt  *time.Time `db:"reviewed_at" json:"reviewed_at,omitempty"`
}
