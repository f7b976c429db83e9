package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Campaign statuses.
const (
	CampaignStatusOpen      = "open"
	CampaignStatusClosed    = "closed"
	CampaignStatusCompleted = "completed"
)

// ValidCampaignStatuses lists the accepted campaign statuses.
var ValidCampaignStatuses = map[string]struct{}{
	CampaignStatusOpen:      {},
	CampaignStatusClosed:    {},
	CampaignStatusCompleted: {},
}

// campaignTransitions is the legal transition matrix for campaign status.
var campaignTransitions = map[string]map[string]struct{}{
	CampaignStatusOpen: {
		CampaignStatusClosed:    {},
		CampaignStatusCompleted: {},
	},
	CampaignStatusClosed: {
		CampaignStatusCompleted: {},
	},
	CampaignStatusCompleted: {},
}

// CanCampaignTransition reports whether a campaign may move from one status to another.
func CanCampaignTransition(from, to string) bool {
	targets, ok := campaignTransitions[from]
	if !ok {
		return false
	}
	_, ok = targets[to]
	return ok
}

// Campaign is a brand's open call for influencer bids. Budget is fixed at
// creation; BudgetSpent is a projection recomputed from the ledger, never
// stored or mutated directly.
type Campaign struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	BrandID     uuid.UUID      `db:"brand_id" json:"brand_id"`
	Title       string         `db:"title" json:"title"`
	Objective   string         `db:"objective" json:"objective"`
	Audience    *string        `db:"audience" json:"audience,omitempty"`
	KeyMessages *string        `db:"key_messages" json:"key_messages,omitempty"`
	Hashtags    pq.StringArray `db:"hashtags" json:"hashtags"`
	Dos         *string        `db:"dos" json:"dos,omitempty"`
	Donts       *string        `db:"donts" json:"donts,omitempty"`
	Budget      int64          `db:"budget" json:"budget"`
	BudgetSpent int64          `db:"budget_spent" json:"budget_spent"`
	Status      string         `db:"status" json:"status"`
	DeadlineAt  *time.Time     `db:"deadline_at" json:"deadline_at,omitempty"`
	Version     int64          `db:"version" json:"version"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// Remaining returns the budget still available for new reservations.
func (c *Campaign) Remaining() int64 {
	return c.Budget - c.BudgetSpent
}
