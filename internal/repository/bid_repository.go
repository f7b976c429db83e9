package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
)

type BidRepository struct {
	db *sqlx.DB
}

func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Create inserts a new bid in pending status.
func (r *BidRepository) Create(ctx context.Context, b *models.Bid) error {
	query := `
		INSERT INTO bids
			(campaign_id, influencer_id, amount, platform, content_type, deliverables_count, timeline_days, proposal, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		b.CampaignID, b.InfluencerID, b.Amount, b.Platform, b.ContentType,
		b.DeliverablesCount, b.TimelineDays, b.Proposal, b.Status).
		Scan(&b.ID, &b.Version, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("bid repository: create %w", err)
	}
	return nil
}

func (r *BidRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	var b models.Bid
	if err := r.db.GetContext(ctx, &b, `SELECT * FROM bids WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, fmt.Errorf("bid repository: get by id %w", err)
	}
	return &b, nil
}

// ListByCampaign returns a campaign's bids, newest first.
func (r *BidRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE campaign_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("bid repository: list by campaign %w", err)
	}
	return bids, nil
}

// ListByInfluencer returns an influencer's bids, newest first.
func (r *BidRepository) ListByInfluencer(ctx context.Context, influencerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	var bids []models.Bid
	err := r.db.SelectContext(ctx, &bids, `
		SELECT * FROM bids WHERE influencer_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, influencerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("bid repository: list by influencer %w", err)
	}
	return bids, nil
}

// UpdateTerms edits a pending bid's terms. The version check rejects writes
// against a stale snapshot with a conflict instead of silently overwriting.
func (r *BidRepository) UpdateTerms(ctx context.Context, b *models.Bid, expectedVersion int64) (*models.Bid, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids SET
			amount = $2, platform = $3, content_type = $4, deliverables_count = $5,
			timeline_days = $6, proposal = $7, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'pending' AND version = $8
	`, b.ID, b.Amount, b.Platform, b.ContentType, b.DeliverablesCount,
		b.TimelineDays, b.Proposal, expectedVersion)
	if err != nil {
		return nil, fmt.Errorf("bid repository: update terms %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("bid repository: update terms rows affected %w", err)
	}
	if affected == 0 {
		existing, getErr := r.GetByID(ctx, b.ID)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status != models.BidStatusPending {
			return nil, apperror.Newf(apperror.ErrCodeInvalidState,
				"bid in status %q cannot be edited", existing.Status)
		}
		return nil, apperror.Newf(apperror.ErrCodeConflict,
			"bid was modified concurrently: version %d expected, %d current", expectedVersion, existing.Version)
	}
	return r.GetByID(ctx, b.ID)
}

// UpdateStatus performs a guarded status transition with no ledger effect
// (reject, withdraw). Transitions with fund movement go through AcceptBid,
// the deliverable repository or the dispute repository instead.
func (r *BidRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error) {
	if !models.CanBidTransition(from, to) {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState, "bid cannot move from %q to %q", from, to)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE bids SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return nil, fmt.Errorf("bid repository: update status %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("bid repository: update status rows affected %w", err)
	}
	if affected == 0 {
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == to {
			// Idempotent retry after a commit: second call sees the final state.
			return existing, nil
		}
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bid in status %q cannot move to %q", existing.Status, to)
	}
	return r.GetByID(ctx, id)
}

// AcceptBid atomically reserves campaign budget for a pending bid. The
// campaign row lock serializes concurrent accepts against the same budget:
// the remaining budget is recomputed from the ledger under the lock, so of
// two accepts that jointly overrun the budget exactly one commits and the
// other fails with BUDGET_EXCEEDED.
func (r *BidRepository) AcceptBid(ctx context.Context, campaignID, bidID uuid.UUID) (*models.Bid, *models.LedgerEntry, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("bid repository: accept begin %w", err)
	}
	defer tx.Rollback()

	var campaign models.Campaign
	err = tx.GetContext(ctx, &campaign, `SELECT * FROM campaigns WHERE id = $1 FOR UPDATE`, campaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrCampaignNotFound
		}
		return nil, nil, fmt.Errorf("bid repository: accept lock campaign %w", err)
	}
	if campaign.Status != models.CampaignStatusOpen {
		return nil, nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bids can only be accepted while the campaign is open, campaign is %q", campaign.Status)
	}

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 FOR UPDATE`, bidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrBidNotFound
		}
		return nil, nil, fmt.Errorf("bid repository: accept lock bid %w", err)
	}
	if bid.CampaignID != campaignID {
		return nil, nil, apperror.ErrBidNotFound
	}
	if bid.Status == models.BidStatusAccepted {
		// Idempotent retry after a committed accept.
		return &bid, nil, nil
	}
	if bid.Status != models.BidStatusPending {
		return nil, nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bid in status %q cannot be accepted", bid.Status)
	}

	spent, err := campaignSpent(ctx, tx, campaignID)
	if err != nil {
		return nil, nil, err
	}
	if bid.Amount > campaign.Budget-spent {
		return nil, nil, apperror.Newf(apperror.ErrCodeBudgetExceeded,
			"bid amount %d exceeds remaining campaign budget %d", bid.Amount, campaign.Budget-spent)
	}

	entry := &models.LedgerEntry{
		CampaignID:         &campaignID,
		BidID:              &bid.ID,
		EntryType:          models.LedgerEntryReserve,
		Amount:             bid.Amount,
		CampaignSpentAfter: spent + bid.Amount,
	}
	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return nil, nil, err
	}

	err = tx.GetContext(ctx, &bid, `
		UPDATE bids SET status = 'accepted', version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, bidID)
	if err != nil {
		return nil, nil, fmt.Errorf("bid repository: accept update %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("bid repository: accept commit %w", err)
	}
	return &bid, entry, nil
}
