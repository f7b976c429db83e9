package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
)

type DeliverableRepository struct {
	db *sqlx.DB
}

func NewDeliverableRepository(db *sqlx.DB) *DeliverableRepository {
	return &DeliverableRepository{db: db}
}

// ReviewResult is the outcome of an approval: the reviewed deliverable, the
// bid afterwards, and the release entry when this approval was the final one.
type ReviewResult struct {
	Deliverable *models.Deliverable
	Bid         *models.Bid
	Released    *models.LedgerEntry
}

func (r *DeliverableRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	var d models.Deliverable
	if err := r.db.GetContext(ctx, &d, `SELECT * FROM deliverables WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("deliverable repository: get by id %w", err)
	}
	return &d, nil
}

// ListByBid returns a bid's deliverables in submission order.
func (r *DeliverableRepository) ListByBid(ctx context.Context, bidID uuid.UUID) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.SelectContext(ctx, &deliverables, `
		SELECT * FROM deliverables WHERE bid_id = $1 ORDER BY submitted_at ASC
	`, bidID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: list by bid %w", err)
	}
	return deliverables, nil
}

// Submit inserts a deliverable and moves the bid to submitted in the same
// transaction. The bid row lock guards against a concurrent dispute or
// acceptance race changing the production state underneath.
func (r *DeliverableRepository) Submit(ctx context.Context, d *models.Deliverable) (*models.Bid, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: submit begin %w", err)
	}
	defer tx.Rollback()

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 FOR UPDATE`, d.BidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, fmt.Errorf("deliverable repository: submit lock bid %w", err)
	}
	if !models.IsBidInProduction(bid.Status) {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"deliverables cannot be submitted while the bid is %q", bid.Status)
	}

	var inFlight int
	err = tx.GetContext(ctx, &inFlight, `
		SELECT COUNT(*) FROM deliverables
		WHERE bid_id = $1 AND status IN ('submitted', 'approved')
	`, d.BidID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: submit count %w", err)
	}
	if inFlight >= bid.DeliverablesCount {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bid already has all %d required deliverables submitted or approved", bid.DeliverablesCount)
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO deliverables (bid_id, platform, content_type, artifact_url, description, status)
		VALUES ($1, $2, $3, $4, $5, 'submitted')
		RETURNING id, submitted_at
	`, d.BidID, d.Platform, d.ContentType, d.ArtifactURL, d.Description).
		Scan(&d.ID, &d.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: submit insert %w", err)
	}
	d.Status = models.DeliverableStatusSubmitted

	err = tx.GetContext(ctx, &bid, `
		UPDATE bids SET status = 'submitted', version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, d.BidID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: submit update bid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("deliverable repository: submit commit %w", err)
	}
	return &bid, nil
}

// Approve marks a deliverable approved and, when it completes the bid's
// required count, releases the escrow to the influencer's wallet minus the
// platform fee. The bid row lock makes the release exactly-once: a second
// approval attempt finds the bid already paid and fails with INVALID_STATE.
func (r *DeliverableRepository) Approve(ctx context.Context, deliverableID uuid.UUID, feeBps int64) (*ReviewResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: approve begin %w", err)
	}
	defer tx.Rollback()

	d, bid, err := lockDeliverableAndBid(ctx, tx, deliverableID)
	if err != nil {
		return nil, err
	}
	if bid.Status != models.BidStatusSubmitted {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"deliverables cannot be approved while the bid is %q", bid.Status)
	}
	if d.Status != models.DeliverableStatusSubmitted {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"deliverable in status %q cannot be approved", d.Status)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE deliverables SET status = 'approved', reviewed_at = $2 WHERE id = $1
	`, d.ID, now)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: approve update %w", err)
	}
	d.Status = models.DeliverableStatusApproved
	d.ReviewedAt = &now

	var approved int
	err = tx.GetContext(ctx, &approved, `
		SELECT COUNT(*) FROM deliverables WHERE bid_id = $1 AND status = 'approved'
	`, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: approve count %w", err)
	}

	result := &ReviewResult{Deliverable: d, Bid: bid}
	if approved < bid.DeliverablesCount {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("deliverable repository: approve commit %w", err)
		}
		return result, nil
	}

	// Final required deliverable: release escrow to the influencer.
	entry, err := releaseEscrow(ctx, tx, bid, feeBps)
	if err != nil {
		return nil, err
	}
	result.Released = entry

	err = tx.GetContext(ctx, result.Bid, `
		UPDATE bids SET status = 'paid', version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: approve pay bid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("deliverable repository: approve commit %w", err)
	}
	return result, nil
}

// RequestRevision sends a deliverable back to the influencer with feedback.
// Escrow stays held; no ledger entry is written.
func (r *DeliverableRepository) RequestRevision(ctx context.Context, deliverableID uuid.UUID, feedback string) (*ReviewResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: revision begin %w", err)
	}
	defer tx.Rollback()

	d, bid, err := lockDeliverableAndBid(ctx, tx, deliverableID)
	if err != nil {
		return nil, err
	}
	if bid.Status != models.BidStatusSubmitted {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"revisions cannot be requested while the bid is %q", bid.Status)
	}
	if d.Status != models.DeliverableStatusSubmitted {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"deliverable in status %q cannot be sent back for revision", d.Status)
	}

	now := time.Now()
	_, err = tx.ExecContext(ctx, `
		UPDATE deliverables SET status = 'revision_requested', feedback = $2, reviewed_at = $3
		WHERE id = $1
	`, d.ID, feedback, now)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: revision update %w", err)
	}
	d.Status = models.DeliverableStatusRevisionRequested
	d.Feedback = &feedback
	d.ReviewedAt = &now

	err = tx.GetContext(ctx, bid, `
		UPDATE bids SET status = 'revision_requested', version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, bid.ID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: revision update bid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("deliverable repository: revision commit %w", err)
	}
	return &ReviewResult{Deliverable: d, Bid: bid}, nil
}

// ListTerminalReady returns the submitted bids of a campaign whose in-flight
// deliverables already cover the required count; completing the campaign
// approves these in batch.
func (r *DeliverableRepository) ListTerminalReady(ctx context.Context, campaignID uuid.UUID) ([]models.Deliverable, error) {
	var deliverables []models.Deliverable
	err := r.db.SelectContext(ctx, &deliverables, `
		SELECT d.* FROM deliverables d
		JOIN bids b ON b.id = d.bid_id
		WHERE b.campaign_id = $1 AND b.status = 'submitted' AND d.status = 'submitted'
		ORDER BY d.submitted_at ASC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("deliverable repository: list terminal ready %w", err)
	}
	return deliverables, nil
}

// lockDeliverableAndBid locks the bid row first, then loads the deliverable.
// All review-cycle writers take the bid lock, so two concurrent reviews of
// the same bid serialize here.
func lockDeliverableAndBid(ctx context.Context, tx *sqlx.Tx, deliverableID uuid.UUID) (*models.Deliverable, *models.Bid, error) {
	var d models.Deliverable
	err := tx.GetContext(ctx, &d, `SELECT * FROM deliverables WHERE id = $1`, deliverableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrDeliverableNotFound
		}
		return nil, nil, fmt.Errorf("deliverable repository: load %w", err)
	}

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 FOR UPDATE`, d.BidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, apperror.ErrBidNotFound
		}
		return nil, nil, fmt.Errorf("deliverable repository: lock bid %w", err)
	}

	// Re-read the deliverable under the bid lock; its status may have moved
	// while we waited.
	err = tx.GetContext(ctx, &d, `SELECT * FROM deliverables WHERE id = $1`, deliverableID)
	if err != nil {
		return nil, nil, fmt.Errorf("deliverable repository: reload %w", err)
	}
	return &d, &bid, nil
}

// releaseEscrow writes the release ledger entry crediting the influencer's
// wallet with the bid amount minus the platform fee (rounded down).
func releaseEscrow(ctx context.Context, tx *sqlx.Tx, bid *models.Bid, feeBps int64) (*models.LedgerEntry, error) {
	spent, err := campaignSpent(ctx, tx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	earned, err := walletLifetimeEarned(ctx, tx, bid.InfluencerID)
	if err != nil {
		return nil, err
	}

	fee := bid.Amount * feeBps / 10000
	payout := bid.Amount - fee
	balanceAfter := earned + payout

	entry := &models.LedgerEntry{
		CampaignID:         &bid.CampaignID,
		BidID:              &bid.ID,
		EntryType:          models.LedgerEntryRelease,
		Amount:             payout,
		CampaignSpentAfter: spent,
		WalletUserID:       &bid.InfluencerID,
		WalletBalanceAfter: &balanceAfter,
	}
	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
