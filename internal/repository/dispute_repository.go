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

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// ResolveResult is the outcome of a dispute resolution: the settled dispute,
// the bid in its terminal state, and the ledger entry that settled the funds
// (nil when the bid never had an escrow reservation).
type ResolveResult struct {
	Dispute *models.Dispute
	Bid     *models.Bid
	Settled *models.LedgerEntry
}

func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	if err := r.db.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get by id %w", err)
	}
	return &d, nil
}

// ListOpen returns unresolved disputes for arbitration, oldest first.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE status = 'open'
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list open %w", err)
	}
	return disputes, nil
}

// ListByUser returns the disputes a user raised, newest first.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT * FROM disputes WHERE raised_by = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// Open freezes a bid into the disputed state and records the informational
// dispute_freeze entry. Funds stay in escrow; the entry marks the point in
// the audit trail where automatic transitions stopped.
func (r *DisputeRepository) Open(ctx context.Context, d *models.Dispute) (*models.Bid, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: open begin %w", err)
	}
	defer tx.Rollback()

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 FOR UPDATE`, d.BidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrBidNotFound
		}
		return nil, fmt.Errorf("dispute repository: open lock bid %w", err)
	}
	if !models.CanBidTransition(bid.Status, models.BidStatusDisputed) {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bid in status %q cannot be disputed", bid.Status)
	}

	var openCount int
	err = tx.GetContext(ctx, &openCount, `
		SELECT COUNT(*) FROM disputes WHERE bid_id = $1 AND status = 'open'
	`, d.BidID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: open count %w", err)
	}
	if openCount > 0 {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "bid already has an open dispute")
	}

	d.CampaignID = bid.CampaignID
	d.Status = models.DisputeStatusOpen
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO disputes (bid_id, campaign_id, raised_by, reason, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, d.BidID, d.CampaignID, d.RaisedBy, d.Reason, d.Status).
		Scan(&d.ID, &d.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: open insert %w", err)
	}

	spent, err := campaignSpent(ctx, tx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	freeze := &models.LedgerEntry{
		CampaignID:         &bid.CampaignID,
		BidID:              &bid.ID,
		EntryType:          models.LedgerEntryDisputeFreeze,
		Amount:             bid.Amount,
		CampaignSpentAfter: spent,
	}
	if err := insertLedgerEntry(ctx, tx, freeze); err != nil {
		return nil, err
	}

	err = tx.GetContext(ctx, &bid, `
		UPDATE bids SET status = 'disputed', version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, d.BidID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: open update bid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("dispute repository: open commit %w", err)
	}
	return &bid, nil
}

// Resolve settles an open dispute. favor_influencer releases the escrow to
// the influencer's wallet; favor_brand refunds the reservation back to the
// campaign budget. Either way the bid reaches a terminal state and the
// dispute_resolve entry closes the audit trail. The bid row lock prevents a
// race with a concurrent approval: whichever transaction commits first
// decides, the loser sees INVALID_STATE.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID uuid.UUID, outcome, notes string, resolvedBy uuid.UUID, feeBps int64) (*ResolveResult, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve begin %w", err)
	}
	defer tx.Rollback()

	var d models.Dispute
	err = tx.GetContext(ctx, &d, `SELECT * FROM disputes WHERE id = $1 FOR UPDATE`, disputeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: resolve lock dispute %w", err)
	}
	if d.Status != models.DisputeStatusOpen {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"dispute in status %q is already settled", d.Status)
	}

	var bid models.Bid
	err = tx.GetContext(ctx, &bid, `SELECT * FROM bids WHERE id = $1 FOR UPDATE`, d.BidID)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve lock bid %w", err)
	}
	if bid.Status != models.BidStatusDisputed {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"bid in status %q is not awaiting dispute resolution", bid.Status)
	}

	result := &ResolveResult{Dispute: &d, Bid: &bid}

	hasReserve, err := bidHasActiveReserve(ctx, tx, bid.ID)
	if err != nil {
		return nil, err
	}

	var disputeStatus, bidStatus string
	switch outcome {
	case models.DisputeOutcomeFavorInfluencer:
		disputeStatus = models.DisputeStatusResolvedFavorInfluencer
		bidStatus = models.BidStatusPaid
		if hasReserve {
			entry, err := releaseEscrow(ctx, tx, &bid, feeBps)
			if err != nil {
				return nil, err
			}
			result.Settled = entry
		}
	case models.DisputeOutcomeFavorBrand:
		disputeStatus = models.DisputeStatusResolvedFavorBrand
		bidStatus = models.BidStatusRejected
		if hasReserve {
			entry, err := refundEscrow(ctx, tx, &bid)
			if err != nil {
				return nil, err
			}
			result.Settled = entry
		}
	default:
		return nil, apperror.Newf(apperror.ErrCodeValidation, "unknown dispute outcome %q", outcome)
	}

	spent, err := campaignSpent(ctx, tx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	marker := &models.LedgerEntry{
		CampaignID:         &bid.CampaignID,
		BidID:              &bid.ID,
		EntryType:          models.LedgerEntryDisputeResolve,
		Amount:             bid.Amount,
		CampaignSpentAfter: spent,
	}
	if err := insertLedgerEntry(ctx, tx, marker); err != nil {
		return nil, err
	}

	now := time.Now()
	err = tx.GetContext(ctx, result.Dispute, `
		UPDATE disputes SET status = $2, resolution_notes = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $1
		RETURNING *
	`, disputeID, disputeStatus, notes, resolvedBy, now)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve update dispute %w", err)
	}

	err = tx.GetContext(ctx, result.Bid, `
		UPDATE bids SET status = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1
		RETURNING *
	`, bid.ID, bidStatus)
	if err != nil {
		return nil, fmt.Errorf("dispute repository: resolve update bid %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("dispute repository: resolve commit %w", err)
	}
	return result, nil
}

// refundEscrow writes the refund entry returning the reserved amount to the
// campaign budget.
func refundEscrow(ctx context.Context, tx *sqlx.Tx, bid *models.Bid) (*models.LedgerEntry, error) {
	spent, err := campaignSpent(ctx, tx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	entry := &models.LedgerEntry{
		CampaignID:         &bid.CampaignID,
		BidID:              &bid.ID,
		EntryType:          models.LedgerEntryRefund,
		Amount:             bid.Amount,
		CampaignSpentAfter: spent - bid.Amount,
	}
	if err := insertLedgerEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
