package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creatorlink/collab-backend/internal/models"
)

// LedgerRepository reads the append-only ledger. Writes happen inside the
// transactions of the repositories that own the corresponding entity change
// (bid acceptance, deliverable approval, dispute resolution), via the
// insertLedgerEntry helper, so an entry can never commit without its status
// update.
type LedgerRepository struct {
	db *sqlx.DB
}

func NewLedgerRepository(db *sqlx.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ListByCampaign returns a campaign's fund movements, newest first.
func (r *LedgerRepository) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries WHERE campaign_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, campaignID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list by campaign %w", err)
	}
	return entries, nil
}

// ListByWalletUser returns the entries credited to a user's wallet, newest first.
func (r *LedgerRepository) ListByWalletUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := r.db.SelectContext(ctx, &entries, `
		SELECT * FROM ledger_entries WHERE wallet_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ledger repository: list by wallet user %w", err)
	}
	return entries, nil
}

// CampaignSpent recomputes a campaign's reserved-minus-refunded total.
func (r *LedgerRepository) CampaignSpent(ctx context.Context, campaignID uuid.UUID) (int64, error) {
	return campaignSpent(ctx, r.db, campaignID)
}

// campaignSpent sums reserve minus refund entries for a campaign. Run it on a
// transaction holding the campaign row lock when the result guards a write.
func campaignSpent(ctx context.Context, q sqlx.QueryerContext, campaignID uuid.UUID) (int64, error) {
	var spent int64
	err := sqlx.GetContext(ctx, q, &spent, `
		SELECT COALESCE(SUM(CASE entry_type
			WHEN 'reserve' THEN amount
			WHEN 'refund' THEN -amount
			ELSE 0 END), 0)
		FROM ledger_entries WHERE campaign_id = $1
	`, campaignID)
	if err != nil {
		return 0, fmt.Errorf("ledger: campaign spent %w", err)
	}
	return spent, nil
}

// walletLifetimeEarned sums release entries credited to a user.
func walletLifetimeEarned(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (int64, error) {
	var earned int64
	err := sqlx.GetContext(ctx, q, &earned, `
		SELECT COALESCE(SUM(amount), 0)
		FROM ledger_entries
		WHERE wallet_user_id = $1 AND entry_type = 'release'
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: wallet lifetime earned %w", err)
	}
	return earned, nil
}

// withdrawalReserved sums the withdrawal requests that hold wallet balance.
// Pending requests reserve funds; successful ones consumed them; failed and
// rejected requests release the reservation.
func withdrawalReserved(ctx context.Context, q sqlx.QueryerContext, userID uuid.UUID) (int64, error) {
	var reserved int64
	err := sqlx.GetContext(ctx, q, &reserved, `
		SELECT COALESCE(SUM(amount), 0)
		FROM withdrawal_requests
		WHERE user_id = $1 AND status IN ('pending', 'success')
	`, userID)
	if err != nil {
		return 0, fmt.Errorf("ledger: withdrawal reserved %w", err)
	}
	return reserved, nil
}

// bidReserved reports whether a reserve entry exists for the bid and is not
// yet refunded or released.
func bidHasActiveReserve(ctx context.Context, q sqlx.QueryerContext, bidID uuid.UUID) (bool, error) {
	var count int
	err := sqlx.GetContext(ctx, q, &count, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE bid_id = $1 AND entry_type = 'reserve'
	`, bidID)
	if err != nil {
		return false, fmt.Errorf("ledger: bid reserve lookup %w", err)
	}
	if count == 0 {
		return false, nil
	}
	var settled int
	err = sqlx.GetContext(ctx, q, &settled, `
		SELECT COUNT(*) FROM ledger_entries
		WHERE bid_id = $1 AND entry_type IN ('release', 'refund')
	`, bidID)
	if err != nil {
		return false, fmt.Errorf("ledger: bid settle lookup %w", err)
	}
	return settled == 0, nil
}

// insertLedgerEntry appends an entry within the caller's transaction.
func insertLedgerEntry(ctx context.Context, tx *sqlx.Tx, e *models.LedgerEntry) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO ledger_entries
			(campaign_id, bid_id, entry_type, amount, campaign_spent_after, wallet_user_id, wallet_balance_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, e.CampaignID, e.BidID, e.EntryType, e.Amount, e.CampaignSpentAfter, e.WalletUserID, e.WalletBalanceAfter).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("ledger: insert entry %w", err)
	}
	return nil
}
