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

type CampaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// campaignColumns selects campaign rows with budget_spent derived from the
// ledger; the campaigns table itself has no spent column.
const campaignColumns = `
	c.*,
	COALESCE((
		SELECT SUM(CASE le.entry_type WHEN 'reserve' THEN le.amount WHEN 'refund' THEN -le.amount ELSE 0 END)
		FROM ledger_entries le WHERE le.campaign_id = c.id
	), 0) AS budget_spent
`

// Create inserts a new campaign in open status.
func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	query := `
		INSERT INTO campaigns
			(brand_id, title, objective, audience, key_messages, hashtags, dos, donts, budget, status, deadline_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, version, created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		c.BrandID, c.Title, c.Objective, c.Audience, c.KeyMessages, c.Hashtags,
		c.Dos, c.Donts, c.Budget, c.Status, c.DeadlineAt).
		Scan(&c.ID, &c.Version, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("campaign repository: create %w", err)
	}
	return nil
}

// GetByID returns a campaign with its derived budget_spent.
func (r *CampaignRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	var c models.Campaign
	query := fmt.Sprintf(`SELECT %s FROM campaigns c WHERE c.id = $1`, campaignColumns)
	if err := r.db.GetContext(ctx, &c, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("campaign repository: get by id %w", err)
	}
	return &c, nil
}

// ListOpen returns open campaigns for public browsing, newest first.
func (r *CampaignRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns c
		WHERE c.status = 'open'
		ORDER BY c.created_at DESC LIMIT $1 OFFSET $2
	`, campaignColumns)
	if err := r.db.SelectContext(ctx, &campaigns, query, limit, offset); err != nil {
		return nil, fmt.Errorf("campaign repository: list open %w", err)
	}
	return campaigns, nil
}

// ListByBrand returns a brand's campaigns, newest first.
func (r *CampaignRepository) ListByBrand(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Campaign, error) {
	var campaigns []models.Campaign
	query := fmt.Sprintf(`
		SELECT %s FROM campaigns c
		WHERE c.brand_id = $1
		ORDER BY c.created_at DESC LIMIT $2 OFFSET $3
	`, campaignColumns)
	if err := r.db.SelectContext(ctx, &campaigns, query, brandID, limit, offset); err != nil {
		return nil, fmt.Errorf("campaign repository: list by brand %w", err)
	}
	return campaigns, nil
}

// Close moves an open campaign to closed. Accepted bids continue through
// their review cycle; only new bid submission and acceptance stop.
func (r *CampaignRepository) Close(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET status = 'closed', version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'open'
	`, id)
	if err != nil {
		return nil, fmt.Errorf("campaign repository: close %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("campaign repository: close rows affected %w", err)
	}
	if affected == 0 {
		// Distinguish a missing campaign from an illegal transition.
		existing, getErr := r.GetByID(ctx, id)
		if getErr != nil {
			return nil, getErr
		}
		if existing.Status == models.CampaignStatusClosed {
			// Idempotent retry: report the settled state, no error.
			return existing, nil
		}
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"campaign in status %q cannot be closed", existing.Status)
	}
	return r.GetByID(ctx, id)
}

// Complete moves a campaign to completed, but only when no bid remains in a
// non-terminal state. The campaign row lock keeps the terminal check and the
// status write atomic against concurrent bid transitions.
func (r *CampaignRepository) Complete(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("campaign repository: complete begin %w", err)
	}
	defer tx.Rollback()

	var c models.Campaign
	err = tx.GetContext(ctx, &c, `SELECT * FROM campaigns WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrCampaignNotFound
		}
		return nil, fmt.Errorf("campaign repository: complete lock %w", err)
	}

	if c.Status == models.CampaignStatusCompleted {
		return r.GetByID(ctx, id)
	}
	if !models.CanCampaignTransition(c.Status, models.CampaignStatusCompleted) {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"campaign in status %q cannot be completed", c.Status)
	}

	var open int
	err = tx.GetContext(ctx, &open, `
		SELECT COUNT(*) FROM bids
		WHERE campaign_id = $1 AND status NOT IN ('paid', 'rejected', 'withdrawn')
	`, id)
	if err != nil {
		return nil, fmt.Errorf("campaign repository: complete count %w", err)
	}
	if open > 0 {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"campaign has %d bids still in a non-terminal state", open)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE campaigns SET status = 'completed', version = version + 1, updated_at = NOW()
		WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("campaign repository: complete update %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("campaign repository: complete commit %w", err)
	}
	return r.GetByID(ctx, id)
}
