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

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// CreatePaymentMethod stores a payout destination.
func (r *WithdrawalRepository) CreatePaymentMethod(ctx context.Context, m *models.PaymentMethod) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO payment_methods (user_id, method_type, label, masked_detail)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, m.UserID, m.MethodType, m.Label, m.MaskedDetail).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("withdrawal repository: create payment method %w", err)
	}
	return nil
}

func (r *WithdrawalRepository) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	var m models.PaymentMethod
	if err := r.db.GetContext(ctx, &m, `SELECT * FROM payment_methods WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: get payment method %w", err)
	}
	return &m, nil
}

func (r *WithdrawalRepository) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	var methods []models.PaymentMethod
	err := r.db.SelectContext(ctx, &methods, `
		SELECT * FROM payment_methods WHERE user_id = $1 ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list payment methods %w", err)
	}
	return methods, nil
}

// WalletSummary derives a user's wallet from ledger releases minus the
// withdrawal requests that hold balance.
func (r *WithdrawalRepository) WalletSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	earned, err := walletLifetimeEarned(ctx, r.db, userID)
	if err != nil {
		return nil, err
	}
	reserved, err := withdrawalReserved(ctx, r.db, userID)
	if err != nil {
		return nil, err
	}
	return &models.WalletSummary{
		UserID:         userID,
		LifetimeEarned: earned,
		Reserved:       reserved,
		Available:      earned - reserved,
	}, nil
}

// Create opens a pending withdrawal request. The user row lock serializes
// concurrent requests for the same wallet, so the balance check and the
// insert see a consistent reservation total.
func (r *WithdrawalRepository) Create(ctx context.Context, userID, paymentMethodID uuid.UUID, amount int64) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: create begin %w", err)
	}
	defer tx.Rollback()

	var lockedID uuid.UUID
	err = tx.GetContext(ctx, &lockedID, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: create lock user %w", err)
	}

	earned, err := walletLifetimeEarned(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	reserved, err := withdrawalReserved(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	if amount > earned-reserved {
		return nil, apperror.Newf(apperror.ErrCodeInsufficientBalance,
			"withdrawal amount %d exceeds available balance %d", amount, earned-reserved)
	}

	var w models.WithdrawalRequest
	err = tx.GetContext(ctx, &w, `
		INSERT INTO withdrawal_requests (user_id, payment_method_id, amount, status)
		VALUES ($1, $2, $3, 'pending')
		RETURNING *
	`, userID, paymentMethodID, amount)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: create insert %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("withdrawal repository: create commit %w", err)
	}
	return &w, nil
}

func (r *WithdrawalRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	var w models.WithdrawalRequest
	if err := r.db.GetContext(ctx, &w, `SELECT * FROM withdrawal_requests WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: get by id %w", err)
	}
	return &w, nil
}

func (r *WithdrawalRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM withdrawal_requests WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list by user %w", err)
	}
	return requests, nil
}

// ListPending returns requests awaiting payout execution, oldest first.
func (r *WithdrawalRepository) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	var requests []models.WithdrawalRequest
	err := r.db.SelectContext(ctx, &requests, `
		SELECT * FROM withdrawal_requests WHERE status = 'pending'
		ORDER BY created_at ASC LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list pending %w", err)
	}
	return requests, nil
}

// MarkProcessed settles a pending request. A payout reference records
// success; a failure reason moves it to failed and releases the reservation
// so the amount is available for a retry or a different method.
func (r *WithdrawalRepository) MarkProcessed(ctx context.Context, id uuid.UUID, payoutReference, failureReason *string) (*models.WithdrawalRequest, error) {
	status := models.WithdrawalStatusSuccess
	if failureReason != nil {
		status = models.WithdrawalStatusFailed
	}
	return r.settle(ctx, id, status, func(tx *sqlx.Tx, w *models.WithdrawalRequest, now time.Time) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests
			SET status = $2, payout_reference = $3, failure_reason = $4, processed_at = $5
			WHERE id = $1
		`, id, status, payoutReference, failureReason, now)
		return err
	})
}

// Reject declines a pending request with a mandatory reason. The released
// reservation is recorded as a wallet-scoped refund entry so the rejection
// shows up in the ledger audit trail.
func (r *WithdrawalRepository) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	return r.settle(ctx, id, models.WithdrawalStatusRejected, func(tx *sqlx.Tx, w *models.WithdrawalRequest, now time.Time) error {
		_, err := tx.ExecContext(ctx, `
			UPDATE withdrawal_requests
			SET status = 'rejected', rejection_reason = $2, processed_at = $3
			WHERE id = $1
		`, id, reason, now)
		if err != nil {
			return err
		}

		// Balance after this rejection, with the reservation gone.
		earned, err := walletLifetimeEarned(ctx, tx, w.UserID)
		if err != nil {
			return err
		}
		reserved, err := withdrawalReserved(ctx, tx, w.UserID)
		if err != nil {
			return err
		}
		available := earned - reserved

		return insertLedgerEntry(ctx, tx, &models.LedgerEntry{
			EntryType:          models.LedgerEntryRefund,
			Amount:             w.Amount,
			WalletUserID:       &w.UserID,
			WalletBalanceAfter: &available,
		})
	})
}

// settle applies a terminal transition to a pending request under its row
// lock, so gateway callbacks and admin rejection cannot both settle it.
func (r *WithdrawalRepository) settle(ctx context.Context, id uuid.UUID, target string, update func(tx *sqlx.Tx, w *models.WithdrawalRequest, now time.Time) error) (*models.WithdrawalRequest, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: settle begin %w", err)
	}
	defer tx.Rollback()

	var w models.WithdrawalRequest
	err = tx.GetContext(ctx, &w, `SELECT * FROM withdrawal_requests WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.ErrWithdrawalNotFound
		}
		return nil, fmt.Errorf("withdrawal repository: settle lock %w", err)
	}
	if w.Status == target {
		// Idempotent retry: report the settled state.
		return &w, nil
	}
	if w.Status != models.WithdrawalStatusPending {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState,
			"withdrawal request in status %q is already settled", w.Status)
	}

	if err := update(tx, &w, time.Now()); err != nil {
		return nil, fmt.Errorf("withdrawal repository: settle update %w", err)
	}

	err = tx.GetContext(ctx, &w, `SELECT * FROM withdrawal_requests WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: settle reload %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("withdrawal repository: settle commit %w", err)
	}
	return &w, nil
}
