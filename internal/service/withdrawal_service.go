package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/validation"
)

// WithdrawalRepository describes the wallet and withdrawal storage
// dependencies.
type WithdrawalRepository interface {
	CreatePaymentMethod(ctx context.Context, m *models.PaymentMethod) error
	GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error)
	ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error)
	WalletSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error)
	Create(ctx context.Context, userID, paymentMethodID uuid.UUID, amount int64) (*models.WithdrawalRequest, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error)
	ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error)
	MarkProcessed(ctx context.Context, id uuid.UUID, payoutReference, failureReason *string) (*models.WithdrawalRequest, error)
	Reject(ctx context.Context, id uuid.UUID, reason string) (*models.WithdrawalRequest, error)
}

// WalletLedgerRepository exposes the ledger entries behind a wallet.
type WalletLedgerRepository interface {
	ListByWalletUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error)
}

// WithdrawalService contains wallet and payout business logic.
type WithdrawalService struct {
	repo     WithdrawalRepository
	ledger   WalletLedgerRepository
	gateway  PaymentGateway
	notifier Notifier

	minAmount int64
}

// PaymentMethodInput carries the fields of a new payout destination.
type PaymentMethodInput struct {
	MethodType   string
	Label        string
	MaskedDetail string
}

// NewWithdrawalService creates the withdrawal service.
func NewWithdrawalService(repo WithdrawalRepository, ledger WalletLedgerRepository, gateway PaymentGateway, notifier Notifier, minAmount int64) *WithdrawalService {
	return &WithdrawalService{
		repo:      repo,
		ledger:    ledger,
		gateway:   gateway,
		notifier:  notifier,
		minAmount: minAmount,
	}
}

// AddPaymentMethod stores a payout destination for the user.
func (s *WithdrawalService) AddPaymentMethod(ctx context.Context, userID uuid.UUID, in PaymentMethodInput) (*models.PaymentMethod, error) {
	if _, ok := models.ValidPaymentMethodTypes[in.MethodType]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "unknown payment method type %q", in.MethodType)
	}
	if err := validation.ValidateNonEmpty("label", in.Label); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonEmpty("masked_detail", in.MaskedDetail); err != nil {
		return nil, err
	}

	method := &models.PaymentMethod{
		UserID:       userID,
		MethodType:   in.MethodType,
		Label:        in.Label,
		MaskedDetail: in.MaskedDetail,
	}

	if err := s.repo.CreatePaymentMethod(ctx, method); err != nil {
		return nil, err
	}

	return method, nil
}

// ListPaymentMethods returns the user's payout destinations.
func (s *WithdrawalService) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	return s.repo.ListPaymentMethods(ctx, userID)
}

// GetWallet returns the user's derived wallet balances.
func (s *WithdrawalService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	return s.repo.WalletSummary(ctx, userID)
}

// ListWalletLedger returns the ledger entries behind the user's wallet.
func (s *WithdrawalService) ListWalletLedger(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	limit, offset = normalizePage(limit, offset)
	return s.ledger.ListByWalletUser(ctx, userID, limit, offset)
}

// RequestWithdrawal reserves available balance for payout to one of the
// user's own payment methods.
func (s *WithdrawalService) RequestWithdrawal(ctx context.Context, userID, paymentMethodID uuid.UUID, amount int64) (*models.WithdrawalRequest, error) {
	if amount < s.minAmount {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "withdrawal amount must be at least %d", s.minAmount)
	}

	method, err := s.repo.GetPaymentMethod(ctx, paymentMethodID)
	if err != nil {
		return nil, err
	}
	if method.UserID != userID {
		// Do not reveal other users' methods.
		return nil, apperror.ErrPaymentMethodNotFound
	}

	req, err := s.repo.Create(ctx, userID, paymentMethodID, amount)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, userID, EventWithdrawalRequested, req)

	return req, nil
}

// ProcessWithdrawal executes a pending payout through the gateway. A
// permanent decline settles the request as failed and frees the reservation;
// a transient gateway error leaves it pending so the operator can retry.
func (s *WithdrawalService) ProcessWithdrawal(ctx context.Context, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.WithdrawalStatusPending {
		return nil, apperror.Newf(apperror.ErrCodeInvalidState, "withdrawal is already %s", req.Status)
	}

	method, err := s.repo.GetPaymentMethod(ctx, req.PaymentMethodID)
	if err != nil {
		return nil, err
	}

	ref, err := s.gateway.Payout(ctx, req, method)
	switch {
	case err == nil:
		processed, err := s.repo.MarkProcessed(ctx, withdrawalID, &ref, nil)
		if err != nil {
			return nil, err
		}
		notify(s.notifier, processed.UserID, EventWithdrawalProcessed, processed)
		return processed, nil

	case errors.Is(err, ErrPayoutDeclined):
		reason := err.Error()
		processed, err := s.repo.MarkProcessed(ctx, withdrawalID, nil, &reason)
		if err != nil {
			return nil, err
		}
		notify(s.notifier, processed.UserID, EventWithdrawalProcessed, processed)
		return processed, nil

	default:
		return nil, apperror.Wrap(err, apperror.ErrCodeDependencyFailure, "payment gateway unavailable")
	}
}

// RejectWithdrawal declines a pending request with a mandatory reason,
// freeing the reserved balance.
func (s *WithdrawalService) RejectWithdrawal(ctx context.Context, withdrawalID uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	if err := validation.ValidateNonEmpty("reason", reason); err != nil {
		return nil, err
	}

	rejected, err := s.repo.Reject(ctx, withdrawalID, reason)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, rejected.UserID, EventWithdrawalRejected, rejected)

	return rejected, nil
}

// GetWithdrawal loads a request, visible to its owner and administrators.
func (s *WithdrawalService) GetWithdrawal(ctx context.Context, userID uuid.UUID, role string, withdrawalID uuid.UUID) (*models.WithdrawalRequest, error) {
	req, err := s.repo.GetByID(ctx, withdrawalID)
	if err != nil {
		return nil, err
	}
	if req.UserID != userID && role != models.RoleAdmin {
		return nil, apperror.ErrWithdrawalNotFound
	}
	return req, nil
}

// ListWithdrawals returns the user's withdrawal history.
func (s *WithdrawalService) ListWithdrawals(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListByUser(ctx, userID, limit, offset)
}

// ListPendingWithdrawals returns the administrative payout queue.
func (s *WithdrawalService) ListPendingWithdrawals(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	limit, offset = normalizePage(limit, offset)
	return s.repo.ListPending(ctx, limit, offset)
}
