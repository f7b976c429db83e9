package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
)

type mockWithdrawalRepo struct {
	mock.Mock
}

func (m *mockWithdrawalRepo) CreatePaymentMethod(ctx context.Context, pm *models.PaymentMethod) error {
	args := m.Called(ctx, pm)
	return args.Error(0)
}

func (m *mockWithdrawalRepo) GetPaymentMethod(ctx context.Context, id uuid.UUID) (*models.PaymentMethod, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PaymentMethod), args.Error(1)
}

func (m *mockWithdrawalRepo) ListPaymentMethods(ctx context.Context, userID uuid.UUID) ([]models.PaymentMethod, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.PaymentMethod), args.Error(1)
}

func (m *mockWithdrawalRepo) WalletSummary(ctx context.Context, userID uuid.UUID) (*models.WalletSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WalletSummary), args.Error(1)
}

func (m *mockWithdrawalRepo) Create(ctx context.Context, userID, paymentMethodID uuid.UUID, amount int64) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, paymentMethodID, amount)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) ListPending(ctx context.Context, limit, offset int) ([]models.WithdrawalRequest, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) MarkProcessed(ctx context.Context, id uuid.UUID, payoutReference, failureReason *string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id, payoutReference, failureReason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

func (m *mockWithdrawalRepo) Reject(ctx context.Context, id uuid.UUID, reason string) (*models.WithdrawalRequest, error) {
	args := m.Called(ctx, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WithdrawalRequest), args.Error(1)
}

type mockLedgerReader struct {
	mock.Mock
}

func (m *mockLedgerReader) ListByWalletUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.LedgerEntry, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.LedgerEntry), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Payout(ctx context.Context, req *models.WithdrawalRequest, method *models.PaymentMethod) (string, error) {
	args := m.Called(ctx, req, method)
	return args.String(0), args.Error(1)
}

func newWithdrawalService(repo *mockWithdrawalRepo, gateway *mockGateway, notifier *mockNotifier) *WithdrawalService {
	return NewWithdrawalService(repo, new(mockLedgerReader), gateway, notifier, 10000)
}

func TestWithdrawalService_RequestWithdrawal_BelowMinimum(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockGateway), new(mockNotifier))

	_, err := svc.RequestWithdrawal(context.Background(), uuid.New(), uuid.New(), 500)
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_RequestWithdrawal_ForeignMethod(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockGateway), new(mockNotifier))
	ctx := context.Background()

	methodID := uuid.New()
	repo.On("GetPaymentMethod", ctx, methodID).Return(&models.PaymentMethod{ID: methodID, UserID: uuid.New()}, nil)

	_, err := svc.RequestWithdrawal(ctx, uuid.New(), methodID, 20000)
	assert.ErrorIs(t, err, apperror.ErrPaymentMethodNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_RequestWithdrawal_InsufficientBalance(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockGateway), new(mockNotifier))
	ctx := context.Background()

	userID := uuid.New()
	methodID := uuid.New()
	repo.On("GetPaymentMethod", ctx, methodID).Return(&models.PaymentMethod{ID: methodID, UserID: userID}, nil)
	repo.On("Create", ctx, userID, methodID, int64(50000)).
		Return(nil, apperror.New(apperror.ErrCodeInsufficientBalance, "available balance is too low"))

	_, err := svc.RequestWithdrawal(ctx, userID, methodID, 50000)
	assert.Equal(t, apperror.ErrCodeInsufficientBalance, apperror.Code(err))
}

func TestWithdrawalService_RequestWithdrawal_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	notifier := new(mockNotifier)
	svc := newWithdrawalService(repo, new(mockGateway), notifier)
	ctx := context.Background()

	userID := uuid.New()
	methodID := uuid.New()
	req := &models.WithdrawalRequest{ID: uuid.New(), UserID: userID, PaymentMethodID: methodID, Amount: 20000, Status: models.WithdrawalStatusPending}

	repo.On("GetPaymentMethod", ctx, methodID).Return(&models.PaymentMethod{ID: methodID, UserID: userID}, nil)
	repo.On("Create", ctx, userID, methodID, int64(20000)).Return(req, nil)
	notifier.On("BroadcastToUser", userID, EventWithdrawalRequested, req).Return(nil)

	got, err := svc.RequestWithdrawal(ctx, userID, methodID, 20000)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusPending, got.Status)
	repo.AssertExpectations(t)
}

func TestWithdrawalService_ProcessWithdrawal_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	gateway := new(mockGateway)
	notifier := new(mockNotifier)
	svc := newWithdrawalService(repo, gateway, notifier)
	ctx := context.Background()

	userID := uuid.New()
	methodID := uuid.New()
	withdrawalID := uuid.New()

	pending := &models.WithdrawalRequest{ID: withdrawalID, UserID: userID, PaymentMethodID: methodID, Amount: 20000, Status: models.WithdrawalStatusPending}
	method := &models.PaymentMethod{ID: methodID, UserID: userID, MethodType: models.PaymentMethodCard}

	repo.On("GetByID", ctx, withdrawalID).Return(pending, nil)
	repo.On("GetPaymentMethod", ctx, methodID).Return(method, nil)
	gateway.On("Payout", ctx, pending, method).Return("po_abc123", nil)

	ref := "po_abc123"
	success := &models.WithdrawalRequest{ID: withdrawalID, UserID: userID, Status: models.WithdrawalStatusSuccess, PayoutReference: &ref}
	repo.On("MarkProcessed", ctx, withdrawalID, mock.AnythingOfType("*string"), (*string)(nil)).Return(success, nil)
	notifier.On("BroadcastToUser", userID, EventWithdrawalProcessed, success).Return(nil)

	got, err := svc.ProcessWithdrawal(ctx, withdrawalID)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusSuccess, got.Status)
	repo.AssertExpectations(t)
	gateway.AssertExpectations(t)
}

func TestWithdrawalService_ProcessWithdrawal_Declined(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	gateway := new(mockGateway)
	notifier := new(mockNotifier)
	svc := newWithdrawalService(repo, gateway, notifier)
	ctx := context.Background()

	userID := uuid.New()
	methodID := uuid.New()
	withdrawalID := uuid.New()

	pending := &models.WithdrawalRequest{ID: withdrawalID, UserID: userID, PaymentMethodID: methodID, Status: models.WithdrawalStatusPending}
	method := &models.PaymentMethod{ID: methodID, UserID: userID}

	repo.On("GetByID", ctx, withdrawalID).Return(pending, nil)
	repo.On("GetPaymentMethod", ctx, methodID).Return(method, nil)
	gateway.On("Payout", ctx, pending, method).Return("", ErrPayoutDeclined)

	failed := &models.WithdrawalRequest{ID: withdrawalID, UserID: userID, Status: models.WithdrawalStatusFailed}
	repo.On("MarkProcessed", ctx, withdrawalID, (*string)(nil), mock.AnythingOfType("*string")).Return(failed, nil)
	notifier.On("BroadcastToUser", userID, EventWithdrawalProcessed, failed).Return(nil)

	got, err := svc.ProcessWithdrawal(ctx, withdrawalID)
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusFailed, got.Status)
}

func TestWithdrawalService_ProcessWithdrawal_GatewayDown(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	gateway := new(mockGateway)
	svc := newWithdrawalService(repo, gateway, new(mockNotifier))
	ctx := context.Background()

	methodID := uuid.New()
	withdrawalID := uuid.New()

	pending := &models.WithdrawalRequest{ID: withdrawalID, UserID: uuid.New(), PaymentMethodID: methodID, Status: models.WithdrawalStatusPending}
	method := &models.PaymentMethod{ID: methodID}

	repo.On("GetByID", ctx, withdrawalID).Return(pending, nil)
	repo.On("GetPaymentMethod", ctx, methodID).Return(method, nil)
	gateway.On("Payout", ctx, pending, method).Return("", errors.New("connection refused"))

	_, err := svc.ProcessWithdrawal(ctx, withdrawalID)
	assert.Equal(t, apperror.ErrCodeDependencyFailure, apperror.Code(err))
	assert.True(t, apperror.Retryable(err))
	// stays pending for retry
	repo.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_ProcessWithdrawal_AlreadySettled(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	gateway := new(mockGateway)
	svc := newWithdrawalService(repo, gateway, new(mockNotifier))
	ctx := context.Background()

	withdrawalID := uuid.New()
	repo.On("GetByID", ctx, withdrawalID).Return(&models.WithdrawalRequest{ID: withdrawalID, Status: models.WithdrawalStatusSuccess}, nil)

	_, err := svc.ProcessWithdrawal(ctx, withdrawalID)
	assert.True(t, apperror.IsInvalidState(err))
	gateway.AssertNotCalled(t, "Payout", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_RejectWithdrawal_ReasonRequired(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockGateway), new(mockNotifier))

	_, err := svc.RejectWithdrawal(context.Background(), uuid.New(), "  ")
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "Reject", mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdrawalService_RejectWithdrawal_Success(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	notifier := new(mockNotifier)
	svc := newWithdrawalService(repo, new(mockGateway), notifier)
	ctx := context.Background()

	userID := uuid.New()
	withdrawalID := uuid.New()
	repo.On("Reject", ctx, withdrawalID, "method no longer supported").Return(&models.WithdrawalRequest{
		ID: withdrawalID, UserID: userID, Amount: 20000,
		Status: models.WithdrawalStatusRejected,
	}, nil)
	notifier.On("BroadcastToUser", userID, EventWithdrawalRejected, mock.Anything).Return(nil)

	rejected, err := svc.RejectWithdrawal(ctx, withdrawalID, "method no longer supported")
	assert.NoError(t, err)
	assert.Equal(t, models.WithdrawalStatusRejected, rejected.Status)
	notifier.AssertExpectations(t)
}

func TestWithdrawalService_AddPaymentMethod_UnknownType(t *testing.T) {
	repo := new(mockWithdrawalRepo)
	svc := newWithdrawalService(repo, new(mockGateway), new(mockNotifier))

	_, err := svc.AddPaymentMethod(context.Background(), uuid.New(), PaymentMethodInput{
		MethodType: "crypto", Label: "Main", MaskedDetail: "****1234",
	})
	assert.True(t, apperror.IsValidation(err))
	repo.AssertNotCalled(t, "CreatePaymentMethod", mock.Anything, mock.Anything)
}
