package service

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/creatorlink/collab-backend/internal/logger"
	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
)

func TestMain(m *testing.M) {
	logger.Init("error")
	os.Exit(m.Run())
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BroadcastToUser(userID uuid.UUID, event string, data any) error {
	args := m.Called(userID, event, data)
	return args.Error(0)
}

type mockBidRepo struct {
	mock.Mock
}

func (m *mockBidRepo) Create(ctx context.Context, b *models.Bid) error {
	args := m.Called(ctx, b)
	return args.Error(0)
}

func (m *mockBidRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *mockBidRepo) ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	args := m.Called(ctx, campaignID, limit, offset)
	return args.Get(0).([]models.Bid), args.Error(1)
}

func (m *mockBidRepo) ListByInfluencer(ctx context.Context, influencerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	args := m.Called(ctx, influencerID, limit, offset)
	return args.Get(0).([]models.Bid), args.Error(1)
}

func (m *mockBidRepo) UpdateTerms(ctx context.Context, b *models.Bid, expectedVersion int64) (*models.Bid, error) {
	args := m.Called(ctx, b, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *mockBidRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error) {
	args := m.Called(ctx, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *mockBidRepo) AcceptBid(ctx context.Context, campaignID, bidID uuid.UUID) (*models.Bid, *models.LedgerEntry, error) {
	args := m.Called(ctx, campaignID, bidID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Bid), args.Get(1).(*models.LedgerEntry), args.Error(2)
}

type mockCampaignReader struct {
	mock.Mock
}

func (m *mockCampaignReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Campaign), args.Error(1)
}

func validTerms() BidTermsInput {
	return BidTermsInput{
		Amount:            30000,
		Platform:          "instagram",
		ContentType:       "reel",
		DeliverablesCount: 2,
		TimelineDays:      14,
		Proposal:          strings.Repeat("engaging content plan ", 4),
	}
}

func newBidService(bids *mockBidRepo, campaigns *mockCampaignReader, notifier *mockNotifier) *BidService {
	return NewBidService(bids, campaigns, notifier, 1000, 30)
}

func TestBidService_SubmitBid_Success(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newBidService(bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()

	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: brandID, Budget: 100000, Status: models.CampaignStatusOpen,
	}, nil)
	bids.On("Create", ctx, mock.AnythingOfType("*models.Bid")).Return(nil)
	notifier.On("BroadcastToUser", brandID, EventBidSubmitted, mock.Anything).Return(nil)

	bid, err := svc.SubmitBid(ctx, influencerID, campaignID, validTerms())
	assert.NoError(t, err)
	assert.Equal(t, models.BidStatusPending, bid.Status)
	assert.Equal(t, influencerID, bid.InfluencerID)
	bids.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestBidService_SubmitBid_CampaignClosed(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: uuid.New(), Budget: 100000, Status: models.CampaignStatusClosed,
	}, nil)

	_, err := svc.SubmitBid(ctx, uuid.New(), campaignID, validTerms())
	assert.True(t, apperror.IsInvalidState(err))
	bids.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_SubmitBid_OwnCampaign(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	brandID := uuid.New()
	campaignID := uuid.New()
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: brandID, Budget: 100000, Status: models.CampaignStatusOpen,
	}, nil)

	_, err := svc.SubmitBid(ctx, brandID, campaignID, validTerms())
	assert.True(t, apperror.IsForbidden(err))
}

func TestBidService_SubmitBid_ExceedsTotalBudget(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: uuid.New(), Budget: 20000, Status: models.CampaignStatusOpen,
	}, nil)

	in := validTerms()
	in.Amount = 30000

	_, err := svc.SubmitBid(ctx, uuid.New(), campaignID, in)
	assert.Equal(t, apperror.ErrCodeBudgetExceeded, apperror.Code(err))
	bids.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_SubmitBid_ExceedsRemainingBudget(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	// 80000 of 100000 is already reserved; 90000 no longer fits even though
	// it is under the total budget.
	campaignID := uuid.New()
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: uuid.New(), Budget: 100000, BudgetSpent: 80000,
		Status: models.CampaignStatusOpen,
	}, nil)

	in := validTerms()
	in.Amount = 90000

	_, err := svc.SubmitBid(ctx, uuid.New(), campaignID, in)
	assert.Equal(t, apperror.ErrCodeBudgetExceeded, apperror.Code(err))
	bids.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestBidService_SubmitBid_ProposalTooShort(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{
		ID: campaignID, BrandID: uuid.New(), Budget: 100000, Status: models.CampaignStatusOpen,
	}, nil)

	in := validTerms()
	in.Proposal = "too short"

	_, err := svc.SubmitBid(ctx, uuid.New(), campaignID, in)
	assert.True(t, apperror.IsValidation(err))
}

func TestBidService_AcceptBid_Success(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newBidService(bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	pending := &models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Amount: 30000, Status: models.BidStatusPending}
	accepted := &models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Amount: 30000, Status: models.BidStatusAccepted}
	reserve := &models.LedgerEntry{CampaignID: &campaignID, EntryType: models.LedgerEntryReserve, Amount: 30000, CampaignSpentAfter: 30000}

	bids.On("GetByID", ctx, bidID).Return(pending, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID, Budget: 100000, Status: models.CampaignStatusOpen}, nil)
	bids.On("AcceptBid", ctx, campaignID, bidID).Return(accepted, reserve, nil)
	notifier.On("BroadcastToUser", influencerID, EventBidAccepted, accepted).Return(nil)

	gotBid, gotEntry, err := svc.AcceptBid(ctx, brandID, bidID)
	assert.NoError(t, err)
	assert.Equal(t, models.BidStatusAccepted, gotBid.Status)
	assert.Equal(t, int64(30000), gotEntry.Amount)
	bids.AssertExpectations(t)
	notifier.AssertExpectations(t)
}

func TestBidService_AcceptBid_NotOwner(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, Status: models.BidStatusPending}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: uuid.New()}, nil)

	_, _, err := svc.AcceptBid(ctx, uuid.New(), bidID)
	assert.True(t, apperror.IsForbidden(err))
	bids.AssertNotCalled(t, "AcceptBid", mock.Anything, mock.Anything, mock.Anything)
}

func TestBidService_AcceptBid_BudgetExceeded(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	brandID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, Amount: 50000, Status: models.BidStatusPending}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID, Budget: 100000}, nil)
	bids.On("AcceptBid", ctx, campaignID, bidID).Return(nil, nil, apperror.New(apperror.ErrCodeBudgetExceeded, "insufficient remaining budget"))

	_, _, err := svc.AcceptBid(ctx, brandID, bidID)
	assert.Equal(t, apperror.ErrCodeBudgetExceeded, apperror.Code(err))
}

func TestBidService_WithdrawBid_NotOwner(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	bidID := uuid.New()
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, InfluencerID: uuid.New(), Status: models.BidStatusPending}, nil)

	_, err := svc.WithdrawBid(ctx, uuid.New(), bidID)
	assert.True(t, apperror.IsForbidden(err))
	bids.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBidService_RejectBid_Success(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newBidService(bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusPending}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)
	rejected := &models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusRejected}
	bids.On("UpdateStatus", ctx, bidID, models.BidStatusPending, models.BidStatusRejected).Return(rejected, nil)
	notifier.On("BroadcastToUser", influencerID, EventBidRejected, rejected).Return(nil)

	got, err := svc.RejectBid(ctx, brandID, bidID)
	assert.NoError(t, err)
	assert.Equal(t, models.BidStatusRejected, got.Status)
	notifier.AssertExpectations(t)
}

func TestBidService_EditBid_PendingOnly(t *testing.T) {
	bids := new(mockBidRepo)
	campaigns := new(mockCampaignReader)
	svc := newBidService(bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{
		ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusAccepted, Version: 2,
	}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, Budget: 100000}, nil)
	bids.On("UpdateTerms", ctx, mock.AnythingOfType("*models.Bid"), int64(2)).
		Return(nil, apperror.New(apperror.ErrCodeInvalidState, "only pending bids can be edited"))

	_, err := svc.EditBid(ctx, influencerID, bidID, validTerms(), 2)
	assert.True(t, apperror.IsInvalidState(err))
}
