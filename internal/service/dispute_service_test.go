package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/repository"
)

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Open(ctx context.Context, d *models.Dispute) (*models.Bid, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, disputeID uuid.UUID, outcome, notes string, resolvedBy uuid.UUID, feeBps int64) (*repository.ResolveResult, error) {
	args := m.Called(ctx, disputeID, outcome, notes, resolvedBy, feeBps)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ResolveResult), args.Error(1)
}

func newDisputeService(disputes *mockDisputeRepo, bids *mockBidReader, campaigns *mockCampaignReader, notifier *mockNotifier) *DisputeService {
	return NewDisputeService(disputes, bids, campaigns, notifier, 1000, 20)
}

const disputeReason = "content violates the agreed brand guidelines in several scenes"

func TestDisputeService_OpenDispute_ReasonTooShort(t *testing.T) {
	disputes := new(mockDisputeRepo)
	svc := newDisputeService(disputes, new(mockBidReader), new(mockCampaignReader), new(mockNotifier))

	_, err := svc.OpenDispute(context.Background(), uuid.New(), uuid.New(), "not good")
	assert.True(t, apperror.IsValidation(err))
	disputes.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_NotParticipant(t *testing.T) {
	disputes := new(mockDisputeRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	svc := newDisputeService(disputes, bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: uuid.New()}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: uuid.New()}, nil)

	_, err := svc.OpenDispute(ctx, uuid.New(), bidID, disputeReason)
	assert.True(t, apperror.IsForbidden(err))
	disputes.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
}

func TestDisputeService_OpenDispute_BrandNotifiesInfluencer(t *testing.T) {
	disputes := new(mockDisputeRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newDisputeService(disputes, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusSubmitted}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)
	disputes.On("Open", ctx, mock.AnythingOfType("*models.Dispute")).Return(&models.Bid{ID: bidID, Status: models.BidStatusDisputed}, nil)
	notifier.On("BroadcastToUser", influencerID, EventDisputeOpened, mock.Anything).Return(nil)

	d, err := svc.OpenDispute(ctx, brandID, bidID, disputeReason)
	assert.NoError(t, err)
	assert.Equal(t, brandID, d.RaisedBy)
	assert.Equal(t, models.DisputeStatusOpen, d.Status)
	notifier.AssertExpectations(t)
}

func TestDisputeService_ResolveDispute_UnknownOutcome(t *testing.T) {
	disputes := new(mockDisputeRepo)
	svc := newDisputeService(disputes, new(mockBidReader), new(mockCampaignReader), new(mockNotifier))

	_, err := svc.ResolveDispute(context.Background(), uuid.New(), uuid.New(), "split_the_difference", disputeReason)
	assert.True(t, apperror.IsValidation(err))
	disputes.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDisputeService_ResolveDispute_FavorBrand(t *testing.T) {
	disputes := new(mockDisputeRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newDisputeService(disputes, bids, campaigns, notifier)
	ctx := context.Background()

	adminID := uuid.New()
	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	disputeID := uuid.New()
	notes := "influencer did not deliver within the agreed timeline"

	res := &repository.ResolveResult{
		Dispute: &models.Dispute{ID: disputeID, CampaignID: campaignID, Status: models.DisputeStatusResolvedFavorBrand},
		Bid:     &models.Bid{InfluencerID: influencerID, Status: models.BidStatusRejected},
		Settled: &models.LedgerEntry{CampaignID: &campaignID, EntryType: models.LedgerEntryRefund, Amount: 30000},
	}
	disputes.On("Resolve", ctx, disputeID, models.DisputeOutcomeFavorBrand, notes, adminID, int64(1000)).Return(res, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)
	notifier.On("BroadcastToUser", influencerID, EventDisputeResolved, res.Dispute).Return(nil)
	notifier.On("BroadcastToUser", brandID, EventDisputeResolved, res.Dispute).Return(nil)

	got, err := svc.ResolveDispute(ctx, adminID, disputeID, models.DisputeOutcomeFavorBrand, notes)
	assert.NoError(t, err)
	assert.Equal(t, models.LedgerEntryRefund, got.Settled.EntryType)
	assert.Equal(t, models.BidStatusRejected, got.Bid.Status)
	notifier.AssertExpectations(t)
}

func TestDisputeService_GetDispute_ParticipantOnly(t *testing.T) {
	disputes := new(mockDisputeRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	svc := newDisputeService(disputes, bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	bidID := uuid.New()
	disputeID := uuid.New()

	disputes.On("GetByID", ctx, disputeID).Return(&models.Dispute{ID: disputeID, BidID: bidID, CampaignID: campaignID}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, InfluencerID: uuid.New()}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: uuid.New()}, nil)

	_, err := svc.GetDispute(ctx, uuid.New(), models.RoleInfluencer, disputeID)
	assert.True(t, apperror.IsForbidden(err))

	// administrators bypass the participant check
	got, err := svc.GetDispute(ctx, uuid.New(), models.RoleAdmin, disputeID)
	assert.NoError(t, err)
	assert.Equal(t, disputeID, got.ID)
}
