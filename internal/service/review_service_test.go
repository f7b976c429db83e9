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

type mockDeliverableRepo struct {
	mock.Mock
}

func (m *mockDeliverableRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Deliverable), args.Error(1)
}

func (m *mockDeliverableRepo) ListByBid(ctx context.Context, bidID uuid.UUID) ([]models.Deliverable, error) {
	args := m.Called(ctx, bidID)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

func (m *mockDeliverableRepo) Submit(ctx context.Context, d *models.Deliverable) (*models.Bid, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func (m *mockDeliverableRepo) Approve(ctx context.Context, deliverableID uuid.UUID, feeBps int64) (*repository.ReviewResult, error) {
	args := m.Called(ctx, deliverableID, feeBps)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReviewResult), args.Error(1)
}

func (m *mockDeliverableRepo) RequestRevision(ctx context.Context, deliverableID uuid.UUID, feedback string) (*repository.ReviewResult, error) {
	args := m.Called(ctx, deliverableID, feedback)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ReviewResult), args.Error(1)
}

func (m *mockDeliverableRepo) ListTerminalReady(ctx context.Context, campaignID uuid.UUID) ([]models.Deliverable, error) {
	args := m.Called(ctx, campaignID)
	return args.Get(0).([]models.Deliverable), args.Error(1)
}

type mockBidReader struct {
	mock.Mock
}

func (m *mockBidReader) GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Bid), args.Error(1)
}

func newReviewService(deliverables *mockDeliverableRepo, bids *mockBidReader, campaigns *mockCampaignReader, notifier *mockNotifier) *ReviewService {
	return NewReviewService(deliverables, bids, campaigns, notifier, 1000, 10)
}

func TestReviewService_SubmitDeliverable_Success(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newReviewService(deliverables, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()

	bids.On("GetByID", ctx, bidID).Return(&models.Bid{
		ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusAccepted,
	}, nil)
	deliverables.On("Submit", ctx, mock.AnythingOfType("*models.Deliverable")).Return(&models.Bid{
		ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusSubmitted,
	}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)
	notifier.On("BroadcastToUser", brandID, EventDeliverableSubmitted, mock.Anything).Return(nil)

	d, err := svc.SubmitDeliverable(ctx, influencerID, bidID, SubmitDeliverableInput{
		Platform:    "instagram",
		ContentType: "reel",
		ArtifactURL: "https://cdn.example.com/reel-final.mp4",
	})
	assert.NoError(t, err)
	assert.Equal(t, models.DeliverableStatusSubmitted, d.Status)
	notifier.AssertExpectations(t)
}

func TestReviewService_SubmitDeliverable_NotOwner(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	svc := newReviewService(deliverables, bids, new(mockCampaignReader), new(mockNotifier))
	ctx := context.Background()

	bidID := uuid.New()
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, InfluencerID: uuid.New(), Status: models.BidStatusAccepted}, nil)

	_, err := svc.SubmitDeliverable(ctx, uuid.New(), bidID, SubmitDeliverableInput{
		Platform: "instagram", ContentType: "reel", ArtifactURL: "https://cdn.example.com/x.mp4",
	})
	assert.True(t, apperror.IsForbidden(err))
	deliverables.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestReviewService_ApproveDeliverable_FinalReleasesEscrow(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newReviewService(deliverables, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{
		ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusSubmitted,
	}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusSubmitted}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)

	paidBid := &models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Amount: 30000, Status: models.BidStatusPaid}
	payout := int64(27000) // 10% platform fee
	res := &repository.ReviewResult{
		Deliverable: &models.Deliverable{ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusApproved},
		Bid:         paidBid,
		Released: &models.LedgerEntry{
			CampaignID: &campaignID, EntryType: models.LedgerEntryRelease,
			Amount: 30000, WalletUserID: &influencerID, WalletBalanceAfter: &payout,
		},
	}
	deliverables.On("Approve", ctx, deliverableID, int64(1000)).Return(res, nil)
	notifier.On("BroadcastToUser", influencerID, EventDeliverableApproved, res.Deliverable).Return(nil)
	notifier.On("BroadcastToUser", influencerID, EventBidPaid, paidBid).Return(nil)

	got, err := svc.ApproveDeliverable(ctx, brandID, deliverableID)
	assert.NoError(t, err)
	assert.NotNil(t, got.Released)
	assert.Equal(t, models.BidStatusPaid, got.Bid.Status)
	notifier.AssertExpectations(t)
}

func TestReviewService_ApproveDeliverable_SecondApprovalReleasesNothing(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newReviewService(deliverables, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{
		ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusSubmitted,
	}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusSubmitted}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)

	paidBid := &models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Amount: 30000, Status: models.BidStatusPaid}
	payout := int64(27000)
	deliverables.On("Approve", ctx, deliverableID, int64(1000)).Return(&repository.ReviewResult{
		Deliverable: &models.Deliverable{ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusApproved},
		Bid:         paidBid,
		Released: &models.LedgerEntry{
			CampaignID: &campaignID, EntryType: models.LedgerEntryRelease,
			Amount: 30000, WalletUserID: &influencerID, WalletBalanceAfter: &payout,
		},
	}, nil).Once()
	deliverables.On("Approve", ctx, deliverableID, int64(1000)).Return(nil,
		apperror.Newf(apperror.ErrCodeInvalidState, "bid in status %q cannot transition to %q", models.BidStatusPaid, models.BidStatusPaid)).Once()
	notifier.On("BroadcastToUser", influencerID, EventDeliverableApproved, mock.Anything).Return(nil).Once()
	notifier.On("BroadcastToUser", influencerID, EventBidPaid, paidBid).Return(nil).Once()

	got, err := svc.ApproveDeliverable(ctx, brandID, deliverableID)
	assert.NoError(t, err)
	assert.NotNil(t, got.Released)

	_, err = svc.ApproveDeliverable(ctx, brandID, deliverableID)
	assert.True(t, apperror.IsInvalidState(err))

	deliverables.AssertNumberOfCalls(t, "Approve", 2)
	notifier.AssertNumberOfCalls(t, "BroadcastToUser", 2)
	notifier.AssertExpectations(t)
}

func TestReviewService_ApproveDeliverable_NotFinal(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newReviewService(deliverables, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{ID: deliverableID, BidID: bidID}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID, Status: models.BidStatusSubmitted}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)

	res := &repository.ReviewResult{
		Deliverable: &models.Deliverable{ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusApproved},
		Bid:         &models.Bid{ID: bidID, InfluencerID: influencerID, Status: models.BidStatusSubmitted},
	}
	deliverables.On("Approve", ctx, deliverableID, int64(1000)).Return(res, nil)
	notifier.On("BroadcastToUser", influencerID, EventDeliverableApproved, res.Deliverable).Return(nil)

	got, err := svc.ApproveDeliverable(ctx, brandID, deliverableID)
	assert.NoError(t, err)
	assert.Nil(t, got.Released)
	notifier.AssertNotCalled(t, "BroadcastToUser", influencerID, EventBidPaid, mock.Anything)
}

func TestReviewService_ApproveDeliverable_NotCampaignOwner(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	svc := newReviewService(deliverables, bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{ID: deliverableID, BidID: bidID}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: uuid.New()}, nil)

	_, err := svc.ApproveDeliverable(ctx, uuid.New(), deliverableID)
	assert.True(t, apperror.IsForbidden(err))
	deliverables.AssertNotCalled(t, "Approve", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_RequestRevision_FeedbackTooShort(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	svc := newReviewService(deliverables, bids, campaigns, new(mockNotifier))
	ctx := context.Background()

	brandID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{ID: deliverableID, BidID: bidID}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)

	_, err := svc.RequestRevision(ctx, brandID, deliverableID, "bad")
	assert.True(t, apperror.IsValidation(err))
	deliverables.AssertNotCalled(t, "RequestRevision", mock.Anything, mock.Anything, mock.Anything)
}

func TestReviewService_RequestRevision_Success(t *testing.T) {
	deliverables := new(mockDeliverableRepo)
	bids := new(mockBidReader)
	campaigns := new(mockCampaignReader)
	notifier := new(mockNotifier)
	svc := newReviewService(deliverables, bids, campaigns, notifier)
	ctx := context.Background()

	brandID := uuid.New()
	influencerID := uuid.New()
	campaignID := uuid.New()
	bidID := uuid.New()
	deliverableID := uuid.New()
	feedback := "please re-shoot the intro with the product visible"

	deliverables.On("GetByID", ctx, deliverableID).Return(&models.Deliverable{ID: deliverableID, BidID: bidID}, nil)
	bids.On("GetByID", ctx, bidID).Return(&models.Bid{ID: bidID, CampaignID: campaignID, InfluencerID: influencerID}, nil)
	campaigns.On("GetByID", ctx, campaignID).Return(&models.Campaign{ID: campaignID, BrandID: brandID}, nil)

	res := &repository.ReviewResult{
		Deliverable: &models.Deliverable{ID: deliverableID, BidID: bidID, Status: models.DeliverableStatusRevisionRequested, Feedback: &feedback},
		Bid:         &models.Bid{ID: bidID, InfluencerID: influencerID, Status: models.BidStatusRevisionRequested},
	}
	deliverables.On("RequestRevision", ctx, deliverableID, feedback).Return(res, nil)
	notifier.On("BroadcastToUser", influencerID, EventRevisionRequested, res.Deliverable).Return(nil)

	got, err := svc.RequestRevision(ctx, brandID, deliverableID, feedback)
	assert.NoError(t, err)
	assert.Equal(t, models.BidStatusRevisionRequested, got.Bid.Status)
	assert.Nil(t, got.Released)
	notifier.AssertExpectations(t)
}
