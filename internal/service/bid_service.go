package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/validation"
)

// BidRepository describes the bid storage dependencies.
type BidRepository interface {
	Create(ctx context.Context, b *models.Bid) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Bid, error)
	ListByInfluencer(ctx context.Context, influencerID uuid.UUID, limit, offset int) ([]models.Bid, error)
	UpdateTerms(ctx context.Context, b *models.Bid, expectedVersion int64) (*models.Bid, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error)
	AcceptBid(ctx context.Context, campaignID, bidID uuid.UUID) (*models.Bid, *models.LedgerEntry, error)
}

// BidCampaignRepository is the slice of campaign storage the bid service needs.
type BidCampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// BidService contains bid lifecycle business logic.
type BidService struct {
	bids      BidRepository
	campaigns BidCampaignRepository
	notifier  Notifier

	minAmount      int64
	minProposalLen int
}

// BidTermsInput carries the editable terms of a bid.
type BidTermsInput struct {
	Amount            int64
	Platform          string
	ContentType       string
	DeliverablesCount int
	TimelineDays      int
	Proposal          string
}

// NewBidService creates the bid service.
func NewBidService(bids BidRepository, campaigns BidCampaignRepository, notifier Notifier, minAmount int64, minProposalLen int) *BidService {
	return &BidService{
		bids:           bids,
		campaigns:      campaigns,
		notifier:       notifier,
		minAmount:      minAmount,
		minProposalLen: minProposalLen,
	}
}

// SubmitBid places a new pending bid against an open campaign. The bid must
// fit the budget still unreserved at submission time; the authoritative check
// under the campaign row lock happens again at acceptance.
func (s *BidService) SubmitBid(ctx context.Context, influencerID, campaignID uuid.UUID, in BidTermsInput) (*models.Bid, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != models.CampaignStatusOpen {
		return nil, apperror.New(apperror.ErrCodeInvalidState, "campaign is not accepting bids")
	}
	if campaign.BrandID == influencerID {
		return nil, apperror.New(apperror.ErrCodeForbidden, "cannot bid on your own campaign")
	}
	if err := s.validateTerms(in, campaign.Remaining()); err != nil {
		return nil, err
	}

	bid := &models.Bid{
		CampaignID:        campaignID,
		InfluencerID:      influencerID,
		Amount:            in.Amount,
		Platform:          in.Platform,
		ContentType:       in.ContentType,
		DeliverablesCount: in.DeliverablesCount,
		TimelineDays:      in.TimelineDays,
		Proposal:          in.Proposal,
		Status:            models.BidStatusPending,
	}

	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, err
	}

	notify(s.notifier, campaign.BrandID, EventBidSubmitted, bid)

	return bid, nil
}

// EditBid updates a pending bid's terms under optimistic concurrency.
func (s *BidService) EditBid(ctx context.Context, influencerID, bidID uuid.UUID, in BidTermsInput, expectedVersion int64) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.InfluencerID != influencerID {
		return nil, apperror.ErrForbidden
	}

	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	if err := s.validateTerms(in, campaign.Remaining()); err != nil {
		return nil, err
	}

	bid.Amount = in.Amount
	bid.Platform = in.Platform
	bid.ContentType = in.ContentType
	bid.DeliverablesCount = in.DeliverablesCount
	bid.TimelineDays = in.TimelineDays
	bid.Proposal = in.Proposal

	return s.bids.UpdateTerms(ctx, bid, expectedVersion)
}

// WithdrawBid retracts a pending bid.
func (s *BidService) WithdrawBid(ctx context.Context, influencerID, bidID uuid.UUID) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.InfluencerID != influencerID {
		return nil, apperror.ErrForbidden
	}

	return s.bids.UpdateStatus(ctx, bidID, models.BidStatusPending, models.BidStatusWithdrawn)
}

// AcceptBid accepts a pending bid, reserving its amount from the campaign
// budget in escrow.
func (s *BidService) AcceptBid(ctx context.Context, brandID, bidID uuid.UUID) (*models.Bid, *models.LedgerEntry, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, nil, err
	}

	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return nil, nil, err
	}
	if campaign.BrandID != brandID {
		return nil, nil, apperror.ErrForbidden
	}

	accepted, reserve, err := s.bids.AcceptBid(ctx, bid.CampaignID, bidID)
	if err != nil {
		return nil, nil, err
	}

	notify(s.notifier, accepted.InfluencerID, EventBidAccepted, accepted)

	return accepted, reserve, nil
}

// RejectBid declines a pending bid.
func (s *BidService) RejectBid(ctx context.Context, brandID, bidID uuid.UUID) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.BrandID != brandID {
		return nil, apperror.ErrForbidden
	}

	rejected, err := s.bids.UpdateStatus(ctx, bidID, models.BidStatusPending, models.BidStatusRejected)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, rejected.InfluencerID, EventBidRejected, rejected)

	return rejected, nil
}

// GetBid loads a bid, visible only to its participants and administrators.
func (s *BidService) GetBid(ctx context.Context, userID uuid.UUID, role string, bidID uuid.UUID) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeParticipant(ctx, userID, role, bid); err != nil {
		return nil, err
	}
	return bid, nil
}

// ListCampaignBids returns a campaign's bids, for the owning brand only.
func (s *BidService) ListCampaignBids(ctx context.Context, userID uuid.UUID, role string, campaignID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.BrandID != userID && role != models.RoleAdmin {
		return nil, apperror.ErrForbidden
	}

	limit, offset = normalizePage(limit, offset)
	return s.bids.ListByCampaign(ctx, campaignID, limit, offset)
}

// ListMyBids returns the influencer's own bids.
func (s *BidService) ListMyBids(ctx context.Context, influencerID uuid.UUID, limit, offset int) ([]models.Bid, error) {
	limit, offset = normalizePage(limit, offset)
	return s.bids.ListByInfluencer(ctx, influencerID, limit, offset)
}

func (s *BidService) authorizeParticipant(ctx context.Context, userID uuid.UUID, role string, bid *models.Bid) error {
	if role == models.RoleAdmin || bid.InfluencerID == userID {
		return nil
	}
	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return err
	}
	if campaign.BrandID != userID {
		return apperror.ErrForbidden
	}
	return nil
}

func (s *BidService) validateTerms(in BidTermsInput, budgetRemaining int64) error {
	if in.Amount < s.minAmount {
		return apperror.Newf(apperror.ErrCodeValidation, "bid amount must be at least %d", s.minAmount)
	}
	if in.Amount > budgetRemaining {
		return apperror.Newf(apperror.ErrCodeBudgetExceeded,
			"bid amount %d exceeds remaining campaign budget %d", in.Amount, budgetRemaining)
	}
	if err := validation.ValidateNonEmpty("platform", in.Platform); err != nil {
		return err
	}
	if err := validation.ValidateNonEmpty("content_type", in.ContentType); err != nil {
		return err
	}
	if in.DeliverablesCount < 1 || in.DeliverablesCount > validation.MaxDeliverableCount {
		return apperror.Newf(apperror.ErrCodeValidation, "deliverables count must be between 1 and %d", validation.MaxDeliverableCount)
	}
	if in.TimelineDays < 1 {
		return apperror.New(apperror.ErrCodeValidation, "timeline must be at least one day")
	}
	if err := validation.ValidateLength("proposal", in.Proposal, s.minProposalLen, validation.MaxProposalLength); err != nil {
		return err
	}
	return nil
}
