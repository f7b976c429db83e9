package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/logger"
	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/repository"
	"github.com/creatorlink/collab-backend/internal/validation"
)

// CampaignRepository describes the campaign storage dependencies.
type CampaignRepository interface {
	Create(ctx context.Context, c *models.Campaign) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Campaign, error)
	ListByBrand(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Campaign, error)
	Close(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// CampaignBidRepository is the slice of bid storage the campaign service needs
// for completion: rejecting leftover pending bids and inspecting state.
type CampaignBidRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
	ListByCampaign(ctx context.Context, campaignID uuid.UUID, limit, offset int) ([]models.Bid, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) (*models.Bid, error)
}

// CampaignReviewRepository is the slice of deliverable storage the campaign
// service needs to batch-release finished work at completion.
type CampaignReviewRepository interface {
	ListByBid(ctx context.Context, bidID uuid.UUID) ([]models.Deliverable, error)
	ListTerminalReady(ctx context.Context, campaignID uuid.UUID) ([]models.Deliverable, error)
	Approve(ctx context.Context, deliverableID uuid.UUID, feeBps int64) (*repository.ReviewResult, error)
}

// CampaignService contains campaign lifecycle business logic.
type CampaignService struct {
	campaigns CampaignRepository
	bids      CampaignBidRepository
	reviews   CampaignReviewRepository
	notifier  Notifier

	minBudget int64
	feeBps    int64
}

// CreateCampaignInput carries the fields of a campaign creation request.
type CreateCampaignInput struct {
	Title       string
	Objective   string
	Audience    *string
	KeyMessages *string
	Hashtags    []string
	Dos         *string
	Donts       *string
	Budget      int64
	DeadlineAt  *time.Time
}

// NewCampaignService creates the campaign service.
func NewCampaignService(campaigns CampaignRepository, bids CampaignBidRepository, reviews CampaignReviewRepository, notifier Notifier, minBudget, feeBps int64) *CampaignService {
	return &CampaignService{
		campaigns: campaigns,
		bids:      bids,
		reviews:   reviews,
		notifier:  notifier,
		minBudget: minBudget,
		feeBps:    feeBps,
	}
}

// CreateCampaign validates the brief and opens a new campaign.
func (s *CampaignService) CreateCampaign(ctx context.Context, brandID uuid.UUID, in CreateCampaignInput) (*models.Campaign, error) {
	if err := validation.ValidateCampaignTitle(in.Title); err != nil {
		return nil, err
	}
	if err := validation.ValidateLength("objective", in.Objective, validation.MinCampaignObjectiveLength, validation.MaxCampaignBriefLength); err != nil {
		return nil, err
	}
	if err := validation.ValidateHashtags(in.Hashtags); err != nil {
		return nil, err
	}
	if in.Budget < s.minBudget {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "budget must be at least %d", s.minBudget)
	}
	if in.DeadlineAt != nil && in.DeadlineAt.Before(time.Now()) {
		return nil, apperror.New(apperror.ErrCodeValidation, "deadline must be in the future")
	}

	campaign := &models.Campaign{
		BrandID:     brandID,
		Title:       in.Title,
		Objective:   in.Objective,
		Audience:    in.Audience,
		KeyMessages: in.KeyMessages,
		Hashtags:    in.Hashtags,
		Dos:         in.Dos,
		Donts:       in.Donts,
		Budget:      in.Budget,
		Status:      models.CampaignStatusOpen,
		DeadlineAt:  in.DeadlineAt,
	}

	if err := s.campaigns.Create(ctx, campaign); err != nil {
		return nil, err
	}

	return campaign, nil
}

// GetCampaign loads a single campaign.
func (s *CampaignService) GetCampaign(ctx context.Context, id uuid.UUID) (*models.Campaign, error) {
	return s.campaigns.GetByID(ctx, id)
}

// ListOpenCampaigns returns a page of campaigns accepting bids.
func (s *CampaignService) ListOpenCampaigns(ctx context.Context, limit, offset int) ([]models.Campaign, error) {
	limit, offset = normalizePage(limit, offset)
	return s.campaigns.ListOpen(ctx, limit, offset)
}

// ListBrandCampaigns returns a page of the brand's own campaigns.
func (s *CampaignService) ListBrandCampaigns(ctx context.Context, brandID uuid.UUID, limit, offset int) ([]models.Campaign, error) {
	limit, offset = normalizePage(limit, offset)
	return s.campaigns.ListByBrand(ctx, brandID, limit, offset)
}

// CloseCampaign stops further bidding. Existing accepted bids proceed to
// completion untouched; pending bidders are told the door has closed.
func (s *CampaignService) CloseCampaign(ctx context.Context, brandID, campaignID uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.BrandID != brandID {
		return nil, apperror.ErrForbidden
	}

	closed, err := s.campaigns.Close(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	s.notifyPendingBidders(ctx, campaignID, EventCampaignClosed)

	return closed, nil
}

// CompleteCampaign finishes a campaign. With a bid ID it releases that single
// bid's escrow by approving its submitted deliverables; without one it
// rejects leftover pending bids, releases every bid whose full set of
// deliverables is submitted, and requires the rest to already be settled.
// Either way the campaign moves to completed once no bid remains in flight.
func (s *CampaignService) CompleteCampaign(ctx context.Context, brandID, campaignID uuid.UUID, bidID *uuid.UUID) (*models.Campaign, error) {
	campaign, err := s.campaigns.GetByID(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	if campaign.BrandID != brandID {
		return nil, apperror.ErrForbidden
	}
	if campaign.Status == models.CampaignStatusCompleted {
		return campaign, nil
	}

	if bidID != nil {
		if err := s.releaseSingleBid(ctx, campaign, *bidID); err != nil {
			return nil, err
		}
		// Complete only if this was the last bid in flight.
		completed, err := s.campaigns.Complete(ctx, campaignID)
		if err != nil {
			if apperror.IsInvalidState(err) {
				return s.campaigns.GetByID(ctx, campaignID)
			}
			return nil, err
		}
		return completed, nil
	}

	s.rejectPendingBids(ctx, campaignID)

	ready, err := s.reviews.ListTerminalReady(ctx, campaignID)
	if err != nil {
		return nil, err
	}
	for i := range ready {
		if err := s.approveAndNotify(ctx, ready[i].ID); err != nil {
			return nil, err
		}
	}

	completed, err := s.campaigns.Complete(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	return completed, nil
}

// releaseSingleBid approves all submitted deliverables of the given bid,
// triggering escrow release when the last required one is approved.
func (s *CampaignService) releaseSingleBid(ctx context.Context, campaign *models.Campaign, bidID uuid.UUID) error {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return err
	}
	if bid.CampaignID != campaign.ID {
		return apperror.New(apperror.ErrCodeValidation, "bid does not belong to this campaign")
	}
	if bid.Status == models.BidStatusPaid {
		return nil
	}
	if bid.Status != models.BidStatusSubmitted {
		return apperror.Newf(apperror.ErrCodeInvalidState, "bid is %s, expected submitted", bid.Status)
	}

	deliverables, err := s.reviews.ListByBid(ctx, bidID)
	if err != nil {
		return err
	}
	for i := range deliverables {
		if deliverables[i].Status != models.DeliverableStatusSubmitted {
			continue
		}
		if err := s.approveAndNotify(ctx, deliverables[i].ID); err != nil {
			return err
		}
	}

	return nil
}

func (s *CampaignService) approveAndNotify(ctx context.Context, deliverableID uuid.UUID) error {
	res, err := s.reviews.Approve(ctx, deliverableID, s.feeBps)
	if err != nil {
		return err
	}
	notify(s.notifier, res.Bid.InfluencerID, EventDeliverableApproved, res.Deliverable)
	if res.Released != nil {
		notify(s.notifier, res.Bid.InfluencerID, EventBidPaid, res.Bid)
	}
	return nil
}

// forEachCampaignBid walks every bid of a campaign in fixed-size pages.
// Status updates during the walk keep rows in place, so advancing the offset
// never skips a bid.
func (s *CampaignService) forEachCampaignBid(ctx context.Context, campaignID uuid.UUID, fn func(bid *models.Bid)) error {
	const page = 100
	for offset := 0; ; offset += page {
		bids, err := s.bids.ListByCampaign(ctx, campaignID, page, offset)
		if err != nil {
			return err
		}
		for i := range bids {
			fn(&bids[i])
		}
		if len(bids) < page {
			return nil
		}
	}
}

// rejectPendingBids clears pending bids during completion. Races with a
// concurrent withdrawal are harmless, both end in a terminal state.
func (s *CampaignService) rejectPendingBids(ctx context.Context, campaignID uuid.UUID) {
	err := s.forEachCampaignBid(ctx, campaignID, func(bid *models.Bid) {
		if bid.Status != models.BidStatusPending {
			return
		}
		if _, err := s.bids.UpdateStatus(ctx, bid.ID, models.BidStatusPending, models.BidStatusRejected); err != nil {
			if !apperror.IsInvalidState(err) {
				logger.Log.WithField("bid_id", bid.ID).Warnf("failed to reject pending bid: %v", err)
			}
			return
		}
		notify(s.notifier, bid.InfluencerID, EventBidRejected, *bid)
	})
	if err != nil {
		logger.Log.WithField("campaign_id", campaignID).Warnf("failed to list bids for completion: %v", err)
	}
}

func (s *CampaignService) notifyPendingBidders(ctx context.Context, campaignID uuid.UUID, event string) {
	err := s.forEachCampaignBid(ctx, campaignID, func(bid *models.Bid) {
		if bid.Status == models.BidStatusPending {
			notify(s.notifier, bid.InfluencerID, event, *bid)
		}
	})
	if err != nil {
		logger.Log.WithField("campaign_id", campaignID).Warnf("failed to list bids for notification: %v", err)
	}
}

// normalizePage clamps user supplied pagination to sane bounds.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
