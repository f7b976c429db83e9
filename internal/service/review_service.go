package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/repository"
	"github.com/creatorlink/collab-backend/internal/validation"
)

// DeliverableRepository describes the deliverable storage dependencies.
type DeliverableRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Deliverable, error)
	ListByBid(ctx context.Context, bidID uuid.UUID) ([]models.Deliverable, error)
	Submit(ctx context.Context, d *models.Deliverable) (*models.Bid, error)
	Approve(ctx context.Context, deliverableID uuid.UUID, feeBps int64) (*repository.ReviewResult, error)
	RequestRevision(ctx context.Context, deliverableID uuid.UUID, feedback string) (*repository.ReviewResult, error)
}

// ReviewBidRepository is the slice of bid storage the review service needs.
type ReviewBidRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
}

// ReviewCampaignRepository is the slice of campaign storage the review
// service needs for ownership checks.
type ReviewCampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// ReviewService contains the deliverable submit/review workflow.
type ReviewService struct {
	deliverables DeliverableRepository
	bids         ReviewBidRepository
	campaigns    ReviewCampaignRepository
	notifier     Notifier

	feeBps         int64
	minFeedbackLen int
}

// SubmitDeliverableInput carries the fields of a deliverable submission.
type SubmitDeliverableInput struct {
	Platform    string
	ContentType string
	ArtifactURL string
	Description *string
}

// NewReviewService creates the review service.
func NewReviewService(deliverables DeliverableRepository, bids ReviewBidRepository, campaigns ReviewCampaignRepository, notifier Notifier, feeBps int64, minFeedbackLen int) *ReviewService {
	return &ReviewService{
		deliverables:   deliverables,
		bids:           bids,
		campaigns:      campaigns,
		notifier:       notifier,
		feeBps:         feeBps,
		minFeedbackLen: minFeedbackLen,
	}
}

// SubmitDeliverable attaches a unit of work to an accepted bid and moves the
// bid to submitted.
func (s *ReviewService) SubmitDeliverable(ctx context.Context, influencerID, bidID uuid.UUID, in SubmitDeliverableInput) (*models.Deliverable, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.InfluencerID != influencerID {
		return nil, apperror.ErrForbidden
	}

	if err := validation.ValidateNonEmpty("platform", in.Platform); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonEmpty("content_type", in.ContentType); err != nil {
		return nil, err
	}
	if err := validation.ValidateArtifactURL(in.ArtifactURL); err != nil {
		return nil, err
	}

	deliverable := &models.Deliverable{
		BidID:       bidID,
		Platform:    in.Platform,
		ContentType: in.ContentType,
		ArtifactURL: in.ArtifactURL,
		Description: in.Description,
		Status:      models.DeliverableStatusSubmitted,
	}

	updatedBid, err := s.deliverables.Submit(ctx, deliverable)
	if err != nil {
		return nil, err
	}

	if campaign, err := s.campaigns.GetByID(ctx, updatedBid.CampaignID); err == nil {
		notify(s.notifier, campaign.BrandID, EventDeliverableSubmitted, deliverable)
	}

	return deliverable, nil
}

// ApproveDeliverable accepts a submitted deliverable. Approving the last
// required deliverable releases the bid's escrow to the influencer, minus
// the platform fee.
func (s *ReviewService) ApproveDeliverable(ctx context.Context, brandID, deliverableID uuid.UUID) (*repository.ReviewResult, error) {
	if err := s.authorizeBrand(ctx, brandID, deliverableID); err != nil {
		return nil, err
	}

	res, err := s.deliverables.Approve(ctx, deliverableID, s.feeBps)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, res.Bid.InfluencerID, EventDeliverableApproved, res.Deliverable)
	if res.Released != nil {
		notify(s.notifier, res.Bid.InfluencerID, EventBidPaid, res.Bid)
	}

	return res, nil
}

// RequestRevision sends a submitted deliverable back with feedback. Escrow is
// untouched; the influencer may resubmit.
func (s *ReviewService) RequestRevision(ctx context.Context, brandID, deliverableID uuid.UUID, feedback string) (*repository.ReviewResult, error) {
	if err := s.authorizeBrand(ctx, brandID, deliverableID); err != nil {
		return nil, err
	}
	if err := validation.ValidateLength("feedback", feedback, s.minFeedbackLen, validation.MaxFeedbackLength); err != nil {
		return nil, err
	}

	res, err := s.deliverables.RequestRevision(ctx, deliverableID, feedback)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, res.Bid.InfluencerID, EventRevisionRequested, res.Deliverable)

	return res, nil
}

// ListDeliverables returns a bid's deliverables, visible to its participants
// and administrators.
func (s *ReviewService) ListDeliverables(ctx context.Context, userID uuid.UUID, role string, bidID uuid.UUID) ([]models.Deliverable, error) {
	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin && bid.InfluencerID != userID {
		campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
		if err != nil {
			return nil, err
		}
		if campaign.BrandID != userID {
			return nil, apperror.ErrForbidden
		}
	}

	return s.deliverables.ListByBid(ctx, bidID)
}

// authorizeBrand verifies that the caller owns the campaign behind the
// deliverable's bid.
func (s *ReviewService) authorizeBrand(ctx context.Context, brandID, deliverableID uuid.UUID) error {
	deliverable, err := s.deliverables.GetByID(ctx, deliverableID)
	if err != nil {
		return err
	}
	bid, err := s.bids.GetByID(ctx, deliverable.BidID)
	if err != nil {
		return err
	}
	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return err
	}
	if campaign.BrandID != brandID {
		return apperror.ErrForbidden
	}
	return nil
}
