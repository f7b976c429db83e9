package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/models"
	"github.com/creatorlink/collab-backend/internal/pkg/apperror"
	"github.com/creatorlink/collab-backend/internal/repository"
	"github.com/creatorlink/collab-backend/internal/validation"
)

// DisputeRepository describes the dispute storage dependencies.
type DisputeRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	Open(ctx context.Context, d *models.Dispute) (*models.Bid, error)
	Resolve(ctx context.Context, disputeID uuid.UUID, outcome, notes string, resolvedBy uuid.UUID, feeBps int64) (*repository.ResolveResult, error)
}

// DisputeBidRepository is the slice of bid storage the dispute service needs.
type DisputeBidRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bid, error)
}

// DisputeCampaignRepository is the slice of campaign storage the dispute
// service needs for participant checks.
type DisputeCampaignRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Campaign, error)
}

// DisputeService contains the dispute workflow: either party freezes a bid's
// escrow for manual review, an administrator settles it.
type DisputeService struct {
	disputes  DisputeRepository
	bids      DisputeBidRepository
	campaigns DisputeCampaignRepository
	notifier  Notifier

	feeBps       int64
	minReasonLen int
}

// NewDisputeService creates the dispute service.
func NewDisputeService(disputes DisputeRepository, bids DisputeBidRepository, campaigns DisputeCampaignRepository, notifier Notifier, feeBps int64, minReasonLen int) *DisputeService {
	return &DisputeService{
		disputes:     disputes,
		bids:         bids,
		campaigns:    campaigns,
		notifier:     notifier,
		feeBps:       feeBps,
		minReasonLen: minReasonLen,
	}
}

// OpenDispute freezes a bid pending manual review. Only the bid's influencer
// or the campaign's brand may raise one.
func (s *DisputeService) OpenDispute(ctx context.Context, userID, bidID uuid.UUID, reason string) (*models.Dispute, error) {
	if err := validation.ValidateLength("reason", reason, s.minReasonLen, validation.MaxReasonLength); err != nil {
		return nil, err
	}

	bid, err := s.bids.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	campaign, err := s.campaigns.GetByID(ctx, bid.CampaignID)
	if err != nil {
		return nil, err
	}
	if bid.InfluencerID != userID && campaign.BrandID != userID {
		return nil, apperror.ErrForbidden
	}

	dispute := &models.Dispute{
		BidID:      bidID,
		CampaignID: bid.CampaignID,
		RaisedBy:   userID,
		Reason:     reason,
		Status:     models.DisputeStatusOpen,
	}

	if _, err := s.disputes.Open(ctx, dispute); err != nil {
		return nil, err
	}

	// Tell the counterparty; the raiser already knows.
	counterparty := campaign.BrandID
	if userID == campaign.BrandID {
		counterparty = bid.InfluencerID
	}
	notify(s.notifier, counterparty, EventDisputeOpened, dispute)

	return dispute, nil
}

// ResolveDispute settles an open dispute. Favoring the influencer pays out
// the escrow; favoring the brand refunds it to the campaign budget.
func (s *DisputeService) ResolveDispute(ctx context.Context, adminID, disputeID uuid.UUID, outcome, notes string) (*repository.ResolveResult, error) {
	if _, ok := models.ValidDisputeOutcomes[outcome]; !ok {
		return nil, apperror.Newf(apperror.ErrCodeValidation, "unknown outcome %q", outcome)
	}
	if err := validation.ValidateLength("resolution_notes", notes, s.minReasonLen, validation.MaxReasonLength); err != nil {
		return nil, err
	}

	res, err := s.disputes.Resolve(ctx, disputeID, outcome, notes, adminID, s.feeBps)
	if err != nil {
		return nil, err
	}

	notify(s.notifier, res.Bid.InfluencerID, EventDisputeResolved, res.Dispute)
	if campaign, err := s.campaigns.GetByID(ctx, res.Dispute.CampaignID); err == nil {
		notify(s.notifier, campaign.BrandID, EventDisputeResolved, res.Dispute)
	}

	return res, nil
}

// GetDispute loads a dispute, visible to its participants and administrators.
func (s *DisputeService) GetDispute(ctx context.Context, userID uuid.UUID, role string, disputeID uuid.UUID) (*models.Dispute, error) {
	dispute, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}

	if role != models.RoleAdmin {
		bid, err := s.bids.GetByID(ctx, dispute.BidID)
		if err != nil {
			return nil, err
		}
		campaign, err := s.campaigns.GetByID(ctx, dispute.CampaignID)
		if err != nil {
			return nil, err
		}
		if bid.InfluencerID != userID && campaign.BrandID != userID {
			return nil, apperror.ErrForbidden
		}
	}

	return dispute, nil
}

// ListOpenDisputes returns the administrative review queue.
func (s *DisputeService) ListOpenDisputes(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	limit, offset = normalizePage(limit, offset)
	return s.disputes.ListOpen(ctx, limit, offset)
}

// ListMyDisputes returns disputes the user raised or is a party to.
func (s *DisputeService) ListMyDisputes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	limit, offset = normalizePage(limit, offset)
	return s.disputes.ListByUser(ctx, userID, limit, offset)
}
