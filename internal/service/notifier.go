package service

import (
	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/logger"
)

// Lifecycle events pushed to participants. Delivery is best-effort: a failed
// notification never fails the state transition that produced it.
const (
	EventCampaignClosed       = "campaign_closed"
	EventCampaignCompleted    = "campaign_completed"
	EventBidSubmitted         = "bid_submitted"
	EventBidAccepted          = "bid_accepted"
	EventBidRejected          = "bid_rejected"
	EventDeliverableSubmitted = "deliverable_submitted"
	EventDeliverableApproved  = "deliverable_approved"
	EventRevisionRequested    = "revision_requested"
	EventBidPaid              = "bid_paid"
	EventDisputeOpened        = "dispute_opened"
	EventDisputeResolved      = "dispute_resolved"
	EventWithdrawalRequested  = "withdrawal_requested"
	EventWithdrawalProcessed  = "withdrawal_processed"
	EventWithdrawalRejected   = "withdrawal_rejected"
)

// Notifier pushes an event to a user's connected clients and persists it.
type Notifier interface {
	BroadcastToUser(userID uuid.UUID, event string, data any) error
}

// notify delivers an event without letting delivery failures propagate.
func notify(n Notifier, userID uuid.UUID, event string, data any) {
	if n == nil {
		return
	}
	if err := n.BroadcastToUser(userID, event, data); err != nil && logger.Log != nil {
		logger.Log.WithField("event", event).Warnf("notification delivery failed: %v", err)
	}
}
