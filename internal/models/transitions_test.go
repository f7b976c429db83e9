package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanBidTransition_AcceptPath(t *testing.T) {
	assert.True(t, CanBidTransition(BidStatusPending, BidStatusAccepted))
	assert.True(t, CanBidTransition(BidStatusAccepted, BidStatusSubmitted))
	assert.True(t, CanBidTransition(BidStatusSubmitted, BidStatusPaid))
}

func TestCanBidTransition_RevisionLoop(t *testing.T) {
	assert.True(t, CanBidTransition(BidStatusSubmitted, BidStatusRevisionRequested))
	assert.True(t, CanBidTransition(BidStatusRevisionRequested, BidStatusSubmitted))
	assert.True(t, CanBidTransition(BidStatusSubmitted, BidStatusSubmitted))
}

func TestCanBidTransition_DisputeReachableFromAllNonTerminal(t *testing.T) {
	for _, from := range []string{BidStatusPending, BidStatusAccepted, BidStatusSubmitted, BidStatusRevisionRequested} {
		assert.True(t, CanBidTransition(from, BidStatusDisputed), "from %s", from)
	}
}

func TestCanBidTransition_TerminalStates(t *testing.T) {
	for _, terminal := range []string{BidStatusPaid, BidStatusRejected, BidStatusWithdrawn} {
		assert.True(t, IsBidTerminal(terminal))
		for to := range ValidBidStatuses {
			assert.False(t, CanBidTransition(terminal, to), "%s -> %s", terminal, to)
		}
	}
}

func TestCanBidTransition_IllegalJumps(t *testing.T) {
	assert.False(t, CanBidTransition(BidStatusPending, BidStatusPaid))
	assert.False(t, CanBidTransition(BidStatusAccepted, BidStatusPaid))
	assert.False(t, CanBidTransition(BidStatusDisputed, BidStatusSubmitted))
	assert.False(t, CanBidTransition(BidStatusAccepted, BidStatusWithdrawn))
}

func TestIsBidInProduction(t *testing.T) {
	assert.True(t, IsBidInProduction(BidStatusAccepted))
	assert.True(t, IsBidInProduction(BidStatusSubmitted))
	assert.True(t, IsBidInProduction(BidStatusRevisionRequested))
	assert.False(t, IsBidInProduction(BidStatusPending))
	assert.False(t, IsBidInProduction(BidStatusDisputed))
	assert.False(t, IsBidInProduction(BidStatusPaid))
}

func TestCanCampaignTransition(t *testing.T) {
	assert.True(t, CanCampaignTransition(CampaignStatusOpen, CampaignStatusClosed))
	assert.True(t, CanCampaignTransition(CampaignStatusOpen, CampaignStatusCompleted))
	assert.True(t, CanCampaignTransition(CampaignStatusClosed, CampaignStatusCompleted))
	assert.False(t, CanCampaignTransition(CampaignStatusClosed, CampaignStatusOpen))
	assert.False(t, CanCampaignTransition(CampaignStatusCompleted, CampaignStatusOpen))
}
