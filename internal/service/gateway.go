package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/creatorlink/collab-backend/internal/logger"
	"github.com/creatorlink/collab-backend/internal/models"
)

// ErrPayoutDeclined marks a permanent gateway decline. The withdrawal is
// settled as failed and the funds return to the wallet. Any other gateway
// error is treated as transient: the request stays pending for retry.
var ErrPayoutDeclined = errors.New("payout declined by provider")

// PaymentGateway executes payouts against an external provider. Payout
// returns a provider reference on success.
type PaymentGateway interface {
	Payout(ctx context.Context, req *models.WithdrawalRequest, method *models.PaymentMethod) (string, error)
}

// SandboxGateway is the development gateway: every payout succeeds with a
// fabricated provider reference.
type SandboxGateway struct{}

// NewSandboxGateway creates the sandbox gateway.
func NewSandboxGateway() *SandboxGateway {
	return &SandboxGateway{}
}

// Payout fabricates a successful payout.
func (g *SandboxGateway) Payout(ctx context.Context, req *models.WithdrawalRequest, method *models.PaymentMethod) (string, error) {
	ref := "po_" + uuid.NewString()
	if logger.Log != nil {
		logger.Log.WithFields(map[string]interface{}{
			"withdrawal_id": req.ID,
			"method_type":   method.MethodType,
			"amount":        req.Amount,
			"reference":     ref,
		}).Info("sandbox payout executed")
	}
	return ref, nil
}
