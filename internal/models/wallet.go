package models

import (
	"time"

	"github.com/google/uuid"
)

// Withdrawal request statuses. A failed payout keeps the amount available for
// retry; only success consumes wallet balance.
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusSuccess  = "success"
	WithdrawalStatusFailed   = "failed"
	WithdrawalStatusRejected = "rejected"
)

// Payment method types.
const (
	PaymentMethodCard        = "card"
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodBank        = "bank"
)

// ValidPaymentMethodTypes lists the accepted payout method types.
var ValidPaymentMethodTypes = map[string]struct{}{
	PaymentMethodCard:        {},
	PaymentMethodMobileMoney: {},
	PaymentMethodBank:        {},
}

// PaymentMethod is a stored payout destination for a user.
type PaymentMethod struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	MethodType   string    `db:"method_type" json:"method_type"`
	Label        string    `db:"label" json:"label"`
	MaskedDetail string    `db:"masked_detail" json:"masked_detail"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WithdrawalRequest moves confirmed wallet balance to an external payout
// method. Pending and successful requests reserve wallet balance; failed and
// rejected ones do not.
type WithdrawalRequest struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	UserID          uuid.UUID  `db:"user_id" json:"user_id"`
	PaymentMethodID uuid.UUID  `db:"payment_method_id" json:"payment_method_id"`
	Amount          int64      `db:"amount" json:"amount"`
	Status          string     `db:"status" json:"status"`
	PayoutReference *string    `db:"payout_reference" json:"payout_reference,omitempty"`
	FailureReason   *string    `db:"failure_reason" json:"failure_reason,omitempty"`
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ProcessedAt     *time.Time `db:"processed_at" json:"processed_at,omitempty"`
}

// WalletSummary is a read-only projection of a user's wallet, derived from
// ledger release entries minus withdrawals.
type WalletSummary struct {
	UserID         uuid.UUID `json:"user_id"`
	LifetimeEarned int64     `json:"lifetime_earned"`
	Reserved       int64     `json:"reserved"`
	Available      int64     `json:"available"`
}
