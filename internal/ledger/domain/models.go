// Package domain contains the append-only credit ledger models. A user's
// balance is never stored; it is always derived by summing ledger deltas.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	// ScanCreditCost is the fixed debit for one website analysis.
	ScanCreditCost int64 = 1

	// SignupBonusCredits is the one-time grant for a fresh account.
	SignupBonusCredits int64 = 3

	// PurchasedCreditTTL is how long purchased credits stay spendable.
	PurchasedCreditTTL = 30 * 24 * time.Hour

	// PendingExpiryWindow is how far ahead balance details look for
	// credits about to expire.
	PendingExpiryWindow = 30 * 24 * time.Hour
)

// Well-known grant reasons. Reason is free-text provenance, not an enum;
// these are the ones the engine writes itself.
const (
	ReasonPurchase    = "purchase"
	ReasonSignupBonus = "signup_bonus"
	ReasonPromo       = "promo"
	ReasonScan        = "scan"
)

// CreditEntry is one immutable signed delta in the ledger. Positive deltas
// are grants, negative deltas are debits. Entries are inserted exactly once
// and never updated or deleted; they are the permanent audit trail.
//
// JobID is the per-user idempotency key for consumption; ExtRef is the
// global idempotency key for externally-triggered grants (payment events,
// promo redemptions, signup bonuses).
type CreditEntry struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_credit_entries_user_job,priority:1" json:"user_id"`
	Delta     int64        `gorm:"not null" json:"delta"`
	Reason    string       `gorm:"type:text;not null" json:"reason"`
	JobID     *string      `gorm:"type:text;uniqueIndex:ux_credit_entries_user_job,priority:2" json:"job_id,omitempty"`
	ExtRef    *string      `gorm:"type:text;uniqueIndex:ux_credit_entries_ext_ref" json:"ext_ref,omitempty"`
	ExpiresAt *time.Time   `gorm:"index" json:"expires_at,omitempty"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (CreditEntry) TableName() string { return "credit_entries" }

// ExpiringCredit is a positive entry approaching its expiry, surfaced in
// balance details for user-facing warnings.
type ExpiringCredit struct {
	Amount    int64     `json:"amount"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BalanceDetails breaks a user's ledger down for display. TotalBalance
// sums every delta ever recorded and is informational only; only
// UnexpiredBalance is spendable.
type BalanceDetails struct {
	TotalBalance     int64            `json:"total_balance"`
	UnexpiredBalance int64            `json:"unexpired_balance"`
	ExpiredCredits   int64            `json:"expired_credits"`
	PendingExpiry    []ExpiringCredit `json:"pending_expiry"`
}
