// Package domain contains the payment webhook gate models. Events arrive
// already signature-verified; this core only guards against duplicate
// delivery and maps prices to credits.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Event is one externally-verified payment notification.
type Event struct {
	EventID  string `json:"event_id"`
	Email    string `json:"email"`
	PriceID  string `json:"price_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// Transaction is the audit record written after a successful grant. Its
// unique ext_event_id is the gate's first idempotency check; the ledger's
// ext_ref uniqueness is the second, independent one, so a crash between
// the grant and this insert is recovered safely on redelivery.
type Transaction struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	ExtEventID string       `gorm:"type:text;not null;uniqueIndex" json:"ext_event_id"`
	UserID     snowflake.ID `gorm:"not null;index" json:"user_id"`
	PriceID    string       `gorm:"type:text;not null" json:"price_id"`
	Credits    int64        `gorm:"not null" json:"credits"`
	Amount     int64        `gorm:"not null" json:"amount"`
	Currency   string       `gorm:"type:text;not null" json:"currency"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "payment_transactions" }

// Receipt is what the webhook handler relays back to the provider.
type Receipt struct {
	UserID         snowflake.ID `json:"user_id"`
	CreditsGranted int64        `json:"credits_granted"`
	NewBalance     int64        `json:"new_balance"`
	Idempotent     bool         `json:"idempotent"`
}
