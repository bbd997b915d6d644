// Package domain contains promotional code models. A code grants credits
// and optionally a subscription entitlement, at most once per user.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// PromoExpiryTTL is how long promo-granted credits stay spendable.
const PromoExpiryTTL = 365 * 24 * time.Hour

type PromoCode struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Code             string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	CreditAmount     int64        `gorm:"not null" json:"credit_amount"`
	SubscriptionType string       `gorm:"type:text;not null;default:''" json:"subscription_type"`
	SubscriptionDays int          `gorm:"not null;default:0" json:"subscription_days"`
	MaxUses          int          `gorm:"not null" json:"max_uses"`
	CurrentUses      int          `gorm:"not null;default:0" json:"current_uses"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	IsActive         bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PromoCode) TableName() string { return "promo_codes" }

// PromoRedemption enforces at most one redemption per user per code via
// its unique (user_id, promo_code_id) pair.
type PromoRedemption struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID `gorm:"not null;uniqueIndex:ux_promo_redemptions_user_code,priority:1" json:"user_id"`
	PromoCodeID snowflake.ID `gorm:"not null;uniqueIndex:ux_promo_redemptions_user_code,priority:2" json:"promo_code_id"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (PromoRedemption) TableName() string { return "promo_redemptions" }
