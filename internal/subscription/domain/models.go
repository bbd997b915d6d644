// Package domain contains the subscription entitlement granted as a promo
// side effect. Feature gating on top of it lives outside the credit engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserSubscription records the entitlement window a promo granted. One row
// per user; a later grant extends or replaces the window.
type UserSubscription struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex" json:"user_id"`
	Type      string       `gorm:"type:text;not null" json:"type"`
	StartAt   time.Time    `gorm:"not null" json:"start_at"`
	EndAt     time.Time    `gorm:"not null" json:"end_at"`
	Ref       string       `gorm:"type:text;not null" json:"ref"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (UserSubscription) TableName() string { return "user_subscriptions" }
