package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreatePromoCodeRequest struct {
	Code             string     `json:"code"`
	CreditAmount     int64      `json:"credit_amount"`
	SubscriptionType string     `json:"subscription_type,omitempty"`
	SubscriptionDays int        `json:"subscription_days,omitempty"`
	MaxUses          int        `json:"max_uses"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
}

type RedeemResult struct {
	CreditsGranted      int64 `json:"credits_granted"`
	SubscriptionGranted bool  `json:"subscription_granted,omitempty"`
	SubscriptionDays    int   `json:"subscription_days,omitempty"`
	NewBalance          int64 `json:"new_balance"`
}

type Service interface {
	// Redeem applies code to userID: at most one redemption per user per
	// code, credits and subscription side effect committed atomically.
	Redeem(ctx context.Context, userID snowflake.ID, code string) (RedeemResult, error)

	Create(ctx context.Context, req CreatePromoCodeRequest) (PromoCode, error)
}
