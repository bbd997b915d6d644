package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// GrantRequest describes one credit issuance. JobID and ExtRef are
// optional idempotency keys: when either matches an existing entry the
// grant becomes a no-op replay.
type GrantRequest struct {
	UserID    snowflake.ID
	Amount    int64
	Reason    string
	JobID     *string
	ExtRef    *string
	ExpiresAt *time.Time
}

type GrantResult struct {
	EntryID    snowflake.ID `json:"entry_id"`
	NewBalance int64        `json:"new_balance"`
	Idempotent bool         `json:"idempotent"`
}

type ConsumeResult struct {
	RemainingBalance int64 `json:"remaining_balance"`
	Consumed         int64 `json:"consumed"`
	Idempotent       bool  `json:"idempotent"`
}

type ListEntriesRequest struct {
	Limit  int
	Offset int
}

type Service interface {
	GetBalance(ctx context.Context, userID snowflake.ID) (int64, error)
	GetBalanceDetails(ctx context.Context, userID snowflake.ID) (BalanceDetails, error)
	ListEntries(ctx context.Context, userID snowflake.ID, req ListEntriesRequest) ([]CreditEntry, error)

	GrantCredits(ctx context.Context, req GrantRequest) (GrantResult, error)
	GrantPurchasedCredits(ctx context.Context, userID snowflake.ID, amount int64, extRef string) (GrantResult, error)
	GrantSignupCredits(ctx context.Context, userID snowflake.ID) (GrantResult, error)
	ConsumeCredits(ctx context.Context, userID snowflake.ID, jobID string) (ConsumeResult, error)

	// GrantInTx issues a grant inside a caller-owned transaction. The
	// caller must already hold the user row lock; promo redemption uses
	// this so the grant, the redemption row and the use counter commit or
	// roll back together.
	GrantInTx(ctx context.Context, tx *gorm.DB, req GrantRequest) (GrantResult, error)
}
