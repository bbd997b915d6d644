package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Service interface {
	// UpdateUserSubscription upserts the entitlement window inside the
	// caller's transaction so it commits atomically with the redemption.
	UpdateUserSubscription(ctx context.Context, tx *gorm.DB, userID snowflake.ID, subType string, endAt time.Time, ref string) error

	GetByUserID(ctx context.Context, userID snowflake.ID) (*UserSubscription, error)
}
