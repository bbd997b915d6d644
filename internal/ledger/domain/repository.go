package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *CreditEntry) error
	FindByJobID(ctx context.Context, db *gorm.DB, userID snowflake.ID, jobID string) (*CreditEntry, error)
	FindByExtRef(ctx context.Context, db *gorm.DB, extRef string) (*CreditEntry, error)
	SumUnexpired(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (int64, error)
	SumAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error)
	SumExpired(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (int64, error)
	ListExpiringBetween(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, until time.Time) ([]CreditEntry, error)
	ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit, offset int) ([]CreditEntry, error)
}
