package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Upsert(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.UserSubscription) error
	FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.UserSubscription, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, sub *subscriptiondomain.UserSubscription) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE user_subscriptions
		 SET type = ?, start_at = ?, end_at = ?, ref = ?, updated_at = ?
		 WHERE user_id = ?`,
		sub.Type,
		sub.StartAt,
		sub.EndAt,
		sub.Ref,
		sub.UpdatedAt,
		sub.UserID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO user_subscriptions (id, user_id, type, start_at, end_at, ref, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.UserID,
		sub.Type,
		sub.StartAt,
		sub.EndAt,
		sub.Ref,
		sub.UpdatedAt,
	).Error
}

func (r *repo) FindByUserID(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*subscriptiondomain.UserSubscription, error) {
	var sub subscriptiondomain.UserSubscription
	err := db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}
