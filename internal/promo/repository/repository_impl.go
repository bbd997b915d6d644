package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"gorm.io/gorm"
)

type Repository interface {
	InsertCode(ctx context.Context, conn *gorm.DB, code *promodomain.PromoCode) error
	// FindByCodeForUpdate locks the promo row. Callers must hold the user
	// row lock first; the lock order is fixed to avoid deadlock cycles.
	FindByCodeForUpdate(ctx context.Context, conn *gorm.DB, code string) (*promodomain.PromoCode, error)
	HasRedemption(ctx context.Context, conn *gorm.DB, userID, promoCodeID snowflake.ID) (bool, error)
	InsertRedemption(ctx context.Context, conn *gorm.DB, redemption *promodomain.PromoRedemption) error
	IncrementUses(ctx context.Context, conn *gorm.DB, promoCodeID snowflake.ID) (bool, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) InsertCode(ctx context.Context, conn *gorm.DB, code *promodomain.PromoCode) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO promo_codes (
			id, code, credit_amount, subscription_type, subscription_days,
			max_uses, current_uses, expires_at, is_active, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID,
		code.Code,
		code.CreditAmount,
		code.SubscriptionType,
		code.SubscriptionDays,
		code.MaxUses,
		code.CurrentUses,
		code.ExpiresAt,
		code.IsActive,
		code.CreatedAt,
	).Error
}

func (r *repo) FindByCodeForUpdate(ctx context.Context, conn *gorm.DB, code string) (*promodomain.PromoCode, error) {
	var promo promodomain.PromoCode
	err := db.ForUpdate(conn.WithContext(ctx)).Where("code = ?", code).First(&promo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promo, nil
}

func (r *repo) HasRedemption(ctx context.Context, conn *gorm.DB, userID, promoCodeID snowflake.ID) (bool, error) {
	var count int64
	err := conn.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM promo_redemptions WHERE user_id = ? AND promo_code_id = ?`,
		userID,
		promoCodeID,
	).Scan(&count).Error
	return count > 0, err
}

func (r *repo) InsertRedemption(ctx context.Context, conn *gorm.DB, redemption *promodomain.PromoRedemption) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO promo_redemptions (id, user_id, promo_code_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		redemption.ID,
		redemption.UserID,
		redemption.PromoCodeID,
		redemption.CreatedAt,
	).Error
}

// IncrementUses bumps current_uses while re-checking the cap; returns false
// when the code is already fully redeemed.
func (r *repo) IncrementUses(ctx context.Context, conn *gorm.DB, promoCodeID snowflake.ID) (bool, error) {
	res := conn.WithContext(ctx).Exec(
		`UPDATE promo_codes SET current_uses = current_uses + 1
		 WHERE id = ? AND current_uses < max_uses`,
		promoCodeID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
