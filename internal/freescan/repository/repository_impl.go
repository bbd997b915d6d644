package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	"gorm.io/gorm"
)

type Repository interface {
	Find(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*freescandomain.Usage, error)
	Upsert(ctx context.Context, conn *gorm.DB, userID snowflake.ID, at time.Time) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, conn *gorm.DB, userID snowflake.ID) (*freescandomain.Usage, error) {
	var usage freescandomain.Usage
	err := conn.WithContext(ctx).Where("user_id = ?", userID).First(&usage).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &usage, nil
}

func (r *repo) Upsert(ctx context.Context, conn *gorm.DB, userID snowflake.ID, at time.Time) error {
	res := conn.WithContext(ctx).Exec(
		`UPDATE free_scan_usages SET last_free_scan_at = ? WHERE user_id = ?`,
		at,
		userID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	return conn.WithContext(ctx).Exec(
		`INSERT INTO free_scan_usages (user_id, last_free_scan_at) VALUES (?, ?)`,
		userID,
		at,
	).Error
}
