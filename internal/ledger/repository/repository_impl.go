package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() ledgerdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *ledgerdomain.CreditEntry) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO credit_entries (
			id, user_id, delta, reason, job_id, ext_ref, expires_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.UserID,
		entry.Delta,
		entry.Reason,
		entry.JobID,
		entry.ExtRef,
		entry.ExpiresAt,
		entry.CreatedAt,
	).Error
}

func (r *repo) FindByJobID(ctx context.Context, db *gorm.DB, userID snowflake.ID, jobID string) (*ledgerdomain.CreditEntry, error) {
	var entry ledgerdomain.CreditEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) FindByExtRef(ctx context.Context, db *gorm.DB, extRef string) (*ledgerdomain.CreditEntry, error) {
	var entry ledgerdomain.CreditEntry
	err := db.WithContext(ctx).
		Where("ext_ref = ?", extRef).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &entry, nil
}

func (r *repo) SumUnexpired(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(delta), 0) FROM credit_entries
		 WHERE user_id = ? AND (expires_at IS NULL OR expires_at > ?)`,
		userID,
		now,
	).Scan(&sum).Error
	return sum, err
}

func (r *repo) SumAll(ctx context.Context, db *gorm.DB, userID snowflake.ID) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(delta), 0) FROM credit_entries WHERE user_id = ?`,
		userID,
	).Scan(&sum).Error
	return sum, err
}

func (r *repo) SumExpired(ctx context.Context, db *gorm.DB, userID snowflake.ID, now time.Time) (int64, error) {
	var sum int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(delta), 0) FROM credit_entries
		 WHERE user_id = ? AND expires_at IS NOT NULL AND expires_at <= ?`,
		userID,
		now,
	).Scan(&sum).Error
	return sum, err
}

func (r *repo) ListExpiringBetween(ctx context.Context, db *gorm.DB, userID snowflake.ID, from, until time.Time) ([]ledgerdomain.CreditEntry, error) {
	var entries []ledgerdomain.CreditEntry
	err := db.WithContext(ctx).
		Where("user_id = ? AND delta > 0 AND expires_at IS NOT NULL AND expires_at > ? AND expires_at <= ?",
			userID, from, until).
		Order("expires_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repo) ListByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit, offset int) ([]ledgerdomain.CreditEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var entries []ledgerdomain.CreditEntry
	err := db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
