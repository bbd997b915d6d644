package repository

import (
	"context"
	"errors"

	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	"gorm.io/gorm"
)

type Repository interface {
	FindByEventID(ctx context.Context, conn *gorm.DB, eventID string) (*paymentdomain.Transaction, error)
	Insert(ctx context.Context, conn *gorm.DB, txn *paymentdomain.Transaction) error
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) FindByEventID(ctx context.Context, conn *gorm.DB, eventID string) (*paymentdomain.Transaction, error) {
	var txn paymentdomain.Transaction
	err := conn.WithContext(ctx).Where("ext_event_id = ?", eventID).First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, txn *paymentdomain.Transaction) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO payment_transactions (
			id, ext_event_id, user_id, price_id, credits, amount, currency, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.ExtEventID,
		txn.UserID,
		txn.PriceID,
		txn.Credits,
		txn.Amount,
		txn.Currency,
		txn.CreatedAt,
	).Error
}
