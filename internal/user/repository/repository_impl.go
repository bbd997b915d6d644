package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, user *userdomain.User) error {
	return conn.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := conn.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByEmail(ctx context.Context, conn *gorm.DB, email string) (*userdomain.User, error) {
	var user userdomain.User
	err := conn.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *repo) LockByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := db.ForUpdate(conn.WithContext(ctx)).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}
