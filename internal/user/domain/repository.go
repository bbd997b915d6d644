package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, user *User) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)
	// LockByID takes the per-user row lock that serializes every mutating
	// credit operation for that user. Must be called inside a transaction.
	LockByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
}
