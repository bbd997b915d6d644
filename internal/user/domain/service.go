package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email")
)

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (User, error)
	// ResolveOrCreateByEmail returns the existing user for email or creates
	// one. Safe under concurrent calls: a duplicate-key race falls back to
	// re-reading the winner's row.
	ResolveOrCreateByEmail(ctx context.Context, email string) (User, error)
}
