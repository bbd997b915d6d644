// Package domain contains the monthly free-scan entitlement. It is a
// time-windowed permission outside the ledger: using it never writes a
// credit entry.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Window is the cooldown between free scans.
const Window = 30 * 24 * time.Hour

var ErrFreeScanUnavailable = errors.New("monthly free scan not available")

// Usage tracks when a user last spent their free scan.
type Usage struct {
	UserID         snowflake.ID `gorm:"primaryKey" json:"user_id"`
	LastFreeScanAt time.Time    `gorm:"not null" json:"last_free_scan_at"`
}

// TableName sets the database table name.
func (Usage) TableName() string { return "free_scan_usages" }

type Service interface {
	CanUse(ctx context.Context, userID snowflake.ID) (bool, error)
	// Use re-validates and records the free scan under the same per-user
	// row lock the ledger takes, so a concurrent "use free scan" and
	// "consume credit" for one user serialize instead of racing.
	Use(ctx context.Context, userID snowflake.ID) error
}
