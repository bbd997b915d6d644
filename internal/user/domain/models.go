// Package domain contains the user account model shared by the credit engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// User is the account row every credit mutation locks on. Serializing
// concurrent grants and consumes for one user happens via a row lock on
// this record, never via in-process state.
type User struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Email     string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }
