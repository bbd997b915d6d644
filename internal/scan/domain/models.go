// Package domain contains the scan submission surface. The analysis
// itself (fetching, scoring) is an external collaborator behind the
// Analyzer interface; this core only charges for it.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrInvalidTargetURL = errors.New("invalid target url")

// Receipt reports how a scan was paid for.
type Receipt struct {
	JobID            string `json:"job_id"`
	UsedFreeScan     bool   `json:"used_free_scan"`
	CreditsConsumed  int64  `json:"credits_consumed"`
	RemainingBalance int64  `json:"remaining_balance"`
	Idempotent       bool   `json:"idempotent"`
}

// Analyzer runs the actual website analysis. Out of scope here; the
// default implementation only acknowledges the job.
type Analyzer interface {
	Enqueue(ctx context.Context, jobID string, userID snowflake.ID, targetURL string) error
}

type SubmitRequest struct {
	UserID    snowflake.ID
	TargetURL string
	// JobID is optional; clients retrying a submission pass the job id
	// from the first attempt to get an idempotent replay.
	JobID string
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (Receipt, error)
}
