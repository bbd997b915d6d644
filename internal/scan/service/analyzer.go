package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	"go.uber.org/zap"
)

// noopAnalyzer stands in for the analysis pipeline, which runs outside
// the credit engine.
type noopAnalyzer struct {
	log *zap.Logger
}

func NewNoopAnalyzer(log *zap.Logger) scandomain.Analyzer {
	return &noopAnalyzer{log: log.Named("scan.analyzer")}
}

func (a *noopAnalyzer) Enqueue(ctx context.Context, jobID string, userID snowflake.ID, targetURL string) error {
	a.log.Info("analysis job accepted",
		zap.String("job_id", jobID),
		zap.String("user_id", userID.String()),
		zap.String("target_url", targetURL),
	)
	return nil
}
