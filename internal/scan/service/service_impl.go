package service

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	ledger   ledgerdomain.Service
	freescan freescandomain.Service
	analyzer scandomain.Analyzer
}

type ServiceParam struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Ledger   ledgerdomain.Service
	Freescan freescandomain.Service
	Analyzer scandomain.Analyzer
}

func New(p ServiceParam) scandomain.Service {
	return &Service{
		log:      p.Log.Named("scan.service"),
		genID:    p.GenID,
		ledger:   p.Ledger,
		freescan: p.Freescan,
		analyzer: p.Analyzer,
	}
}

// Submit pays for one analysis: the monthly free scan when available,
// otherwise one credit keyed by the job id. Retries with the same job id
// replay without charging twice.
func (s *Service) Submit(ctx context.Context, req scandomain.SubmitRequest) (scandomain.Receipt, error) {
	target := strings.TrimSpace(req.TargetURL)
	parsed, err := url.Parse(target)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return scandomain.Receipt{}, scandomain.ErrInvalidTargetURL
	}

	jobID := strings.TrimSpace(req.JobID)
	retried := jobID != ""
	if !retried {
		jobID = s.genID.Generate().String()
	}

	// The free path has zero ledger cost, so prefer it. A retried job id
	// was already paid for; route it straight to the ledger replay.
	if !retried {
		if err := s.freescan.Use(ctx, req.UserID); err == nil {
			if err := s.analyzer.Enqueue(ctx, jobID, req.UserID, target); err != nil {
				return scandomain.Receipt{}, err
			}
			balance, err := s.ledger.GetBalance(ctx, req.UserID)
			if err != nil {
				return scandomain.Receipt{}, err
			}
			return scandomain.Receipt{
				JobID:            jobID,
				UsedFreeScan:     true,
				RemainingBalance: balance,
			}, nil
		} else if !errors.Is(err, freescandomain.ErrFreeScanUnavailable) {
			return scandomain.Receipt{}, err
		}
	}

	consume, err := s.ledger.ConsumeCredits(ctx, req.UserID, jobID)
	if err != nil {
		return scandomain.Receipt{}, err
	}

	if !consume.Idempotent {
		if err := s.analyzer.Enqueue(ctx, jobID, req.UserID, target); err != nil {
			s.log.Error("analysis enqueue failed after debit",
				zap.String("user_id", req.UserID.String()),
				zap.String("job_id", jobID),
				zap.Error(err),
			)
			return scandomain.Receipt{}, err
		}
	}

	return scandomain.Receipt{
		JobID:            jobID,
		CreditsConsumed:  consume.Consumed,
		RemainingBalance: consume.RemainingBalance,
		Idempotent:       consume.Idempotent,
	}, nil
}
