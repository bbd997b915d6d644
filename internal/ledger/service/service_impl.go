package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/sitescope/sitescope/internal/clock"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	"github.com/sitescope/sitescope/internal/metrics"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// maxTxAttempts bounds retries of transient store failures (serialization
// conflicts, deadlocks). Business failures are never retried.
const maxTxAttempts = 3

// errUniqueConflict signals that an insert lost the check-then-insert race
// to a concurrent duplicate. The transaction rolls back and the operation
// is answered as an idempotent replay from committed state.
var errUniqueConflict = errors.New("ledger: unique conflict")

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  ledgerdomain.Repository
	users userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  ledgerdomain.Repository
	Users userdomain.Repository
}

func New(p ServiceParam) ledgerdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
		users: p.Users,
	}
}

// GetBalance returns the spendable balance: the live sum of all
// non-expired deltas. It is recomputed on every call, never cached.
func (s *Service) GetBalance(ctx context.Context, userID snowflake.ID) (int64, error) {
	return s.repo.SumUnexpired(ctx, s.db, userID, s.clock.Now())
}

func (s *Service) GetBalanceDetails(ctx context.Context, userID snowflake.ID) (ledgerdomain.BalanceDetails, error) {
	now := s.clock.Now()

	total, err := s.repo.SumAll(ctx, s.db, userID)
	if err != nil {
		return ledgerdomain.BalanceDetails{}, err
	}
	unexpired, err := s.repo.SumUnexpired(ctx, s.db, userID, now)
	if err != nil {
		return ledgerdomain.BalanceDetails{}, err
	}
	expired, err := s.repo.SumExpired(ctx, s.db, userID, now)
	if err != nil {
		return ledgerdomain.BalanceDetails{}, err
	}
	expiring, err := s.repo.ListExpiringBetween(ctx, s.db, userID, now, now.Add(ledgerdomain.PendingExpiryWindow))
	if err != nil {
		return ledgerdomain.BalanceDetails{}, err
	}

	pending := make([]ledgerdomain.ExpiringCredit, 0, len(expiring))
	for _, entry := range expiring {
		pending = append(pending, ledgerdomain.ExpiringCredit{
			Amount:    entry.Delta,
			ExpiresAt: *entry.ExpiresAt,
		})
	}

	return ledgerdomain.BalanceDetails{
		TotalBalance:     total,
		UnexpiredBalance: unexpired,
		ExpiredCredits:   expired,
		PendingExpiry:    pending,
	}, nil
}

func (s *Service) ListEntries(ctx context.Context, userID snowflake.ID, req ledgerdomain.ListEntriesRequest) ([]ledgerdomain.CreditEntry, error) {
	return s.repo.ListByUser(ctx, s.db, userID, req.Limit, req.Offset)
}

func (s *Service) GrantCredits(ctx context.Context, req ledgerdomain.GrantRequest) (ledgerdomain.GrantResult, error) {
	if req.Amount <= 0 {
		return ledgerdomain.GrantResult{}, ledgerdomain.ErrInvalidAmount
	}

	var result ledgerdomain.GrantResult
	err := s.withUserLock(ctx, req.UserID, func(tx *gorm.DB) error {
		res, err := s.grantLocked(ctx, tx, req)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if errors.Is(err, errUniqueConflict) {
		return s.replayGrant(ctx, req)
	}
	if err != nil {
		s.logFailure("grant", req.UserID, grantKey(req), err)
		return ledgerdomain.GrantResult{}, err
	}

	if result.Idempotent {
		metrics.RecordIdempotentReplay("grant")
	} else {
		metrics.RecordGrant(req.Reason)
	}
	return result, nil
}

func (s *Service) GrantPurchasedCredits(ctx context.Context, userID snowflake.ID, amount int64, extRef string) (ledgerdomain.GrantResult, error) {
	expiresAt := s.clock.Now().Add(ledgerdomain.PurchasedCreditTTL)
	return s.GrantCredits(ctx, ledgerdomain.GrantRequest{
		UserID:    userID,
		Amount:    amount,
		Reason:    ledgerdomain.ReasonPurchase,
		ExtRef:    &extRef,
		ExpiresAt: &expiresAt,
	})
}

// GrantSignupCredits issues the one-time non-expiring signup bonus. The
// ext ref is derived from the user id so repeated calls replay.
func (s *Service) GrantSignupCredits(ctx context.Context, userID snowflake.ID) (ledgerdomain.GrantResult, error) {
	extRef := fmt.Sprintf("signup:%s", userID)
	return s.GrantCredits(ctx, ledgerdomain.GrantRequest{
		UserID: userID,
		Amount: ledgerdomain.SignupBonusCredits,
		Reason: ledgerdomain.ReasonSignupBonus,
		ExtRef: &extRef,
	})
}

func (s *Service) ConsumeCredits(ctx context.Context, userID snowflake.ID, jobID string) (ledgerdomain.ConsumeResult, error) {
	if jobID == "" {
		return ledgerdomain.ConsumeResult{}, ledgerdomain.ErrJobIDRequired
	}

	cost := ledgerdomain.ScanCreditCost

	var result ledgerdomain.ConsumeResult
	err := s.withUserLock(ctx, userID, func(tx *gorm.DB) error {
		existing, err := s.repo.FindByJobID(ctx, tx, userID, jobID)
		if err != nil {
			return err
		}
		if existing != nil {
			// Replay: the job was already paid for. No mutation.
			balance, err := s.repo.SumUnexpired(ctx, tx, userID, s.clock.Now())
			if err != nil {
				return err
			}
			result = ledgerdomain.ConsumeResult{
				RemainingBalance: balance,
				Consumed:         -existing.Delta,
				Idempotent:       true,
			}
			return nil
		}

		balance, err := s.repo.SumUnexpired(ctx, tx, userID, s.clock.Now())
		if err != nil {
			return err
		}
		if balance < cost {
			return &ledgerdomain.InsufficientFundsError{Required: cost, Available: balance}
		}

		entry := ledgerdomain.CreditEntry{
			ID:        s.genID.Generate(),
			UserID:    userID,
			Delta:     -cost,
			Reason:    ledgerdomain.ReasonScan,
			JobID:     &jobID,
			CreatedAt: s.clock.Now(),
		}
		if err := s.repo.Insert(ctx, tx, &entry); err != nil {
			if db.IsDuplicateKeyErr(err) {
				return errUniqueConflict
			}
			return err
		}

		result = ledgerdomain.ConsumeResult{
			RemainingBalance: balance - cost,
			Consumed:         cost,
		}
		return nil
	})
	if errors.Is(err, errUniqueConflict) {
		return s.replayConsume(ctx, userID, jobID)
	}
	if err != nil {
		if !ledgerdomain.IsInsufficientFunds(err) {
			s.logFailure("consume", userID, jobID, err)
		}
		return ledgerdomain.ConsumeResult{}, err
	}

	if result.Idempotent {
		metrics.RecordIdempotentReplay("consume")
	} else {
		metrics.RecordConsume()
	}
	return result, nil
}

// GrantInTx issues a grant inside a caller-owned transaction. The caller
// holds the user row lock already; a duplicate-key error is returned as-is
// so the whole transaction rolls back together.
func (s *Service) GrantInTx(ctx context.Context, tx *gorm.DB, req ledgerdomain.GrantRequest) (ledgerdomain.GrantResult, error) {
	if req.Amount <= 0 {
		return ledgerdomain.GrantResult{}, ledgerdomain.ErrInvalidAmount
	}
	return s.grantLocked(ctx, tx, req)
}

// grantLocked runs the idempotency pre-check and insert. Caller must hold
// the user row lock inside tx.
func (s *Service) grantLocked(ctx context.Context, tx *gorm.DB, req ledgerdomain.GrantRequest) (ledgerdomain.GrantResult, error) {
	existing, err := s.findExistingGrant(ctx, tx, req)
	if err != nil {
		return ledgerdomain.GrantResult{}, err
	}
	if existing != nil {
		balance, err := s.repo.SumUnexpired(ctx, tx, req.UserID, s.clock.Now())
		if err != nil {
			return ledgerdomain.GrantResult{}, err
		}
		return ledgerdomain.GrantResult{
			EntryID:    existing.ID,
			NewBalance: balance,
			Idempotent: true,
		}, nil
	}

	entry := ledgerdomain.CreditEntry{
		ID:        s.genID.Generate(),
		UserID:    req.UserID,
		Delta:     req.Amount,
		Reason:    req.Reason,
		JobID:     req.JobID,
		ExtRef:    req.ExtRef,
		ExpiresAt: req.ExpiresAt,
		CreatedAt: s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, tx, &entry); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return ledgerdomain.GrantResult{}, errUniqueConflict
		}
		return ledgerdomain.GrantResult{}, err
	}

	balance, err := s.repo.SumUnexpired(ctx, tx, req.UserID, s.clock.Now())
	if err != nil {
		return ledgerdomain.GrantResult{}, err
	}
	return ledgerdomain.GrantResult{
		EntryID:    entry.ID,
		NewBalance: balance,
	}, nil
}

func (s *Service) findExistingGrant(ctx context.Context, tx *gorm.DB, req ledgerdomain.GrantRequest) (*ledgerdomain.CreditEntry, error) {
	if req.JobID != nil && *req.JobID != "" {
		entry, err := s.repo.FindByJobID(ctx, tx, req.UserID, *req.JobID)
		if err != nil || entry != nil {
			return entry, err
		}
	}
	if req.ExtRef != nil && *req.ExtRef != "" {
		return s.repo.FindByExtRef(ctx, tx, *req.ExtRef)
	}
	return nil, nil
}

// replayGrant answers a grant whose insert hit a unique conflict: the
// duplicate row is already committed, so re-read it and the fresh balance.
func (s *Service) replayGrant(ctx context.Context, req ledgerdomain.GrantRequest) (ledgerdomain.GrantResult, error) {
	existing, err := s.findExistingGrant(ctx, s.db, req)
	if err != nil {
		return ledgerdomain.GrantResult{}, err
	}
	if existing == nil {
		return ledgerdomain.GrantResult{}, errUniqueConflict
	}
	balance, err := s.repo.SumUnexpired(ctx, s.db, req.UserID, s.clock.Now())
	if err != nil {
		return ledgerdomain.GrantResult{}, err
	}
	metrics.RecordIdempotentReplay("grant")
	return ledgerdomain.GrantResult{
		EntryID:    existing.ID,
		NewBalance: balance,
		Idempotent: true,
	}, nil
}

func (s *Service) replayConsume(ctx context.Context, userID snowflake.ID, jobID string) (ledgerdomain.ConsumeResult, error) {
	existing, err := s.repo.FindByJobID(ctx, s.db, userID, jobID)
	if err != nil {
		return ledgerdomain.ConsumeResult{}, err
	}
	if existing == nil {
		return ledgerdomain.ConsumeResult{}, errUniqueConflict
	}
	balance, err := s.repo.SumUnexpired(ctx, s.db, userID, s.clock.Now())
	if err != nil {
		return ledgerdomain.ConsumeResult{}, err
	}
	metrics.RecordIdempotentReplay("consume")
	return ledgerdomain.ConsumeResult{
		RemainingBalance: balance,
		Consumed:         -existing.Delta,
		Idempotent:       true,
	}, nil
}

// withUserLock runs fn inside a transaction holding the per-user row lock,
// retrying transient store failures a bounded number of times.
func (s *Service) withUserLock(ctx context.Context, userID snowflake.ID, fn func(tx *gorm.DB) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			user, err := s.users.LockByID(ctx, tx, userID)
			if err != nil {
				return err
			}
			if user == nil {
				return ledgerdomain.ErrUserNotFound
			}
			return fn(tx)
		})
		if err == nil {
			return nil
		}
		if !db.IsRetryableErr(err) {
			return err
		}
		lastErr = err
		s.log.Warn("retrying transient store failure",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return lastErr
}

func (s *Service) logFailure(operation string, userID snowflake.ID, key string, err error) {
	metrics.RecordEngineError(operation)
	s.log.Error("credit operation failed",
		zap.String("operation", operation),
		zap.String("user_id", userID.String()),
		zap.String("idempotency_key", key),
		zap.Error(err),
	)
}

func grantKey(req ledgerdomain.GrantRequest) string {
	if req.ExtRef != nil {
		return *req.ExtRef
	}
	if req.JobID != nil {
		return *req.JobID
	}
	return ""
}
