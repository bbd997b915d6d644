package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sitescope/sitescope/internal/clock"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	"github.com/sitescope/sitescope/internal/metrics"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	"github.com/sitescope/sitescope/internal/promo/repository"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxTxAttempts = 3

// promoRefNamespace seeds the deterministic grant ext ref. Derived from
// (promo code id, user id), a retried redemption request always produces
// the same ledger key and therefore cannot double-grant.
var promoRefNamespace = uuid.MustParse("7b0cbdda-b8e4-4c64-b30c-128b663cf2a3")

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	repo    repository.Repository
	users   userdomain.Repository
	ledger  ledgerdomain.Service
	subssvc subscriptiondomain.Service
}

type ServiceParam struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Clock  clock.Clock
	Repo   repository.Repository
	Users  userdomain.Repository
	Ledger ledgerdomain.Service
	Subs   subscriptiondomain.Service
}

func New(p ServiceParam) promodomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("promo.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		repo:    p.Repo,
		users:   p.Users,
		ledger:  p.Ledger,
		subssvc: p.Subs,
	}
}

func (s *Service) Create(ctx context.Context, req promodomain.CreatePromoCodeRequest) (promodomain.PromoCode, error) {
	code := normalizeCode(req.Code)
	if code == "" {
		return promodomain.PromoCode{}, promodomain.ErrInvalidCode
	}
	if req.MaxUses <= 0 {
		return promodomain.PromoCode{}, fmt.Errorf("max uses must be positive")
	}
	if req.CreditAmount < 0 {
		return promodomain.PromoCode{}, ledgerdomain.ErrInvalidAmount
	}

	promo := promodomain.PromoCode{
		ID:               s.genID.Generate(),
		Code:             code,
		CreditAmount:     req.CreditAmount,
		SubscriptionType: strings.TrimSpace(req.SubscriptionType),
		SubscriptionDays: req.SubscriptionDays,
		MaxUses:          req.MaxUses,
		ExpiresAt:        req.ExpiresAt,
		IsActive:         true,
		CreatedAt:        s.clock.Now(),
	}
	if err := s.repo.InsertCode(ctx, s.db, &promo); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return promodomain.PromoCode{}, promodomain.ErrCodeExists
		}
		return promodomain.PromoCode{}, err
	}
	return promo, nil
}

func (s *Service) Redeem(ctx context.Context, userID snowflake.ID, code string) (promodomain.RedeemResult, error) {
	code = normalizeCode(code)
	if code == "" {
		return promodomain.RedeemResult{}, promodomain.ErrInvalidCode
	}

	var result promodomain.RedeemResult
	var lastErr error
	for attempt := 1; attempt <= maxTxAttempts; attempt++ {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			res, err := s.redeemInTx(ctx, tx, userID, code)
			if err != nil {
				return err
			}
			result = res
			return nil
		})
		if err == nil {
			metrics.RecordPromoRedemption()
			s.log.Info("promo code redeemed",
				zap.String("user_id", userID.String()),
				zap.String("code", code),
				zap.Int64("credits", result.CreditsGranted),
			)
			return result, nil
		}
		if db.IsDuplicateKeyErr(err) {
			// A concurrent duplicate attempt won the redemption insert.
			return promodomain.RedeemResult{}, promodomain.ErrAlreadyRedeemed
		}
		if !db.IsRetryableErr(err) {
			if !isPromoBusinessErr(err) {
				metrics.RecordEngineError("promo_redeem")
				s.log.Error("promo redemption failed",
					zap.String("user_id", userID.String()),
					zap.String("code", code),
					zap.Error(err),
				)
			}
			return promodomain.RedeemResult{}, err
		}
		lastErr = err
		s.log.Warn("retrying transient store failure",
			zap.String("user_id", userID.String()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
	return promodomain.RedeemResult{}, lastErr
}

// redeemInTx performs the whole redemption under the fixed lock order:
// user row first, promo row second.
func (s *Service) redeemInTx(ctx context.Context, tx *gorm.DB, userID snowflake.ID, code string) (promodomain.RedeemResult, error) {
	user, err := s.users.LockByID(ctx, tx, userID)
	if err != nil {
		return promodomain.RedeemResult{}, err
	}
	if user == nil {
		return promodomain.RedeemResult{}, ledgerdomain.ErrUserNotFound
	}

	promo, err := s.repo.FindByCodeForUpdate(ctx, tx, code)
	if err != nil {
		return promodomain.RedeemResult{}, err
	}
	if promo == nil {
		return promodomain.RedeemResult{}, promodomain.ErrPromoNotFound
	}
	if !promo.IsActive {
		return promodomain.RedeemResult{}, promodomain.ErrPromoInactive
	}
	now := s.clock.Now()
	if promo.ExpiresAt != nil && !promo.ExpiresAt.After(now) {
		return promodomain.RedeemResult{}, promodomain.ErrPromoExpired
	}
	if promo.CurrentUses >= promo.MaxUses {
		return promodomain.RedeemResult{}, promodomain.ErrPromoExhausted
	}

	// Defense in depth on top of the unique (user_id, promo_code_id) pair.
	redeemed, err := s.repo.HasRedemption(ctx, tx, userID, promo.ID)
	if err != nil {
		return promodomain.RedeemResult{}, err
	}
	if redeemed {
		return promodomain.RedeemResult{}, promodomain.ErrAlreadyRedeemed
	}

	result := promodomain.RedeemResult{}
	extRef := redemptionRef(promo.ID, userID)

	if promo.CreditAmount > 0 {
		expiresAt := now.Add(promodomain.PromoExpiryTTL)
		grant, err := s.ledger.GrantInTx(ctx, tx, ledgerdomain.GrantRequest{
			UserID:    userID,
			Amount:    promo.CreditAmount,
			Reason:    ledgerdomain.ReasonPromo,
			ExtRef:    &extRef,
			ExpiresAt: &expiresAt,
		})
		if err != nil {
			return promodomain.RedeemResult{}, err
		}
		result.CreditsGranted = promo.CreditAmount
		result.NewBalance = grant.NewBalance
	} else {
		balance, err := s.ledger.GetBalance(ctx, userID)
		if err != nil {
			return promodomain.RedeemResult{}, err
		}
		result.NewBalance = balance
	}

	if promo.SubscriptionType != "" && promo.SubscriptionDays > 0 {
		endAt := now.Add(time.Duration(promo.SubscriptionDays) * 24 * time.Hour)
		if err := s.subssvc.UpdateUserSubscription(ctx, tx, userID, promo.SubscriptionType, endAt, extRef); err != nil {
			return promodomain.RedeemResult{}, err
		}
		result.SubscriptionGranted = true
		result.SubscriptionDays = promo.SubscriptionDays
	}

	redemption := promodomain.PromoRedemption{
		ID:          s.genID.Generate(),
		UserID:      userID,
		PromoCodeID: promo.ID,
		CreatedAt:   now,
	}
	if err := s.repo.InsertRedemption(ctx, tx, &redemption); err != nil {
		return promodomain.RedeemResult{}, err
	}

	bumped, err := s.repo.IncrementUses(ctx, tx, promo.ID)
	if err != nil {
		return promodomain.RedeemResult{}, err
	}
	if !bumped {
		return promodomain.RedeemResult{}, promodomain.ErrPromoExhausted
	}

	return result, nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// redemptionRef derives the grant's global idempotency key from the promo
// and user identities, so retries map onto one ledger entry.
func redemptionRef(promoID, userID snowflake.ID) string {
	seed := fmt.Sprintf("%s:%s", promoID, userID)
	return "promo:" + uuid.NewSHA1(promoRefNamespace, []byte(seed)).String()
}

func isPromoBusinessErr(err error) bool {
	return errors.Is(err, promodomain.ErrPromoNotFound) ||
		errors.Is(err, promodomain.ErrPromoInactive) ||
		errors.Is(err, promodomain.ErrPromoExpired) ||
		errors.Is(err, promodomain.ErrPromoExhausted) ||
		errors.Is(err, promodomain.ErrAlreadyRedeemed)
}
