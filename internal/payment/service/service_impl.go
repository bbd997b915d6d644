package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/sitescope/sitescope/internal/clock"
	"github.com/sitescope/sitescope/internal/config"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	"github.com/sitescope/sitescope/internal/metrics"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	"github.com/sitescope/sitescope/internal/payment/repository"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	pricing *config.PricingHolder
	repo    repository.Repository
	users   userdomain.Service
	ledger  ledgerdomain.Service
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	Pricing *config.PricingHolder
	Repo    repository.Repository
	Users   userdomain.Service
	Ledger  ledgerdomain.Service
}

func New(p ServiceParam) paymentdomain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("payment.service"),
		genID:   p.GenID,
		clock:   p.Clock,
		pricing: p.Pricing,
		repo:    p.Repo,
		users:   p.Users,
		ledger:  p.Ledger,
	}
}

// ProcessEvent grants purchased credits for one verified payment event.
// The audit transaction row and the ledger's ext_ref uniqueness are two
// independent idempotency keys: whichever survives a crash stops the
// double grant on redelivery.
func (s *Service) ProcessEvent(ctx context.Context, event paymentdomain.Event) (paymentdomain.Receipt, error) {
	eventID := strings.TrimSpace(event.EventID)
	if eventID == "" {
		return paymentdomain.Receipt{}, paymentdomain.ErrMissingEventID
	}

	existing, err := s.repo.FindByEventID(ctx, s.db, eventID)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}
	if existing != nil {
		balance, err := s.ledger.GetBalance(ctx, existing.UserID)
		if err != nil {
			return paymentdomain.Receipt{}, err
		}
		return paymentdomain.Receipt{
			UserID:         existing.UserID,
			CreditsGranted: existing.Credits,
			NewBalance:     balance,
			Idempotent:     true,
		}, paymentdomain.ErrEventAlreadyProcessed
	}

	credits, ok := s.pricing.LookupCredits(event.PriceID)
	if !ok {
		s.log.Warn("payment event with unmapped price",
			zap.String("event_id", eventID),
			zap.String("price_id", event.PriceID),
		)
		return paymentdomain.Receipt{}, paymentdomain.ErrUnknownPrice
	}

	user, err := s.users.ResolveOrCreateByEmail(ctx, event.Email)
	if err != nil {
		return paymentdomain.Receipt{}, err
	}

	grant, err := s.ledger.GrantPurchasedCredits(ctx, user.ID, credits, eventID)
	if err != nil {
		metrics.RecordEngineError("payment_event")
		s.log.Error("payment grant failed",
			zap.String("event_id", eventID),
			zap.String("user_id", user.ID.String()),
			zap.Error(err),
		)
		return paymentdomain.Receipt{}, err
	}

	txn := paymentdomain.Transaction{
		ID:         s.genID.Generate(),
		ExtEventID: eventID,
		UserID:     user.ID,
		PriceID:    event.PriceID,
		Credits:    credits,
		Amount:     event.Amount,
		Currency:   event.Currency,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &txn); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Concurrent delivery wrote the audit row first; the grant
			// above already replayed idempotently.
			return paymentdomain.Receipt{
				UserID:         user.ID,
				CreditsGranted: credits,
				NewBalance:     grant.NewBalance,
				Idempotent:     true,
			}, paymentdomain.ErrEventAlreadyProcessed
		}
		return paymentdomain.Receipt{}, err
	}

	s.log.Info("payment event processed",
		zap.String("event_id", eventID),
		zap.String("user_id", user.ID.String()),
		zap.Int64("credits", credits),
		zap.Bool("idempotent", grant.Idempotent),
	)

	return paymentdomain.Receipt{
		UserID:         user.ID,
		CreditsGranted: credits,
		NewBalance:     grant.NewBalance,
		Idempotent:     grant.Idempotent,
	}, nil
}
