package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/sitescope/sitescope/internal/clock"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	"github.com/sitescope/sitescope/internal/subscription/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  repository.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  repository.Repository
}

func New(p ServiceParam) subscriptiondomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("subscription.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) UpdateUserSubscription(ctx context.Context, tx *gorm.DB, userID snowflake.ID, subType string, endAt time.Time, ref string) error {
	now := s.clock.Now()
	sub := subscriptiondomain.UserSubscription{
		ID:        s.genID.Generate(),
		UserID:    userID,
		Type:      subType,
		StartAt:   now,
		EndAt:     endAt,
		Ref:       ref,
		UpdatedAt: now,
	}
	if err := s.repo.Upsert(ctx, tx, &sub); err != nil {
		return err
	}

	s.log.Info("subscription entitlement updated",
		zap.String("user_id", userID.String()),
		zap.String("type", subType),
		zap.Time("end_at", endAt),
	)
	return nil
}

func (s *Service) GetByUserID(ctx context.Context, userID snowflake.ID) (*subscriptiondomain.UserSubscription, error) {
	return s.repo.FindByUserID(ctx, s.db, userID)
}
