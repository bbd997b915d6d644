package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/sitescope/sitescope/internal/clock"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	"github.com/sitescope/sitescope/internal/freescan/repository"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  repository.Repository
	users userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  repository.Repository
	Users userdomain.Repository
}

func New(p ServiceParam) freescandomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("freescan.service"),
		clock: p.Clock,
		repo:  p.Repo,
		users: p.Users,
	}
}

func (s *Service) CanUse(ctx context.Context, userID snowflake.ID) (bool, error) {
	usage, err := s.repo.Find(ctx, s.db, userID)
	if err != nil {
		return false, err
	}
	if usage == nil {
		return true, nil
	}
	return s.clock.Now().Sub(usage.LastFreeScanAt) >= freescandomain.Window, nil
}

func (s *Service) Use(ctx context.Context, userID snowflake.ID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.users.LockByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return ledgerdomain.ErrUserNotFound
		}

		now := s.clock.Now()
		usage, err := s.repo.Find(ctx, tx, userID)
		if err != nil {
			return err
		}
		if usage != nil && now.Sub(usage.LastFreeScanAt) < freescandomain.Window {
			return freescandomain.ErrFreeScanUnavailable
		}

		if err := s.repo.Upsert(ctx, tx, userID, now); err != nil {
			return err
		}

		s.log.Info("monthly free scan used", zap.String("user_id", userID.String()))
		return nil
	})
}
