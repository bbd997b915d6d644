package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"github.com/sitescope/sitescope/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  userdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  userdomain.Repository
}

func New(p ServiceParam) userdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("user.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (userdomain.User, error) {
	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return userdomain.User{}, err
	}
	if user == nil {
		return userdomain.User{}, userdomain.ErrUserNotFound
	}
	return *user, nil
}

func (s *Service) ResolveOrCreateByEmail(ctx context.Context, email string) (userdomain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return userdomain.User{}, userdomain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, email)
	if err != nil {
		return userdomain.User{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	user := userdomain.User{
		ID:    s.genID.Generate(),
		Email: email,
	}
	if err := s.repo.Insert(ctx, s.db, &user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			// Lost the insert race; the winner's row is authoritative.
			winner, findErr := s.repo.FindByEmail(ctx, s.db, email)
			if findErr != nil {
				return userdomain.User{}, findErr
			}
			if winner != nil {
				return *winner, nil
			}
		}
		return userdomain.User{}, err
	}

	s.log.Info("user created", zap.String("user_id", user.ID.String()))
	return user, nil
}
