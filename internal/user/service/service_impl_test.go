package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	userrepo "github.com/sitescope/sitescope/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (userdomain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := conn.AutoMigrate(&userdomain.User{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}

	svc := New(ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  userrepo.Provide(),
	})
	return svc, conn, node
}

func TestResolveOrCreateByEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.ResolveOrCreateByEmail(ctx, "  New.User@Example.COM ")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Email != "new.user@example.com" {
		t.Fatalf("expected normalized email, got %q", created.Email)
	}

	resolved, err := svc.ResolveOrCreateByEmail(ctx, "new.user@example.com")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.ID != created.ID {
		t.Fatalf("resolve created a second account: %s vs %s", resolved.ID, created.ID)
	}
}

func TestResolveOrCreateRejectsInvalidEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	for _, email := range []string{"", "   ", "not-an-email"} {
		_, err := svc.ResolveOrCreateByEmail(ctx, email)
		if !errors.Is(err, userdomain.ErrInvalidEmail) {
			t.Fatalf("email %q: expected ErrInvalidEmail, got %v", email, err)
		}
	}
}

func TestGetByID(t *testing.T) {
	svc, conn, node := newTestService(t)
	ctx := context.Background()

	user := userdomain.User{ID: node.Generate(), Email: "known@example.com"}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	got, err := svc.GetByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != user.Email {
		t.Fatalf("expected %q, got %q", user.Email, got.Email)
	}

	_, err = svc.GetByID(ctx, node.Generate())
	if !errors.Is(err, userdomain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
