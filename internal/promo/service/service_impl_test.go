package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/sitescope/sitescope/internal/clock"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	ledgerrepo "github.com/sitescope/sitescope/internal/ledger/repository"
	ledgerservice "github.com/sitescope/sitescope/internal/ledger/service"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	promorepo "github.com/sitescope/sitescope/internal/promo/repository"
	subscriptiondomain "github.com/sitescope/sitescope/internal/subscription/domain"
	subscriptionrepo "github.com/sitescope/sitescope/internal/subscription/repository"
	subscriptionservice "github.com/sitescope/sitescope/internal/subscription/service"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	userrepo "github.com/sitescope/sitescope/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type promoFixture struct {
	svc    promodomain.Service
	ledger ledgerdomain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
	node   *snowflake.Node
}

func newPromoFixture(t *testing.T) *promoFixture {
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

	if err := conn.AutoMigrate(
		&userdomain.User{},
		&ledgerdomain.CreditEntry{},
		&promodomain.PromoCode{},
		&promodomain.PromoRedemption{},
		&subscriptiondomain.UserSubscription{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	ledgerSvc := ledgerservice.New(ledgerservice.ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  ledgerrepo.Provide(),
		Users: userrepo.Provide(),
	})
	subSvc := subscriptionservice.New(subscriptionservice.ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fake,
		Repo:  subscriptionrepo.Provide(),
	})
	promoSvc := New(ServiceParam{
		DB:     conn,
		Log:    zap.NewNop(),
		GenID:  node,
		Clock:  fake,
		Repo:   promorepo.Provide(),
		Users:  userrepo.Provide(),
		Ledger: ledgerSvc,
		Subs:   subSvc,
	})

	return &promoFixture{svc: promoSvc, ledger: ledgerSvc, db: conn, clock: fake, node: node}
}

func (f *promoFixture) seedUser(t *testing.T, email string) snowflake.ID {
	t.Helper()
	user := userdomain.User{ID: f.node.Generate(), Email: email}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func (f *promoFixture) seedPromo(t *testing.T, promo promodomain.PromoCode) promodomain.PromoCode {
	t.Helper()
	if promo.ID == 0 {
		promo.ID = f.node.Generate()
	}
	if promo.CreatedAt.IsZero() {
		promo.CreatedAt = f.clock.Now()
	}
	// The gorm default:true tag on IsActive drops a zero-valued false from
	// the INSERT (and Create writes the default back into the struct), so
	// capture the requested value and persist it explicitly.
	active := promo.IsActive
	if err := f.db.Create(&promo).Error; err != nil {
		t.Fatalf("seed promo: %v", err)
	}
	if err := f.db.Exec(
		"UPDATE promo_codes SET is_active = ? WHERE id = ?", active, promo.ID,
	).Error; err != nil {
		t.Fatalf("seed promo active flag: %v", err)
	}
	promo.IsActive = active
	return promo
}

func TestRedeemGrantsCreditsAndSubscription(t *testing.T) {
	f := newPromoFixture(t)
	userID := f.seedUser(t, "redeemer@example.com")
	f.seedPromo(t, promodomain.PromoCode{
		Code:             "LAUNCH50",
		CreditAmount:     50,
		SubscriptionType: "pro",
		SubscriptionDays: 14,
		MaxUses:          100,
		IsActive:         true,
	})
	ctx := context.Background()

	result, err := f.svc.Redeem(ctx, userID, "launch50")
	if err != nil {
		t.Fatalf("redeem: %v", err)
	}
	if result.CreditsGranted != 50 {
		t.Fatalf("expected 50 credits, got %d", result.CreditsGranted)
	}
	if result.NewBalance != 50 {
		t.Fatalf("expected balance 50, got %d", result.NewBalance)
	}
	if !result.SubscriptionGranted || result.SubscriptionDays != 14 {
		t.Fatalf("expected 14-day subscription, got %+v", result)
	}

	var sub subscriptiondomain.UserSubscription
	if err := f.db.Where("user_id = ?", userID).First(&sub).Error; err != nil {
		t.Fatalf("load subscription: %v", err)
	}
	if sub.Type != "pro" {
		t.Fatalf("expected pro subscription, got %q", sub.Type)
	}
	wantEnd := f.clock.Now().Add(14 * 24 * time.Hour)
	if !sub.EndAt.Equal(wantEnd) {
		t.Fatalf("expected end %v, got %v", wantEnd, sub.EndAt)
	}

	var promo promodomain.PromoCode
	if err := f.db.Where("code = ?", "LAUNCH50").First(&promo).Error; err != nil {
		t.Fatalf("load promo: %v", err)
	}
	if promo.CurrentUses != 1 {
		t.Fatalf("expected 1 use, got %d", promo.CurrentUses)
	}
}

func TestRedeemTwiceReturnsAlreadyRedeemed(t *testing.T) {
	f := newPromoFixture(t)
	userID := f.seedUser(t, "twice@example.com")
	f.seedPromo(t, promodomain.PromoCode{
		Code:         "ONCE",
		CreditAmount: 10,
		MaxUses:      100,
		IsActive:     true,
	})
	ctx := context.Background()

	if _, err := f.svc.Redeem(ctx, userID, "ONCE"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	_, err := f.svc.Redeem(ctx, userID, "ONCE")
	if !errors.Is(err, promodomain.ErrAlreadyRedeemed) {
		t.Fatalf("expected ErrAlreadyRedeemed, got %v", err)
	}

	balance, err := f.ledger.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 10 {
		t.Fatalf("second attempt changed balance: %d", balance)
	}
}

func TestRedeemExhaustedCode(t *testing.T) {
	f := newPromoFixture(t)
	first := f.seedUser(t, "first@example.com")
	second := f.seedUser(t, "second@example.com")
	f.seedPromo(t, promodomain.PromoCode{
		Code:         "SCARCE",
		CreditAmount: 5,
		MaxUses:      1,
		IsActive:     true,
	})
	ctx := context.Background()

	if _, err := f.svc.Redeem(ctx, first, "SCARCE"); err != nil {
		t.Fatalf("first redeem: %v", err)
	}
	_, err := f.svc.Redeem(ctx, second, "SCARCE")
	if !errors.Is(err, promodomain.ErrPromoExhausted) {
		t.Fatalf("expected ErrPromoExhausted, got %v", err)
	}

	balance, err := f.ledger.GetBalance(ctx, second)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("exhausted redemption granted credits: %d", balance)
	}
}

func TestRedeemValidationOrder(t *testing.T) {
	f := newPromoFixture(t)
	userID := f.seedUser(t, "order@example.com")
	ctx := context.Background()
	expired := f.clock.Now().Add(-time.Hour)

	// Inactive wins over expired when both apply.
	f.seedPromo(t, promodomain.PromoCode{
		Code:         "DISABLED",
		CreditAmount: 5,
		MaxUses:      10,
		IsActive:     false,
		ExpiresAt:    &expired,
	})
	_, err := f.svc.Redeem(ctx, userID, "DISABLED")
	if !errors.Is(err, promodomain.ErrPromoInactive) {
		t.Fatalf("expected ErrPromoInactive, got %v", err)
	}

	f.seedPromo(t, promodomain.PromoCode{
		Code:         "STALE",
		CreditAmount: 5,
		MaxUses:      10,
		IsActive:     true,
		ExpiresAt:    &expired,
	})
	_, err = f.svc.Redeem(ctx, userID, "STALE")
	if !errors.Is(err, promodomain.ErrPromoExpired) {
		t.Fatalf("expected ErrPromoExpired, got %v", err)
	}

	_, err = f.svc.Redeem(ctx, userID, "MISSING")
	if !errors.Is(err, promodomain.ErrPromoNotFound) {
		t.Fatalf("expected ErrPromoNotFound, got %v", err)
	}

	_, err = f.svc.Redeem(ctx, userID, "   ")
	if !errors.Is(err, promodomain.ErrInvalidCode) {
		t.Fatalf("expected ErrInvalidCode, got %v", err)
	}
}

func TestRedeemedCreditsExpireAfterYear(t *testing.T) {
	f := newPromoFixture(t)
	userID := f.seedUser(t, "expiry@example.com")
	f.seedPromo(t, promodomain.PromoCode{
		Code:         "YEARLY",
		CreditAmount: 20,
		MaxUses:      10,
		IsActive:     true,
	})
	ctx := context.Background()

	if _, err := f.svc.Redeem(ctx, userID, "YEARLY"); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	f.clock.Advance(promodomain.PromoExpiryTTL + time.Hour)

	balance, err := f.ledger.GetBalance(ctx, userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if balance != 0 {
		t.Fatalf("expected promo credits to expire, balance %d", balance)
	}
}

func TestRedemptionRefDeterministic(t *testing.T) {
	f := newPromoFixture(t)
	promoID := f.node.Generate()
	userA := f.node.Generate()
	userB := f.node.Generate()

	if redemptionRef(promoID, userA) != redemptionRef(promoID, userA) {
		t.Fatal("ref must be stable for the same promo and user")
	}
	if redemptionRef(promoID, userA) == redemptionRef(promoID, userB) {
		t.Fatal("ref must differ across users")
	}
}

func TestCreateNormalizesAndRejectsDuplicates(t *testing.T) {
	f := newPromoFixture(t)
	ctx := context.Background()

	promo, err := f.svc.Create(ctx, promodomain.CreatePromoCodeRequest{
		Code:         "  welcome10  ",
		CreditAmount: 10,
		MaxUses:      5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if promo.Code != "WELCOME10" {
		t.Fatalf("expected normalized code, got %q", promo.Code)
	}
	if !promo.IsActive {
		t.Fatal("new codes must start active")
	}

	_, err = f.svc.Create(ctx, promodomain.CreatePromoCodeRequest{
		Code:         "WELCOME10",
		CreditAmount: 10,
		MaxUses:      5,
	})
	if !errors.Is(err, promodomain.ErrCodeExists) {
		t.Fatalf("expected ErrCodeExists, got %v", err)
	}

	_, err = f.svc.Create(ctx, promodomain.CreatePromoCodeRequest{Code: "NOUSES", CreditAmount: 1, MaxUses: 0})
	if err == nil {
		t.Fatal("expected max uses validation error")
	}
}
