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
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	freescanrepo "github.com/sitescope/sitescope/internal/freescan/repository"
	freescanservice "github.com/sitescope/sitescope/internal/freescan/service"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	ledgerrepo "github.com/sitescope/sitescope/internal/ledger/repository"
	ledgerservice "github.com/sitescope/sitescope/internal/ledger/service"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	userrepo "github.com/sitescope/sitescope/internal/user/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingAnalyzer struct {
	jobs []string
}

func (a *recordingAnalyzer) Enqueue(ctx context.Context, jobID string, userID snowflake.ID, targetURL string) error {
	a.jobs = append(a.jobs, jobID)
	return nil
}

type scanFixture struct {
	svc      scandomain.Service
	ledger   ledgerdomain.Service
	db       *gorm.DB
	clock    *clock.FakeClock
	node     *snowflake.Node
	analyzer *recordingAnalyzer
}

func newScanFixture(t *testing.T) *scanFixture {
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
		&freescandomain.Usage{},
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
	freescanSvc := freescanservice.New(freescanservice.ServiceParam{
		DB:    conn,
		Log:   zap.NewNop(),
		Clock: fake,
		Repo:  freescanrepo.Provide(),
		Users: userrepo.Provide(),
	})
	analyzer := &recordingAnalyzer{}
	scanSvc := New(ServiceParam{
		Log:      zap.NewNop(),
		GenID:    node,
		Ledger:   ledgerSvc,
		Freescan: freescanSvc,
		Analyzer: analyzer,
	})

	return &scanFixture{svc: scanSvc, ledger: ledgerSvc, db: conn, clock: fake, node: node, analyzer: analyzer}
}

func (f *scanFixture) seedUser(t *testing.T) snowflake.ID {
	t.Helper()
	user := userdomain.User{ID: f.node.Generate(), Email: fmt.Sprintf("%s@example.com", t.Name())}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user.ID
}

func TestSubmitPrefersFreeScan(t *testing.T) {
	f := newScanFixture(t)
	userID := f.seedUser(t)
	ctx := context.Background()

	if _, err := f.ledger.GrantSignupCredits(ctx, userID); err != nil {
		t.Fatalf("grant: %v", err)
	}

	first, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://example.com"})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if !first.UsedFreeScan {
		t.Fatal("expected first submit to use the free scan")
	}
	if first.CreditsConsumed != 0 {
		t.Fatalf("free scan consumed %d credits", first.CreditsConsumed)
	}
	if first.RemainingBalance != ledgerdomain.SignupBonusCredits {
		t.Fatalf("free scan changed balance: %d", first.RemainingBalance)
	}

	second, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://example.org"})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if second.UsedFreeScan {
		t.Fatal("free scan must be spent")
	}
	if second.CreditsConsumed != ledgerdomain.ScanCreditCost {
		t.Fatalf("expected %d credit consumed, got %d", ledgerdomain.ScanCreditCost, second.CreditsConsumed)
	}
	if second.RemainingBalance != ledgerdomain.SignupBonusCredits-ledgerdomain.ScanCreditCost {
		t.Fatalf("unexpected balance %d", second.RemainingBalance)
	}

	if len(f.analyzer.jobs) != 2 {
		t.Fatalf("expected 2 enqueued jobs, got %d", len(f.analyzer.jobs))
	}
}

func TestSubmitRetryReplaysWithoutCharging(t *testing.T) {
	f := newScanFixture(t)
	userID := f.seedUser(t)
	ctx := context.Background()

	if _, err := f.ledger.GrantSignupCredits(ctx, userID); err != nil {
		t.Fatalf("grant: %v", err)
	}

	// Spend the free scan so the submission under test is paid.
	if _, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://warmup.example"}); err != nil {
		t.Fatalf("warmup submit: %v", err)
	}

	first, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://example.com"})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	enqueued := len(f.analyzer.jobs)

	retry, err := f.svc.Submit(ctx, scandomain.SubmitRequest{
		UserID:    userID,
		TargetURL: "https://example.com",
		JobID:     first.JobID,
	})
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if !retry.Idempotent {
		t.Fatal("expected retry to replay")
	}
	if retry.RemainingBalance != first.RemainingBalance {
		t.Fatalf("retry changed balance: %d vs %d", retry.RemainingBalance, first.RemainingBalance)
	}
	if len(f.analyzer.jobs) != enqueued {
		t.Fatal("retry re-enqueued the analysis")
	}
}

func TestSubmitInvalidTargetURL(t *testing.T) {
	f := newScanFixture(t)
	userID := f.seedUser(t)
	ctx := context.Background()

	for _, target := range []string{"", "   ", "ftp://example.com", "not a url", "https://"} {
		_, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: target})
		if !errors.Is(err, scandomain.ErrInvalidTargetURL) {
			t.Fatalf("target %q: expected ErrInvalidTargetURL, got %v", target, err)
		}
	}
}

func TestSubmitWithoutCreditsOrFreeScan(t *testing.T) {
	f := newScanFixture(t)
	userID := f.seedUser(t)
	ctx := context.Background()

	// No grants at all: the free scan covers the first submission.
	if _, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://example.com"}); err != nil {
		t.Fatalf("free submit: %v", err)
	}

	_, err := f.svc.Submit(ctx, scandomain.SubmitRequest{UserID: userID, TargetURL: "https://example.org"})
	if !ledgerdomain.IsInsufficientFunds(err) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}
