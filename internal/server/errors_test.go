package server

import (
	"errors"
	"net/http"
	"testing"

	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
)

func TestMapError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"invalid amount", ledgerdomain.ErrInvalidAmount, http.StatusBadRequest, "validation_error"},
		{"missing job id", ledgerdomain.ErrJobIDRequired, http.StatusBadRequest, "validation_error"},
		{"bad target url", scandomain.ErrInvalidTargetURL, http.StatusBadRequest, "validation_error"},
		{"bad email", userdomain.ErrInvalidEmail, http.StatusBadRequest, "validation_error"},
		{"unknown price", paymentdomain.ErrUnknownPrice, http.StatusBadRequest, "validation_error"},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{"user missing", userdomain.ErrUserNotFound, http.StatusNotFound, "not_found"},
		{"promo missing", promodomain.ErrPromoNotFound, http.StatusNotFound, "not_found"},
		{"already redeemed", promodomain.ErrAlreadyRedeemed, http.StatusConflict, "conflict"},
		{"promo exhausted", promodomain.ErrPromoExhausted, http.StatusConflict, "conflict"},
		{"free scan spent", freescandomain.ErrFreeScanUnavailable, http.StatusConflict, "conflict"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, payload := mapError(tc.err)
		if status != tc.wantStatus {
			t.Fatalf("%s: expected status %d, got %d", tc.name, tc.wantStatus, status)
		}
		if payload.Type != tc.wantType {
			t.Fatalf("%s: expected type %q, got %q", tc.name, tc.wantType, payload.Type)
		}
	}
}

func TestMapErrorInsufficientFunds(t *testing.T) {
	status, payload := mapError(&ledgerdomain.InsufficientFundsError{Required: 1, Available: 0})
	if status != http.StatusPaymentRequired {
		t.Fatalf("expected 402, got %d", status)
	}
	if payload.Type != "insufficient_credits" {
		t.Fatalf("expected insufficient_credits, got %q", payload.Type)
	}
	if payload.Required != 1 || payload.Available != 0 {
		t.Fatalf("expected required/available in payload, got %+v", payload)
	}
}
