package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	freescandomain "github.com/sitescope/sitescope/internal/freescan/domain"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	userdomain "github.com/sitescope/sitescope/internal/user/domain"
	"gorm.io/gorm"
)

type errorPayload struct {
	Type      string `json:"type"`
	Message   string `json:"message"`
	Required  int64  `json:"required,omitempty"`
	Available int64  `json:"available,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInvalidRequest = errors.New("invalid_request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInternal       = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var insufficient *ledgerdomain.InsufficientFundsError
	if errors.As(err, &insufficient) {
		return http.StatusPaymentRequired, errorPayload{
			Type:      "insufficient_credits",
			Message:   insufficient.Error(),
			Required:  insufficient.Required,
			Available: insufficient.Available,
		}
	}

	switch {
	case isValidationError(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, ledgerdomain.ErrInvalidAmount),
		errors.Is(err, ledgerdomain.ErrJobIDRequired),
		errors.Is(err, scandomain.ErrInvalidTargetURL),
		errors.Is(err, userdomain.ErrInvalidEmail),
		errors.Is(err, promodomain.ErrInvalidCode),
		errors.Is(err, paymentdomain.ErrMissingEventID),
		errors.Is(err, paymentdomain.ErrUnknownPrice):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, userdomain.ErrUserNotFound),
		errors.Is(err, ledgerdomain.ErrUserNotFound),
		errors.Is(err, promodomain.ErrPromoNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, promodomain.ErrCodeExists),
		errors.Is(err, promodomain.ErrAlreadyRedeemed),
		errors.Is(err, promodomain.ErrPromoInactive),
		errors.Is(err, promodomain.ErrPromoExpired),
		errors.Is(err, promodomain.ErrPromoExhausted),
		errors.Is(err, freescandomain.ErrFreeScanUnavailable):
		return true
	default:
		return false
	}
}
