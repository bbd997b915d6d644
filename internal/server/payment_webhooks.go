package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/sitescope/sitescope/internal/payment/domain"
)

// HandlePaymentWebhook ingests a payment event the provider already
// signed and we already verified at the edge. Duplicate deliveries get a
// success response so the provider stops retrying.
func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	var event paymentdomain.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	receipt, err := s.paymentSvc.ProcessEvent(c.Request.Context(), event)
	if err != nil {
		if errors.Is(err, paymentdomain.ErrEventAlreadyProcessed) {
			c.JSON(http.StatusOK, receipt)
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}
