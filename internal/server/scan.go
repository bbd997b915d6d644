package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	scandomain "github.com/sitescope/sitescope/internal/scan/domain"
	"go.uber.org/zap"
)

type submitScanRequest struct {
	TargetURL string `json:"target_url"`
	// JobID is only set on client retries of a submission that may have
	// already gone through.
	JobID string `json:"job_id,omitempty"`
}

func (s *Server) HandleSubmitScan(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	var req submitScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	limit, err := s.scanLimiter.Allow(c.Request.Context(), userID.String())
	if err != nil {
		// Rate limiting is advisory; a broken redis must not take scan
		// submission down with it.
		s.log.Warn("scan rate limit check failed", zap.Error(err))
	} else if !limit.Allowed {
		c.JSON(http.StatusTooManyRequests, errorResponse{Error: errorPayload{
			Type:    "rate_limited",
			Message: "too many scan submissions",
		}})
		return
	}

	receipt, err := s.scanSvc.Submit(c.Request.Context(), scandomain.SubmitRequest{
		UserID:    userID,
		TargetURL: req.TargetURL,
		JobID:     req.JobID,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, receipt)
}

func (s *Server) HandleFreeScanStatus(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	available, err := s.freescanSvc.CanUse(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}
