package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type signupBonusRequest struct {
	Email string `json:"email"`
}

// HandleSignupBonus resolves the account for email and grants the
// one-time welcome credits. Replays return the original grant.
func (s *Server) HandleSignupBonus(c *gin.Context) {
	var req signupBonusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	usr, err := s.userSvc.ResolveOrCreateByEmail(c.Request.Context(), req.Email)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	grant, err := s.ledgerSvc.GrantSignupCredits(c.Request.Context(), usr.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  usr,
		"grant": grant,
	})
}
