package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	promodomain "github.com/sitescope/sitescope/internal/promo/domain"
)

type redeemPromoRequest struct {
	Code string `json:"code"`
}

func (s *Server) HandleRedeemPromo(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	var req redeemPromoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	result, err := s.promoSvc.Redeem(c.Request.Context(), userID, req.Code)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) HandleCreatePromoCode(c *gin.Context) {
	var req promodomain.CreatePromoCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	code, err := s.promoSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, code)
}
