package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	ledgerdomain "github.com/sitescope/sitescope/internal/ledger/domain"
)

func (s *Server) HandleGetBalance(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	details, err := s.ledgerSvc.GetBalanceDetails(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) HandleListEntries(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := s.ledgerSvc.ListEntries(c.Request.Context(), userID, ledgerdomain.ListEntriesRequest{
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) HandleGetSubscription(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	sub, err := s.subSvc.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sub == nil {
		c.JSON(http.StatusOK, gin.H{"subscription": nil})
		return
	}

	c.JSON(http.StatusOK, gin.H{"subscription": sub})
}
