package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
)

type userStatsRequest struct {
	Action string `json:"action"`
}

func (s *Server) GetUserStats(c *gin.Context) {
	stats, err := s.creditSvc.Stats(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) UpdateUserStats(c *gin.Context) {
	var req userStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, creditdomain.ErrInvalidAction)
		return
	}
	if strings.TrimSpace(req.Action) != creditdomain.ActionIncrementDownload {
		AbortWithError(c, creditdomain.ErrInvalidAction)
		return
	}

	stats, err := s.creditSvc.IncrementDownload(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (s *Server) ClaimShareBonus(c *gin.Context) {
	creditsLeft, err := s.creditSvc.ClaimShareBonus(c.Request.Context(), currentUserID(c))
	if err != nil {
		if errors.Is(err, creditdomain.ErrAlreadyClaimed) {
			c.JSON(http.StatusConflict, gin.H{
				"error":          "Already claimed this week",
				"alreadyClaimed": true,
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "creditsLeft": creditsLeft})
}
