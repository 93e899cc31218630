package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	checkoutdomain "github.com/smallbiznis/zalci/internal/checkout/domain"
)

const lockActionCheckout = "checkout"

type songRequest struct {
	SongID string `json:"songId"`
}

func (s *Server) CreateCheckout(c *gin.Context) {
	var req songRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, checkoutdomain.ErrMissingTrack)
		return
	}

	userID := currentUserID(c)
	songID := strings.TrimSpace(req.SongID)

	var resp *checkoutdomain.SessionResponse
	err := s.withActionLock(c, lockActionCheckout, userID+":"+songID, func() error {
		var err error
		resp, err = s.checkoutSvc.CreateSession(c.Request.Context(), checkoutdomain.SessionRequest{
			UserID:  userID,
			TrackID: songID,
			Origin:  c.GetHeader("Origin"),
		})
		return err
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
