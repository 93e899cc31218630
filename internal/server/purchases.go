package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	claimdomain "github.com/smallbiznis/zalci/internal/claim/domain"
	downloaddomain "github.com/smallbiznis/zalci/internal/download/domain"
	"github.com/smallbiznis/zalci/internal/observability/logger"
	"go.uber.org/zap"
)

const lockActionFreeClaim = "free-claim"

func (s *Server) GetEntitlement(c *gin.Context) {
	ctx := c.Request.Context()
	track, err := s.catalogSvc.Lookup(ctx, c.Param("trackId"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	owned, err := s.purchaseSvc.HasEntitlement(ctx, currentUserID(c), track.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"owned": owned})
}

func (s *Server) ListLibrary(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUserID(c)

	if err := s.creditSvc.EnsureWeeklyReset(ctx, userID); err != nil {
		AbortWithError(c, err)
		return
	}

	items, err := s.purchaseSvc.Library(ctx, userID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (s *Server) FreeClaim(c *gin.Context) {
	var req songRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, claimdomain.ErrMissingTrack)
		return
	}

	principal, ok := principalFrom(c)
	if !ok {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	songID := strings.TrimSpace(req.SongID)

	var result *claimdomain.ClaimResult
	err := s.withActionLock(c, lockActionFreeClaim, principal.UserID+":"+songID, func() error {
		var err error
		result, err = s.claimSvc.Claim(c.Request.Context(), claimdomain.ClaimRequest{
			UserID:  principal.UserID,
			Email:   principal.Email,
			TrackID: songID,
		})
		return err
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	if result.AlreadyOwned {
		c.JSON(http.StatusOK, gin.H{"message": "Already purchased"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Download redirects to a short-lived signed URL for a purchased track.
func (s *Server) Download(c *gin.Context) {
	link, err := s.downloadSvc.Link(c.Request.Context(), downloaddomain.LinkRequest{
		UserID:  currentUserID(c),
		TrackID: strings.TrimSpace(c.Query("songId")),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Debug("download link issued",
		zap.Time("expires_at", link.ExpiresAt),
	)
	c.Header("Cache-Control", "no-store")
	c.Redirect(http.StatusFound, link.URL)
}
