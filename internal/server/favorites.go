package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	favoritedomain "github.com/smallbiznis/zalci/internal/favorite/domain"
)

func (s *Server) ListFavorites(c *gin.Context) {
	items, err := s.favoriteSvc.List(c.Request.Context(), currentUserID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (s *Server) AddFavorite(c *gin.Context) {
	var req songRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, favoritedomain.ErrMissingTrack)
		return
	}

	added, err := s.favoriteSvc.Add(c.Request.Context(), currentUserID(c), strings.TrimSpace(req.SongID))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if !added {
		c.JSON(http.StatusOK, gin.H{"message": "Already in favorites"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) RemoveFavorite(c *gin.Context) {
	songID := strings.TrimSpace(c.Query("songId"))
	if err := s.favoriteSvc.Remove(c.Request.Context(), currentUserID(c), songID); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
