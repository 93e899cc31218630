package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	"github.com/smallbiznis/zalci/internal/observability/logger"
	"go.uber.org/zap"
)

func (s *Server) ListSongs(c *gin.Context) {
	var query catalogdomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	items, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Query: strings.TrimSpace(query.Query),
		Sort:  strings.TrimSpace(query.Sort),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, items)
}

func (s *Server) GetSong(c *gin.Context) {
	item, err := s.catalogSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, item)
}

func (s *Server) CreateSong(c *gin.Context) {
	var req catalogdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, catalogdomain.ErrMissingFields)
		return
	}

	song, err := s.catalogSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("song created",
		zap.String("song_id", song.ID),
		zap.String("actor_id", currentUserID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"success": true, "song": song})
}

func (s *Server) DeleteSong(c *gin.Context) {
	if err := s.catalogSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		AbortWithError(c, err)
		return
	}

	logger.FromContext(c.Request.Context()).Info("song deleted",
		zap.String("song_id", c.Param("id")),
		zap.String("actor_id", currentUserID(c)),
	)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// TempWipe clears every purchase and track. Registered outside production only.
func (s *Server) TempWipe(c *gin.Context) {
	if err := s.catalogSvc.Wipe(c.Request.Context()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Library and purchases wiped successfully",
	})
}
