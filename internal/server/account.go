package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) DeleteAccount(c *gin.Context) {
	if err := s.accountSvc.DeleteAccount(c.Request.Context(), currentUserID(c)); err != nil {
		AbortWithError(c, err)
		return
	}

	s.sessions.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}
