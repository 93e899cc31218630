package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	contactdomain "github.com/smallbiznis/zalci/internal/contact/domain"
)

func (s *Server) SubmitContact(c *gin.Context) {
	var req contactdomain.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, contactdomain.ErrMissingFields)
		return
	}

	if _, err := s.contactSvc.Submit(c.Request.Context(), req); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
