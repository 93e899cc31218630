package server

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
)

// maxWebhookBody caps the raw payload read before signature verification.
const maxWebhookBody = 1 << 20

func (s *Server) HandleStripeWebhook(c *gin.Context) {
	s.ingestWebhook(c, paymentdomain.ProviderStripe)
}

func (s *Server) HandlePaymentWebhook(c *gin.Context) {
	s.ingestWebhook(c, strings.TrimSpace(c.Param("provider")))
}

func (s *Server) ingestWebhook(c *gin.Context, provider string) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		AbortWithError(c, paymentdomain.ErrInvalidPayload)
		return
	}

	result, err := s.paymentSvc.IngestWebhook(c.Request.Context(), provider, payload, c.Request.Header)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
