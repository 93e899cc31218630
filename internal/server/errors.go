package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	accountdomain "github.com/smallbiznis/zalci/internal/account/domain"
	authdomain "github.com/smallbiznis/zalci/internal/auth/domain"
	"github.com/smallbiznis/zalci/internal/authorization"
	catalogdomain "github.com/smallbiznis/zalci/internal/catalog/domain"
	checkoutdomain "github.com/smallbiznis/zalci/internal/checkout/domain"
	claimdomain "github.com/smallbiznis/zalci/internal/claim/domain"
	contactdomain "github.com/smallbiznis/zalci/internal/contact/domain"
	creditdomain "github.com/smallbiznis/zalci/internal/credit/domain"
	downloaddomain "github.com/smallbiznis/zalci/internal/download/domain"
	favoritedomain "github.com/smallbiznis/zalci/internal/favorite/domain"
	paymentdomain "github.com/smallbiznis/zalci/internal/payment/domain"
	"github.com/smallbiznis/zalci/internal/providers/identity"
	"github.com/smallbiznis/zalci/internal/providers/storage"
	purchasedomain "github.com/smallbiznis/zalci/internal/purchase/domain"
	"gorm.io/gorm"
)

const (
	errorTypeUnauthenticated   = "unauthenticated"
	errorTypeForbidden         = "forbidden"
	errorTypeValidation        = "validation_error"
	errorTypeNotFound          = "not_found"
	errorTypeConflict          = "conflict"
	errorTypeResourceExhausted = "resource_exhausted"
	errorTypeRateLimited       = "rate_limited"
	errorTypeConfiguration     = "configuration_error"
	errorTypeUpstream          = "upstream_failure"
	errorTypeUnavailable       = "service_unavailable"
	errorTypeInternal          = "internal_error"
)

type errorPayload struct {
	Status  int
	Type    string
	Message string
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrInProgress         = errors.New("request_in_progress")
	ErrServiceUnavailable = errors.New("service_unavailable")
	ErrInternal           = errors.New("internal_error")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(payload.Status, errorResponse{Error: payload.Message, Type: payload.Type})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// classifyErrorForLog feeds the request logger's error_type and error_code fields.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	return mapError(err).Type, err.Error()
}

func mapError(err error) errorPayload {
	switch {
	case err == nil:
		return errorPayload{http.StatusInternalServerError, errorTypeInternal, "Internal server error"}

	case isUnauthenticated(err):
		return errorPayload{http.StatusUnauthorized, errorTypeUnauthenticated, "Unauthorized"}

	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, authorization.ErrInvalidActor):
		return errorPayload{http.StatusForbidden, errorTypeForbidden, "Forbidden"}
	case errors.Is(err, catalogdomain.ErrWipeForbidden):
		return errorPayload{http.StatusForbidden, errorTypeForbidden, "Wipe is disabled in production"}
	case errors.Is(err, downloaddomain.ErrNotPurchased):
		return errorPayload{http.StatusForbidden, errorTypeForbidden, "You have not purchased this song"}

	case errors.Is(err, claimdomain.ErrNoCredits),
		errors.Is(err, creditdomain.ErrNoCredits):
		return errorPayload{http.StatusForbidden, errorTypeResourceExhausted, "No weekly credits left"}

	case isValidation(err):
		return errorPayload{http.StatusBadRequest, errorTypeValidation, validationMessage(err)}

	case errors.Is(err, paymentdomain.ErrMissingSignature):
		return errorPayload{http.StatusBadRequest, errorTypeValidation, "No signature"}
	case errors.Is(err, paymentdomain.ErrInvalidSignature):
		return errorPayload{http.StatusBadRequest, errorTypeValidation, "Invalid signature"}
	case errors.Is(err, paymentdomain.ErrInvalidPayload),
		errors.Is(err, paymentdomain.ErrInvalidEvent):
		return errorPayload{http.StatusBadRequest, errorTypeValidation, "Invalid payload"}

	case isNotFound(err):
		return errorPayload{http.StatusNotFound, errorTypeNotFound, notFoundMessage(err)}

	case errors.Is(err, checkoutdomain.ErrAlreadyPurchased):
		return errorPayload{http.StatusConflict, errorTypeConflict, "Already purchased"}
	case errors.Is(err, catalogdomain.ErrHasPurchases):
		return errorPayload{http.StatusConflict, errorTypeConflict, "Song has been purchased"}
	case errors.Is(err, creditdomain.ErrAlreadyClaimed):
		return errorPayload{http.StatusConflict, errorTypeConflict, "Already claimed this week"}
	case errors.Is(err, ErrInProgress):
		return errorPayload{http.StatusConflict, errorTypeConflict, "Request already in progress"}

	case errors.Is(err, ErrRateLimited):
		return errorPayload{http.StatusTooManyRequests, errorTypeRateLimited, "Too many requests"}

	case errors.Is(err, downloaddomain.ErrFilePath):
		return errorPayload{http.StatusInternalServerError, errorTypeConfiguration, "File path configuration error"}
	case isConfiguration(err):
		return errorPayload{http.StatusInternalServerError, errorTypeConfiguration, "Configuration error"}

	case errors.Is(err, checkoutdomain.ErrUpstream):
		return errorPayload{http.StatusInternalServerError, errorTypeUpstream, upstreamMessage(err)}

	case errors.Is(err, downloaddomain.ErrLinkFailed):
		return errorPayload{http.StatusBadGateway, errorTypeUpstream, "Could not create download link"}
	case errors.Is(err, accountdomain.ErrDeleteFailed):
		return errorPayload{http.StatusBadGateway, errorTypeUpstream, "Failed to delete account"}

	case errors.Is(err, ErrServiceUnavailable):
		return errorPayload{http.StatusServiceUnavailable, errorTypeUnavailable, "Service unavailable"}
	default:
		return errorPayload{http.StatusInternalServerError, errorTypeInternal, "Internal server error"}
	}
}

// upstreamMessage surfaces the provider's message without the sentinel prefix.
func upstreamMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), checkoutdomain.ErrUpstream.Error()+": ")
	if strings.TrimSpace(msg) == "" {
		return "Payment provider error"
	}
	return msg
}

func isUnauthenticated(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrMissingToken),
		errors.Is(err, authdomain.ErrInvalidToken),
		errors.Is(err, authdomain.ErrInvalidSubject),
		errors.Is(err, checkoutdomain.ErrInvalidUser),
		errors.Is(err, claimdomain.ErrInvalidUser),
		errors.Is(err, creditdomain.ErrInvalidUser),
		errors.Is(err, downloaddomain.ErrInvalidUser),
		errors.Is(err, favoritedomain.ErrInvalidUser),
		errors.Is(err, accountdomain.ErrInvalidUser),
		errors.Is(err, purchasedomain.ErrInvalidUser):
		return true
	default:
		return false
	}
}

func isValidation(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, checkoutdomain.ErrMissingTrack),
		errors.Is(err, claimdomain.ErrMissingTrack),
		errors.Is(err, downloaddomain.ErrMissingTrack),
		errors.Is(err, favoritedomain.ErrMissingTrack),
		errors.Is(err, catalogdomain.ErrMissingFields),
		errors.Is(err, catalogdomain.ErrInvalidPrice),
		errors.Is(err, catalogdomain.ErrInvalidSort),
		errors.Is(err, creditdomain.ErrInvalidAction),
		errors.Is(err, contactdomain.ErrMissingFields),
		errors.Is(err, contactdomain.ErrInvalidEmail),
		errors.Is(err, paymentdomain.ErrInvalidProvider):
		return true
	default:
		return false
	}
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, checkoutdomain.ErrMissingTrack),
		errors.Is(err, claimdomain.ErrMissingTrack),
		errors.Is(err, downloaddomain.ErrMissingTrack),
		errors.Is(err, favoritedomain.ErrMissingTrack):
		return "Missing songId"
	case errors.Is(err, catalogdomain.ErrMissingFields),
		errors.Is(err, contactdomain.ErrMissingFields):
		return "Missing required fields"
	case errors.Is(err, catalogdomain.ErrInvalidPrice):
		return "Invalid price"
	case errors.Is(err, catalogdomain.ErrInvalidSort):
		return "Invalid sort"
	case errors.Is(err, creditdomain.ErrInvalidAction):
		return "Invalid action"
	case errors.Is(err, contactdomain.ErrInvalidEmail):
		return "Invalid email"
	default:
		return "Invalid request"
	}
}

func isNotFound(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, purchasedomain.ErrInvalidTrack),
		errors.Is(err, paymentdomain.ErrProviderNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func notFoundMessage(err error) string {
	switch {
	case errors.Is(err, catalogdomain.ErrNotFound),
		errors.Is(err, catalogdomain.ErrInvalidID),
		errors.Is(err, purchasedomain.ErrInvalidTrack):
		return "Song not found"
	default:
		return "Not found"
	}
}

func isConfiguration(err error) bool {
	switch {
	case errors.Is(err, checkoutdomain.ErrNotConfigured),
		errors.Is(err, paymentdomain.ErrNotConfigured),
		errors.Is(err, paymentdomain.ErrInvalidConfig),
		errors.Is(err, authdomain.ErrNotConfigured),
		errors.Is(err, storage.ErrNotConfigured),
		errors.Is(err, identity.ErrNotConfigured):
		return true
	default:
		return false
	}
}
