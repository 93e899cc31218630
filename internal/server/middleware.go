package server

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	authdomain "github.com/smallbiznis/zalci/internal/auth/domain"
	obscontext "github.com/smallbiznis/zalci/internal/observability/context"
	"github.com/smallbiznis/zalci/internal/observability/logger"
	"go.uber.org/zap"
)

const (
	contextPrincipalKey = "principal"

	rateLimitReasonUserRate = "user-rate"
	rateLimitReasonInFlight = "in-flight"
)

// AuthRequired resolves the caller from a bearer token or the session cookie.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := s.sessions.ReadToken(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		principal, err := s.verifier.Verify(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}

		c.Set(contextPrincipalKey, principal)
		ctx := obscontext.WithUserID(c.Request.Context(), principal.UserID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// AuthorizeAction gates admin routes through the policy enforcer. Must follow AuthRequired.
func (s *Server) AuthorizeAction(object, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		if err := s.authzSvc.Authorize(c.Request.Context(), principal.UserID, object, action); err != nil {
			logger.FromContext(c.Request.Context()).Warn("admin action denied",
				zap.String("object", object),
				zap.String("action", action),
			)
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RateLimit throttles the caller per route, keyed by user id or client IP.
func (s *Server) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.limiter.Enabled() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		endpoint := normalizeRateLimitEndpoint(c)
		subject := rateLimitSubject(c)

		res, err := s.limiter.Allow(ctx, endpoint, subject)
		if err != nil {
			logger.FromContext(ctx).Warn("rate limit check failed", zap.Error(err))
			AbortWithError(c, ErrServiceUnavailable)
			return
		}
		if !res.Allowed {
			denyRateLimit(c, endpoint, rateLimitReasonUserRate, retryAfterSeconds(res.RetryAfter.Seconds()), s)
			return
		}

		s.obsMetrics.RecordRateLimitAllowed(ctx, endpoint)
		c.Next()
	}
}

// withActionLock runs fn while holding the in-flight lock for (action, key).
func (s *Server) withActionLock(c *gin.Context, action, key string, fn func() error) error {
	ctx := c.Request.Context()
	token, ok, err := s.limiter.TryLock(ctx, action, key)
	if err != nil {
		logger.FromContext(ctx).Warn("action lock failed", zap.String("action", action), zap.Error(err))
		return ErrServiceUnavailable
	}
	if !ok {
		s.obsMetrics.RecordRateLimitDenied(ctx, normalizeRateLimitEndpoint(c), rateLimitReasonInFlight)
		c.Header("X-Rate-Limited-Reason", rateLimitReasonInFlight)
		return ErrInProgress
	}
	defer func() {
		if err := s.limiter.Release(context.WithoutCancel(ctx), action, key, token); err != nil {
			logger.FromContext(ctx).Warn("action unlock failed", zap.String("action", action), zap.Error(err))
		}
	}()
	return fn()
}

func denyRateLimit(c *gin.Context, endpoint, reason string, retryAfter int, s *Server) {
	ctx := c.Request.Context()
	logger.FromContext(ctx).Warn("rate limit exceeded",
		zap.String("reason", reason),
		zap.String("endpoint", endpoint),
	)
	s.obsMetrics.RecordRateLimitDenied(ctx, endpoint, reason)

	c.Header("Retry-After", strconv.Itoa(retryAfter))
	c.Header("X-Rate-Limited-Reason", reason)
	AbortWithError(c, ErrRateLimited)
}

func retryAfterSeconds(seconds float64) int {
	whole := int(seconds)
	if float64(whole) < seconds {
		whole++
	}
	if whole < 1 {
		whole = 1
	}
	return whole
}

func rateLimitSubject(c *gin.Context) string {
	if principal, ok := principalFrom(c); ok {
		return "user:" + principal.UserID
	}
	return "ip:" + c.ClientIP()
}

func normalizeRateLimitEndpoint(c *gin.Context) string {
	if c == nil {
		return "unknown"
	}
	endpoint := strings.TrimSpace(c.FullPath())
	if endpoint == "" {
		endpoint = strings.TrimSpace(c.Request.URL.Path)
	}
	if endpoint == "" {
		endpoint = "unknown"
	}
	return endpoint
}

func principalFrom(c *gin.Context) (*authdomain.Principal, bool) {
	value, ok := c.Get(contextPrincipalKey)
	if !ok {
		return nil, false
	}
	principal, ok := value.(*authdomain.Principal)
	if !ok || principal == nil || principal.UserID == "" {
		return nil, false
	}
	return principal, true
}

// currentUserID is only called behind AuthRequired; an empty id fails service validation.
func currentUserID(c *gin.Context) string {
	principal, ok := principalFrom(c)
	if !ok {
		return ""
	}
	return principal.UserID
}
