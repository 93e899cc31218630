package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/smallbiznis/zalci/internal/auth/domain"
	"github.com/smallbiznis/zalci/internal/clock"
	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
)

const clockLeeway = 30 * time.Second

// Claims mirrors the access token payload issued by Supabase Auth.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type Params struct {
	fx.In

	Cfg   config.Config
	Clock clock.Clock
}

// JWTVerifier checks HS256 access tokens signed with the project's JWT secret.
type JWTVerifier struct {
	secret   []byte
	issuer   string
	audience string
	clock    clock.Clock
}

func NewJWTVerifier(p Params) domain.Verifier {
	return &JWTVerifier{
		secret:   []byte(strings.TrimSpace(p.Cfg.Auth.JWTSecret)),
		issuer:   strings.TrimSpace(p.Cfg.Auth.JWTIssuer),
		audience: strings.TrimSpace(p.Cfg.Auth.JWTAudience),
		clock:    p.Clock,
	}
}

func (v *JWTVerifier) Verify(ctx context.Context, token string) (*domain.Principal, error) {
	if len(v.secret) == 0 {
		return nil, domain.ErrNotConfigured
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(v.clock.Now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", domain.ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	subject := strings.TrimSpace(claims.Subject)
	if _, err := uuid.Parse(subject); err != nil {
		return nil, domain.ErrInvalidSubject
	}

	return &domain.Principal{
		UserID: subject,
		Email:  strings.TrimSpace(claims.Email),
		Role:   claims.Role,
	}, nil
}
