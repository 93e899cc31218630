package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/smallbiznis/zalci/internal/config"
	"go.uber.org/fx"
)

// Admin performs privileged operations against the identity provider.
type Admin interface {
	DeleteUser(ctx context.Context, userID string) error
}

var (
	ErrNotConfigured = errors.New("identity_not_configured")
	ErrUserNotFound  = errors.New("identity_user_not_found")
)

var Module = fx.Module("providers.identity",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Admin {
	return NewSupabaseAdmin(cfg.Supabase.URL, cfg.Supabase.ServiceRoleKey)
}

type supabaseErrorResponse struct {
	Message string `json:"msg"`
	Error   string `json:"error_description"`
	Code    string `json:"error_code"`
}

// SupabaseAdmin calls the GoTrue admin endpoints with the service role key.
type SupabaseAdmin struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

func NewSupabaseAdmin(baseURL, serviceKey string) *SupabaseAdmin {
	return &SupabaseAdmin{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		serviceKey: strings.TrimSpace(serviceKey),
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (a *SupabaseAdmin) DeleteUser(ctx context.Context, userID string) error {
	if a.baseURL == "" || a.serviceKey == "" {
		return ErrNotConfigured
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.baseURL+"/auth/v1/admin/users/"+url.PathEscape(userID), nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", a.serviceKey)
	req.Header.Set("Authorization", "Bearer "+a.serviceKey)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr supabaseErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("delete user: status %d", resp.StatusCode)
		}
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = strings.TrimSpace(apiErr.Error)
		}
		return fmt.Errorf("delete user: %s", message)
	}
	return nil
}
