package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
	Bucket         string
}

type supabaseSignResponse struct {
	SignedURL string `json:"signedURL"`
}

type supabaseErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// SupabaseSigner signs objects through the Supabase Storage REST API.
type SupabaseSigner struct {
	cfg    SupabaseConfig
	client *http.Client
}

func NewSupabaseSigner(cfg SupabaseConfig) *SupabaseSigner {
	cfg.URL = strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	cfg.ServiceRoleKey = strings.TrimSpace(cfg.ServiceRoleKey)
	return &SupabaseSigner{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *SupabaseSigner) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	if s.cfg.URL == "" || s.cfg.ServiceRoleKey == "" || s.cfg.Bucket == "" {
		return "", ErrNotConfigured
	}
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" {
		return "", ErrInvalidPath
	}

	body, err := json.Marshal(map[string]int64{"expiresIn": int64(ttl / time.Second)})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", s.cfg.URL, url.PathEscape(s.cfg.Bucket), escapeObjectPath(objectPath))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", s.cfg.ServiceRoleKey)
	req.Header.Set("Authorization", "Bearer "+s.cfg.ServiceRoleKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr supabaseErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return "", ErrSignFailed
		}
		message := strings.TrimSpace(apiErr.Message)
		if message == "" {
			message = strings.TrimSpace(apiErr.Error)
		}
		if message == "" {
			return "", ErrSignFailed
		}
		return "", fmt.Errorf("%w: %s", ErrSignFailed, message)
	}

	var signed supabaseSignResponse
	if err := json.NewDecoder(resp.Body).Decode(&signed); err != nil {
		return "", err
	}
	if signed.SignedURL == "" {
		return "", errors.New("storage_response_invalid")
	}
	if strings.HasPrefix(signed.SignedURL, "http://") || strings.HasPrefix(signed.SignedURL, "https://") {
		return signed.SignedURL, nil
	}
	return s.cfg.URL + "/storage/v1" + signed.SignedURL, nil
}

func escapeObjectPath(objectPath string) string {
	segments := strings.Split(objectPath, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}
