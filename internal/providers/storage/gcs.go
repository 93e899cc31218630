package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// GCSSigner issues V4 signed GET URLs for objects in a Cloud Storage bucket.
type GCSSigner struct {
	client *gcs.Client
	bucket string
	now    func() time.Time
}

func NewGCSSigner(ctx context.Context, cfg GCSConfig) (*GCSSigner, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, ErrNotConfigured
	}
	opts := []option.ClientOption{}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSSigner{client: client, bucket: cfg.Bucket, now: time.Now}, nil
}

func (s *GCSSigner) SignedURL(ctx context.Context, objectPath string, ttl time.Duration) (string, error) {
	objectPath = strings.TrimLeft(objectPath, "/")
	if objectPath == "" {
		return "", ErrInvalidPath
	}
	signed, err := s.client.Bucket(s.bucket).SignedURL(objectPath, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: s.now().Add(ttl),
		Scheme:  gcs.SigningSchemeV4,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignFailed, err)
	}
	return signed, nil
}

func (s *GCSSigner) Close() error {
	return s.client.Close()
}
