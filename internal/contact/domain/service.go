package domain

import (
	"context"
	"errors"
)

type Service interface {
	// Submit stores an inquiry and forwards it to the support inbox when one is configured.
	Submit(ctx context.Context, req SubmitRequest) (*Inquiry, error)
}

type SubmitRequest struct {
	Email       string `json:"email"`
	Subject     string `json:"subject"`
	OtherDetail string `json:"otherDetail"`
	Message     string `json:"message"`
}

var (
	ErrMissingFields = errors.New("missing_fields")
	ErrInvalidEmail  = errors.New("invalid_email")
)
