package domain

import (
	"context"
	"errors"
)

type Service interface {
	// SendPurchaseConfirmation emails the buyer a bilingual receipt linking to the library.
	SendPurchaseConfirmation(ctx context.Context, req PurchaseConfirmation) error
	// ForwardInquiry sends a contact inquiry to the support inbox.
	ForwardInquiry(ctx context.Context, req Inquiry) error
}

type PurchaseConfirmation struct {
	To         string
	TrackTitle string
	IsFree     bool
}

type Inquiry struct {
	ID          string
	Email       string
	Subject     string
	OtherDetail string
	Message     string
}

const PurchaseSubject = "【Zalci Audio】ご購入ありがとうございます / Thank you for your purchase"

var (
	ErrMissingRecipient = errors.New("missing_recipient")
	ErrSupportDisabled  = errors.New("support_inbox_not_configured")
)
