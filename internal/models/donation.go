package models

import (
	"time"

	"github.com/google/uuid"
)

// Donation is a pledge recorded from the donate form. Verified is set by the
// payment-provider callback; the receipt email is sent at most once.
type Donation struct {
	ID          uuid.UUID `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	AmountCents int       `json:"amount_cents"`
	Verified    bool      `json:"verified"`
	ReceiptSent bool      `json:"receipt_sent"`
	CreatedAt   time.Time `json:"created_at"`
}
