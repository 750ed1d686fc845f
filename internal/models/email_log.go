package models

import (
	"time"

	"github.com/google/uuid"
)

// Template keys for outbound email.
const (
	EmailTypeClassConfirmMentor   = "class-confirm-mentor"
	EmailTypeClassConfirmGuardian = "class-confirm-guardian"
	EmailTypeMeetingConfirmMentor = "meeting-confirm-mentor"
	EmailTypeDonationReceipt      = "donation-receipt"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog records an outbound email attempt, success or failure.
type EmailLog struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      *uuid.UUID `json:"session_id,omitempty"`
	MeetingID      *uuid.UUID `json:"meeting_id,omitempty"`
	EmailType      string     `json:"email_type"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject,omitempty"`
	BodyText       string     `json:"body_text,omitempty"`
	Status         string     `json:"status"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
