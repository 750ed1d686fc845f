package models

import (
	"time"

	"github.com/google/uuid"
)

// Order is a student's confirmed registration for a session, created by the
// owning guardian. Withdrawal deletes the row; at most one order exists per
// (student, session).
type Order struct {
	ID                uuid.UUID  `json:"id"`
	GuardianID        uuid.UUID  `json:"guardian_id"`
	StudentID         uuid.UUID  `json:"student_id"`
	SessionID         uuid.UUID  `json:"session_id"`
	IP                string     `json:"ip,omitempty"`
	CheckIn           *time.Time `json:"check_in,omitempty"`
	AlternateGuardian string     `json:"alternate_guardian,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
