package models

import (
	"time"

	"github.com/google/uuid"
)

// Mentor is a volunteer profile. Session and meeting sign-ups reference
// mentors directly (set membership, no order row).
type Mentor struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Bio       string    `json:"bio,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// Guardian owns zero or more students and registers them for sessions.
type Guardian struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Student is registered for sessions by its guardian. Students never log in.
type Student struct {
	ID         uuid.UUID  `json:"id"`
	GuardianID uuid.UUID  `json:"guardian_id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Birthday   *time.Time `json:"birthday,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Age returns the student's age in whole years at the given instant, or -1
// when no birthday is on file.
func (s Student) Age(now time.Time) int {
	if s.Birthday == nil {
		return -1
	}
	age := now.Year() - s.Birthday.Year()
	if now.YearDay() < s.Birthday.YearDay() {
		age--
	}
	return age
}
