package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Meeting is a mentor-only gathering. Capacity applies to mentors alone;
// there are no student slots and no orders.
type Meeting struct {
	ID             uuid.UUID `json:"id"`
	LocationID     uuid.UUID `json:"location_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Capacity       int       `json:"capacity"`
	Active         bool      `json:"active"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// MeetingDetail is a meeting joined with its location and mentor count.
type MeetingDetail struct {
	Meeting
	Location         Location `json:"location"`
	ConfirmedMentors int      `json:"confirmed_mentors"`
}

// URL returns the canonical path for a meeting detail page.
func (m MeetingDetail) URL() string {
	d := m.StartsAt
	return fmt.Sprintf("/meeting/%d/%d/%d/%s", d.Year(), int(d.Month()), d.Day(), m.ID)
}
