package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is a scheduled class. Capacity is split between mentor and student
// slots; see the occupancy package for the split rules.
type Session struct {
	ID             uuid.UUID `json:"id"`
	CourseID       uuid.UUID `json:"course_id"`
	LocationID     uuid.UUID `json:"location_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	Capacity       int       `json:"capacity"`
	Active         bool      `json:"active"`
	AdditionalInfo string    `json:"additional_info,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SessionDetail is a session joined with its course, location, and current
// occupancy counts, as listed and rendered by the events handlers.
type SessionDetail struct {
	Session
	Course            Course   `json:"course"`
	Location          Location `json:"location"`
	ConfirmedMentors  int      `json:"confirmed_mentors"`
	ConfirmedStudents int      `json:"confirmed_students"`
}

// URL returns the canonical path for a session detail page.
func (s SessionDetail) URL() string {
	d := s.StartsAt
	return fmt.Sprintf("/class/%d/%d/%d/%s/%s", d.Year(), int(d.Month()), d.Day(), s.Course.Slug, s.ID)
}
