package models

import (
	"time"

	"github.com/google/uuid"
)

// Course is the catalog entry a session is an instance of.
type Course struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code,omitempty"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

// Location is a venue for sessions and meetings.
type Location struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Address  string    `json:"address"`
	Address2 string    `json:"address2,omitempty"`
	City     string    `json:"city"`
	State    string    `json:"state"`
	Zip      string    `json:"zip"`
}
