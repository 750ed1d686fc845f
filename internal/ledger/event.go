package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventKind discriminates the two capacity-bounded event variants.
type EventKind string

const (
	KindSession EventKind = "session"
	KindMeeting EventKind = "meeting"
)

// EventRef identifies one event for ledger operations.
type EventRef struct {
	Kind EventKind
	ID   uuid.UUID
}

// SessionRef returns a ref for a class session.
func SessionRef(id uuid.UUID) EventRef { return EventRef{Kind: KindSession, ID: id} }

// MeetingRef returns a ref for a mentor meeting.
func MeetingRef(id uuid.UUID) EventRef { return EventRef{Kind: KindMeeting, ID: id} }

// Event is the flattened view of a session or meeting the ledger needs for
// eligibility checks and confirmation-email merge data. The store returns it
// with the underlying row locked for the duration of the transaction.
type Event struct {
	Ref            EventRef
	Code           string
	Title          string
	Description    string
	StartsAt       time.Time
	EndsAt         time.Time
	Capacity       int
	Active         bool
	AdditionalInfo string
	URL            string

	LocationName     string
	LocationAddress  string
	LocationAddress2 string
	LocationCity     string
	LocationState    string
	LocationZip      string
}

// State is the observable registration state of one actor on one event.
type State string

const (
	StateNotSignedUp State = "not_signed_up"
	StateConfirmed   State = "confirmed"
	StateWaitlisted  State = "waitlisted"
)
