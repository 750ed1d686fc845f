package ledger

import (
	"github.com/google/uuid"

	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/occupancy"
)

// ActorKind discriminates who is signing up.
type ActorKind string

const (
	ActorMentor  ActorKind = "mentor"
	ActorStudent ActorKind = "student"
)

// Actor is a typed participant resolved once at the HTTP boundary: either a
// mentor acting for themselves, or a guardian acting for one of their
// students. Handlers never pass raw role strings into the ledger.
type Actor struct {
	Kind ActorKind

	MentorID   uuid.UUID
	GuardianID uuid.UUID
	StudentID  uuid.UUID

	// Recipient details for the confirmation email.
	Email            string
	FirstName        string
	LastName         string
	StudentFirstName string
	StudentLastName  string
}

// MentorActor builds an actor for a mentor signing themselves up.
func MentorActor(m models.Mentor) Actor {
	return Actor{
		Kind:      ActorMentor,
		MentorID:  m.ID,
		Email:     m.Email,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}

// StudentActor builds an actor for a guardian registering one of their
// students. Ownership must be checked by the caller before constructing it.
func StudentActor(g models.Guardian, s models.Student) Actor {
	return Actor{
		Kind:             ActorStudent,
		GuardianID:       g.ID,
		StudentID:        s.ID,
		Email:            g.Email,
		FirstName:        g.FirstName,
		LastName:         g.LastName,
		StudentFirstName: s.FirstName,
		StudentLastName:  s.LastName,
	}
}

// Perspective maps the actor to the slot pool it consumes.
func (a Actor) Perspective() occupancy.Perspective {
	if a.Kind == ActorMentor {
		return occupancy.PerspectiveMentor
	}
	return occupancy.PerspectiveStudent
}

// subjectID is the id recorded in waitlist rows for this actor.
func (a Actor) subjectID() uuid.UUID {
	if a.Kind == ActorMentor {
		return a.MentorID
	}
	return a.StudentID
}
