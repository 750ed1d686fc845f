// Package ledger owns sign-up, withdrawal, and waitlist state transitions
// for capacity-bounded events. Capacity checks and membership writes run in
// one transaction with the event row locked, so two racing sign-ups for the
// last spot cannot both succeed. Confirmation emails are dispatched after
// commit and never roll back a registration.
package ledger

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/clock"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/notify"
	"github.com/dojohub/backend/internal/occupancy"
)

// Store is the persistence boundary for ledger operations. Mutating calls
// made inside the function passed to WithTx share one transaction, and
// GetEventForUpdate locks the event row until that transaction ends.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetEvent(ctx context.Context, ref EventRef) (Event, error)
	GetEventForUpdate(ctx context.Context, ref EventRef) (Event, error)

	CountConfirmedMentors(ctx context.Context, ref EventRef) (int, error)
	CountConfirmedStudents(ctx context.Context, sessionID uuid.UUID) (int, error)

	IsMentorConfirmed(ctx context.Context, ref EventRef, mentorID uuid.UUID) (bool, error)
	AddConfirmedMentor(ctx context.Context, ref EventRef, mentorID uuid.UUID) error
	RemoveConfirmedMentor(ctx context.Context, ref EventRef, mentorID uuid.UUID) (bool, error)

	HasOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	DeleteOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error)

	IsWaitlisted(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) (bool, error)
	AddToWaitlist(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) error
	RemoveFromWaitlist(ctx context.Context, ref EventRef, kind ActorKind, subjectID uuid.UUID) error
}

// Service is the registration ledger.
type Service struct {
	store    Store
	notifier notify.Notifier
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService creates a ledger service. Notification failures are logged and
// never surfaced to the registering user.
func NewService(store Store, notifier notify.Notifier, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, notifier: notifier, clock: clk, logger: logger}
}

// SignUpResult reports what a sign-up did.
type SignUpResult struct {
	Event Event
	// Confirmed is false when the call was a no-op (mentor already signed up).
	Confirmed bool
	OrderID   uuid.UUID
}

// SignUp confirms the actor on the event. The capacity check and the
// membership write happen inside one transaction; a waitlist entry for the
// actor is cleared as part of the same transaction. Exactly one confirmation
// email is dispatched after commit for a new confirmation.
func (s *Service) SignUp(ctx context.Context, ref EventRef, actor Actor, ip string) (SignUpResult, error) {
	if ref.Kind == KindMeeting && actor.Kind != ActorMentor {
		return SignUpResult{}, ErrMentorsOnly
	}

	now := s.clock.Now()
	var result SignUpResult

	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		ev, err := s.store.GetEventForUpdate(txCtx, ref)
		if err != nil {
			return err
		}
		if !ev.Active || !ev.EndsAt.After(now) {
			return ErrEventClosed
		}
		result.Event = ev

		if actor.Kind == ActorMentor {
			confirmed, err := s.store.IsMentorConfirmed(txCtx, ref, actor.MentorID)
			if err != nil {
				return err
			}
			if confirmed {
				return nil
			}
			occ, err := s.occupancyLocked(txCtx, ev)
			if err != nil {
				return err
			}
			if !occ.HasRoom(occupancy.PerspectiveMentor) {
				return ErrCapacityExceeded
			}
			if err := s.store.AddConfirmedMentor(txCtx, ref, actor.MentorID); err != nil {
				return err
			}
		} else {
			occ, err := s.occupancyLocked(txCtx, ev)
			if err != nil {
				return err
			}
			if !occ.HasRoom(occupancy.PerspectiveStudent) {
				return ErrCapacityExceeded
			}
			order := &models.Order{
				GuardianID: actor.GuardianID,
				StudentID:  actor.StudentID,
				SessionID:  ref.ID,
				IP:         ip,
			}
			if err := s.store.CreateOrder(txCtx, order); err != nil {
				return err
			}
			result.OrderID = order.ID
		}

		// A confirmed actor can never stay waitlisted for the same event.
		if ref.Kind == KindSession {
			if err := s.store.RemoveFromWaitlist(txCtx, ref, actor.Kind, actor.subjectID()); err != nil {
				return err
			}
		}
		result.Confirmed = true
		return nil
	})
	if err != nil {
		return SignUpResult{}, err
	}

	if result.Confirmed {
		s.sendConfirmation(ctx, result.Event, actor)
	}
	return result, nil
}

// Withdraw releases the actor's confirmed spot. Mentor withdrawal is a no-op
// when not signed up; student withdrawal without an order fails with
// ErrNotRegistered. Withdrawal never sends email.
func (s *Service) Withdraw(ctx context.Context, ref EventRef, actor Actor) error {
	if ref.Kind == KindMeeting && actor.Kind != ActorMentor {
		return ErrMentorsOnly
	}
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.GetEventForUpdate(txCtx, ref); err != nil {
			return err
		}
		if actor.Kind == ActorMentor {
			_, err := s.store.RemoveConfirmedMentor(txCtx, ref, actor.MentorID)
			return err
		}
		deleted, err := s.store.DeleteOrder(txCtx, actor.StudentID, ref.ID)
		if err != nil {
			return err
		}
		if !deleted {
			return ErrNotRegistered
		}
		return nil
	})
}

// ToggleWaitlist adds the actor to (or, with remove, drops them from) the
// session's waitlist for their category. Adding is rejected while the actor
// holds a confirmed spot; repeated adds and removes are idempotent.
func (s *Service) ToggleWaitlist(ctx context.Context, ref EventRef, actor Actor, remove bool) error {
	if ref.Kind != KindSession {
		return ErrNoWaitlist
	}
	return s.store.WithTx(ctx, func(txCtx context.Context) error {
		if _, err := s.store.GetEventForUpdate(txCtx, ref); err != nil {
			return err
		}
		if remove {
			return s.store.RemoveFromWaitlist(txCtx, ref, actor.Kind, actor.subjectID())
		}
		confirmed, err := s.isConfirmed(txCtx, ref, actor)
		if err != nil {
			return err
		}
		if confirmed {
			return ErrAlreadyConfirmed
		}
		return s.store.AddToWaitlist(txCtx, ref, actor.Kind, actor.subjectID())
	})
}

// Status returns the actor's observable state on the event.
func (s *Service) Status(ctx context.Context, ref EventRef, actor Actor) (State, error) {
	confirmed, err := s.isConfirmed(ctx, ref, actor)
	if err != nil {
		return "", err
	}
	if confirmed {
		return StateConfirmed, nil
	}
	if ref.Kind == KindSession {
		waitlisted, err := s.store.IsWaitlisted(ctx, ref, actor.Kind, actor.subjectID())
		if err != nil {
			return "", err
		}
		if waitlisted {
			return StateWaitlisted, nil
		}
	}
	return StateNotSignedUp, nil
}

// Occupancy returns the event's current capacity snapshot (no lock).
func (s *Service) Occupancy(ctx context.Context, ref EventRef) (occupancy.Occupancy, error) {
	ev, err := s.store.GetEvent(ctx, ref)
	if err != nil {
		return occupancy.Occupancy{}, err
	}
	return s.occupancyLocked(ctx, ev)
}

func (s *Service) isConfirmed(ctx context.Context, ref EventRef, actor Actor) (bool, error) {
	if actor.Kind == ActorMentor {
		return s.store.IsMentorConfirmed(ctx, ref, actor.MentorID)
	}
	if ref.Kind != KindSession {
		return false, nil
	}
	return s.store.HasOrder(ctx, actor.StudentID, ref.ID)
}

func (s *Service) occupancyLocked(ctx context.Context, ev Event) (occupancy.Occupancy, error) {
	mentors, err := s.store.CountConfirmedMentors(ctx, ev.Ref)
	if err != nil {
		return occupancy.Occupancy{}, err
	}
	occ := occupancy.Occupancy{
		Capacity:         ev.Capacity,
		ConfirmedMentors: mentors,
		MentorOnly:       ev.Ref.Kind == KindMeeting,
	}
	if ev.Ref.Kind == KindSession {
		students, err := s.store.CountConfirmedStudents(ctx, ev.Ref.ID)
		if err != nil {
			return occupancy.Occupancy{}, err
		}
		occ.ConfirmedStudents = students
	}
	return occ, nil
}

const (
	dateFormat = "Monday, January 2, 2006"
	timeFormat = "3:04 pm"
)

func (s *Service) sendConfirmation(ctx context.Context, ev Event, actor Actor) {
	var subject, template string
	merge := map[string]string{
		"first_name": actor.FirstName,
		"last_name":  actor.LastName,
	}

	switch ev.Ref.Kind {
	case KindMeeting:
		subject = "Upcoming mentor meeting confirmation"
		template = models.EmailTypeMeetingConfirmMentor
		merge["meeting_title"] = ev.Title
		merge["meeting_description"] = ev.Description
		merge["meeting_start_date"] = ev.StartsAt.Format(dateFormat)
		merge["meeting_start_time"] = ev.StartsAt.Format(timeFormat)
		merge["meeting_end_date"] = ev.EndsAt.Format(dateFormat)
		merge["meeting_end_time"] = ev.EndsAt.Format(timeFormat)
		merge["meeting_location_name"] = ev.LocationName
		merge["meeting_location_address"] = ev.LocationAddress
		merge["meeting_location_address2"] = ev.LocationAddress2
		merge["meeting_location_city"] = ev.LocationCity
		merge["meeting_location_state"] = ev.LocationState
		merge["meeting_location_zip"] = ev.LocationZip
		merge["meeting_additional_info"] = ev.AdditionalInfo
		merge["meeting_url"] = ev.URL
	default:
		subject = "Upcoming class confirmation"
		template = models.EmailTypeClassConfirmMentor
		if actor.Kind == ActorStudent {
			template = models.EmailTypeClassConfirmGuardian
			merge["student_first_name"] = actor.StudentFirstName
			merge["student_last_name"] = actor.StudentLastName
		}
		merge["class_code"] = ev.Code
		merge["class_title"] = ev.Title
		merge["class_description"] = ev.Description
		merge["class_start_date"] = ev.StartsAt.Format(dateFormat)
		merge["class_start_time"] = ev.StartsAt.Format(timeFormat)
		merge["class_end_date"] = ev.EndsAt.Format(dateFormat)
		merge["class_end_time"] = ev.EndsAt.Format(timeFormat)
		merge["class_location_name"] = ev.LocationName
		merge["class_location_address"] = ev.LocationAddress
		merge["class_location_address2"] = ev.LocationAddress2
		merge["class_location_city"] = ev.LocationCity
		merge["class_location_state"] = ev.LocationState
		merge["class_location_zip"] = ev.LocationZip
		merge["class_additional_info"] = ev.AdditionalInfo
		merge["class_url"] = ev.URL
	}

	msg := notify.Message{
		Recipient: actor.Email,
		Subject:   subject,
		Template:  template,
		Merge:     merge,
	}
	id := ev.Ref.ID
	if ev.Ref.Kind == KindSession {
		msg.SessionID = &id
	} else {
		msg.MeetingID = &id
	}

	if err := s.notifier.Send(ctx, msg); err != nil {
		s.logger.Error("confirmation email dispatch failed",
			zap.Error(err),
			zap.String("event_id", ev.Ref.ID.String()),
			zap.String("recipient", actor.Email),
		)
	}
}
