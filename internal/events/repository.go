// Package events holds persistence and HTTP handlers for sessions and
// meetings: the catalog, the calendar, sign-up/waitlist endpoints, check-in,
// and stats. The repository implements ledger.Store; mutating calls made
// inside WithTx share one transaction so capacity checks and writes are
// atomic.
package events

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dojohub/backend/internal/ledger"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/pkg/database"
)

// Repository handles session, meeting, order, and waitlist persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an events repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a single transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return database.WithTx(ctx, r.pool, fn)
}

const sessionEventQuery = `
SELECT s.id, c.code, c.title, c.description, c.slug, s.starts_at, s.ends_at, s.capacity, s.active, s.additional_info,
       l.name, l.address, l.address2, l.city, l.state, l.zip
FROM sessions s
JOIN courses c ON c.id = s.course_id
JOIN locations l ON l.id = s.location_id
WHERE s.id = $1`

const meetingEventQuery = `
SELECT m.id, m.title, m.description, m.starts_at, m.ends_at, m.capacity, m.active, m.additional_info,
       l.name, l.address, l.address2, l.city, l.state, l.zip
FROM meetings m
JOIN locations l ON l.id = m.location_id
WHERE m.id = $1`

// GetEvent returns the flattened event view without locking.
func (r *Repository) GetEvent(ctx context.Context, ref ledger.EventRef) (ledger.Event, error) {
	return r.getEvent(ctx, ref, false)
}

// GetEventForUpdate locks the event row for the rest of the transaction, so
// concurrent capacity checks serialize.
func (r *Repository) GetEventForUpdate(ctx context.Context, ref ledger.EventRef) (ledger.Event, error) {
	return r.getEvent(ctx, ref, true)
}

func (r *Repository) getEvent(ctx context.Context, ref ledger.EventRef, lock bool) (ledger.Event, error) {
	ev := ledger.Event{Ref: ref}
	var err error
	if ref.Kind == ledger.KindSession {
		q := sessionEventQuery
		if lock {
			q += " FOR UPDATE OF s"
		}
		var slug string
		err = r.queryRow(ctx, q, ref.ID).Scan(
			&ev.Ref.ID, &ev.Code, &ev.Title, &ev.Description, &slug,
			&ev.StartsAt, &ev.EndsAt, &ev.Capacity, &ev.Active, &ev.AdditionalInfo,
			&ev.LocationName, &ev.LocationAddress, &ev.LocationAddress2,
			&ev.LocationCity, &ev.LocationState, &ev.LocationZip,
		)
		if err == nil {
			d := ev.StartsAt
			ev.URL = fmt.Sprintf("/class/%d/%d/%d/%s/%s", d.Year(), int(d.Month()), d.Day(), slug, ev.Ref.ID)
		}
	} else {
		q := meetingEventQuery
		if lock {
			q += " FOR UPDATE OF m"
		}
		err = r.queryRow(ctx, q, ref.ID).Scan(
			&ev.Ref.ID, &ev.Title, &ev.Description,
			&ev.StartsAt, &ev.EndsAt, &ev.Capacity, &ev.Active, &ev.AdditionalInfo,
			&ev.LocationName, &ev.LocationAddress, &ev.LocationAddress2,
			&ev.LocationCity, &ev.LocationState, &ev.LocationZip,
		)
		if err == nil {
			d := ev.StartsAt
			ev.URL = fmt.Sprintf("/meeting/%d/%d/%d/%s", d.Year(), int(d.Month()), d.Day(), ev.Ref.ID)
		}
	}
	if err != nil {
		if err == pgx.ErrNoRows {
			return ledger.Event{}, ledger.ErrEventNotFound
		}
		return ledger.Event{}, fmt.Errorf("get event: %w", err)
	}
	return ev, nil
}

func mentorTable(kind ledger.EventKind) (table, eventCol string) {
	if kind == ledger.KindSession {
		return "session_mentors", "session_id"
	}
	return "meeting_mentors", "meeting_id"
}

// CountConfirmedMentors returns the confirmed-mentor count for the event.
func (r *Repository) CountConfirmedMentors(ctx context.Context, ref ledger.EventRef) (int, error) {
	table, col := mentorTable(ref.Kind)
	var n int
	err := r.queryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s = $1`, table, col), ref.ID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count mentors: %w", err)
	}
	return n, nil
}

// CountConfirmedStudents returns the count of undeleted orders for a session.
func (r *Repository) CountConfirmedStudents(ctx context.Context, sessionID uuid.UUID) (int, error) {
	var n int
	err := r.queryRow(ctx, `SELECT COUNT(*) FROM orders WHERE session_id = $1`, sessionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return n, nil
}

// IsMentorConfirmed reports whether the mentor holds a confirmed spot.
func (r *Repository) IsMentorConfirmed(ctx context.Context, ref ledger.EventRef, mentorID uuid.UUID) (bool, error) {
	table, col := mentorTable(ref.Kind)
	var exists bool
	err := r.queryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND mentor_id = $2)`, table, col), ref.ID, mentorID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is mentor confirmed: %w", err)
	}
	return exists, nil
}

// AddConfirmedMentor adds the mentor to the event's confirmed set. Adding an
// existing member is a no-op (set semantics).
func (r *Repository) AddConfirmedMentor(ctx context.Context, ref ledger.EventRef, mentorID uuid.UUID) error {
	table, col := mentorTable(ref.Kind)
	_, err := r.exec(ctx, fmt.Sprintf(`INSERT INTO %s (%s, mentor_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, col), ref.ID, mentorID)
	if err != nil {
		return fmt.Errorf("add mentor: %w", err)
	}
	return nil
}

// RemoveConfirmedMentor removes the mentor; reports whether a row existed.
func (r *Repository) RemoveConfirmedMentor(ctx context.Context, ref ledger.EventRef, mentorID uuid.UUID) (bool, error) {
	table, col := mentorTable(ref.Kind)
	tag, err := r.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND mentor_id = $2`, table, col), ref.ID, mentorID)
	if err != nil {
		return false, fmt.Errorf("remove mentor: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// HasOrder reports whether the student has an order for the session.
func (r *Repository) HasOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	var exists bool
	err := r.queryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE student_id = $1 AND session_id = $2)`, studentID, sessionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("has order: %w", err)
	}
	return exists, nil
}

// CreateOrder inserts an order. The (student, session) unique constraint
// turns a racing duplicate into ErrDuplicateRegistration.
func (r *Repository) CreateOrder(ctx context.Context, order *models.Order) error {
	const q = `INSERT INTO orders (id, guardian_id, student_id, session_id, ip)
		VALUES (gen_random_uuid(), $1, $2, $3, $4)
		RETURNING id, created_at`
	err := r.queryRow(ctx, q, order.GuardianID, order.StudentID, order.SessionID, order.IP).Scan(&order.ID, &order.CreatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return ledger.ErrDuplicateRegistration
		}
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

// DeleteOrder hard-deletes the student's order; reports whether one existed.
func (r *Repository) DeleteOrder(ctx context.Context, studentID, sessionID uuid.UUID) (bool, error) {
	tag, err := r.exec(ctx, `DELETE FROM orders WHERE student_id = $1 AND session_id = $2`, studentID, sessionID)
	if err != nil {
		return false, fmt.Errorf("delete order: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func waitlistTable(kind ledger.ActorKind) (table, subjectCol string) {
	if kind == ledger.ActorMentor {
		return "session_waitlist_mentors", "mentor_id"
	}
	return "session_waitlist_students", "student_id"
}

// IsWaitlisted reports whether the subject is on the session's waitlist.
func (r *Repository) IsWaitlisted(ctx context.Context, ref ledger.EventRef, kind ledger.ActorKind, subjectID uuid.UUID) (bool, error) {
	table, col := waitlistTable(kind)
	var exists bool
	err := r.queryRow(ctx, fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE session_id = $1 AND %s = $2)`, table, col), ref.ID, subjectID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is waitlisted: %w", err)
	}
	return exists, nil
}

// AddToWaitlist adds the subject; adding twice leaves one entry.
func (r *Repository) AddToWaitlist(ctx context.Context, ref ledger.EventRef, kind ledger.ActorKind, subjectID uuid.UUID) error {
	table, col := waitlistTable(kind)
	_, err := r.exec(ctx, fmt.Sprintf(`INSERT INTO %s (session_id, %s) VALUES ($1, $2) ON CONFLICT DO NOTHING`, table, col), ref.ID, subjectID)
	if err != nil {
		return fmt.Errorf("add to waitlist: %w", err)
	}
	return nil
}

// RemoveFromWaitlist drops the subject's entry if present.
func (r *Repository) RemoveFromWaitlist(ctx context.Context, ref ledger.EventRef, kind ledger.ActorKind, subjectID uuid.UUID) error {
	table, col := waitlistTable(kind)
	_, err := r.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE session_id = $1 AND %s = $2`, table, col), ref.ID, subjectID)
	if err != nil {
		return fmt.Errorf("remove from waitlist: %w", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := database.TxFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *Repository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := database.TxFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := database.TxFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
