package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/dojohub/backend/internal/models"
)

const sessionDetailColumns = `
s.id, s.course_id, s.location_id, s.starts_at, s.ends_at, s.capacity, s.active, s.additional_info, s.created_at, s.updated_at,
c.id, c.code, c.slug, c.title, c.description, c.active, c.created_at,
l.id, l.name, l.address, l.address2, l.city, l.state, l.zip,
(SELECT COUNT(*) FROM session_mentors sm WHERE sm.session_id = s.id),
(SELECT COUNT(*) FROM orders o WHERE o.session_id = s.id)`

func scanSessionDetail(row pgx.Row) (*models.SessionDetail, error) {
	var d models.SessionDetail
	err := row.Scan(
		&d.ID, &d.CourseID, &d.LocationID, &d.StartsAt, &d.EndsAt, &d.Capacity, &d.Active, &d.AdditionalInfo, &d.CreatedAt, &d.UpdatedAt,
		&d.Course.ID, &d.Course.Code, &d.Course.Slug, &d.Course.Title, &d.Course.Description, &d.Course.Active, &d.Course.CreatedAt,
		&d.Location.ID, &d.Location.Name, &d.Location.Address, &d.Location.Address2, &d.Location.City, &d.Location.State, &d.Location.Zip,
		&d.ConfirmedMentors, &d.ConfirmedStudents,
	)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetSessionDetail returns a session with its course, location, and counts.
func (r *Repository) GetSessionDetail(ctx context.Context, id uuid.UUID) (*models.SessionDetail, error) {
	q := `SELECT ` + sessionDetailColumns + `
		FROM sessions s
		JOIN courses c ON c.id = s.course_id
		JOIN locations l ON l.id = s.location_id
		WHERE s.id = $1`
	d, err := scanSessionDetail(r.queryRow(ctx, q, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get session detail: %w", err)
	}
	return d, nil
}

// ListUpcomingSessions returns active sessions that have not ended yet,
// soonest first.
func (r *Repository) ListUpcomingSessions(ctx context.Context, now time.Time) ([]*models.SessionDetail, error) {
	q := `SELECT ` + sessionDetailColumns + `
		FROM sessions s
		JOIN courses c ON c.id = s.course_id
		JOIN locations l ON l.id = s.location_id
		WHERE s.active AND s.ends_at >= $1
		ORDER BY s.starts_at`
	return r.listSessions(ctx, q, now)
}

// ListSessionsInMonth returns active, not-yet-ended sessions starting in the
// given month, soonest first. Feeds the calendar grid.
func (r *Repository) ListSessionsInMonth(ctx context.Context, year int, month time.Month, now time.Time) ([]*models.SessionDetail, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	q := `SELECT ` + sessionDetailColumns + `
		FROM sessions s
		JOIN courses c ON c.id = s.course_id
		JOIN locations l ON l.id = s.location_id
		WHERE s.active AND s.ends_at >= $1 AND s.starts_at >= $2 AND s.starts_at < $3
		ORDER BY s.starts_at`
	return r.listSessions(ctx, q, now, from, to)
}

func (r *Repository) listSessions(ctx context.Context, q string, args ...any) ([]*models.SessionDetail, error) {
	rows, err := r.query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	var list []*models.SessionDetail
	for rows.Next() {
		d, err := scanSessionDetail(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		list = append(list, d)
	}
	return list, rows.Err()
}

// GetMeetingDetail returns a meeting with its location and mentor count.
func (r *Repository) GetMeetingDetail(ctx context.Context, id uuid.UUID) (*models.MeetingDetail, error) {
	const q = `SELECT m.id, m.location_id, m.title, m.description, m.starts_at, m.ends_at, m.capacity, m.active, m.additional_info, m.created_at,
		l.id, l.name, l.address, l.address2, l.city, l.state, l.zip,
		(SELECT COUNT(*) FROM meeting_mentors mm WHERE mm.meeting_id = m.id)
		FROM meetings m
		JOIN locations l ON l.id = m.location_id
		WHERE m.id = $1`
	var d models.MeetingDetail
	err := r.queryRow(ctx, q, id).Scan(
		&d.ID, &d.LocationID, &d.Title, &d.Description, &d.StartsAt, &d.EndsAt, &d.Capacity, &d.Active, &d.AdditionalInfo, &d.CreatedAt,
		&d.Location.ID, &d.Location.Name, &d.Location.Address, &d.Location.Address2, &d.Location.City, &d.Location.State, &d.Location.Zip,
		&d.ConfirmedMentors,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get meeting detail: %w", err)
	}
	return &d, nil
}

// ListUpcomingMeetings returns active meetings that have not ended yet.
func (r *Repository) ListUpcomingMeetings(ctx context.Context, now time.Time) ([]*models.MeetingDetail, error) {
	const q = `SELECT m.id, m.location_id, m.title, m.description, m.starts_at, m.ends_at, m.capacity, m.active, m.additional_info, m.created_at,
		l.id, l.name, l.address, l.address2, l.city, l.state, l.zip,
		(SELECT COUNT(*) FROM meeting_mentors mm WHERE mm.meeting_id = m.id)
		FROM meetings m
		JOIN locations l ON l.id = m.location_id
		WHERE m.active AND m.ends_at >= $1
		ORDER BY m.starts_at`
	rows, err := r.query(ctx, q, now)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()
	var list []*models.MeetingDetail
	for rows.Next() {
		var d models.MeetingDetail
		if err := rows.Scan(
			&d.ID, &d.LocationID, &d.Title, &d.Description, &d.StartsAt, &d.EndsAt, &d.Capacity, &d.Active, &d.AdditionalInfo, &d.CreatedAt,
			&d.Location.ID, &d.Location.Name, &d.Location.Address, &d.Location.Address2, &d.Location.City, &d.Location.State, &d.Location.Zip,
			&d.ConfirmedMentors,
		); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		list = append(list, &d)
	}
	return list, rows.Err()
}

// OrderRow is an order joined with its student and guardian names, as shown
// on the check-in and stats pages.
type OrderRow struct {
	models.Order
	Student           models.Student `json:"student"`
	GuardianFirstName string         `json:"guardian_first_name"`
	GuardianLastName  string         `json:"guardian_last_name"`
}

// ListOrdersBySession returns the session's orders with student details.
func (r *Repository) ListOrdersBySession(ctx context.Context, sessionID uuid.UUID) ([]*OrderRow, error) {
	const q = `SELECT o.id, o.guardian_id, o.student_id, o.session_id, o.ip, o.check_in, o.alternate_guardian, o.created_at,
		st.id, st.guardian_id, st.first_name, st.last_name, st.birthday, st.gender, st.created_at, st.updated_at,
		u.first_name, u.last_name
		FROM orders o
		JOIN students st ON st.id = o.student_id
		JOIN guardians g ON g.id = o.guardian_id
		JOIN users u ON u.id = g.user_id
		WHERE o.session_id = $1
		ORDER BY st.last_name, st.first_name`
	rows, err := r.query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()
	var list []*OrderRow
	for rows.Next() {
		var o OrderRow
		if err := rows.Scan(
			&o.ID, &o.GuardianID, &o.StudentID, &o.SessionID, &o.IP, &o.CheckIn, &o.AlternateGuardian, &o.CreatedAt,
			&o.Student.ID, &o.Student.GuardianID, &o.Student.FirstName, &o.Student.LastName, &o.Student.Birthday, &o.Student.Gender, &o.Student.CreatedAt, &o.Student.UpdatedAt,
			&o.GuardianFirstName, &o.GuardianLastName,
		); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		list = append(list, &o)
	}
	return list, rows.Err()
}

// GetOrderByID returns one order.
func (r *Repository) GetOrderByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	const q = `SELECT id, guardian_id, student_id, session_id, ip, check_in, alternate_guardian, created_at
		FROM orders WHERE id = $1`
	var o models.Order
	err := r.queryRow(ctx, q, id).Scan(&o.ID, &o.GuardianID, &o.StudentID, &o.SessionID, &o.IP, &o.CheckIn, &o.AlternateGuardian, &o.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &o, nil
}

// UpdateOrderCheckIn sets (or clears) the check-in instant and the
// alternate-guardian override.
func (r *Repository) UpdateOrderCheckIn(ctx context.Context, id uuid.UUID, checkIn *time.Time, alternateGuardian string) error {
	const q = `UPDATE orders SET check_in = $2, alternate_guardian = $3 WHERE id = $1`
	_, err := r.exec(ctx, q, id, checkIn, alternateGuardian)
	if err != nil {
		return fmt.Errorf("update order check-in: %w", err)
	}
	return nil
}
