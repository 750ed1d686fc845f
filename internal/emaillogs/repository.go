package emaillogs

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dojohub/backend/internal/models"
)

// Repository handles email_logs persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an email logs repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts an email log row.
func (r *Repository) Create(ctx context.Context, el *models.EmailLog) error {
	const q = `INSERT INTO email_logs (id, session_id, meeting_id, email_type, recipient_email, subject, body_text, status, sent_at, error_message)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`
	var subject, body, errMsg *string
	if el.Subject != "" {
		subject = &el.Subject
	}
	if el.BodyText != "" {
		body = &el.BodyText
	}
	if el.ErrorMessage != "" {
		errMsg = &el.ErrorMessage
	}
	return r.pool.QueryRow(ctx, q, el.SessionID, el.MeetingID, el.EmailType, el.RecipientEmail, subject, body, el.Status, el.SentAt, errMsg).
		Scan(&el.ID, &el.CreatedAt)
}

// GetByID returns an email log row.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.EmailLog, error) {
	const q = `SELECT id, session_id, meeting_id, email_type, recipient_email, subject, body_text, status, sent_at, error_message, created_at
		FROM email_logs WHERE id = $1`
	var el models.EmailLog
	var subject, body, errMsg *string
	err := r.pool.QueryRow(ctx, q, id).Scan(&el.ID, &el.SessionID, &el.MeetingID, &el.EmailType, &el.RecipientEmail, &subject, &body, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if subject != nil {
		el.Subject = *subject
	}
	if body != nil {
		el.BodyText = *body
	}
	if errMsg != nil {
		el.ErrorMessage = *errMsg
	}
	return &el, nil
}

// ListBySession returns email logs for a session, newest first.
func (r *Repository) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*models.EmailLog, error) {
	const q = `SELECT id, session_id, meeting_id, email_type, recipient_email, subject, body_text, status, sent_at, error_message, created_at
		FROM email_logs
		WHERE session_id = $1
		ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.EmailLog
	for rows.Next() {
		var el models.EmailLog
		var subject, body, errMsg *string
		if err := rows.Scan(&el.ID, &el.SessionID, &el.MeetingID, &el.EmailType, &el.RecipientEmail, &subject, &body, &el.Status, &el.SentAt, &errMsg, &el.CreatedAt); err != nil {
			return nil, err
		}
		if subject != nil {
			el.Subject = *subject
		}
		if body != nil {
			el.BodyText = *body
		}
		if errMsg != nil {
			el.ErrorMessage = *errMsg
		}
		list = append(list, &el)
	}
	return list, rows.Err()
}
