package emaillogs

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dojohub/backend/pkg/queue"
	"github.com/dojohub/backend/pkg/response"
)

// Handler handles email log HTTP endpoints (admin only).
type Handler struct {
	repo  *Repository
	queue *queue.Queue
}

// NewHandler creates an email logs handler.
func NewHandler(repo *Repository, q *queue.Queue) *Handler {
	return &Handler{repo: repo, queue: q}
}

// ListBySession handles GET /sessions/:id/emails.
func (h *Handler) ListBySession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	logs, err := h.repo.ListBySession(c.Request.Context(), sessionID)
	if err != nil {
		response.Internal(c, "failed to load email logs")
		return
	}
	response.OK(c, logs)
}

// Resend handles POST /emails/:id/resend. Re-enqueues the logged email as a
// fresh job; the worker records a new log row for the attempt.
func (h *Handler) Resend(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid email log id")
		return
	}
	el, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load email log")
		return
	}
	if el == nil {
		response.NotFound(c, "email log not found")
		return
	}

	payload := queue.EmailPayload{
		EmailType:      el.EmailType,
		RecipientEmail: el.RecipientEmail,
		Subject:        el.Subject,
		Merge:          map[string]string{"body": el.BodyText},
		SessionID:      el.SessionID,
		MeetingID:      el.MeetingID,
	}
	if err := h.queue.EnqueueEmail(c.Request.Context(), payload); err != nil {
		response.Internal(c, "failed to enqueue resend")
		return
	}
	response.OK(c, gin.H{"message": "resend queued"})
}
