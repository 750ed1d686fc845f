package donations

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/notify"
	"github.com/dojohub/backend/pkg/response"
)

// Handler handles donation endpoints.
type Handler struct {
	repo     *Repository
	notifier notify.Notifier
	logger   *zap.Logger
}

// NewHandler creates a donations handler.
func NewHandler(repo *Repository, notifier notify.Notifier, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, notifier: notifier, logger: logger}
}

// CreateRequest is the body for POST /donations.
type CreateRequest struct {
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	AmountCents int    `json:"amount_cents" binding:"required,gt=0"`
}

// Create handles POST /donations. The donation stays unverified until the
// payment provider calls back.
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	d := &models.Donation{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		AmountCents: req.AmountCents,
	}
	if err := h.repo.Create(c.Request.Context(), d); err != nil {
		h.logger.Error("create donation failed", zap.Error(err))
		response.Internal(c, "failed to record donation")
		return
	}
	response.Created(c, d)
}

// Verify handles POST /donations/:id/verify (payment-provider callback).
// Sends the receipt email exactly once, no matter how often the provider
// retries the callback.
func (h *Handler) Verify(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid donation id")
		return
	}
	d, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get donation failed", zap.Error(err))
		response.Internal(c, "verification failed")
		return
	}
	if d == nil {
		response.NotFound(c, "donation not found")
		return
	}

	claimed, err := h.repo.MarkVerified(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("verify donation failed", zap.Error(err))
		response.Internal(c, "verification failed")
		return
	}
	if claimed {
		msg := notify.Message{
			Recipient: d.Email,
			Subject:   "Thank you for your donation!",
			Template:  models.EmailTypeDonationReceipt,
			Merge: map[string]string{
				"first_name": d.FirstName,
				"last_name":  d.LastName,
				"amount":     fmt.Sprintf("$%d.%02d", d.AmountCents/100, d.AmountCents%100),
			},
		}
		if err := h.notifier.Send(c.Request.Context(), msg); err != nil {
			h.logger.Error("queue donation receipt failed", zap.Error(err), zap.String("donation_id", id.String()))
		}
	}
	response.OK(c, gin.H{"verified": true, "receipt_queued": claimed})
}
