package events

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/accounts"
	"github.com/dojohub/backend/internal/clock"
	"github.com/dojohub/backend/internal/ledger"
	"github.com/dojohub/backend/internal/middleware"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/occupancy"
	"github.com/dojohub/backend/pkg/response"
)

// MeetingsHandler handles mentor-meeting HTTP endpoints. Meetings are
// mentor-only: every capacity slot belongs to mentors and there is no
// waitlist.
type MeetingsHandler struct {
	repo     *Repository
	accounts *accounts.Repository
	ledger   *ledger.Service
	clock    clock.Clock
	logger   *zap.Logger
}

// NewMeetingsHandler creates a meetings handler.
func NewMeetingsHandler(repo *Repository, acct *accounts.Repository, svc *ledger.Service, clk clock.Clock, logger *zap.Logger) *MeetingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MeetingsHandler{repo: repo, accounts: acct, ledger: svc, clock: clk, logger: logger}
}

func meetingOccupancy(d *models.MeetingDetail) occupancy.Occupancy {
	return occupancy.Occupancy{
		Capacity:         d.Capacity,
		ConfirmedMentors: d.ConfirmedMentors,
		MentorOnly:       true,
	}
}

// List handles GET /meetings.
func (h *MeetingsHandler) List(c *gin.Context) {
	meetings, err := h.repo.ListUpcomingMeetings(c.Request.Context(), h.clock.Now())
	if err != nil {
		h.logger.Error("list meetings failed", zap.Error(err))
		response.Internal(c, "failed to load meetings")
		return
	}
	response.OK(c, meetings)
}

// Get handles GET /meetings/:id.
func (h *MeetingsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	d, err := h.repo.GetMeetingDetail(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get meeting failed", zap.Error(err), zap.String("meeting_id", id.String()))
		response.Internal(c, "failed to load meeting")
		return
	}
	if d == nil {
		response.NotFound(c, "meeting not found")
		return
	}

	occ := meetingOccupancy(d)
	body := gin.H{
		"meeting":         d,
		"url":             d.URL(),
		"spots_remaining": occ.SpotsRemaining(occupancy.PerspectiveMentor),
		"percent_full":    occ.PercentFull(occupancy.PerspectiveMentor),
	}
	if actor, ok := h.resolveMentor(c, false); ok {
		state, err := h.ledger.Status(c.Request.Context(), ledger.MeetingRef(id), actor)
		if err != nil {
			h.logger.Error("status lookup failed", zap.Error(err))
			response.Internal(c, "failed to load meeting")
			return
		}
		body["signed_up"] = state == ledger.StateConfirmed
	}
	response.OK(c, body)
}

// SignUp handles POST /meetings/:id/signup with toggle semantics.
func (h *MeetingsHandler) SignUp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid meeting id")
		return
	}
	actor, ok := h.resolveMentor(c, true)
	if !ok {
		return
	}

	ref := ledger.MeetingRef(id)
	state, err := h.ledger.Status(c.Request.Context(), ref, actor)
	if err != nil {
		h.logger.Error("status lookup failed", zap.Error(err))
		response.Internal(c, "sign-up failed")
		return
	}

	if state == ledger.StateConfirmed {
		if err := h.ledger.Withdraw(c.Request.Context(), ref, actor); err != nil {
			h.renderError(c, err)
			return
		}
		response.OK(c, gin.H{"action": "withdrawn", "message": "Thanks for letting us know!"})
		return
	}

	if _, err := h.ledger.SignUp(c.Request.Context(), ref, actor, c.ClientIP()); err != nil {
		h.renderError(c, err)
		return
	}
	response.OK(c, gin.H{"action": "signed_up", "message": "Success! See you there!"})
}

func (h *MeetingsHandler) resolveMentor(c *gin.Context, required bool) (ledger.Actor, bool) {
	userVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		if required {
			response.Unauthorized(c, "authentication required")
		}
		return ledger.Actor{}, false
	}
	roleVal, _ := c.Get(middleware.ContextUserRole)
	if role, _ := roleVal.(string); role != models.RoleMentor {
		if required {
			response.Forbidden(c, "meetings are mentor-only")
		}
		return ledger.Actor{}, false
	}
	userID, _ := userVal.(uuid.UUID)
	mentor, err := h.accounts.GetMentorByUserID(c.Request.Context(), userID)
	if err != nil || mentor == nil {
		if required {
			response.NotFound(c, "mentor profile not found")
		}
		return ledger.Actor{}, false
	}
	return ledger.MentorActor(*mentor), true
}

func (h *MeetingsHandler) renderError(c *gin.Context, err error) {
	renderLedgerError(c, h.logger, err)
}
