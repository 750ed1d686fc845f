package events

import (
	"errors"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/config"
	"github.com/dojohub/backend/internal/accounts"
	"github.com/dojohub/backend/internal/calendar"
	"github.com/dojohub/backend/internal/clock"
	"github.com/dojohub/backend/internal/ledger"
	"github.com/dojohub/backend/internal/middleware"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/internal/occupancy"
	"github.com/dojohub/backend/pkg/response"
)

// SessionsHandler handles class-session HTTP endpoints.
type SessionsHandler struct {
	repo     *Repository
	accounts *accounts.Repository
	ledger   *ledger.Service
	clock    clock.Clock
	site     config.SiteConfig
	logger   *zap.Logger
}

// NewSessionsHandler creates a sessions handler.
func NewSessionsHandler(repo *Repository, acct *accounts.Repository, svc *ledger.Service, clk clock.Clock, site config.SiteConfig, logger *zap.Logger) *SessionsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionsHandler{repo: repo, accounts: acct, ledger: svc, clock: clk, site: site, logger: logger}
}

func sessionOccupancy(d *models.SessionDetail) occupancy.Occupancy {
	return occupancy.Occupancy{
		Capacity:          d.Capacity,
		ConfirmedMentors:  d.ConfirmedMentors,
		ConfirmedStudents: d.ConfirmedStudents,
	}
}

// viewerPerspective maps the authenticated role (if any) to the slot pool the
// viewer sees. Guardians, students, and anonymous visitors all get the
// student-facing view.
func viewerPerspective(c *gin.Context) occupancy.Perspective {
	if role, ok := c.Get(middleware.ContextUserRole); ok && role == models.RoleMentor {
		return occupancy.PerspectiveMentor
	}
	return occupancy.PerspectiveStudent
}

// List handles GET /sessions. Returns upcoming sessions plus the month
// calendar grid; optional year/month query selects the displayed month.
func (h *SessionsHandler) List(c *gin.Context) {
	now := h.clock.Now()

	year, month := now.Year(), now.Month()
	if y, err := strconv.Atoi(c.Query("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(c.Query("month")); err == nil && m >= 1 && m <= 12 {
		month = time.Month(m)
	}

	upcoming, err := h.repo.ListUpcomingSessions(c.Request.Context(), now)
	if err != nil {
		h.logger.Error("list upcoming sessions failed", zap.Error(err))
		response.Internal(c, "failed to load sessions")
		return
	}
	monthSessions, err := h.repo.ListSessionsInMonth(c.Request.Context(), year, month, now)
	if err != nil {
		h.logger.Error("list month sessions failed", zap.Error(err))
		response.Internal(c, "failed to load sessions")
		return
	}

	entries := make([]calendar.Entry, 0, len(monthSessions))
	for _, s := range monthSessions {
		entries = append(entries, calendar.Entry{
			SessionID: s.ID,
			Code:      s.Course.Code,
			Title:     s.Course.Title,
			URL:       s.URL(),
			StartsAt:  s.StartsAt,
			Occupancy: sessionOccupancy(s),
		})
	}
	grid := calendar.RenderMonth(year, month, entries, now, h.site.FirstWeekday)

	calendarDate := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	response.OK(c, gin.H{
		"sessions":      monthSessions,
		"all_sessions":  upcoming,
		"calendar":      grid,
		"calendar_date": calendarDate,
		"prev_date":     calendar.AddMonths(calendarDate, -1),
		"next_date":     calendar.AddMonths(calendarDate, 1),
	})
}

// Get handles GET /sessions/:id. Spots remaining follow the viewer's role.
func (h *SessionsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	d, err := h.repo.GetSessionDetail(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get session failed", zap.Error(err), zap.String("session_id", id.String()))
		response.Internal(c, "failed to load session")
		return
	}
	if d == nil {
		response.NotFound(c, "session not found")
		return
	}

	occ := sessionOccupancy(d)
	persp := viewerPerspective(c)
	body := gin.H{
		"session":         d,
		"url":             d.URL(),
		"spots_remaining": occ.SpotsRemaining(persp),
		"percent_full":    occ.PercentFull(persp),
	}

	if actor, ok := h.resolveActor(c, false); ok {
		state, err := h.ledger.Status(c.Request.Context(), ledger.SessionRef(id), actor)
		if err != nil {
			h.logger.Error("status lookup failed", zap.Error(err))
			response.Internal(c, "failed to load session")
			return
		}
		body["signed_up"] = state == ledger.StateConfirmed
		body["waitlisted"] = state == ledger.StateWaitlisted
	}
	response.OK(c, body)
}

// SignUpRequest is the body for POST /sessions/:id/signup. Guardians pass
// the student they are registering; mentors sign themselves up.
type SignUpRequest struct {
	StudentID string `json:"student_id,omitempty"`
}

// SignUp handles POST /sessions/:id/signup with toggle semantics: a
// confirmed actor is withdrawn, anyone else is signed up.
func (h *SessionsHandler) SignUp(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	actor, ok := h.resolveActor(c, true)
	if !ok {
		return
	}

	ref := ledger.SessionRef(id)
	state, err := h.ledger.Status(c.Request.Context(), ref, actor)
	if err != nil {
		h.logger.Error("status lookup failed", zap.Error(err))
		response.Internal(c, "sign-up failed")
		return
	}

	if state == ledger.StateConfirmed {
		if err := h.ledger.Withdraw(c.Request.Context(), ref, actor); err != nil {
			h.renderLedgerError(c, err)
			return
		}
		response.OK(c, gin.H{"action": "withdrawn", "message": "Thanks for letting us know!"})
		return
	}

	if _, err := h.ledger.SignUp(c.Request.Context(), ref, actor, c.ClientIP()); err != nil {
		h.renderLedgerError(c, err)
		return
	}
	response.OK(c, gin.H{"action": "signed_up", "message": "Success! See you there!"})
}

// WaitlistRequest is the body for POST /sessions/:id/waitlist.
type WaitlistRequest struct {
	StudentID string `json:"student_id,omitempty"`
	Remove    bool   `json:"remove"`
}

// Waitlist handles POST /sessions/:id/waitlist.
func (h *SessionsHandler) Waitlist(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req WaitlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	actor, ok := h.resolveActorWithStudent(c, req.StudentID)
	if !ok {
		return
	}

	if err := h.ledger.ToggleWaitlist(c.Request.Context(), ledger.SessionRef(id), actor, req.Remove); err != nil {
		h.renderLedgerError(c, err)
		return
	}
	if req.Remove {
		response.OK(c, gin.H{"message": "You have been removed from the waitlist. Thanks for letting us know."})
		return
	}
	response.OK(c, gin.H{"message": "Added to waitlist successfully."})
}

// Orders handles GET /sessions/:id/orders (admin roster for check-in).
func (h *SessionsHandler) Orders(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	orders, err := h.repo.ListOrdersBySession(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		response.Internal(c, "failed to load orders")
		return
	}
	response.OK(c, orders)
}

// CheckInRequest is the body for POST /sessions/:id/checkin.
type CheckInRequest struct {
	OrderID           string `json:"order_id" binding:"required,uuid"`
	AlternateGuardian string `json:"alternate_guardian,omitempty"`
}

// CheckIn handles POST /sessions/:id/checkin. Toggles the order's check-in
// instant; an alternate guardian name is recorded when one is given.
func (h *SessionsHandler) CheckIn(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	orderID, _ := uuid.Parse(req.OrderID)

	order, err := h.repo.GetOrderByID(c.Request.Context(), orderID)
	if err != nil {
		h.logger.Error("get order failed", zap.Error(err))
		response.Internal(c, "check-in failed")
		return
	}
	if order == nil || order.SessionID != sessionID {
		response.NotFound(c, "order not found")
		return
	}

	var checkIn *time.Time
	if order.CheckIn == nil {
		now := h.clock.Now()
		checkIn = &now
	}
	alternate := order.AlternateGuardian
	if req.AlternateGuardian != "" {
		alternate = req.AlternateGuardian
	}
	if err := h.repo.UpdateOrderCheckIn(c.Request.Context(), orderID, checkIn, alternate); err != nil {
		h.logger.Error("update check-in failed", zap.Error(err))
		response.Internal(c, "check-in failed")
		return
	}
	response.OK(c, gin.H{"checked_in": checkIn != nil})
}

// Stats handles GET /sessions/:id/stats (admin).
func (h *SessionsHandler) Stats(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid session id")
		return
	}
	d, err := h.repo.GetSessionDetail(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get session failed", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}
	if d == nil {
		response.NotFound(c, "session not found")
		return
	}
	orders, err := h.repo.ListOrdersBySession(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("list orders failed", zap.Error(err))
		response.Internal(c, "failed to load stats")
		return
	}

	now := h.clock.Now()
	checkedIn := 0
	ageSum, ageCount := 0, 0
	for _, o := range orders {
		if o.CheckIn == nil {
			continue
		}
		checkedIn++
		if age := o.Student.Age(now); age >= 0 {
			ageSum += age
			ageCount++
		}
	}

	attendance := 0.0
	if len(orders) > 0 {
		attendance = float64(checkedIn) / float64(len(orders)) * 100
	}
	averageAge := 0.0
	if ageCount > 0 {
		averageAge = float64(ageSum) / float64(ageCount)
	}

	occ := sessionOccupancy(d)
	response.OK(c, gin.H{
		"session":               d,
		"confirmed_students":    d.ConfirmedStudents,
		"checked_in":            checkedIn,
		"attendance_percentage": attendance,
		"average_age":           averageAge,
		"percent_full":          occ.PercentFull(occupancy.PerspectiveStudent),
	})
}

// resolveActor builds the typed ledger actor for the authenticated user.
// Guardians need a student_id in the JSON body; mentors act for themselves.
// With required=false an anonymous or unresolvable viewer yields (zero,
// false) without writing a response.
func (h *SessionsHandler) resolveActor(c *gin.Context, required bool) (ledger.Actor, bool) {
	var req SignUpRequest
	if required {
		_ = c.ShouldBindJSON(&req)
	}
	return h.resolveActorInternal(c, req.StudentID, required)
}

func (h *SessionsHandler) resolveActorWithStudent(c *gin.Context, studentID string) (ledger.Actor, bool) {
	return h.resolveActorInternal(c, studentID, true)
}

func (h *SessionsHandler) resolveActorInternal(c *gin.Context, studentID string, required bool) (ledger.Actor, bool) {
	userVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		if required {
			response.Unauthorized(c, "authentication required")
		}
		return ledger.Actor{}, false
	}
	userID, _ := userVal.(uuid.UUID)
	roleVal, _ := c.Get(middleware.ContextUserRole)
	role, _ := roleVal.(string)

	switch role {
	case models.RoleMentor:
		mentor, err := h.accounts.GetMentorByUserID(c.Request.Context(), userID)
		if err != nil || mentor == nil {
			if required {
				response.NotFound(c, "mentor profile not found")
			}
			return ledger.Actor{}, false
		}
		return ledger.MentorActor(*mentor), true
	case models.RoleGuardian:
		guardian, err := h.accounts.GetGuardianByUserID(c.Request.Context(), userID)
		if err != nil || guardian == nil {
			if required {
				response.NotFound(c, "guardian profile not found")
			}
			return ledger.Actor{}, false
		}
		sid, err := uuid.Parse(studentID)
		if err != nil {
			if required {
				response.BadRequest(c, "student_id required")
			}
			return ledger.Actor{}, false
		}
		student, err := h.accounts.GetStudentByID(c.Request.Context(), sid)
		if err != nil || student == nil {
			if required {
				response.NotFound(c, "student not found")
			}
			return ledger.Actor{}, false
		}
		// Guardians may only act for their own students.
		if student.GuardianID != guardian.ID {
			if required {
				response.Forbidden(c, "student does not belong to this guardian")
			}
			return ledger.Actor{}, false
		}
		return ledger.StudentActor(*guardian, *student), true
	default:
		if required {
			response.Forbidden(c, "sign-up requires a mentor or guardian account")
		}
		return ledger.Actor{}, false
	}
}

func (h *SessionsHandler) renderLedgerError(c *gin.Context, err error) {
	renderLedgerError(c, h.logger, err)
}

func renderLedgerError(c *gin.Context, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, ledger.ErrEventNotFound):
		response.NotFound(c, "event not found")
	case errors.Is(err, ledger.ErrEventClosed):
		response.BadRequest(c, "this event is no longer open for sign-up")
	case errors.Is(err, ledger.ErrCapacityExceeded):
		response.Conflict(c, "no spots remaining")
	case errors.Is(err, ledger.ErrDuplicateRegistration):
		response.Conflict(c, "student is already registered for this session")
	case errors.Is(err, ledger.ErrNotRegistered):
		response.NotFound(c, "no registration to withdraw")
	case errors.Is(err, ledger.ErrAlreadyConfirmed):
		response.Conflict(c, "already holds a confirmed spot")
	case errors.Is(err, ledger.ErrMentorsOnly), errors.Is(err, ledger.ErrNoWaitlist):
		response.BadRequest(c, err.Error())
	default:
		logger.Error("ledger operation failed", zap.Error(err))
		response.Internal(c, "operation failed")
	}
}
