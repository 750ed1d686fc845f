package accounts

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/middleware"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/pkg/response"
)

// Handler handles mentor-directory and student-management endpoints.
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler creates an accounts handler.
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// ListMentors handles GET /mentors (public directory, active only).
func (h *Handler) ListMentors(c *gin.Context) {
	mentors, err := h.repo.ListActiveMentors(c.Request.Context())
	if err != nil {
		h.logger.Error("list mentors failed", zap.Error(err))
		response.Internal(c, "failed to load mentors")
		return
	}
	response.OK(c, mentors)
}

// GetMentor handles GET /mentors/:id.
func (h *Handler) GetMentor(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid mentor id")
		return
	}
	m, err := h.repo.GetMentorByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get mentor failed", zap.Error(err))
		response.Internal(c, "failed to load mentor")
		return
	}
	if m == nil || !m.Active {
		response.NotFound(c, "mentor not found")
		return
	}
	response.OK(c, m)
}

// guardian returns the guardian profile for the authenticated user, writing
// the error response when there is none.
func (h *Handler) guardian(c *gin.Context) (*models.Guardian, bool) {
	userVal, ok := c.Get(middleware.ContextUserID)
	if !ok {
		response.Unauthorized(c, "authentication required")
		return nil, false
	}
	userID, _ := userVal.(uuid.UUID)
	g, err := h.repo.GetGuardianByUserID(c.Request.Context(), userID)
	if err != nil {
		h.logger.Error("get guardian failed", zap.Error(err))
		response.Internal(c, "failed to load account")
		return nil, false
	}
	if g == nil {
		response.NotFound(c, "guardian profile not found")
		return nil, false
	}
	return g, true
}

// ListMyStudents handles GET /students.
func (h *Handler) ListMyStudents(c *gin.Context) {
	g, ok := h.guardian(c)
	if !ok {
		return
	}
	students, err := h.repo.ListStudentsByGuardian(c.Request.Context(), g.ID)
	if err != nil {
		h.logger.Error("list students failed", zap.Error(err))
		response.Internal(c, "failed to load students")
		return
	}
	response.OK(c, students)
}

// StudentRequest is the body for creating or updating a student.
type StudentRequest struct {
	FirstName string     `json:"first_name" binding:"required"`
	LastName  string     `json:"last_name" binding:"required"`
	Birthday  *time.Time `json:"birthday,omitempty"`
	Gender    string     `json:"gender,omitempty"`
}

// CreateStudent handles POST /students.
func (h *Handler) CreateStudent(c *gin.Context) {
	g, ok := h.guardian(c)
	if !ok {
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s := &models.Student{
		GuardianID: g.ID,
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Birthday:   req.Birthday,
		Gender:     req.Gender,
	}
	if err := h.repo.CreateStudent(c.Request.Context(), s); err != nil {
		h.logger.Error("create student failed", zap.Error(err))
		response.Internal(c, "failed to create student")
		return
	}
	response.Created(c, s)
}

// ownedStudent loads the student and verifies it belongs to the caller.
func (h *Handler) ownedStudent(c *gin.Context, g *models.Guardian) (*models.Student, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid student id")
		return nil, false
	}
	s, err := h.repo.GetStudentByID(c.Request.Context(), id)
	if err != nil {
		h.logger.Error("get student failed", zap.Error(err))
		response.Internal(c, "failed to load student")
		return nil, false
	}
	if s == nil || s.GuardianID != g.ID {
		response.NotFound(c, "student not found")
		return nil, false
	}
	return s, true
}

// GetStudent handles GET /students/:id.
func (h *Handler) GetStudent(c *gin.Context) {
	g, ok := h.guardian(c)
	if !ok {
		return
	}
	s, ok := h.ownedStudent(c, g)
	if !ok {
		return
	}
	response.OK(c, s)
}

// UpdateStudent handles PUT /students/:id.
func (h *Handler) UpdateStudent(c *gin.Context) {
	g, ok := h.guardian(c)
	if !ok {
		return
	}
	s, ok := h.ownedStudent(c, g)
	if !ok {
		return
	}
	var req StudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	s.FirstName = req.FirstName
	s.LastName = req.LastName
	s.Birthday = req.Birthday
	s.Gender = req.Gender
	if err := h.repo.UpdateStudent(c.Request.Context(), s); err != nil {
		h.logger.Error("update student failed", zap.Error(err))
		response.Internal(c, "failed to update student")
		return
	}
	response.OK(c, s)
}
