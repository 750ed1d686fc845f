package auth

import (
	"errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/pkg/response"
	"github.com/dojohub/backend/pkg/utils"
)

// ErrEmailTaken is returned when registering with an email already in use.
var ErrEmailTaken = errors.New("email already registered")

// Handler handles auth HTTP endpoints. This is boundary glue only: the
// ledger works on typed actors, never on raw user accounts.
type Handler struct {
	repo   *Repository
	jwt    *JWTService
	logger *zap.Logger
}

// NewHandler creates an auth handler.
func NewHandler(repo *Repository, jwt *JWTService, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, jwt: jwt, logger: logger}
}

// RegisterRequest is the body for POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Role      string `json:"role" binding:"required,oneof=mentor guardian"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		response.Internal(c, "failed to register")
		return
	}
	u := &models.User{
		Email:        req.Email,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         req.Role,
	}
	if err := h.repo.Create(c.Request.Context(), u); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			response.Conflict(c, "email already registered")
			return
		}
		h.logger.Error("create user failed", zap.Error(err))
		response.Internal(c, "failed to register")
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.Created(c, gin.H{"user": u, "token": token})
}

// LoginRequest is the body for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	u, err := h.repo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.Error("lookup user failed", zap.Error(err))
		response.Internal(c, "failed to log in")
		return
	}
	if u == nil || !u.Active || !utils.CheckPassword(req.Password, u.PasswordHash) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	token, err := h.jwt.Generate(u.ID, u.Email, u.Role)
	if err != nil {
		response.Internal(c, "failed to issue token")
		return
	}
	response.OK(c, gin.H{"user": u, "token": token})
}
