package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/middleware"
	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	logger  *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{service: svc, logger: logger}
}

// Login godoc
// @Summary Pick a role
// @Description Issues a session token for the demo student or teacher. Requests keep sending the same X-Session-ID so the proofing workspace follows the browser across role switches.
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Role payload"
// @Param X-Session-ID header string false "Guest session id"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.logger.Info("role selected",
		zap.String("user_id", res.User.ID),
		zap.String("role", string(res.User.Role)),
		zap.String("session", middleware.BrowserSessionKey(c)),
	)

	response.JSON(c, http.StatusOK, res)
}

// Me godoc
// @Summary Get current user
// @Description Returns the session user carried by the token
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, claims.User())
}
