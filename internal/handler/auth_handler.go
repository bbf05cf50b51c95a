package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
	"github.com/classpoint/cbt-backend/internal/validator"
)

// AuthHandler handles proctor authentication endpoints.
type AuthHandler struct {
	authService    *service.AuthService
	proctorService *service.ProctorService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, proctorService *service.ProctorService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		proctorService: proctorService,
	}
}

// ProctorLogin godoc
// POST /api/v1/auth/proctor/login
// Validates email + password and returns a JWT carrying role permissions.
func (h *AuthHandler) ProctorLogin(c *gin.Context) {
	var req model.ProctorLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	proctor, token, err := h.proctorService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, model.ProctorLoginResponse{
		Token:       token,
		Proctor:     *proctor,
		Permissions: model.PermissionsForRole(proctor.Role),
	})
}

// GetProctorProfile godoc
// GET /api/v1/auth/proctor/me
// Returns the profile of the currently authenticated proctor.
func (h *AuthHandler) GetProctorProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	proctor, err := h.proctorService.GetByID(c.Request.Context(), claims.ProctorID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"proctor":     proctor,
		"permissions": claims.Permissions,
	})
}
