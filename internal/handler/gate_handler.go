package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
	"github.com/classpoint/cbt-backend/internal/validator"
)

// GateHandler handles the unauthenticated admission gate: a CBT station
// trades an admission number plus passcode for an opaque session token.
type GateHandler struct {
	passcodeService *service.PasscodeService
	sessionService  *service.SessionService
	studentRepo     *repository.StudentRepository
}

// NewGateHandler creates a new GateHandler.
func NewGateHandler(
	passcodeService *service.PasscodeService,
	sessionService *service.SessionService,
	studentRepo *repository.StudentRepository,
) *GateHandler {
	return &GateHandler{
		passcodeService: passcodeService,
		sessionService:  sessionService,
		studentRepo:     studentRepo,
	}
}

// Redeem godoc
// POST /api/v1/gate/redeem
// Consumes a passcode and opens an exam session. The passcode burns on
// first successful use; a second attempt gets PASSCODE_USED.
func (h *GateHandler) Redeem(c *gin.Context) {
	var req model.RedeemPasscodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentRepo.GetByAdmissionNo(c.Request.Context(), req.AdmissionNo)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Same code as a bad passcode; the gate never confirms which
			// half of the pair was wrong.
			response.Fail(c, http.StatusNotFound, response.ErrPasscodeNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if _, err := h.passcodeService.Validate(c.Request.Context(), req.Code, student.ID); err != nil {
		failPasscode(c, err)
		return
	}

	passcode, err := h.passcodeService.Consume(c.Request.Context(), req.Code)
	if err != nil {
		failPasscode(c, err)
		return
	}

	identity := model.StudentIdentity{
		StudentID:   student.ID,
		AdmissionNo: student.AdmissionNo,
		Name:        student.Name,
		ExamID:      passcode.ExamID,
		ExamHallID:  passcode.ExamHallID,
		SeatNumber:  passcode.SeatNumber,
	}

	session, err := h.sessionService.CreateSession(c.Request.Context(), identity, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
		"identity":   session.Identity,
	})
}

// Refresh godoc
// POST /api/v1/gate/refresh
// Trades a valid session token for a fresh one. The old token dies.
func (h *GateHandler) Refresh(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	fresh, err := h.sessionService.RefreshSession(c.Request.Context(), session.Token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			response.Fail(c, http.StatusUnauthorized, response.ErrSessionExpired)
		case errors.Is(err, service.ErrSessionNotFound):
			response.Fail(c, http.StatusUnauthorized, response.ErrSessionNotFound)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token":      fresh.Token,
		"expires_at": fresh.ExpiresAt,
	})
}

// Logout godoc
// POST /api/v1/gate/logout
// Terminates the station session. Idempotent.
func (h *GateHandler) Logout(c *gin.Context) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	terminated, err := h.sessionService.TerminateSession(c.Request.Context(), session.Token)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"terminated": terminated})
}
