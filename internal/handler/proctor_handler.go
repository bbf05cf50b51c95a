package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/repository"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
	"github.com/classpoint/cbt-backend/internal/validator"
)

// ProctorHandler handles the exam-desk endpoints: passcode issuance and
// revocation, hall listings, and exam results.
type ProctorHandler struct {
	passcodeService *service.PasscodeService
	monitorService  *service.MonitorService
	sessionRepo     *repository.ExamSessionRepository
}

// NewProctorHandler creates a new ProctorHandler.
func NewProctorHandler(
	passcodeService *service.PasscodeService,
	monitorService *service.MonitorService,
	sessionRepo *repository.ExamSessionRepository,
) *ProctorHandler {
	return &ProctorHandler{
		passcodeService: passcodeService,
		monitorService:  monitorService,
		sessionRepo:     sessionRepo,
	}
}

// GeneratePasscode godoc
// POST /api/v1/proctor/passcodes
// Issues a passcode for a student, allocating a hall seat when requested.
func (h *ProctorHandler) GeneratePasscode(c *gin.Context) {
	var req model.GeneratePasscodeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	view, err := h.passcodeService.Generate(c.Request.Context(), &req, claims.ProctorID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrStudentNotFound):
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		case errors.Is(err, service.ErrDuplicateActivePasscode):
			response.Fail(c, http.StatusConflict, response.ErrPasscodeActiveExists)
		case errors.Is(err, service.ErrHallFull):
			response.Fail(c, http.StatusConflict, response.ErrHallFull)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusCreated, view)
}

// ValidatePasscode godoc
// GET /api/v1/proctor/passcodes/:code
// Checks a passcode without consuming it.
func (h *ProctorHandler) ValidatePasscode(c *gin.Context) {
	code := c.Param("code")

	passcode, err := h.passcodeService.Validate(c.Request.Context(), code, 0)
	if err != nil {
		failPasscode(c, err)
		return
	}

	view, err := h.passcodeService.View(c.Request.Context(), passcode)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// RevokePasscode godoc
// DELETE /api/v1/proctor/passcodes/:code
// Invalidates a passcode before redemption. Idempotent.
func (h *ProctorHandler) RevokePasscode(c *gin.Context) {
	code := c.Param("code")

	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	revoked, err := h.passcodeService.Revoke(c.Request.Context(), code, claims.ProctorID)
	if err != nil {
		if errors.Is(err, service.ErrPasscodeNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrPasscodeNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"revoked": revoked})
}

// GetActivePasscode godoc
// GET /api/v1/proctor/students/:student_id/passcode
// Returns the student's live passcode, or null when none exists.
func (h *ProctorHandler) GetActivePasscode(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("student_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	view, err := h.passcodeService.GetActive(c.Request.Context(), studentID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, view)
}

// ListHalls godoc
// GET /api/v1/proctor/halls
// Lists exam halls for the desk and monitor pickers.
func (h *ProctorHandler) ListHalls(c *gin.Context) {
	halls, err := h.monitorService.Halls(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, halls)
}

// GetHallRoster godoc
// GET /api/v1/proctor/halls/:hall_id/roster
// Returns today's seat occupancy for a hall.
func (h *ProctorHandler) GetHallRoster(c *gin.Context) {
	hallID, err := strconv.Atoi(c.Param("hall_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	roster, err := h.monitorService.Roster(c.Request.Context(), hallID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, roster)
}

// ListExamResults godoc
// GET /api/v1/proctor/exams/:exam_id/results?page=&per_page=
// Lists graded attempts for an exam, newest submissions first.
func (h *ProctorHandler) ListExamResults(c *gin.Context) {
	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	results, total, err := h.sessionRepo.ListResultsByExam(c.Request.Context(), examID, perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, results, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// failPasscode maps passcode domain errors to API error codes.
func failPasscode(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPasscodeNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPasscodeNotFound)
	case errors.Is(err, service.ErrPasscodeUsed):
		response.Fail(c, http.StatusConflict, response.ErrPasscodeUsed)
	case errors.Is(err, service.ErrPasscodeExpired):
		response.Fail(c, http.StatusGone, response.ErrPasscodeExpired)
	case errors.Is(err, service.ErrOwnershipMismatch):
		response.Fail(c, http.StatusForbidden, response.ErrOwnershipMismatch)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
