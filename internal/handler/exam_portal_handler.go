package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/classpoint/cbt-backend/internal/middleware"
	"github.com/classpoint/cbt-backend/internal/model"
	"github.com/classpoint/cbt-backend/internal/response"
	"github.com/classpoint/cbt-backend/internal/service"
	"github.com/classpoint/cbt-backend/internal/validator"
)

// ExamPortalHandler handles the exam-taking endpoints a CBT station calls
// with its opaque session token.
type ExamPortalHandler struct {
	assemblerService *service.AssemblerService
	scoringService   *service.ScoringService
}

// NewExamPortalHandler creates a new ExamPortalHandler.
func NewExamPortalHandler(assemblerService *service.AssemblerService, scoringService *service.ScoringService) *ExamPortalHandler {
	return &ExamPortalHandler{
		assemblerService: assemblerService,
		scoringService:   scoringService,
	}
}

// GetPaper godoc
// GET /api/v1/exam/exams/:exam_id/paper
// Assembles the attempt on first call and returns the locked paper. The
// first fetch starts the attempt clock.
func (h *ExamPortalHandler) GetPaper(c *gin.Context) {
	session, examID, ok := h.resolveExam(c)
	if !ok {
		return
	}

	if _, err := h.assemblerService.Assemble(c.Request.Context(), examID, session.Identity.StudentID); err != nil {
		failAssembly(c, err)
		return
	}

	paper, err := h.assemblerService.BuildPaper(c.Request.Context(), examID, session.Identity.StudentID)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// GetState godoc
// GET /api/v1/exam/exams/:exam_id/state
// Returns attempt status and remaining time for a reconnecting device.
func (h *ExamPortalHandler) GetState(c *gin.Context) {
	session, examID, ok := h.resolveExam(c)
	if !ok {
		return
	}

	state, err := h.assemblerService.GetState(c.Request.Context(), examID, session.Identity.StudentID)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// Submit godoc
// POST /api/v1/exam/exams/:exam_id/submit
// Hands the attempt in for grading. Exactly one submit per attempt wins.
func (h *ExamPortalHandler) Submit(c *gin.Context) {
	session, examID, ok := h.resolveExam(c)
	if !ok {
		return
	}

	var req model.SubmitExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.scoringService.Grade(c.Request.Context(), examID, session.Identity.StudentID, &req, session.Identity.ExamHallID)
	if err != nil {
		failAssembly(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// resolveExam reads the exam ID from the path and enforces that a session
// bound to a specific exam cannot reach any other.
func (h *ExamPortalHandler) resolveExam(c *gin.Context) (*model.SessionToken, uuid.UUID, bool) {
	session := middleware.GetSession(c)
	if session == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	examID, err := uuid.Parse(c.Param("exam_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}

	if session.Identity.ExamID != nil && *session.Identity.ExamID != examID {
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
		return nil, uuid.Nil, false
	}

	return session, examID, true
}

// failAssembly maps assembly and grading domain errors to API error codes.
func failAssembly(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrSessionMissing):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrEmptyQuestionSet):
		response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
	case errors.Is(err, service.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
