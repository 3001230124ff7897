package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bpcprep/examportal-backend/internal/config"
	"github.com/bpcprep/examportal-backend/internal/exam"
	"github.com/bpcprep/examportal-backend/internal/middleware"
	"github.com/bpcprep/examportal-backend/internal/model"
	"github.com/bpcprep/examportal-backend/internal/response"
	"github.com/bpcprep/examportal-backend/internal/service"
	"github.com/bpcprep/examportal-backend/internal/validator"
)

// ExamHandler handles the practice exam endpoints: session lifecycle,
// answers, flags, submission and results.
type ExamHandler struct {
	examService *service.ExamService
	examCfg     config.ExamConfig
}

// NewExamHandler creates a new ExamHandler.
func NewExamHandler(examService *service.ExamService, examCfg config.ExamConfig) *ExamHandler {
	return &ExamHandler{examService: examService, examCfg: examCfg}
}

// GetConfig godoc
// GET /api/v1/exam/config
// Public summary of the exam format.
func (h *ExamHandler) GetConfig(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"exam_class":          h.examCfg.ExamClass,
		"exam_code":           h.examCfg.ExamCode,
		"num_mcq":             h.examCfg.NumMCQ,
		"num_practical":       h.examCfg.NumPractical,
		"duration_seconds":    h.examCfg.DurationSeconds,
		"pass_percent":        h.examCfg.PassThreshold,
		"mcq_pass_percent":    h.examCfg.MCQPassThreshold,
		"dual_component_pass": h.examCfg.DualComponentRequired,
	})
}

// StartSession godoc
// POST /api/v1/exam/session
// Creates a fresh session, replacing any existing one.
func (h *ExamHandler) StartSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.examService.StartSession(c.Request.Context(), claims.UserID, claims.Username)
	if err != nil {
		var poolErr *exam.InsufficientPoolError
		if errors.As(err, &poolErr) {
			response.Fail(c, http.StatusConflict, response.ErrInsufficientPool)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"session": state})
}

// GetSession godoc
// GET /api/v1/exam/session
// Resumes the active session; 404 when none exists or the blob was corrupt.
func (h *ExamHandler) GetSession(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	state, err := h.examService.GetState(c.Request.Context(), claims.UserID, claims.Username)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// GetQuestions godoc
// GET /api/v1/exam/questions
// The session's question paper with answers redacted and options permuted.
func (h *ExamHandler) GetQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questions, err := h.examService.SessionQuestions(c.Request.Context(), claims.UserID)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// SaveAnswer godoc
// PUT /api/v1/exam/answer
func (h *ExamHandler) SaveAnswer(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	state, err := h.examService.SaveAnswer(c.Request.Context(), claims.UserID, req)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// ToggleFlag godoc
// POST /api/v1/exam/flag/:question_id
func (h *ExamHandler) ToggleFlag(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	questionID := c.Param("question_id")
	if questionID == "" {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	state, err := h.examService.ToggleFlag(c.Request.Context(), claims.UserID, questionID)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"session": state})
}

// Submit godoc
// POST /api/v1/exam/submit
func (h *ExamHandler) Submit(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.examService.Submit(c.Request.Context(), claims.UserID, claims.Username)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// GetResults godoc
// GET /api/v1/exam/results
// Re-scores the submitted session; scoring is deterministic so the report
// matches the one returned at submission.
func (h *ExamHandler) GetResults(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	results, err := h.examService.Results(c.Request.Context(), claims.UserID)
	if err != nil {
		h.failSessionError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// Abandon godoc
// DELETE /api/v1/exam/session
func (h *ExamHandler) Abandon(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.examService.Abandon(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"abandoned": true})
}

// failSessionError maps engine errors onto API codes.
func (h *ExamHandler) failSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, exam.ErrNoSession):
		response.Fail(c, http.StatusNotFound, response.ErrNoSession)
	case errors.Is(err, exam.ErrCorruptSession):
		response.Fail(c, http.StatusNotFound, response.ErrCorruptSession)
	case errors.Is(err, exam.ErrAlreadySubmitted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadySubmitted)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
