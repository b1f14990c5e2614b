package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/middleware"
	"github.com/linguaprep/linguaprep-backend/internal/model"
	"github.com/linguaprep/linguaprep-backend/internal/response"
	"github.com/linguaprep/linguaprep-backend/internal/service"
	"github.com/linguaprep/linguaprep-backend/internal/session"
	"github.com/linguaprep/linguaprep-backend/internal/validator"
)

// AttemptHandler handles candidate-facing attempt endpoints.
type AttemptHandler struct {
	attemptService *service.AttemptService
	paperService   *service.PaperService
	reviewService  *service.ReviewService
}

// NewAttemptHandler creates a new AttemptHandler.
func NewAttemptHandler(
	attemptService *service.AttemptService,
	paperService *service.PaperService,
	reviewService *service.ReviewService,
) *AttemptHandler {
	return &AttemptHandler{
		attemptService: attemptService,
		paperService:   paperService,
		reviewService:  reviewService,
	}
}

// ListExams godoc
// GET /api/v1/exams
// Returns published exams available to the candidate.
func (h *AttemptHandler) ListExams(c *gin.Context) {
	exams, err := h.paperService.ListPublished(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}
	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartAttempt godoc
// POST /api/v1/attempts
// Starts an attempt for an exam, or resumes the existing one (idempotent).
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.StartAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	attempt, err := h.attemptService.Start(c.Request.Context(), req.ExamID, claims.CandidateID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotPublished):
			response.Fail(c, http.StatusNotFound, response.ErrExamNotPublished)
		case errors.Is(err, service.ErrNoQuestions):
			response.Fail(c, http.StatusConflict, response.ErrNoQuestions)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"attempt": attempt})
}

// ListAttempts godoc
// GET /api/v1/attempts
// Returns the candidate's attempts, newest first.
func (h *AttemptHandler) ListAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptService.ListAttempts(c.Request.Context(), claims.CandidateID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if attempts == nil {
		attempts = []model.Attempt{}
	}
	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// GetPaper godoc
// GET /api/v1/attempts/:attempt_id/paper
// Returns the candidate-facing paper for the attempt's exam from Redis.
// Ownership is verified first so papers cannot be fetched cross-candidate.
func (h *AttemptHandler) GetPaper(c *gin.Context) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return
	}

	attempt, err := h.attemptService.GetAttempt(c.Request.Context(), attemptID, claims.CandidateID)
	if err != nil {
		failAttemptErr(c, err)
		return
	}

	paper, err := h.paperService.GetPaper(c.Request.Context(), attempt.ExamID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrExamNotPublished)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// GetState godoc
// GET /api/v1/attempts/:attempt_id/state
// Returns saved answers and remaining time. This endpoint covers the
// page reload: the frontend rebuilds the screen entirely from it.
func (h *AttemptHandler) GetState(c *gin.Context) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), attemptID, claims.CandidateID)
	if err != nil {
		failAttemptErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, state)
}

// SetAnswer godoc
// PUT /api/v1/attempts/:attempt_id/answers/:question_id
// Captures one answer change. An empty value clears the answer.
func (h *AttemptHandler) SetAnswer(c *gin.Context) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.SetAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.SetAnswer(c.Request.Context(), attemptID, claims.CandidateID, questionID, req.Value); err != nil {
		failAttemptErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Submit godoc
// POST /api/v1/attempts/:attempt_id/submit
// Finishes the attempt: pending autosave is cancelled, the final answer
// set is saved synchronously, and grading is queued. Repeated calls are
// no-ops.
func (h *AttemptHandler) Submit(c *gin.Context) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return
	}

	if err := h.attemptService.Submit(c.Request.Context(), attemptID, claims.CandidateID); err != nil {
		failAttemptErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetResult godoc
// GET /api/v1/attempts/:attempt_id/result
// Returns the graded report: per-question reconciliation plus per-skill
// totals and bands.
func (h *AttemptHandler) GetResult(c *gin.Context) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return
	}

	result, err := h.reviewService.GetResult(c.Request.Context(), attemptID, claims.CandidateID)
	if err != nil {
		if errors.Is(err, service.ErrResultNotReady) {
			response.Fail(c, http.StatusConflict, response.ErrResultNotReady)
			return
		}
		failAttemptErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// bindAttempt pulls the claims and the attempt id path param, shared by
// the attempt and media handlers.
func bindAttempt(c *gin.Context) (*service.Claims, uuid.UUID, bool) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return nil, uuid.Nil, false
	}

	attemptID, err := uuid.Parse(c.Param("attempt_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, uuid.Nil, false
	}
	return claims, attemptID, true
}

// failAttemptErr maps attempt/session errors to response codes.
func failAttemptErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotAttemptOwner):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrAttemptFinished), errors.Is(err, session.ErrAttemptClosed):
		response.Fail(c, http.StatusConflict, response.ErrAttemptFinished)
	case errors.Is(err, session.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
