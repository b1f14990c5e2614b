package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/linguaprep/linguaprep-backend/internal/response"
	"github.com/linguaprep/linguaprep-backend/internal/service"
	"github.com/linguaprep/linguaprep-backend/internal/session"
)

// MediaHandler handles the speaking recorder endpoints. Every endpoint
// resolves the attempt's live session first, so the recorder state
// machine and the answer map stay on the server.
type MediaHandler struct {
	attemptService *service.AttemptService
	mediaService   *service.MediaService
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(attemptService *service.AttemptService, mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{
		attemptService: attemptService,
		mediaService:   mediaService,
	}
}

// GetRecorder godoc
// GET /api/v1/attempts/:attempt_id/questions/:question_id/recorder
// Returns the recorder's current state and accumulated duration.
func (h *MediaHandler) GetRecorder(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"state":        rec.State(),
		"duration_sec": rec.DurationSec(),
	})
}

// StartRecording godoc
// POST /api/v1/attempts/:attempt_id/questions/:question_id/recording/start
// Transitions the recorder to recording. Rejected while a take exists or
// a file upload already answered the question.
func (h *MediaHandler) StartRecording(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	if err := rec.StartRecording(); err != nil {
		failRecorderErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"state": rec.State()})
}

// StopRecording godoc
// POST /api/v1/attempts/:attempt_id/questions/:question_id/recording/stop
// Receives the finished take as a multipart blob and holds it unsaved.
func (h *MediaHandler) StopRecording(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	data, filename, contentType, ok := readUpload(c)
	if !ok {
		return
	}

	if err := rec.StopRecording(data, filename, contentType); err != nil {
		failRecorderErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"state":        rec.State(),
		"duration_sec": rec.DurationSec(),
	})
}

// SaveRecording godoc
// POST /api/v1/attempts/:attempt_id/questions/:question_id/recording/save
// Uploads the held take and writes its token into the answer map. On
// upload failure the recorder reverts to stopped and the answer map is
// untouched, so the candidate can retry.
func (h *MediaHandler) SaveRecording(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	token, err := rec.Save(c.Request.Context())
	if err != nil {
		failRecorderErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"state": rec.State(),
		"url":   h.mediaService.URL(token),
	})
}

// UploadFile godoc
// POST /api/v1/attempts/:attempt_id/questions/:question_id/file
// Answers a speaking question with a pre-recorded file instead of an
// in-browser take. Rejected once a recording exists until Reset.
func (h *MediaHandler) UploadFile(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	data, filename, contentType, ok := readUpload(c)
	if !ok {
		return
	}

	token, err := rec.UploadFile(c.Request.Context(), data, filename, contentType)
	if err != nil {
		failRecorderErr(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"state": rec.State(),
		"url":   h.mediaService.URL(token),
	})
}

// Reset godoc
// POST /api/v1/attempts/:attempt_id/questions/:question_id/reset
// Clears the recorded or uploaded answer so the candidate can start over.
func (h *MediaHandler) Reset(c *gin.Context) {
	rec, ok := h.recorder(c)
	if !ok {
		return
	}

	rec.Reset()
	response.Success(c, http.StatusOK, gin.H{"state": rec.State()})
}

func (h *MediaHandler) recorder(c *gin.Context) (*session.Recorder, bool) {
	claims, attemptID, ok := bindAttempt(c)
	if !ok {
		return nil, false
	}

	questionID, err := uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return nil, false
	}

	sess, err := h.attemptService.Session(c.Request.Context(), attemptID, claims.CandidateID)
	if err != nil {
		failAttemptErr(c, err)
		return nil, false
	}

	rec, err := sess.Recorder(questionID)
	if err != nil {
		failRecorderErr(c, err)
		return nil, false
	}
	return rec, true
}

func readUpload(c *gin.Context) (data []byte, filename, contentType string, ok bool) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
		return nil, "", "", false
	}
	defer file.Close()

	data, err = io.ReadAll(file)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return nil, "", "", false
	}

	return data, header.Filename, header.Header.Get("Content-Type"), true
}

// failRecorderErr maps recorder and media errors to response codes.
func failRecorderErr(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotSpeakingQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrNotSpeakingTask)
	case errors.Is(err, session.ErrRecorderBusy):
		response.Fail(c, http.StatusConflict, response.ErrRecorderBusy)
	case errors.Is(err, session.ErrSourceConflict):
		response.Fail(c, http.StatusConflict, response.ErrRecorderConflict)
	case errors.Is(err, session.ErrInvalidTransition):
		response.Fail(c, http.StatusConflict, response.ErrRecorderBusy)
	case errors.Is(err, session.ErrNoMedia):
		response.Fail(c, http.StatusBadRequest, response.ErrNoRecording)
	case errors.Is(err, service.ErrUnsupportedMedia):
		response.Fail(c, http.StatusBadRequest, response.ErrUnsupportedFile)
	case errors.Is(err, service.ErrMediaTooLarge):
		response.Fail(c, http.StatusBadRequest, response.ErrFileTooLarge)
	case errors.Is(err, service.ErrEmptyMedia):
		response.Fail(c, http.StatusBadRequest, response.ErrFileRequired)
	default:
		failAttemptErr(c, err)
	}
}
