package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/internal/service"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
	"github.com/nlp-m1/tp-portal-api/pkg/response"
)

// maxSubmissionBytes caps uploaded work files at 32 MiB.
const maxSubmissionBytes = 32 << 20

// SubmissionHandler exposes the work upload endpoint.
type SubmissionHandler struct {
	submissions *service.SubmissionService
}

// NewSubmissionHandler constructs SubmissionHandler.
func NewSubmissionHandler(submissions *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissions: submissions}
}

// Upload godoc
// @Summary Submit work for a TP
// @Description Accepts a multipart upload with fields student_id, tp_id, file_type and file
// @Tags Students
// @Accept multipart/form-data
// @Produce json
// @Param student_id formData string true "Student id"
// @Param tp_id formData int true "TP id"
// @Param file_type formData string true "Submission kind"
// @Param file formData file true "Work file"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /upload-submission [post]
func (h *SubmissionHandler) Upload(c *gin.Context) {
	studentID := c.PostForm("student_id")
	fileKind := c.PostForm("file_type")
	tpID, err := strconv.Atoi(c.DefaultPostForm("tp_id", "1"))
	if err != nil || tpID < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "tp_id must be a positive integer"))
		return
	}

	// Only notebook-family kinds and the terminal embeddings kind exist.
	if fileKind != "embeddings" && !strings.HasPrefix(fileKind, "ipynb") {
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidFileType, "file_type must be 'ipynb*' or 'embeddings'"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}
	if fileHeader.Size > maxSubmissionBytes {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file exceeds the upload size limit"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	content, err := io.ReadAll(io.LimitReader(file, maxSubmissionBytes+1))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload"))
		return
	}

	result, err := h.submissions.Submit(c.Request.Context(), models.SubmissionRequest{
		StudentID:        studentID,
		TPID:             tpID,
		FileKind:         fileKind,
		OriginalFilename: fileHeader.Filename,
		Content:          content,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}
