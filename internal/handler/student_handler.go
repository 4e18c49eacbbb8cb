package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/internal/service"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
	"github.com/nlp-m1/tp-portal-api/pkg/response"
)

// StudentHandler exposes the student-facing registration and dataset
// endpoints.
type StudentHandler struct {
	registration *service.RegistrationService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(registration *service.RegistrationService) *StudentHandler {
	return &StudentHandler{registration: registration}
}

// Register godoc
// @Summary Register for a TP
// @Description Allocates a randomized dataset package for the student, or returns the existing allocation
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body models.RegistrationRequest true "Registration payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /register [post]
func (h *StudentHandler) Register(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	result, err := h.registration.Register(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

type studentLoginPayload struct {
	StudentID string `json:"student_id"`
	TPID      int    `json:"tp_id"`
	FullName  string `json:"full_name"`
}

// Login godoc
// @Summary Re-open an existing allocation
// @Description Logs a student back in by student id and TP, or by full name for pre-built archives
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body handler.studentLoginPayload true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /student/login [post]
func (h *StudentHandler) Login(c *gin.Context) {
	var payload studentLoginPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}

	var (
		result *models.AllocationResult
		err    error
	)
	if payload.FullName != "" {
		result, err = h.registration.LoginByName(c.Request.Context(), models.NameLoginRequest{
			StudentID: payload.StudentID,
			FullName:  payload.FullName,
		})
	} else {
		result, err = h.registration.Login(c.Request.Context(), models.StudentLoginRequest{
			StudentID: payload.StudentID,
			TPID:      payload.TPID,
		})
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List students
// @Description Lists roster names that have not yet submitted
// @Tags Students
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/list [get]
func (h *StudentHandler) List(c *gin.Context) {
	entries, err := h.registration.ListStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Meta godoc
// @Summary Download a student's manifest
// @Description Returns the meta.csv from the student's dataset package
// @Tags Students
// @Produce text/csv
// @Param id path string true "Student id"
// @Param tp_id query int false "TP id"
// @Success 200 {string} string "CSV content"
// @Failure 404 {object} response.Envelope
// @Router /student/{id}/meta [get]
func (h *StudentHandler) Meta(c *gin.Context) {
	studentID := c.Param("id")
	tpID := tpIDQuery(c)

	meta, err := h.registration.GetStudentMeta(c.Request.Context(), tpID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_meta.csv", studentID))
	c.Data(http.StatusOK, "text/csv", meta)
}

// Zip godoc
// @Summary Download a student's dataset package
// @Tags Students
// @Produce application/zip
// @Param id path string true "Student id"
// @Param tp_id query int false "TP id"
// @Success 200 {string} string "Zip content"
// @Failure 404 {object} response.Envelope
// @Router /student/{id}/zip [get]
func (h *StudentHandler) Zip(c *gin.Context) {
	studentID := c.Param("id")
	tpID := tpIDQuery(c)

	content, err := h.registration.GetStudentZip(c.Request.Context(), tpID, studentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s_data.zip", studentID))
	c.Data(http.StatusOK, "application/zip", content)
}

func tpIDQuery(c *gin.Context) int {
	tpID, err := strconv.Atoi(c.DefaultQuery("tp_id", "1"))
	if err != nil || tpID < 1 {
		return 1
	}
	return tpID
}
