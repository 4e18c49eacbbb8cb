package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/internal/service"
	"github.com/nlp-m1/tp-portal-api/pkg/response"
)

// ReportHandler exposes the admin activity and export endpoints.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler constructs ReportHandler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// Activity godoc
// @Summary List activity log
// @Description Returns the audit trail newest first
// @Tags Admin
// @Produce json
// @Param action query string false "Filter by action key"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/activity [get]
func (h *ReportHandler) Activity(c *gin.Context) {
	filter := models.ActivityFilter{ActionKey: c.Query("action")}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	logs, total, err := h.reports.Activity(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, logs, pagination)
}

// SubmissionsCSV godoc
// @Summary Export submissions as CSV
// @Tags Admin
// @Produce text/csv
// @Param tp_id query int false "TP id"
// @Success 200 {string} string "CSV content"
// @Failure 401 {object} response.Envelope
// @Router /admin/reports/submissions.csv [get]
func (h *ReportHandler) SubmissionsCSV(c *gin.Context) {
	content, filename, err := h.reports.SubmissionsCSV(c.Request.Context(), tpIDQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "text/csv", content)
}

// SubmissionsPDF godoc
// @Summary Export submissions as PDF
// @Tags Admin
// @Produce application/pdf
// @Param tp_id query int false "TP id"
// @Success 200 {string} string "PDF content"
// @Failure 401 {object} response.Envelope
// @Router /admin/reports/submissions.pdf [get]
func (h *ReportHandler) SubmissionsPDF(c *gin.Context) {
	content, filename, err := h.reports.SubmissionsPDF(c.Request.Context(), tpIDQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", content)
}
