package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nlp-m1/tp-portal-api/internal/models"
	"github.com/nlp-m1/tp-portal-api/internal/service"
	appErrors "github.com/nlp-m1/tp-portal-api/pkg/errors"
	"github.com/nlp-m1/tp-portal-api/pkg/response"
)

// TPHandler exposes exercise period endpoints.
type TPHandler struct {
	tps *service.TPService
}

// NewTPHandler constructs TPHandler.
func NewTPHandler(tps *service.TPService) *TPHandler {
	return &TPHandler{tps: tps}
}

// Get godoc
// @Summary Get a TP
// @Description Returns one exercise period with its computed window end
// @Tags TPs
// @Produce json
// @Param id path int true "TP id"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /tp/{id} [get]
func (h *TPHandler) Get(c *gin.Context) {
	tpID, err := strconv.Atoi(c.Param("id"))
	if err != nil || tpID < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "id must be a positive integer"))
		return
	}

	view, err := h.tps.Get(c.Request.Context(), tpID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Create godoc
// @Summary Create a TP
// @Description Opens a new exercise period
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body models.CreateTPRequest true "TP payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/tp [post]
func (h *TPHandler) Create(c *gin.Context) {
	var req models.CreateTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid TP payload"))
		return
	}

	view, err := h.tps.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}
