package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
	appErrors "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/errors"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/response"
)

// MedicationHandler exposes medication endpoints.
type MedicationHandler struct {
	meds *service.MedicationService
}

// NewMedicationHandler constructs MedicationHandler.
func NewMedicationHandler(meds *service.MedicationService) *MedicationHandler {
	return &MedicationHandler{meds: meds}
}

// List godoc
// @Summary List medications
// @Tags Medications
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param unassigned query bool false "General stock only"
// @Param kind query string false "STANDING or EXTRA"
// @Param active query bool false "Filter by active state"
// @Param activeOn query string false "Coverage date YYYY-MM-DD"
// @Success 200 {object} response.Envelope
// @Router /medications [get]
func (h *MedicationHandler) List(c *gin.Context) {
	var filter models.MedicationFilter
	filter.StudentID = c.Query("studentId")
	if unassigned := c.Query("unassigned"); unassigned != "" {
		if v, err := strconv.ParseBool(unassigned); err == nil {
			filter.Unassigned = v
		}
	}
	if kind := c.Query("kind"); kind != "" {
		k := models.MedicationKind(kind)
		if !k.Valid() {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown medication kind "+kind))
			return
		}
		filter.Kind = &k
	}
	if active := c.Query("active"); active != "" {
		if v, err := strconv.ParseBool(active); err == nil {
			filter.Active = &v
		}
	}
	if activeOn := c.Query("activeOn"); activeOn != "" {
		date, err := models.ParseDate(activeOn)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid activeOn date"))
			return
		}
		filter.ActiveOn = &date
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = size
	}

	meds, pagination, err := h.meds.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, meds, pagination)
}

// Get godoc
// @Summary Get medication
// @Tags Medications
// @Produce json
// @Param id path string true "Medication ID"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [get]
func (h *MedicationHandler) Get(c *gin.Context) {
	med, err := h.meds.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, med, nil)
}

// Create godoc
// @Summary Create medication
// @Tags Medications
// @Accept json
// @Produce json
// @Param payload body service.MedicationPayload true "Medication payload"
// @Success 201 {object} response.Envelope
// @Router /medications [post]
func (h *MedicationHandler) Create(c *gin.Context) {
	var payload service.MedicationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	med, err := h.meds.Create(c.Request.Context(), actorUID(c), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, med)
}

type extraDoseRequest struct {
	service.MedicationPayload
	StudentID string `json:"student_id" binding:"required"`
	Date      string `json:"date" binding:"required"`
}

// CreateExtra godoc
// @Summary Record an extra one-day dose for a student
// @Tags Medications
// @Accept json
// @Produce json
// @Param payload body extraDoseRequest true "Extra dose payload"
// @Success 201 {object} response.Envelope
// @Router /medications/extra [post]
func (h *MedicationHandler) CreateExtra(c *gin.Context) {
	var req extraDoseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}
	med, err := h.meds.CreateExtra(c.Request.Context(), actorUID(c), req.StudentID, req.MedicationPayload, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, med)
}

// Update godoc
// @Summary Update medication
// @Tags Medications
// @Accept json
// @Produce json
// @Param id path string true "Medication ID"
// @Param payload body service.MedicationPayload true "Medication payload"
// @Success 200 {object} response.Envelope
// @Router /medications/{id} [put]
func (h *MedicationHandler) Update(c *gin.Context) {
	var payload service.MedicationPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	med, err := h.meds.Update(c.Request.Context(), actorUID(c), c.Param("id"), payload)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, med, nil)
}

// Delete godoc
// @Summary Deactivate medication
// @Tags Medications
// @Produce json
// @Param id path string true "Medication ID"
// @Success 204
// @Router /medications/{id} [delete]
func (h *MedicationHandler) Delete(c *gin.Context) {
	if err := h.meds.Deactivate(c.Request.Context(), actorUID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
