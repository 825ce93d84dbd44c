package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
	appErrors "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/errors"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/response"
)

// AdministrationHandler exposes dose-outcome endpoints.
type AdministrationHandler struct {
	administrations *service.AdministrationService
}

// NewAdministrationHandler constructs AdministrationHandler.
func NewAdministrationHandler(administrations *service.AdministrationService) *AdministrationHandler {
	return &AdministrationHandler{administrations: administrations}
}

// Record godoc
// @Summary Record a dose outcome
// @Description Upserts the outcome for one (student, medication, date, time range) key.
// @Tags Administrations
// @Accept json
// @Produce json
// @Param payload body service.RecordAdministrationRequest true "Administration payload"
// @Success 200 {object} response.Envelope
// @Router /administrations [post]
func (h *AdministrationHandler) Record(c *gin.Context) {
	var req service.RecordAdministrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.administrations.Record(c.Request.Context(), actorUID(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// List godoc
// @Summary List administrations for a date
// @Tags Administrations
// @Produce json
// @Param date query string true "Date YYYY-MM-DD"
// @Param studentId query string false "Filter by student"
// @Param window query string false "Time window, e.g. SOS or AYUNO_DESAYUNO"
// @Param status query string false "GIVEN, NOT_SHOWN or PENDING"
// @Success 200 {object} response.Envelope
// @Router /administrations [get]
func (h *AdministrationHandler) List(c *gin.Context) {
	rawDate := c.Query("date")
	if rawDate == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date required"))
		return
	}
	date, err := models.ParseDate(rawDate)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
		return
	}

	filter := models.AdministrationFilter{Date: date, StudentID: c.Query("studentId")}
	if raw := c.Query("window"); raw != "" {
		window, err := models.ParseWindow(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown time window"))
			return
		}
		filter.Window = window
	}
	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseAdministrationStatus(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status"))
			return
		}
		filter.Status = &status
	}

	records, err := h.administrations.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}
