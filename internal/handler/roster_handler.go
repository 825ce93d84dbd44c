package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/middleware"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/models"
	"github.com/sebastiansarmientoforjan-maker/students-meds/internal/service"
	appErrors "github.com/sebastiansarmientoforjan-maker/students-meds/pkg/errors"
	"github.com/sebastiansarmientoforjan-maker/students-meds/pkg/response"
)

// RosterHandler exposes the dispensation roster projection.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs RosterHandler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// Get godoc
// @Summary Dispensation roster for a date and time-range window
// @Tags Roster
// @Produce json
// @Param date query string false "Date YYYY-MM-DD, defaults to today"
// @Param window query string true "Time-range window, e.g. ALMUERZO or AYUNO_DESAYUNO"
// @Param status query string false "ALL, GIVEN or NOT_SHOWN"
// @Success 200 {object} response.Envelope
// @Router /roster [get]
func (h *RosterHandler) Get(c *gin.Context) {
	date := models.Today()
	if raw := c.Query("date"); raw != "" {
		parsed, err := models.ParseDate(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid date"))
			return
		}
		date = parsed
	}

	rawWindow := c.Query("window")
	if rawWindow == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "window required"))
		return
	}
	window, err := models.ParseWindow(rawWindow)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown window"))
		return
	}

	filter, err := models.ParseStatusFilter(c.DefaultQuery("status", string(models.StatusFilterAll)))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown status filter"))
		return
	}

	start := time.Now()
	roster, cacheHit, err := h.roster.Get(c.Request.Context(), date, window, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, roster, nil, meta)
}
