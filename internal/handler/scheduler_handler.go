package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/service"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
	"github.com/slotwise/caseload-api/pkg/response"
)

// SchedulerHandler manages batch scheduling and schedule export endpoints.
type SchedulerHandler struct {
	scheduler *service.BatchSchedulerService
	export    *service.ExportService
}

// NewSchedulerHandler constructs handler.
func NewSchedulerHandler(scheduler *service.BatchSchedulerService, export *service.ExportService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler, export: export}
}

// ScheduleBatch godoc
// @Summary Auto-schedule a batch of students
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.BatchScheduleRequest true "Students to schedule"
// @Success 200 {object} response.Envelope
// @Router /schedule/batch [post]
func (h *SchedulerHandler) ScheduleBatch(c *gin.Context) {
	var req dto.BatchScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.scheduler.ScheduleBatch(c.Request.Context(), providerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ManualPlacement godoc
// @Summary Force-place students the auto-scheduler could not fit
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param payload body dto.ManualPlacementRequest true "Students to place"
// @Success 200 {object} response.Envelope
// @Router /schedule/manual-placement [post]
func (h *SchedulerHandler) ManualPlacement(c *gin.Context) {
	var req dto.ManualPlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	result, err := h.scheduler.TryManualPlacement(c.Request.Context(), providerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Export the weekly schedule
// @Tags Scheduling
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /schedule/export [get]
func (h *SchedulerHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")

	payload, contentType, err := h.export.WeeklySchedule(c.Request.Context(), providerFromContext(c), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "weekly-schedule." + format
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, payload)
}
