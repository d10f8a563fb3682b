package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/dto"
	"github.com/slotwise/caseload-api/internal/service"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
	"github.com/slotwise/caseload-api/pkg/response"
)

// ConflictHandler manages conflict reconciliation endpoints.
type ConflictHandler struct {
	conflicts  *service.ConflictService
	bells      *service.BellScheduleService
	activities *service.SpecialActivityService
}

// NewConflictHandler constructs handler.
func NewConflictHandler(conflicts *service.ConflictService, bells *service.BellScheduleService, activities *service.SpecialActivityService) *ConflictHandler {
	return &ConflictHandler{conflicts: conflicts, bells: bells, activities: activities}
}

// ScanBellSchedule godoc
// @Summary Flag sessions overlapping a bell schedule period
// @Tags Conflicts
// @Produce json
// @Param id path string true "Bell schedule ID"
// @Success 200 {object} response.Envelope
// @Router /conflicts/bell-schedule/{id}/scan [post]
func (h *ConflictHandler) ScanBellSchedule(c *gin.Context) {
	schedule, err := h.bells.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.conflicts.ResolveBellScheduleConflicts(c.Request.Context(), providerFromContext(c), *schedule)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ScanSpecialActivity godoc
// @Summary Flag sessions overlapping a special activity
// @Tags Conflicts
// @Produce json
// @Param id path string true "Special activity ID"
// @Success 200 {object} response.Envelope
// @Router /conflicts/special-activity/{id}/scan [post]
func (h *ConflictHandler) ScanSpecialActivity(c *gin.Context) {
	activity, err := h.activities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.conflicts.ResolveSpecialActivityConflicts(c.Request.Context(), providerFromContext(c), *activity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CheckCrossProvider godoc
// @Summary Check whether another provider already serves a student in a slot
// @Tags Conflicts
// @Produce json
// @Param studentId query string true "Student ID"
// @Param day query int true "Day of week (1-5)"
// @Param start query string true "Slot start (HH:MM)"
// @Param end query string true "Slot end (HH:MM)"
// @Param excludeSessionId query string false "Session to ignore"
// @Success 200 {object} response.Envelope
// @Router /conflicts/cross-provider [get]
func (h *ConflictHandler) CheckCrossProvider(c *gin.Context) {
	var query dto.CrossProviderConflictQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid query"))
		return
	}

	result, err := h.conflicts.CheckCrossProviderConflicts(c.Request.Context(), providerFromContext(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
