package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/service"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
	"github.com/slotwise/caseload-api/pkg/response"
)

// BellScheduleHandler manages bell schedule endpoints.
type BellScheduleHandler struct {
	service *service.BellScheduleService
}

// NewBellScheduleHandler constructs handler.
func NewBellScheduleHandler(svc *service.BellScheduleService) *BellScheduleHandler {
	return &BellScheduleHandler{service: svc}
}

// List godoc
// @Summary List bell schedule periods for a school
// @Tags BellSchedules
// @Produce json
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /bell-schedules [get]
func (h *BellScheduleHandler) List(c *gin.Context) {
	schedules, err := h.service.ListBySchool(c.Request.Context(), c.Query("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get a bell schedule period
// @Tags BellSchedules
// @Produce json
// @Param id path string true "Bell schedule ID"
// @Success 200 {object} response.Envelope
// @Router /bell-schedules/{id} [get]
func (h *BellScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create a bell schedule period
// @Tags BellSchedules
// @Accept json
// @Produce json
// @Param payload body service.SaveBellScheduleRequest true "Bell schedule payload"
// @Success 201 {object} response.Envelope
// @Router /bell-schedules [post]
func (h *BellScheduleHandler) Create(c *gin.Context) {
	var req service.SaveBellScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), providerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update a bell schedule period
// @Tags BellSchedules
// @Accept json
// @Produce json
// @Param id path string true "Bell schedule ID"
// @Param payload body service.SaveBellScheduleRequest true "Bell schedule payload"
// @Success 200 {object} response.Envelope
// @Router /bell-schedules/{id} [put]
func (h *BellScheduleHandler) Update(c *gin.Context) {
	var req service.SaveBellScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), providerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete a bell schedule period
// @Tags BellSchedules
// @Produce json
// @Param id path string true "Bell schedule ID"
// @Success 204
// @Router /bell-schedules/{id} [delete]
func (h *BellScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
