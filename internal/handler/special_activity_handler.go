package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/service"
	appErrors "github.com/slotwise/caseload-api/pkg/errors"
	"github.com/slotwise/caseload-api/pkg/response"
)

// SpecialActivityHandler manages special activity endpoints.
type SpecialActivityHandler struct {
	service *service.SpecialActivityService
}

// NewSpecialActivityHandler constructs handler.
func NewSpecialActivityHandler(svc *service.SpecialActivityService) *SpecialActivityHandler {
	return &SpecialActivityHandler{service: svc}
}

// List godoc
// @Summary List special activities for a school
// @Tags SpecialActivities
// @Produce json
// @Param schoolId query string true "School ID"
// @Success 200 {object} response.Envelope
// @Router /special-activities [get]
func (h *SpecialActivityHandler) List(c *gin.Context) {
	activities, err := h.service.ListBySchool(c.Request.Context(), c.Query("schoolId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activities, nil)
}

// Get godoc
// @Summary Get a special activity
// @Tags SpecialActivities
// @Produce json
// @Param id path string true "Special activity ID"
// @Success 200 {object} response.Envelope
// @Router /special-activities/{id} [get]
func (h *SpecialActivityHandler) Get(c *gin.Context) {
	activity, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Create godoc
// @Summary Create a special activity
// @Tags SpecialActivities
// @Accept json
// @Produce json
// @Param payload body service.SaveSpecialActivityRequest true "Special activity payload"
// @Success 201 {object} response.Envelope
// @Router /special-activities [post]
func (h *SpecialActivityHandler) Create(c *gin.Context) {
	var req service.SaveSpecialActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.service.Create(c.Request.Context(), providerFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, activity)
}

// Update godoc
// @Summary Update a special activity
// @Tags SpecialActivities
// @Accept json
// @Produce json
// @Param id path string true "Special activity ID"
// @Param payload body service.SaveSpecialActivityRequest true "Special activity payload"
// @Success 200 {object} response.Envelope
// @Router /special-activities/{id} [put]
func (h *SpecialActivityHandler) Update(c *gin.Context) {
	var req service.SaveSpecialActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	activity, err := h.service.Update(c.Request.Context(), providerFromContext(c), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, activity, nil)
}

// Delete godoc
// @Summary Delete a special activity
// @Tags SpecialActivities
// @Produce json
// @Param id path string true "Special activity ID"
// @Success 204
// @Router /special-activities/{id} [delete]
func (h *SpecialActivityHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
