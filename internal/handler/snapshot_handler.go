package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/slotwise/caseload-api/internal/service"
	"github.com/slotwise/caseload-api/pkg/response"
)

// SnapshotHandler manages schedule snapshot endpoints.
type SnapshotHandler struct {
	snapshots *service.SnapshotService
}

// NewSnapshotHandler constructs handler.
func NewSnapshotHandler(snapshots *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots}
}

// Get godoc
// @Summary Describe the stored schedule snapshot
// @Tags Snapshots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /snapshots [get]
func (h *SnapshotHandler) Get(c *gin.Context) {
	info, err := h.snapshots.GetSnapshot(c.Request.Context(), providerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// Save godoc
// @Summary Snapshot the current schedule
// @Tags Snapshots
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /snapshots [post]
func (h *SnapshotHandler) Save(c *gin.Context) {
	info, err := h.snapshots.SaveSnapshot(c.Request.Context(), providerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, info)
}

// Restore godoc
// @Summary Restore the schedule from the stored snapshot
// @Tags Snapshots
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /snapshots/restore [post]
func (h *SnapshotHandler) Restore(c *gin.Context) {
	info, err := h.snapshots.RestoreSnapshot(c.Request.Context(), providerFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
