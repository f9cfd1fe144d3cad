package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/http/response"
	"github.com/fabline/mes-backend/internal/services"
)

// MachineHandler serves the machine-facing work queue endpoints.
type MachineHandler struct {
	taskService services.TaskService
}

func NewMachineHandler(taskService services.TaskService) *MachineHandler {
	return &MachineHandler{taskService: taskService}
}

// Tasks handles GET /api/machines/:machineId/task?stageId=.
func (mh *MachineHandler) Tasks(c *gin.Context) {
	machineID, err := uuid.Parse(c.Param("machineId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var stageID *uuid.UUID
	if raw := c.Query("stageId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		stageID = &id
	}
	tasks, err := mh.taskService.MachineTasks(c.Request.Context(), machineID, stageID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, tasks)
}

// SegmentOrders handles GET /api/machines/segment/orders?segmentId=.
func (mh *MachineHandler) SegmentOrders(c *gin.Context) {
	segmentID, err := uuid.Parse(c.Query("segmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	orders, err := mh.taskService.SegmentOrders(c.Request.Context(), segmentID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, orders)
}
