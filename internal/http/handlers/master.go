package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/http/response"
	"github.com/fabline/mes-backend/internal/services"
)

// MasterHandler serves the master (supervisor) detail views.
type MasterHandler struct {
	taskService services.TaskService
}

func NewMasterHandler(taskService services.TaskService) *MasterHandler {
	return &MasterHandler{taskService: taskService}
}

// Details handles GET /api/details/master/:orderId/segment/:segmentId.
func (mh *MasterHandler) Details(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("orderId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	segmentID, err := uuid.Parse(c.Param("segmentId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	details, err := mh.taskService.MasterDetails(c.Request.Context(), orderID, segmentID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, details)
}
