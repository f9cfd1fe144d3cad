package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/http/response"
	"github.com/fabline/mes-backend/internal/services"
)

type PalletOpsHandler struct {
	palletOps services.PalletOpsService
}

func NewPalletOpsHandler(palletOps services.PalletOpsService) *PalletOpsHandler {
	return &PalletOpsHandler{palletOps: palletOps}
}

// AssignToMachine handles POST /api/pallet-operations/assign-to-machine.
func (ph *PalletOpsHandler) AssignToMachine(c *gin.Context) {
	var req struct {
		PalletID      uuid.UUID  `json:"palletId" binding:"required"`
		MachineID     uuid.UUID  `json:"machineId" binding:"required"`
		ProcessStepID uuid.UUID  `json:"processStepId" binding:"required"`
		OperatorID    *uuid.UUID `json:"operatorId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	op, err := ph.palletOps.AssignToMachine(c.Request.Context(), req.PalletID, req.MachineID, req.ProcessStepID, req.OperatorID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, op)
}

// Complete handles POST /api/pallet-operations/complete.
func (ph *PalletOpsHandler) Complete(c *gin.Context) {
	var req struct {
		PalletID   uuid.UUID  `json:"palletId" binding:"required"`
		MachineID  uuid.UUID  `json:"machineId" binding:"required"`
		OperatorID *uuid.UUID `json:"operatorId"`
		SegmentID  *uuid.UUID `json:"segmentId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	op, err := ph.palletOps.CompleteProcessing(c.Request.Context(), req.PalletID, req.MachineID, req.OperatorID, req.SegmentID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, op)
}

// MoveToBuffer handles POST /api/pallet-operations/move-to-buffer.
func (ph *PalletOpsHandler) MoveToBuffer(c *gin.Context) {
	var req struct {
		PalletID     uuid.UUID `json:"palletId" binding:"required"`
		BufferCellID uuid.UUID `json:"bufferCellId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	pallet, err := ph.palletOps.MoveToBuffer(c.Request.Context(), req.PalletID, req.BufferCellID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, pallet)
}
