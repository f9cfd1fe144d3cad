package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/http/response"
	"github.com/fabline/mes-backend/internal/services"
)

type RouteManagementHandler struct {
	routeChange services.RouteChangeService
}

func NewRouteManagementHandler(routeChange services.RouteChangeService) *RouteManagementHandler {
	return &RouteManagementHandler{routeChange: routeChange}
}

// ChangeRoute handles PATCH /api/route-management/parts/:partId/route.
func (rh *RouteManagementHandler) ChangeRoute(c *gin.Context) {
	partID, err := uuid.Parse(c.Param("partId"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	var req struct {
		RouteID uuid.UUID `json:"routeId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	part, err := rh.routeChange.ChangeRoute(c.Request.Context(), partID, req.RouteID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, part)
}
