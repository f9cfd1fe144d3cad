package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/fabline/mes-backend/internal/realtime"
)

type RealtimeHandler struct {
	hub *realtime.Hub
}

func NewRealtimeHandler(hub *realtime.Hub) *RealtimeHandler {
	return &RealtimeHandler{hub: hub}
}

// Subscribe handles GET /ws?room=.
func (rh *RealtimeHandler) Subscribe(c *gin.Context) {
	rh.hub.ServeWS(c.Writer, c.Request)
}
