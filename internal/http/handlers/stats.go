package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fabline/mes-backend/internal/http/response"
	"github.com/fabline/mes-backend/internal/services"
)

type StatsHandler struct {
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Completions handles GET /api/stats/completions?from=&to=&stageId=.
// Dates are YYYY-MM-DD; to defaults to tomorrow, from to 30 days before to.
func (sh *StatsHandler) Completions(c *gin.Context) {
	to := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		to = parsed.Add(24 * time.Hour)
	}
	from := to.AddDate(0, 0, -31)
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
		from = parsed
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
	buckets, err := sh.statsService.Completions(c.Request.Context(), from, to, stageID)
	if err != nil {
		response.RespondFromErr(c, err)
		return
	}
	response.RespondOK(c, buckets)
}
