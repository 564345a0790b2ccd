package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zaplinker/backend/internal/dto"
	"github.com/zaplinker/backend/internal/logger"
	"github.com/zaplinker/backend/internal/models"
	"github.com/zaplinker/backend/internal/repository"
	"github.com/zaplinker/backend/internal/util"
	"go.uber.org/zap"
)

const (
	defaultStatsLimit = 500
	maxStatsLimit     = 5000
)

// parseRange reads ?from=&to=&limit=. A date-only "to" includes that whole day.
func parseRange(c *gin.Context) (repository.EventFilter, bool) {
	from, err := util.ParseTimeParam(c.Query("from"))
	if err != nil {
		util.RespondValidationError(c, "from", err.Error())
		return repository.EventFilter{}, false
	}
	toParam := strings.TrimSpace(c.Query("to"))
	to, err := util.ParseTimeParam(toParam)
	if err != nil {
		util.RespondValidationError(c, "to", err.Error())
		return repository.EventFilter{}, false
	}
	if len(toParam) == len(time.DateOnly) {
		to = to.Add(24 * time.Hour)
	}
	if !from.IsZero() && !to.IsZero() && !from.Before(to) {
		util.RespondValidationError(c, "from", "from must be before to")
		return repository.EventFilter{}, false
	}

	limit, err := util.ParsePositiveInt(c.Query("limit"), defaultStatsLimit)
	if err != nil {
		util.RespondValidationError(c, "limit", err.Error())
		return repository.EventFilter{}, false
	}
	if limit > maxStatsLimit {
		limit = maxStatsLimit
	}
	return repository.EventFilter{From: from, To: to, Limit: limit}, true
}

// GetWorkspaceStats returns counters, UTM defaults and the access details of a range
// GET /api/workspaces/:id/stats
func (h *Handlers) GetWorkspaceStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}
	filter, ok := parseRange(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	events, err := h.repos.Analytics.ListEvents(ctx, ws.ID, filter)
	if util.HandleServiceError(c, err, "access events") {
		return
	}
	total, err := h.repos.Analytics.CountEvents(ctx, ws.ID, filter)
	if util.HandleServiceError(c, err, "access events") {
		return
	}
	if events == nil {
		events = []models.AccessEvent{}
	}

	resp := dto.WorkspaceStatsResponse{
		WorkspaceID:        ws.ID,
		AccessCount:        ws.AccessCount,
		DesktopAccessCount: ws.DesktopAccessCount,
		MobileAccessCount:  ws.MobileAccessCount,
		UniqueVisitorCount: ws.UniqueVisitorCount,
		UTMParameters:      ws.UTMParameters,
		AccessDetails:      events,
		TotalEvents:        total,
		Summary:            dto.Summarize(events, total),
	}
	if h.redis != nil {
		approx, err := h.redis.CountVisitors(ctx, ws.ID)
		if err != nil {
			logger.Log.Warn("Failed to read visitor HyperLogLog", logger.WithWorkspaceID(ws.ID), zap.Error(err))
		} else {
			resp.ApproxUniqueVisitors = &approx
		}
	}

	c.JSON(http.StatusOK, resp)
}

// GetNumberStats returns per-number counters and the hits logged in a range
// GET /api/workspaces/:id/numbers/stats
func (h *Handlers) GetNumberStats(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	ws, ok := h.ownedWorkspace(c, user, c.Param("id"))
	if !ok {
		return
	}
	filter, ok := parseRange(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	numbers, err := h.repos.Numbers.ListByWorkspace(ctx, ws.ID)
	if util.HandleServiceError(c, err, "whatsapp number") {
		return
	}
	hits, err := h.repos.Analytics.NumberStats(ctx, ws.ID, filter)
	if util.HandleServiceError(c, err, "number accesses") {
		return
	}

	byNumber := make(map[string]int64, len(hits))
	for _, stat := range hits {
		byNumber[stat.NumberID] = stat.Hits
	}

	stats := make([]dto.NumberStatsResponse, 0, len(numbers))
	for _, n := range numbers {
		stats = append(stats, dto.NumberStatsResponse{
			NumberID:     n.ID,
			Number:       n.Number,
			IsActive:     n.IsActive,
			Weight:       n.Weight,
			AccessCount:  n.AccessCount,
			LastAccessAt: n.LastAccessAt,
			Hits:         byNumber[n.ID],
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"workspaceId": ws.ID,
		"numbers":     stats,
	})
}
