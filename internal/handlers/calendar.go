package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/dto"
	"github.com/cashkeep/cashkeep/internal/middleware"
)

type calendarHandler struct {
	deps *Dependencies
}

func newCalendarHandler(deps *Dependencies) *calendarHandler {
	return &calendarHandler{deps: deps}
}

func registerCalendarRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc, deps *Dependencies) {
	h := newCalendarHandler(deps)

	rg.GET("/calendar", h.listEntries)
	rg.GET("/key-events", h.listKeyEvents)

	write := rg.Group("")
	write.Use(adminOnly)
	{
		write.POST("/key-events", h.upsertKeyEvent)
		write.DELETE("/key-events/:id", h.deleteKeyEvent)
	}
}

// listEntries handles GET /calendar?from&to.
func (h *calendarHandler) listEntries(c *gin.Context) {
	from, err := requireDayQuery(c, "from")
	if err != nil {
		c.Error(err)
		return
	}
	to, err := requireDayQuery(c, "to")
	if err != nil {
		c.Error(err)
		return
	}

	entries, err := h.deps.Calendar.Expand(c.Request.Context(), from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// listKeyEvents handles GET /key-events?from&to.
func (h *calendarHandler) listKeyEvents(c *gin.Context) {
	from, err := requireDayQuery(c, "from")
	if err != nil {
		c.Error(err)
		return
	}
	to, err := requireDayQuery(c, "to")
	if err != nil {
		c.Error(err)
		return
	}

	events, err := h.deps.Repos.KeyEvents.ListInRange(c.Request.Context(), from, to)
	if err != nil {
		c.Error(apperrors.Internal("list key events", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"keyEvents": events})
}

// upsertKeyEvent handles POST /key-events.
func (h *calendarHandler) upsertKeyEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.UpsertKeyEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.Validation(err.Error()))
		return
	}

	event, err := req.ToDomain(h.deps.NewID)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.deps.Repos.KeyEvents.Upsert(c.Request.Context(), event); err != nil {
		c.Error(apperrors.Internal("upsert key event", err))
		return
	}
	logger.Info("upserted key event", "key_event_id", event.KeyEventID)
	c.JSON(http.StatusOK, event)
}

// deleteKeyEvent handles DELETE /key-events/{id}.
func (h *calendarHandler) deleteKeyEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	id := c.Param("id")

	if err := h.deps.Repos.KeyEvents.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	logger.Info("deleted key event", "key_event_id", id)
	c.Status(http.StatusNoContent)
}
