package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const digestStaleAfter = 26 * time.Hour

type overviewHandler struct {
	deps *Dependencies
}

func newOverviewHandler(deps *Dependencies) *overviewHandler {
	return &overviewHandler{deps: deps}
}

func registerOverviewRoutes(rg *gin.RouterGroup, deps *Dependencies) {
	h := newOverviewHandler(deps)
	rg.GET("/overview", h.digest)
}

// digest handles GET /overview, serving the latest snapshot's digest.
// digestStaleAfter is a little over one scheduler cycle so a delayed
// nightly job doesn't immediately mark the digest stale.
func (h *overviewHandler) digest(c *gin.Context) {
	bufferFloor, err := parseInt64Query(c, "buffer_floor", h.deps.Cfg.BufferFloorCents)
	if err != nil {
		c.Error(err)
		return
	}

	digest, err := h.deps.SnapshotJob.Digest(c.Request.Context(), digestStaleAfter, bufferFloor)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, digest)
}
