package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/middleware"
)

type systemHandler struct {
	deps *Dependencies
}

func newSystemHandler(deps *Dependencies) *systemHandler {
	return &systemHandler{deps: deps}
}

func registerSystemRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc, deps *Dependencies) {
	h := newSystemHandler(deps)
	rg.GET("/healthz", h.healthz)

	csrf := rg.Group("")
	csrf.Use(adminOnly)
	csrf.GET("/csrf-token", h.csrfToken)
}

// csrfToken handles GET /csrf-token, minting the double-submit token a
// caller attaches as X-CSRF-Token on the write call that follows.
func (h *systemHandler) csrfToken(c *gin.Context) {
	token, expiresAt, err := middleware.IssueCSRFToken(h.deps.Cfg.CSRFToken)
	if err != nil {
		c.Error(apperrors.Internal("issue csrf token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"csrfToken": token, "expiresAt": expiresAt})
}

// healthz handles GET /healthz: a DB ping plus the age of the last
// successful snapshot, the two things the out-of-scope process supervisor
// needs to decide whether this instance is serving useful data.
func (h *systemHandler) healthz(c *gin.Context) {
	if err := h.deps.DB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": "database unreachable"})
		return
	}

	body := gin.H{"status": "ok"}
	latest, err := h.deps.Repos.Snapshots.Latest(c.Request.Context())
	if err == nil {
		body["lastSnapshotAt"] = latest.CreatedAt
		body["lastSnapshotAgeSeconds"] = int64(time.Since(latest.CreatedAt).Seconds())
	}
	c.JSON(http.StatusOK, body)
}
