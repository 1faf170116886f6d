package handlers

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/cashkeep/cashkeep/internal/middleware"
	"github.com/cashkeep/cashkeep/internal/platform/config"
)

// RegisterRoutes wires every route group onto r, following the teacher's
// RegisterRoutes(r, cfg, services) entrypoint shape. Read endpoints are
// open by default; write endpoints sit behind RequireAdminToken +
// RequireCSRF, and the report-heavy /q and /forecast groups additionally
// sit behind a per-IP rate limiter.
func RegisterRoutes(r *gin.Engine, cfg *config.Config, deps *Dependencies) {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "X-Admin-Token", "X-CSRF-Token")
	r.Use(cors.New(corsConfig))

	adminOnly := middleware.RequireAdminToken(cfg.AdminToken)
	csrfProtected := gin.HandlerFunc(func(c *gin.Context) {
		middleware.RequireAdminToken(cfg.AdminToken)(c)
		if c.IsAborted() {
			return
		}
		middleware.RequireCSRF(cfg.CSRFToken)(c)
	})

	rateLimited := rateLimitMiddleware(cfg.RateLimitRPS)

	base := r.Group(cfg.BasePath)

	limitedGroup := base.Group("")
	limitedGroup.Use(rateLimited)
	registerForecastRoutes(limitedGroup, deps)
	registerQueryRoutes(limitedGroup, csrfProtected, deps)

	registerCalendarRoutes(base, csrfProtected, deps)
	registerOverviewRoutes(base, deps)
	registerAccountsRoutes(base, csrfProtected, deps)
	registerIngestRoutes(base, csrfProtected, deps)
	registerSystemRoutes(base, adminOnly, deps)
}

// rateLimitMiddleware builds an in-memory, per-process rate limiter at rps
// requests/second. An in-memory store is sufficient because cashkeep runs
// as a single instance against a single sqlite file, unlike the teacher's
// horizontally-scaled deployment where a shared store would be required.
func rateLimitMiddleware(rps float64) gin.HandlerFunc {
	if rps <= 0 {
		rps = 5
	}
	rate := limiter.Rate{
		Period: time.Second,
		Limit:  int64(rps),
	}
	store := memory.NewStore()
	return middleware.RateLimit(limiter.New(store, rate))
}
