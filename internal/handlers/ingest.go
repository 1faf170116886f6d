package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/dto"
	"github.com/cashkeep/cashkeep/internal/middleware"
	"github.com/cashkeep/cashkeep/internal/upstream"
)

type ingestHandler struct {
	deps *Dependencies
}

func newIngestHandler(deps *Dependencies) *ingestHandler {
	return &ingestHandler{deps: deps}
}

func registerIngestRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc, deps *Dependencies) {
	h := newIngestHandler(deps)
	write := rg.Group("")
	write.Use(adminOnly)
	write.POST("/ingest/:source/delta", h.delta)
	write.POST("/ingest/:source/backfill", h.backfill)
	write.POST("/ingest/:source/from-csv", h.fromCSV)
}

func (h *ingestHandler) delta(c *gin.Context) {
	source := c.Param("source")
	logger := middleware.GetLoggerFromContext(c)

	client, err := h.upstreamClient(c, source)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.deps.Ingestor.RunDelta(c.Request.Context(), source, client)
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("ran delta ingest", "source", source, "rows_upserted", result.RowsUpserted, "status", result.Status)
	c.JSON(http.StatusOK, dto.ToIngestResponse(result))
}

func (h *ingestHandler) backfill(c *gin.Context) {
	source := c.Param("source")
	logger := middleware.GetLoggerFromContext(c)

	var req dto.BackfillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.Validation(err.Error()))
		return
	}

	client, err := h.upstreamClient(c, source)
	if err != nil {
		c.Error(err)
		return
	}

	result, err := h.deps.Ingestor.RunBackfill(c.Request.Context(), source, client, req.Months)
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("ran backfill ingest", "source", source, "months", req.Months, "rows_upserted", result.RowsUpserted, "status", result.Status)
	c.JSON(http.StatusOK, dto.ToIngestResponse(result))
}

// fromCSV handles POST /ingest/{source}/from-csv, a multipart upload with
// the CSV under form field "file" and the account name under "accountName".
func (h *ingestHandler) fromCSV(c *gin.Context) {
	source := c.Param("source")
	logger := middleware.GetLoggerFromContext(c)

	accountName := c.PostForm("accountName")
	if accountName == "" {
		c.Error(apperrors.Validation("accountName is required"))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(apperrors.Validation("file is required: " + err.Error()))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.Error(apperrors.Internal("open uploaded file", err))
		return
	}
	defer file.Close()

	src, err := upstream.NewCSVSource(file, accountName)
	if err != nil {
		c.Error(apperrors.Validation("malformed csv: " + err.Error()))
		return
	}

	result, err := h.deps.Ingestor.RunBackfill(c.Request.Context(), source, src, 0)
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("ran csv ingest", "source", source, "account", accountName, "rows_upserted", result.RowsUpserted, "status", result.Status)
	c.JSON(http.StatusOK, dto.ToIngestResponse(result))
}

// upstreamClient builds the HTTP upstream.Source for source, requiring that
// UPSTREAM_BASE_URL/UPSTREAM_TOKEN be configured (from-csv doesn't need
// this: it never reaches this helper).
func (h *ingestHandler) upstreamClient(c *gin.Context, source string) (upstream.Source, error) {
	if h.deps.Cfg.UpstreamBaseURL == "" {
		return nil, apperrors.Validation("UPSTREAM_BASE_URL is not configured")
	}
	return upstream.NewClient(h.deps.Cfg.UpstreamBaseURL, h.deps.Cfg.UpstreamToken), nil
}
