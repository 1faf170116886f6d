package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
	"github.com/cashkeep/cashkeep/internal/dto"
	"github.com/cashkeep/cashkeep/internal/middleware"
)

type queryHandler struct {
	deps *Dependencies
}

func newQueryHandler(deps *Dependencies) *queryHandler {
	return &queryHandler{deps: deps}
}

func registerQueryRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc, deps *Dependencies) {
	h := newQueryHandler(deps)

	rg.GET("/q/:query", h.runQuery)
	rg.GET("/q/packs/:pack", h.assemblePack)

	write := rg.Group("")
	write.Use(adminOnly)
	write.POST("/q/export", h.export)
}

// windowFromQuery reads start/end (defaulting to the trailing calendar
// month ending today) shared by every questionnaire query.
func windowFromQuery(c *gin.Context) (start, end domain.Day, err error) {
	end, err = parseDayQuery(c, "end", today())
	if err != nil {
		return domain.Day{}, domain.Day{}, err
	}
	defaultStart := domain.NewDay(end.AddDate(0, -1, 0))
	start, err = parseDayQuery(c, "start", defaultStart)
	if err != nil {
		return domain.Day{}, domain.Day{}, err
	}
	return start, end, nil
}

// runQuery handles GET /q/{query}, dispatching by name to the
// Questionnaire method spec.md §4.10's table names.
func (h *queryHandler) runQuery(c *gin.Context) {
	q := h.deps.Questionnaire
	ctx := c.Request.Context()
	category := c.Query("category")
	categoryText := c.Query("category_text")

	switch c.Param("query") {
	case "monthly_total_by_category":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.MonthlyTotalByCategory(ctx, category, categoryText, start, end)
		respondQuery(c, result, err)

	case "monthly_average_by_category":
		months, err := parseIntQuery(c, "months", 3)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.MonthlyAverageByCategory(ctx, category, categoryText, months, today())
		respondQuery(c, result, err)

	case "active_loans":
		result, err := q.ActiveLoans(ctx)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)

	case "monthly_commitment_total":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		kind := c.Query("kind")
		result, err := q.MonthlyCommitmentTotal(ctx, kind, start, end)
		respondQuery(c, result, err)

	case "income_summary":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.IncomeSummary(ctx, start, end)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)

	case "category_breakdown":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		topN, err := parseIntQuery(c, "top_n", 10)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.CategoryBreakdown(ctx, start, end, topN)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)

	case "supporting_transactions":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		page, err := parseIntQuery(c, "page", 1)
		if err != nil {
			c.Error(err)
			return
		}
		pageSize, err := parseIntQuery(c, "page_size", 50)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.SupportingTransactions(ctx, category, categoryText, start, end, page, pageSize)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)

	case "subscription_list":
		result, err := q.SubscriptionList(ctx)
		if err != nil {
			c.Error(err)
			return
		}
		c.JSON(http.StatusOK, result)

	case "household_fixed_costs":
		start, end, err := windowFromQuery(c)
		if err != nil {
			c.Error(err)
			return
		}
		result, err := q.HouseholdFixedCosts(ctx, start, end)
		respondQuery(c, result, err)

	default:
		c.Error(apperrors.Validation("unknown query: " + c.Param("query")))
	}
}

func respondQuery(c *gin.Context, result services.QueryResult, err error) {
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// assemblePack handles GET /q/packs/{pack}, taking its window from the
// same query parameters as the other /q endpoints plus as_of. It reads no
// period= parameter and resolves no period alias such as 3m_full.
func (h *queryHandler) assemblePack(c *gin.Context) {
	periodStart, periodEnd, err := windowFromQuery(c)
	if err != nil {
		c.Error(err)
		return
	}
	asOf, err := parseDayQuery(c, "as_of", periodEnd)
	if err != nil {
		c.Error(err)
		return
	}

	pack, err := h.deps.Packs.Assemble(c.Request.Context(), c.Param("pack"), asOf, periodStart, periodEnd)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, pack)
}

// export handles POST /q/export.
func (h *queryHandler) export(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)

	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.Validation(err.Error()))
		return
	}

	periodStart, err := domain.ParseDay(req.PeriodStart)
	if err != nil {
		c.Error(apperrors.Validation("malformed periodStart: " + err.Error()))
		return
	}
	periodEnd, err := domain.ParseDay(req.PeriodEnd)
	if err != nil {
		c.Error(apperrors.Validation("malformed periodEnd: " + err.Error()))
		return
	}
	asOf := periodEnd
	if req.AsOf != "" {
		asOf, err = domain.ParseDay(req.AsOf)
		if err != nil {
			c.Error(apperrors.Validation("malformed asOf: " + err.Error()))
			return
		}
	}
	format := services.ExportBoth
	switch req.Format {
	case "csv":
		format = services.ExportCSV
	case "pdf":
		format = services.ExportPDF
	case "", "both":
		format = services.ExportBoth
	default:
		c.Error(apperrors.Validation("unknown format: " + req.Format))
		return
	}

	result, err := h.deps.Exporter.ExportPack(c.Request.Context(), req.Pack, asOf, periodStart, periodEnd, format, req.RedactMemos, time.Now().UTC())
	if err != nil {
		c.Error(err)
		return
	}
	logger.Info("exported pack", "pack", req.Pack, "hash", result.Hash)
	c.JSON(http.StatusOK, result)
}
