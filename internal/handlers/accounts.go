package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/dto"
	"github.com/cashkeep/cashkeep/internal/middleware"
)

type accountsHandler struct {
	deps *Dependencies
}

func newAccountsHandler(deps *Dependencies) *accountsHandler {
	return &accountsHandler{deps: deps}
}

func registerAccountsRoutes(rg *gin.RouterGroup, adminOnly gin.HandlerFunc, deps *Dependencies) {
	h := newAccountsHandler(deps)

	rg.GET("/accounts", h.list)
	rg.GET("/accounts/anchors", h.listAnchors)
	rg.GET("/accounts/floors", h.listFloors)

	write := rg.Group("")
	write.Use(adminOnly)
	write.PUT("/accounts/:id/anchor", h.setAnchor)
}

// list handles GET /accounts.
func (h *accountsHandler) list(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "true") != "false"

	accounts, err := h.deps.Repos.Accounts.ListAccounts(c.Request.Context(), activeOnly)
	if err != nil {
		c.Error(apperrors.Internal("list accounts", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// listAnchors handles GET /accounts/anchors.
func (h *accountsHandler) listAnchors(c *gin.Context) {
	anchors, err := h.deps.Repos.Anchors.ListAll(c.Request.Context())
	if err != nil {
		c.Error(apperrors.Internal("list anchors", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"anchors": anchors})
}

// listFloors handles GET /accounts/floors: the operator-declared overdraft
// floor carried on each account's anchor.
func (h *accountsHandler) listFloors(c *gin.Context) {
	anchors, err := h.deps.Repos.Anchors.ListAll(c.Request.Context())
	if err != nil {
		c.Error(apperrors.Internal("list anchors", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"floors": dto.ToFloors(anchors)})
}

// setAnchor handles PUT /accounts/{id}/anchor.
func (h *accountsHandler) setAnchor(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	accountID := c.Param("id")

	if _, err := h.deps.Repos.Accounts.GetAccount(c.Request.Context(), accountID); err != nil {
		c.Error(err)
		return
	}

	var req dto.SetAnchorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.Validation(err.Error()))
		return
	}

	anchor, err := req.ToDomain(accountID)
	if err != nil {
		c.Error(err)
		return
	}

	if err := h.deps.Repos.Anchors.Upsert(c.Request.Context(), anchor); err != nil {
		c.Error(apperrors.Internal("upsert anchor", err))
		return
	}
	logger.Info("set account anchor", "account_id", accountID, "anchor_date", anchor.AnchorDate.String())
	c.JSON(http.StatusOK, anchor)
}
