// Package handlers wires the Gin HTTP surface onto the core services,
// following the teacher's per-domain-handler-struct convention:
// newXHandler(service) wrapping one dependency, registerXRoutes grouping
// its routes, and centralized error propagation via c.Error(err) into
// middleware.ErrorHandler instead of a status switch in every branch.
package handlers

import (
	"context"
	"database/sql"

	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/cashkeep/cashkeep/internal/core/services"
	"github.com/cashkeep/cashkeep/internal/platform/config"
)

// Dependencies bundles every service and repository handlers need. It is
// built once at startup in cmd/cashkeepd and passed to RegisterRoutes,
// playing the role of the teacher's ServiceContainer but built around
// cashkeep's single repositories.Repos bundle rather than one field per
// domain service interface.
type Dependencies struct {
	Cfg   *config.Config
	DB    *sql.DB
	Repos repositories.Repos
	UoW   repositories.UnitOfWork

	Ingestor      *services.Ingestor
	Mapper        *services.CategoryMapper
	Calendar      *services.CalendarExpander
	Forecast      *services.ForecastEngine
	Anchors       *services.AnchorResolver
	Blended       *services.BlendedOverlay
	Simulator     *services.Simulator
	SnapshotJob   *services.SnapshotJob
	Questionnaire *services.Questionnaire
	Packs         *services.PackAssembler
	Exporter      *services.Exporter
	Alerts        *services.AlertsEngine

	// NewID mints a new identifier for a freshly created row (key events,
	// alerts). Overridable in tests; production wiring uses uuid.NewString.
	NewID func() string
}

// NewDependencies builds the full service graph from repos/uow/cfg, in the
// order each service's constructor requires: Mapper and Anchors have no
// sub-dependencies, Calendar and Blended depend only on repos, Forecast
// wraps Anchors+Calendar internally, Simulator wraps Forecast internally,
// SnapshotJob and Alerts share AlertThresholds derived from cfg.
func NewDependencies(cfg *config.Config, db *sql.DB, repos repositories.Repos, uow repositories.UnitOfWork, newID func() string) *Dependencies {
	thresholds := services.AlertThresholds{
		MinBalanceDropCents:       cfg.BufferFloorCents,
		LargeDebitCents:           50000,
		DriftAmountToleranceCents: cfg.CommitmentDriftAmountToleranceCents,
		DriftDateToleranceDays:    cfg.CommitmentDriftDateToleranceDays,
	}
	packs := services.NewPackAssembler(repos)

	return &Dependencies{
		Cfg:           cfg,
		DB:            db,
		Repos:         repos,
		UoW:           uow,
		Ingestor:      services.NewIngestor(repos, uow),
		Mapper:        services.NewCategoryMapper(repos),
		Calendar:      services.NewCalendarExpander(repos),
		Forecast:      services.NewForecastEngine(repos),
		Anchors:       services.NewAnchorResolver(repos),
		Blended:       services.NewBlendedOverlay(repos),
		Simulator:     services.NewSimulator(repos),
		SnapshotJob:   services.NewSnapshotJob(repos, thresholds),
		Questionnaire: services.NewQuestionnaire(repos),
		Packs:         packs,
		Exporter:      services.NewExporter(packs, cfg.ExportDir),
		Alerts:        services.NewAlertsEngine(repos).WithThresholds(thresholds),
		NewID:         newID,
	}
}

// activeAccountIDs lists every active account, the default account scope
// for any endpoint that doesn't take an explicit accounts= filter.
func activeAccountIDs(ctx context.Context, deps *Dependencies) ([]string, error) {
	accounts, err := deps.Repos.Accounts.ListAccounts(ctx, true)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(accounts))
	for i, a := range accounts {
		ids[i] = a.AccountID
	}
	return ids, nil
}
