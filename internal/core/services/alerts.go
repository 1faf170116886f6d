package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/google/uuid"
)

// AlertThresholds bundles the operator-configured tolerances that decide
// whether a snapshot comparison or new transaction produces an alert.
type AlertThresholds struct {
	// MinBalanceDropCents is how far min_balance may fall between two
	// consecutive snapshots before a threshold_breach alert fires.
	MinBalanceDropCents int64
	// LargeDebitCents is the |amount| a cleared, uncategorized-to-a-commitment
	// transaction must reach to be a large_unplanned_debit.
	LargeDebitCents int64
	// DriftAmountToleranceCents and DriftDateToleranceDays bound how far an
	// observed commitment occurrence may stray before it counts as drifted.
	DriftAmountToleranceCents int64
	DriftDateToleranceDays    int
}

// driftState is persisted in Alert.Details so drift streaks survive across
// evaluation runs without a dedicated table.
type driftState struct {
	ConsecutiveCycles  int   `json:"consecutiveCycles"`
	ObservedAmountCents int64 `json:"observedAmountCents"`
	ObservedDateOffset  int   `json:"observedDateOffsetDays"`
}

const driftCyclesToAlert = 3

// AlertsEngine derives dedup-keyed Alert rows from a snapshot comparison and
// the transactions ingested since the previous one.
type AlertsEngine struct {
	repos      repositories.Repos
	thresholds AlertThresholds
}

func NewAlertsEngine(repos repositories.Repos) *AlertsEngine {
	return &AlertsEngine{repos: repos, thresholds: AlertThresholds{
		MinBalanceDropCents:       10000,
		LargeDebitCents:           50000,
		DriftAmountToleranceCents: 500,
		DriftDateToleranceDays:    2,
	}}
}

// WithThresholds returns an AlertsEngine using operator-configured tolerances
// instead of the defaults (built in handlers.NewDependencies, with the drift
// tolerances taken from config).
func (e *AlertsEngine) WithThresholds(t AlertThresholds) *AlertsEngine {
	e.thresholds = t
	return e
}

// Evaluate runs all three alert checks against the just-inserted snapshot and
// returns every alert row that was inserted or updated.
func (e *AlertsEngine) Evaluate(ctx context.Context, snap domain.ForecastSnapshot) ([]domain.Alert, error) {
	var fired []domain.Alert

	breach, err := e.evaluateThresholdBreach(ctx, snap)
	if err != nil {
		return nil, err
	}
	fired = append(fired, breach...)

	debits, err := e.evaluateLargeUnplannedDebits(ctx, snap)
	if err != nil {
		return nil, err
	}
	fired = append(fired, debits...)

	drift, err := e.evaluateCommitmentDrift(ctx)
	if err != nil {
		return nil, err
	}
	fired = append(fired, drift...)

	return fired, nil
}

func (e *AlertsEngine) evaluateThresholdBreach(ctx context.Context, snap domain.ForecastSnapshot) ([]domain.Alert, error) {
	var out []domain.Alert

	prev, err := e.repos.Snapshots.Previous(ctx, snap.SnapshotID)
	if err != nil && !isNotFound(err) {
		return nil, err
	}
	if prev != nil && prev.MinBalanceCents-snap.MinBalanceCents > e.thresholds.MinBalanceDropCents {
		a, err := e.upsertAlert(ctx, domain.Alert{
			Type:      domain.AlertThresholdBreach,
			DedupeKey: "min_balance_drop",
			Severity:  domain.SeverityWarning,
			Title:     "Forecast minimum balance dropped",
			Message: fmt.Sprintf("Minimum balance fell from %d to %d cents (drop of %d)",
				prev.MinBalanceCents, snap.MinBalanceCents, prev.MinBalanceCents-snap.MinBalanceCents),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}

	anchors, err := e.repos.Anchors.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, anc := range anchors {
		if anc.MinFloorCents == nil || snap.MinBalanceCents >= *anc.MinFloorCents {
			continue
		}
		a, err := e.upsertAlert(ctx, domain.Alert{
			Type:      domain.AlertThresholdBreach,
			DedupeKey: "floor:" + anc.AccountID,
			Severity:  domain.SeverityCritical,
			Title:     "Forecast dips below account floor",
			Message: fmt.Sprintf("Projected minimum balance %d cents is below the configured floor of %d cents",
				snap.MinBalanceCents, *anc.MinFloorCents),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *AlertsEngine) evaluateLargeUnplannedDebits(ctx context.Context, snap domain.ForecastSnapshot) ([]domain.Alert, error) {
	from := snap.HorizonStart.AddDays(-1)
	txns, err := e.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		From:        &from,
		To:          &snap.HorizonStart,
		ClearedOnly: true,
	})
	if err != nil {
		return nil, err
	}

	commitments, err := e.repos.Commitments.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	commitmentCategories := map[string]bool{}
	for _, c := range commitments {
		if c.CategoryID != "" {
			commitmentCategories[c.CategoryID] = true
		}
	}

	var out []domain.Alert
	for _, t := range txns {
		if t.AmountCents >= 0 {
			continue // inflow
		}
		if abs64(t.AmountCents) < e.thresholds.LargeDebitCents {
			continue
		}
		if commitmentCategories[t.CategoryID] {
			continue
		}
		a, err := e.upsertAlert(ctx, domain.Alert{
			Type:      domain.AlertLargeUnplanned,
			DedupeKey: "txn:" + t.TransactionID,
			Severity:  domain.SeverityWarning,
			Title:     "Large unplanned debit",
			Message:   fmt.Sprintf("%s: %d cents to %s", t.PostedAt.String(), t.AmountCents, t.Payee),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *AlertsEngine) evaluateCommitmentDrift(ctx context.Context) ([]domain.Alert, error) {
	commitments, err := e.repos.Commitments.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	unresolved, err := e.repos.Alerts.ListUnresolved(ctx)
	if err != nil {
		return nil, err
	}
	priorState := map[string]driftState{}
	for _, a := range unresolved {
		if a.Type != domain.AlertCommitmentDrift {
			continue
		}
		var st driftState
		if json.Unmarshal([]byte(a.Details), &st) == nil {
			priorState[a.DedupeKey] = st
		}
	}

	var out []domain.Alert
	for _, c := range commitments {
		if c.CategoryID == "" {
			continue
		}
		lookback := c.NextDueDate.AddDays(-45)
		txns, err := e.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
			CategoryID:  c.CategoryID,
			From:        &lookback,
			To:          &c.NextDueDate,
			ClearedOnly: true,
			Limit:       1,
		})
		if err != nil {
			return nil, err
		}
		if len(txns) == 0 {
			continue
		}
		last := txns[0]
		amountDelta := abs64(abs64(last.AmountCents) - c.AmountCents)
		dateOffset := last.PostedAt.DaysUntil(c.NextDueDate)
		if dateOffset < 0 {
			dateOffset = -dateOffset
		}

		drifted := amountDelta > e.thresholds.DriftAmountToleranceCents || dateOffset > e.thresholds.DriftDateToleranceDays
		key := "drift:" + c.CommitmentID
		if !drifted {
			continue
		}

		st := priorState[key]
		st.ConsecutiveCycles++
		st.ObservedAmountCents = last.AmountCents
		st.ObservedDateOffset = dateOffset
		if st.ConsecutiveCycles < driftCyclesToAlert {
			continue
		}

		details, _ := json.Marshal(st)
		a, err := e.upsertAlert(ctx, domain.Alert{
			Type:      domain.AlertCommitmentDrift,
			DedupeKey: key,
			Severity:  domain.SeverityInfo,
			Title:     fmt.Sprintf("%s consistently differs from its schedule", c.Name),
			Message: fmt.Sprintf("Observed amount %d cents vs configured %d cents, %d day(s) off schedule for %d consecutive cycles",
				last.AmountCents, c.AmountCents, dateOffset, st.ConsecutiveCycles),
			Details: string(details),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

func (e *AlertsEngine) upsertAlert(ctx context.Context, a domain.Alert) (domain.Alert, error) {
	a.AlertID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()
	if _, err := e.repos.Alerts.Upsert(ctx, a); err != nil {
		return domain.Alert{}, err
	}
	return a, nil
}
