package services

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/google/uuid"
)

const snapshotHorizonDays = 120

// Digest is the compact daily summary derived from the latest snapshot.
type Digest struct {
	CurrentBalanceCents int64                  `json:"currentBalanceCents"`
	SafeToSpendCents    int64                  `json:"safeToSpendCents"`
	NextCliffDate       *domain.Day            `json:"nextCliffDate,omitempty"`
	MinBalanceCents     int64                  `json:"minBalanceCents"`
	MinBalanceDate      domain.Day             `json:"minBalanceDate"`
	TopCommitments      []domain.Commitment    `json:"topCommitments"`
	KeyEventsInWindow   []domain.KeySpendEvent `json:"keyEventsInWindow"`
	SnapshotCreatedAt   time.Time              `json:"snapshotCreatedAt"`
	Stale               bool                   `json:"stale"`
}

// snapshotPayload is the JSON shape persisted to ForecastSnapshot.Payload.
// OpeningCents is the balance immediately before HorizonStart's entries are
// applied, kept separately from Balances (which is keyed by end-of-day
// balance) so Digest can reseed safeToSpend without double-counting
// HorizonStart's own entries.
type snapshotPayload struct {
	Entries      []domain.Entry `json:"entries"`
	Balances     Series         `json:"balances"`
	OpeningCents int64          `json:"openingCents"`
}

// SnapshotJob runs the forecast, persists a ForecastSnapshot, and derives
// the daily digest. Failures leave the previous snapshot in place.
type SnapshotJob struct {
	repos  repositories.Repos
	engine *ForecastEngine
	alerts *AlertsEngine
}

func NewSnapshotJob(repos repositories.Repos, thresholds AlertThresholds) *SnapshotJob {
	return &SnapshotJob{repos: repos, engine: NewForecastEngine(repos), alerts: NewAlertsEngine(repos).WithThresholds(thresholds)}
}

// Run computes and stores today's forecast snapshot and evaluates alerts
// against it. It does not build the digest; Digest does that.
func (s *SnapshotJob) Run(ctx context.Context, today domain.Day, activeAccountIDs []string, bufferFloorCents int64) (*domain.ForecastSnapshot, error) {
	end := today.AddDays(snapshotHorizonDays)
	fc, err := s.engine.Compute(ctx, today, end, activeAccountIDs, bufferFloorCents)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(snapshotPayload{Entries: fc.Entries, Balances: fc.Balances, OpeningCents: fc.OpeningCents})
	if err != nil {
		return nil, err
	}

	snap := domain.ForecastSnapshot{
		SnapshotID:      uuid.NewString(),
		CreatedAt:       time.Now().UTC(),
		HorizonStart:    today,
		HorizonEnd:      end,
		Payload:         string(payload),
		MinBalanceCents: fc.MinBalanceCents,
		MinBalanceDate:  fc.MinBalanceDate,
	}
	if err := s.repos.Snapshots.Insert(ctx, snap); err != nil {
		return nil, err
	}

	if _, err := s.alerts.Evaluate(ctx, snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// Digest assembles the digest for the latest snapshot, marking it stale if
// its age exceeds staleAfter.
func (s *SnapshotJob) Digest(ctx context.Context, staleAfter time.Duration, bufferFloorCents int64) (*Digest, error) {
	latest, err := s.repos.Snapshots.Latest(ctx)
	if err != nil {
		return nil, err
	}

	var payload snapshotPayload
	if err := json.Unmarshal([]byte(latest.Payload), &payload); err != nil {
		return nil, err
	}

	current := payload.Balances[latest.HorizonStart.String()]
	// Seed with the true opening balance, not current (which already has
	// HorizonStart's entries applied) — safeToSpend re-applies those
	// entries itself and would double-count them otherwise.
	safeToSpend := safeToSpend(payload.OpeningCents, payload.Entries, latest.HorizonStart, latest.HorizonEnd, bufferFloorCents)

	var cliff *domain.Day
	cur := latest.HorizonStart
	for !cur.After(latest.HorizonEnd) {
		if bal, ok := payload.Balances[cur.String()]; ok && bal <= bufferFloorCents {
			d := cur
			cliff = &d
			break
		}
		cur = cur.AddDays(1)
	}

	top, err := s.topCommitments(ctx, latest.HorizonStart, 14)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.KeyEvents.ListUpcoming(ctx, latest.HorizonStart)
	if err != nil {
		return nil, err
	}
	var inWindow []domain.KeySpendEvent
	for _, e := range events {
		if latest.HorizonStart.DaysUntil(e.EventDate) <= e.LeadTimeDays {
			inWindow = append(inWindow, e)
		}
	}

	return &Digest{
		CurrentBalanceCents: current,
		SafeToSpendCents:    safeToSpend,
		NextCliffDate:       cliff,
		MinBalanceCents:     latest.MinBalanceCents,
		MinBalanceDate:      latest.MinBalanceDate,
		TopCommitments:      top,
		KeyEventsInWindow:   inWindow,
		SnapshotCreatedAt:   latest.CreatedAt,
		Stale:               time.Since(latest.CreatedAt) > staleAfter,
	}, nil
}

func (s *SnapshotJob) topCommitments(ctx context.Context, horizonStart domain.Day, windowDays int) ([]domain.Commitment, error) {
	commitments, err := s.repos.Commitments.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	end := horizonStart.AddDays(windowDays)
	var out []domain.Commitment
	for _, c := range commitments {
		rule, err := ParseRule(c.DueRule)
		if err != nil {
			continue
		}
		if len(rule.Occurrences(horizonStart, end)) > 0 {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].NextDueDate.Equal(out[j].NextDueDate) {
			return out[i].NextDueDate.Before(out[j].NextDueDate)
		}
		return out[i].Priority > out[j].Priority
	})
	return out, nil
}
