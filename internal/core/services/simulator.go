package services

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// SimulationMode selects which baseline series a simulation result reports
// alongside the safety decision (which always uses the deterministic
// series).
type SimulationMode string

const (
	ModeDeterministic SimulationMode = "deterministic"
	ModeBlended       SimulationMode = "blended"
)

// SimulationResult answers a what-if spend question.
type SimulationResult struct {
	Safe               bool
	NewMinBalanceCents int64
	NewMinBalanceDate  domain.Day
	TightDays          []domain.Day
	MaxSafeTodayCents  int64
}

// tightDayEpsilonCents is the band around the buffer floor a day must fall
// within to be reported as "tight" in a simulation result.
const tightDayEpsilonCents = 500

// Simulator answers what-if spend questions against the deterministic
// forecast, injecting a synthetic outflow rather than mutating stored state.
type Simulator struct {
	engine *ForecastEngine
}

func NewSimulator(repos repositories.Repos) *Simulator {
	return &Simulator{engine: NewForecastEngine(repos)}
}

// SimulateSpend recomputes the forecast with an extra synthetic outflow of
// amountCents on date, and reports whether the horizon stays at or above
// bufferFloorCents.
func (s *Simulator) SimulateSpend(ctx context.Context, date domain.Day, amountCents int64, accountIDs []string, bufferFloorCents int64, horizonDays int) (*SimulationResult, error) {
	end := date.AddDays(horizonDays)
	fc, err := s.engine.Compute(ctx, date, end, accountIDs, bufferFloorCents)
	if err != nil {
		return nil, err
	}

	synthetic := append([]domain.Entry{}, fc.Entries...)
	synthetic = append(synthetic, domain.Entry{
		Date:              date,
		Type:              domain.EntryKeyEvent,
		Name:              "simulated spend",
		SignedAmountCents: -amountCents,
		SourceID:          "simulated",
	})

	withSpend := s.engine.ComposeFromEntries(date, end, fc.OpeningCents, synthetic, bufferFloorCents)

	var tight []domain.Day
	cur := date
	for !cur.After(end) {
		if bal, ok := withSpend.Balances[cur.String()]; ok {
			if abs64(bal-bufferFloorCents) <= tightDayEpsilonCents {
				tight = append(tight, cur)
			}
		}
		cur = cur.AddDays(1)
	}

	maxSafe := safeToSpend(fc.OpeningCents, fc.Entries, date, end, bufferFloorCents)

	return &SimulationResult{
		Safe:               withSpend.MinBalanceCents >= bufferFloorCents,
		NewMinBalanceCents: withSpend.MinBalanceCents,
		NewMinBalanceDate:  withSpend.MinBalanceDate,
		TightDays:          tight,
		MaxSafeTodayCents:  maxSafe,
	}, nil
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
