package services

import (
	"context"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// Series is a day-by-day balance trajectory. Sparse dates are not present;
// consumers carry forward the last known balance.
type Series map[string]int64

// Forecast is the composed output of one deterministic forecast run.
type Forecast struct {
	Start             domain.Day
	End               domain.Day
	OpeningCents      int64
	Entries           []domain.Entry
	Balances          Series
	MinBalanceCents   int64
	MinBalanceDate    domain.Day
	NextCliffDate     *domain.Day
	SafeToSpendCents  int64
	EmptySeries       bool
}

// ForecastEngine composes opening balance and expanded calendar entries into
// a day-by-day balance series, and derives the safety metrics the digest and
// HTTP surface report.
type ForecastEngine struct {
	anchors  *AnchorResolver
	calendar *CalendarExpander
}

func NewForecastEngine(repos repositories.Repos) *ForecastEngine {
	return &ForecastEngine{
		anchors:  NewAnchorResolver(repos),
		calendar: NewCalendarExpander(repos),
	}
}

// Compute runs the full deterministic pipeline: opening balance via the
// Anchor Resolver, calendar expansion, then the day-by-day balance walk and
// its derived safety metrics.
func (f *ForecastEngine) Compute(ctx context.Context, start, end domain.Day, accountIDs []string, bufferFloorCents int64) (*Forecast, error) {
	opening, err := f.anchors.Opening(ctx, start.AddDays(-1), accountIDs)
	if err != nil {
		return nil, err
	}
	entries, err := f.calendar.Expand(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return f.ComposeFromEntries(start, end, opening, entries, bufferFloorCents), nil
}

// ComposeFromEntries runs the balance walk against an already-resolved
// opening balance and entry set, letting the Simulator inject synthetic
// entries without re-querying the store.
func (f *ForecastEngine) ComposeFromEntries(start, end domain.Day, openingCents int64, entries []domain.Entry, bufferFloorCents int64) *Forecast {
	byDate := map[string]int64{}
	for _, e := range entries {
		byDate[e.Date.String()] += e.SignedAmountCents
	}

	balances := make(Series)
	running := openingCents
	minBalance := openingCents
	minDate := start
	var cliff *domain.Day

	cur := start
	first := true
	for !cur.After(end) {
		running += byDate[cur.String()]
		balances[cur.String()] = running
		if first || running < minBalance {
			minBalance = running
			minDate = cur
			first = false
		}
		if cliff == nil && running <= bufferFloorCents {
			d := cur
			cliff = &d
		}
		cur = cur.AddDays(1)
	}

	fc := &Forecast{
		Start:           start,
		End:             end,
		OpeningCents:    openingCents,
		Entries:         entries,
		Balances:        balances,
		MinBalanceCents: minBalance,
		MinBalanceDate:  minDate,
		NextCliffDate:   cliff,
		EmptySeries:     len(entries) == 0,
	}
	fc.SafeToSpendCents = safeToSpend(openingCents, entries, start, end, bufferFloorCents)
	return fc
}

// safeToSpend is the largest non-negative integer x such that spending x on
// start still leaves the horizon minimum >= bufferFloorCents, found by
// integer binary search over [0, opening + max(0, future inflows)].
func safeToSpend(openingCents int64, entries []domain.Entry, start, end domain.Day, bufferFloorCents int64) int64 {
	var futureInflows int64
	for _, e := range entries {
		if e.SignedAmountCents > 0 {
			futureInflows += e.SignedAmountCents
		}
	}
	hi := openingCents + futureInflows
	if hi < 0 {
		hi = 0
	}
	return binarySearchMaxSafe(openingCents, entries, start, end, bufferFloorCents, hi)
}

// binarySearchMaxSafe finds the largest x in [0, hi] such that subtracting x
// from the opening balance on start keeps the horizon minimum >=
// bufferFloorCents. minBalanceWithSpend is monotonically non-increasing in
// x, so a standard integer binary search applies.
func binarySearchMaxSafe(openingCents int64, entries []domain.Entry, start, end domain.Day, bufferFloorCents, hi int64) int64 {
	lo := int64(0)
	if minBalanceWithSpend(openingCents, entries, start, end, 0) < bufferFloorCents {
		return 0
	}
	for lo < hi {
		mid := lo + (hi-lo+1)/2
		if minBalanceWithSpend(openingCents, entries, start, end, mid) >= bufferFloorCents {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}

func minBalanceWithSpend(openingCents int64, entries []domain.Entry, start, end domain.Day, spendCents int64) int64 {
	byDate := map[string]int64{}
	for _, e := range entries {
		byDate[e.Date.String()] += e.SignedAmountCents
	}
	byDate[start.String()] -= spendCents

	running := openingCents
	min := openingCents
	first := true
	cur := start
	for !cur.After(end) {
		running += byDate[cur.String()]
		if first || running < min {
			min = running
			first = false
		}
		cur = cur.AddDays(1)
	}
	return min
}
