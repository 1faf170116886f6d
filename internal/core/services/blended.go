package services

import (
	"context"
	"math"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

const blendedWindowDays = 180

// DailyStats summarizes the variable-spend subset of history: debits outside
// every commitment and key-event category (credits, and with them income and
// scheduled inflows, are left out). Inter-account transfers are not
// identified, so an outgoing transfer counts as variable spend.
type DailyStats struct {
	MeanCents   int64
	StdDevCents int64
}

// BlendedOverlay subtracts expected variable spend from the deterministic
// baseline and adds symmetric confidence bands, all in integer cents with no
// random-number generation.
type BlendedOverlay struct {
	repos repositories.Repos
}

func NewBlendedOverlay(repos repositories.Repos) *BlendedOverlay {
	return &BlendedOverlay{repos: repos}
}

// ComputeDailyStats builds the contiguous daily variable-spend series over
// the trailing window ending asOf, including zero days, and returns its mean
// and standard deviation in cents.
func (b *BlendedOverlay) ComputeDailyStats(ctx context.Context, asOf domain.Day) (DailyStats, error) {
	start := asOf.AddDays(-blendedWindowDays + 1)
	txns, err := b.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		From: &start, To: &asOf, ClearedOnly: true,
	})
	if err != nil {
		return DailyStats{}, err
	}
	fixedCategories, err := b.fixedCostCategories(ctx)
	if err != nil {
		return DailyStats{}, err
	}

	daily := b.variableSpendByDay(txns, fixedCategories, start, asOf)
	return statsOf(daily), nil
}

// fixedCostCategories returns the category IDs already represented by a
// Commitment or KeySpendEvent, so the variable-spend series does not
// double-count them. ScheduledInflow carries no CategoryID, and income is
// already excluded from variableSpendByDay by its sign.
func (b *BlendedOverlay) fixedCostCategories(ctx context.Context) (map[string]bool, error) {
	out := map[string]bool{}
	commitments, err := b.repos.Commitments.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range commitments {
		if c.CategoryID != "" {
			out[c.CategoryID] = true
		}
	}
	events, err := b.repos.KeyEvents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.CategoryID != "" {
			out[e.CategoryID] = true
		}
	}
	return out, nil
}

// ComputeWeekdayMultipliers returns a per-weekday multiplier (index 0=Sunday)
// normalized so the mean is 1.0. Sparse data (fewer than two weeks of
// non-zero days) falls back to a neutral [1.0]*7.
func (b *BlendedOverlay) ComputeWeekdayMultipliers(ctx context.Context, asOf domain.Day) ([7]float64, error) {
	neutral := [7]float64{1, 1, 1, 1, 1, 1, 1}

	start := asOf.AddDays(-blendedWindowDays + 1)
	txns, err := b.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		From: &start, To: &asOf, ClearedOnly: true,
	})
	if err != nil {
		return neutral, err
	}
	fixedCategories, err := b.fixedCostCategories(ctx)
	if err != nil {
		return neutral, err
	}
	daily := b.variableSpendByDay(txns, fixedCategories, start, asOf)
	observedDays := 0
	for _, v := range daily {
		if v != 0 {
			observedDays++
		}
	}
	if observedDays < 14 {
		return neutral, nil
	}

	var sums [7]int64
	var counts [7]int
	cur := start
	for _, v := range daily {
		sums[int(cur.Weekday())] += v
		counts[int(cur.Weekday())]++
		cur = cur.AddDays(1)
	}

	var avgs [7]float64
	var total float64
	nonZero := 0
	for i := 0; i < 7; i++ {
		if counts[i] > 0 {
			avgs[i] = float64(sums[i]) / float64(counts[i])
			total += avgs[i]
			nonZero++
		}
	}
	if total == 0 || nonZero == 0 {
		return neutral, nil
	}
	mean := total / float64(nonZero)
	if mean == 0 {
		return neutral, nil
	}

	var mult [7]float64
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			mult[i] = 1
			continue
		}
		mult[i] = avgs[i] / mean
	}
	return mult, nil
}

// variableSpendByDay excludes income (positive amounts) and any transaction
// categorized under a commitment or key-event category, since those are
// already represented in the deterministic series.
func (b *BlendedOverlay) variableSpendByDay(txns []domain.Transaction, fixedCategories map[string]bool, start, end domain.Day) []int64 {
	n := start.DaysUntil(end) + 1
	if n < 1 {
		return nil
	}
	daily := make([]int64, n)
	for _, t := range txns {
		if t.AmountCents >= 0 {
			continue // income
		}
		if t.CategoryID != "" && fixedCategories[t.CategoryID] {
			continue
		}
		idx := start.DaysUntil(t.PostedAt)
		if idx < 0 || idx >= n {
			continue
		}
		daily[idx] += -t.AmountCents
	}
	return daily
}

func statsOf(daily []int64) DailyStats {
	if len(daily) == 0 {
		return DailyStats{}
	}
	var sum int64
	for _, v := range daily {
		sum += v
	}
	mean := float64(sum) / float64(len(daily))

	var sqDiffSum float64
	for _, v := range daily {
		d := float64(v) - mean
		sqDiffSum += d * d
	}
	variance := sqDiffSum / float64(len(daily))

	return DailyStats{
		MeanCents:   int64(math.Round(mean)),
		StdDevCents: int64(math.Round(math.Sqrt(variance))),
	}
}

// BlendedSeries mirrors the deterministic series but subtracts expected
// variable spend and adds symmetric ±k·σ bands.
type BlendedSeries struct {
	Baseline Series
	Lower    Series
	Upper    Series
}

// Blend derives the blended overlay from an already-computed deterministic
// forecast, sharing its dated-entry set (spec.md invariant 6: the two series
// differ only by the variable-spend subtraction and bands).
func (b *BlendedOverlay) Blend(fc *Forecast, stats DailyStats, weekdayMult [7]float64, bandK float64) BlendedSeries {
	baseline := make(Series, len(fc.Balances))
	lower := make(Series, len(fc.Balances))
	upper := make(Series, len(fc.Balances))

	cur := fc.Start
	for !cur.After(fc.End) {
		key := cur.String()
		det, ok := fc.Balances[key]
		if !ok {
			cur = cur.AddDays(1)
			continue
		}
		expected := int64(float64(stats.MeanCents) * weekdayMult[int(cur.Weekday())])
		blended := det - expected
		band := int64(bandK * float64(stats.StdDevCents))
		baseline[key] = blended
		lower[key] = blended - band
		upper[key] = blended + band
		cur = cur.AddDays(1)
	}

	return BlendedSeries{Baseline: baseline, Lower: lower, Upper: upper}
}
