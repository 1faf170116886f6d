package services_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func day(s string) domain.Day {
	d, err := domain.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestParseRule_Malformed(t *testing.T) {
	cases := []string{
		"",
		"monthly",
		"monthly:40",
		"monthly:0",
		"weekly:FUNDAY",
		"every_n_days:0:2025-01-01",
		"every_n_days:7:not-a-date",
		"fixed:not-a-date",
		"nonsense:1",
	}
	for _, c := range cases {
		_, err := services.ParseRule(c)
		assert.Errorf(t, err, "expected error for rule %q", c)
	}
}

func TestRule_FixedDate_Occurrences(t *testing.T) {
	r, err := services.ParseRule("fixed:2025-06-15")
	require.NoError(t, err)

	occ := r.Occurrences(day("2025-01-01"), day("2025-12-31"))
	assert.Equal(t, []domain.Day{day("2025-06-15")}, occ)

	assert.Empty(t, r.Occurrences(day("2025-07-01"), day("2025-12-31")))
}

func TestRule_MonthlyOn_ClampsShortMonths(t *testing.T) {
	r, err := services.ParseRule("monthly:31")
	require.NoError(t, err)

	occ := r.Occurrences(day("2025-01-01"), day("2025-04-30"))
	require.Len(t, occ, 4)
	assert.Equal(t, day("2025-01-31"), occ[0])
	assert.Equal(t, day("2025-02-28"), occ[1]) // clamped, not a leap year
	assert.Equal(t, day("2025-03-31"), occ[2])
	assert.Equal(t, day("2025-04-30"), occ[3]) // clamped
}

func TestRule_WeeklyOn(t *testing.T) {
	r, err := services.ParseRule("weekly:FRI")
	require.NoError(t, err)

	occ := r.Occurrences(day("2025-01-01"), day("2025-01-31"))
	for _, d := range occ {
		assert.Equal(t, "Friday", d.Weekday().String())
	}
	assert.Len(t, occ, 5) // Jan 2025: 3, 10, 17, 24, 31
}

func TestRule_EveryNDays_AnchorInPast(t *testing.T) {
	r, err := services.ParseRule("every_n_days:14:2025-01-01")
	require.NoError(t, err)

	occ := r.Occurrences(day("2025-02-01"), day("2025-02-28"))
	for _, d := range occ {
		assert.Equal(t, 0, day("2025-01-01").DaysUntil(d)%14)
	}
	assert.NotEmpty(t, occ)
}

func TestRule_EveryNDays_AnchorAfterWindow(t *testing.T) {
	r, err := services.ParseRule("every_n_days:14:2026-01-01")
	require.NoError(t, err)

	assert.Empty(t, r.Occurrences(day("2025-01-01"), day("2025-12-31")))
}

func TestApplyShift_AsScheduled_NeverMoves(t *testing.T) {
	saturday := day("2025-01-04")
	shifted, applied := services.ApplyShift(saturday, domain.AsScheduled, 0)
	assert.Equal(t, saturday, shifted)
	assert.False(t, applied)
}

func TestApplyShift_NextBusinessDay(t *testing.T) {
	saturday := day("2025-01-04")
	shifted, applied := services.ApplyShift(saturday, domain.NextBusinessDay, 0)
	assert.Equal(t, day("2025-01-06"), shifted) // Monday
	assert.True(t, applied)
}

func TestApplyShift_PrevBusinessDay_RespectsFlexibleWindow(t *testing.T) {
	sunday := day("2025-01-05")

	// Flexible window of 1 day covers Sunday -> Friday's 2-day pull back? No:
	// prev business day from Sunday is Friday, 2 calendar days back, which
	// exceeds a 1-day flexible window, so the shift is rejected.
	shifted, applied := services.ApplyShift(sunday, domain.PrevBusinessDay, 1)
	assert.Equal(t, sunday, shifted)
	assert.False(t, applied)

	// A wide enough window allows the shift.
	shifted, applied = services.ApplyShift(sunday, domain.PrevBusinessDay, 3)
	assert.Equal(t, day("2025-01-03"), shifted) // Friday
	assert.True(t, applied)
}
