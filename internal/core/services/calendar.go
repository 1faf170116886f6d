package services

import (
	"context"
	"sort"
	"strings"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// CalendarExpander materializes a deterministic dated ledger of scheduled
// inflows, commitments, and key spend events across a horizon.
type CalendarExpander struct {
	repos repositories.Repos
}

func NewCalendarExpander(repos repositories.Repos) *CalendarExpander {
	return &CalendarExpander{repos: repos}
}

// Expand returns every Entry with a nominal occurrence in [start, end],
// ordered by (date, type, source_id) as spec.md §4.4 requires.
func (c *CalendarExpander) Expand(ctx context.Context, start, end domain.Day) ([]domain.Entry, error) {
	var entries []domain.Entry

	inflows, err := c.repos.Inflows.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, inflow := range inflows {
		rule, err := ParseRule(inflow.DueRule)
		if err != nil {
			continue
		}
		for _, nominal := range rule.Occurrences(start, end) {
			entries = append(entries, domain.Entry{
				Date:              nominal,
				Type:              domain.EntryInflow,
				Name:              inflow.Name,
				SignedAmountCents: inflow.AmountCents,
				SourceID:          inflow.InflowID,
				UIMarker:          "💰",
			})
		}
	}

	commitments, err := c.repos.Commitments.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	for _, cm := range commitments {
		rule, err := ParseRule(cm.DueRule)
		if err != nil {
			continue
		}
		for _, nominal := range rule.Occurrences(start, end) {
			shifted, applied := ApplyShift(nominal, cm.ShiftPolicy, cm.FlexibleWindowDays)
			entries = append(entries, domain.Entry{
				Date:              shifted,
				Type:              domain.EntryCommitment,
				Name:              cm.Name,
				SignedAmountCents: -cm.AmountCents,
				SourceID:          cm.CommitmentID,
				ShiftApplied:      applied,
				Policy:            cm.ShiftPolicy,
				UIMarker:          "📄",
			})
		}
	}

	// ListAll, not ListInRange: a recurring event's base event_date can
	// precede start yet still recur into [start, end].
	events, err := c.repos.KeyEvents.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		var nominals []domain.Day
		if ev.RepeatRule == "" {
			if !ev.EventDate.Before(start) && !ev.EventDate.After(end) {
				nominals = []domain.Day{ev.EventDate}
			}
		} else {
			rule, err := ParseRule(ev.RepeatRule)
			if err != nil {
				continue
			}
			nominals = rule.Occurrences(start, end)
		}
		for _, nominal := range nominals {
			// planned_amount_cents > 0 is an expense (subtracts); < 0 is income (adds).
			signed := -ev.PlannedAmountCents
			shifted, applied := ApplyShift(nominal, ev.ShiftPolicy, 0)
			entries = append(entries, domain.Entry{
				Date:               shifted,
				Type:               domain.EntryKeyEvent,
				Name:               ev.Name,
				SignedAmountCents:  signed,
				SourceID:           ev.KeyEventID,
				ShiftApplied:       applied,
				Policy:             ev.ShiftPolicy,
				UIMarker:           keyEventMarker(ev.Name),
				IsWithinLeadWindow: start.DaysUntil(nominal) <= ev.LeadTimeDays,
			})
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.Before(entries[j].Date)
		}
		if entries[i].Type != entries[j].Type {
			return domain.EntryTypeOrder(entries[i].Type) < domain.EntryTypeOrder(entries[j].Type)
		}
		return entries[i].SourceID < entries[j].SourceID
	})

	return entries, nil
}

func keyEventMarker(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.Contains(lower, "birthday"):
		return "🎂"
	case strings.Contains(lower, "christmas") || strings.Contains(lower, "holiday"):
		return "🎄"
	default:
		return "🎯"
	}
}
