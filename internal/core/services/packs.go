package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// PackSection is one titled group of query results inside an assembled pack.
type PackSection struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Items []any  `json:"items"`
}

// Pack is the top-level assembled document q/packs/{pack} returns.
type Pack struct {
	Pack     string        `json:"pack"`
	Period   string        `json:"period,omitempty"`
	Sections []PackSection `json:"sections"`
}

const (
	PackLoanApplicationBasics = "loan_application_basics"
	PackAffordabilitySnapshot = "affordability_snapshot"
	PackDebtAndFixedCosts     = "debt_and_fixed_costs"
)

// PackAssembler composes named report packs from Questionnaire primitives.
type PackAssembler struct {
	q      *Questionnaire
	repos  repositories.Repos
}

func NewPackAssembler(repos repositories.Repos) *PackAssembler {
	return &PackAssembler{q: NewQuestionnaire(repos), repos: repos}
}

// Assemble builds the named pack over [periodStart, periodEnd]; packs that
// ignore that window (loan_application_basics always uses the trailing 3
// full months before asOf) document that in their period field.
func (p *PackAssembler) Assemble(ctx context.Context, pack string, asOf domain.Day, periodStart, periodEnd domain.Day) (*Pack, error) {
	switch pack {
	case PackLoanApplicationBasics:
		return p.loanApplicationBasics(ctx, asOf)
	case PackAffordabilitySnapshot:
		return p.affordabilitySnapshot(ctx, periodStart, periodEnd)
	case PackDebtAndFixedCosts:
		return p.debtAndFixedCosts(ctx, periodStart, periodEnd)
	default:
		return nil, apperrors.Validation(fmt.Sprintf("unknown pack %q", pack))
	}
}

func (p *PackAssembler) loanApplicationBasics(ctx context.Context, asOf domain.Day) (*Pack, error) {
	start, end := lastFullMonths(3, asOf)

	income, err := p.q.IncomeSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	loans, err := p.q.ActiveLoans(ctx)
	if err != nil {
		return nil, err
	}
	housing, err := p.q.MonthlyAverageByCategory(ctx, "", "housing", 3, asOf)
	if err != nil {
		return nil, err
	}
	utilities, err := p.q.MonthlyAverageByCategory(ctx, "", "utilities", 3, asOf)
	if err != nil {
		return nil, err
	}
	childcare, err := p.q.MonthlyAverageByCategory(ctx, "", "childcare", 3, asOf)
	if err != nil {
		return nil, err
	}
	transport, err := p.q.MonthlyAverageByCategory(ctx, "", "transport", 3, asOf)
	if err != nil {
		return nil, err
	}
	discretionary, err := p.q.MonthlyAverageByCategory(ctx, "", "discretionary", 3, asOf)
	if err != nil {
		return nil, err
	}
	subs, err := p.q.SubscriptionList(ctx)
	if err != nil {
		return nil, err
	}

	return &Pack{
		Pack:   PackLoanApplicationBasics,
		Period: "3m_full",
		Sections: []PackSection{
			{ID: "income", Title: "Income (last 3 full months)", Items: []any{income}},
			{ID: "active_loans", Title: "Active Loans", Items: []any{loans}},
			{ID: "housing_cost", Title: "Housing Cost (avg 3m)", Items: []any{housing}},
			{ID: "utilities", Title: "Utilities (avg 3m)", Items: []any{utilities}},
			{ID: "childcare", Title: "Childcare (avg 3m)", Items: []any{childcare}},
			{ID: "transport", Title: "Transport (avg 3m)", Items: []any{transport}},
			{ID: "subscriptions", Title: "Subscriptions", Items: []any{subs}},
			{ID: "discretionary", Title: "Discretionary (avg 3m)", Items: []any{discretionary}},
		},
	}, nil
}

func (p *PackAssembler) affordabilitySnapshot(ctx context.Context, start, end domain.Day) (*Pack, error) {
	income, err := p.q.IncomeSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}
	fixed, err := p.q.HouseholdFixedCosts(ctx, start, end)
	if err != nil {
		return nil, err
	}
	netAfterFixed := income.ValueCents + fixed.ValueCents

	volatility, evid, err := p.monthlyExpenseVolatility(ctx, start, end)
	if err != nil {
		return nil, err
	}

	engine := NewForecastEngine(p.repos)
	accounts, err := p.repos.Accounts.ListAccounts(ctx, true)
	if err != nil {
		return nil, err
	}
	var accountIDs []string
	for _, a := range accounts {
		accountIDs = append(accountIDs, a.AccountID)
	}
	minBuf, err := p.minClearedBalanceLastDays(ctx, engine, accountIDs, end, 60)
	if err != nil {
		return nil, err
	}

	return &Pack{
		Pack:   PackAffordabilitySnapshot,
		Period: start.String() + ".." + end.String(),
		Sections: []PackSection{
			{ID: "net_vs_fixed", Title: "Net Income vs Fixed Costs", Items: []any{
				income, fixed,
				map[string]any{
					"label":       "net_after_fixed_cents",
					"valueCents":  netAfterFixed,
					"windowStart": start, "windowEnd": end,
					"method":      "sum(income, fixed_costs)",
					"evidenceIds": append(append([]string{}, income.EvidenceIDs...), fixed.EvidenceIDs...),
				},
			}},
			{ID: "volatility", Title: "Monthly Volatility (std dev)", Items: []any{
				QueryResult{ValueCents: volatility, WindowStart: start, WindowEnd: end, Method: "stddev_monthly_expense_totals", EvidenceIDs: evid},
			}},
			{ID: "min_buffer", Title: "Min Cleared Balance (last 60 days)", Items: []any{minBuf}},
		},
	}, nil
}

// debt_and_fixed_costs supplements spec.md's two named packs with a
// composite debt-to-income view, per SPEC_FULL.md's expansion.
func (p *PackAssembler) debtAndFixedCosts(ctx context.Context, start, end domain.Day) (*Pack, error) {
	fixed, err := p.q.HouseholdFixedCosts(ctx, start, end)
	if err != nil {
		return nil, err
	}
	loanTotal, err := p.q.MonthlyCommitmentTotal(ctx, "loan", start, end)
	if err != nil {
		return nil, err
	}
	income, err := p.q.IncomeSummary(ctx, start, end)
	if err != nil {
		return nil, err
	}

	// per-mille (‰) fixed point: no floats in a stored value.
	var ratioPerMille int64
	if income.ValueCents != 0 {
		ratioPerMille = loanTotal.ValueCents * 1000 / income.ValueCents
	}

	return &Pack{
		Pack:   PackDebtAndFixedCosts,
		Period: start.String() + ".." + end.String(),
		Sections: []PackSection{
			{ID: "fixed_costs", Title: "Household Fixed Costs", Items: []any{fixed}},
			{ID: "debt_service", Title: "Loan Payments in Window", Items: []any{loanTotal}},
			{ID: "income", Title: "Income in Window", Items: []any{income}},
			{ID: "debt_to_income_ratio", Title: "Debt-to-Income Ratio (per mille)", Items: []any{
				map[string]any{
					"ratioPerMille": ratioPerMille,
					"windowStart":   start, "windowEnd": end,
					"method": "monthly_commitment_total(loan) / income_summary",
				},
			}},
		},
	}, nil
}

func (p *PackAssembler) monthlyExpenseVolatility(ctx context.Context, start, end domain.Day) (int64, []string, error) {
	var totals []int64
	var evid []string
	cur := domain.NewDay(monthFloor(start))
	for !cur.After(end) {
		monthEnd := nextMonthFloor(cur).AddDays(-1)
		if monthEnd.After(end) {
			monthEnd = end
		}
		windowStart := cur
		if windowStart.Before(start) {
			windowStart = start
		}
		r, err := p.q.MonthlyTotalByCategory(ctx, "", "", windowStart, monthEnd)
		if err != nil {
			return 0, nil, err
		}
		totals = append(totals, r.ValueCents)
		evid = append(evid, r.EvidenceIDs...)
		cur = nextMonthFloor(cur)
	}
	return int64(math.Round(stddev(totals))), evid, nil
}

func (p *PackAssembler) minClearedBalanceLastDays(ctx context.Context, engine *ForecastEngine, accountIDs []string, asOf domain.Day, days int) (QueryResult, error) {
	start := asOf.AddDays(-(days - 1))
	opening, err := engine.anchors.Opening(ctx, start.AddDays(-1), accountIDs)
	if err != nil {
		return QueryResult{}, err
	}
	txns, err := p.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		AccountIDs: accountIDs, From: &start, To: &asOf, ClearedOnly: true,
	})
	if err != nil {
		return QueryResult{}, err
	}
	daily := map[string]int64{}
	var evid []string
	for _, t := range txns {
		daily[t.PostedAt.String()] += t.AmountCents
		evid = append(evid, t.IdempotencyKey)
	}

	minBal := opening
	balance := opening
	cur := start
	for !cur.After(asOf) {
		balance += daily[cur.String()]
		if balance < minBal {
			minBal = balance
		}
		cur = cur.AddDays(1)
	}

	return QueryResult{
		ValueCents: minBal, WindowStart: start, WindowEnd: asOf,
		Method: "min_cleared_balance_from_transactions_last_n_days", EvidenceIDs: evid,
	}, nil
}

func monthFloor(d domain.Day) time.Time {
	y, m, _ := d.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

func nextMonthFloor(d domain.Day) domain.Day {
	y, m, _ := d.Date()
	return domain.NewDay(time.Date(y, m+1, 1, 0, 0, 0, 0, time.UTC))
}

func stddev(values []int64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}
	var sum int64
	for _, v := range values {
		sum += v
	}
	mean := float64(sum) / float64(n)
	var sq float64
	for _, v := range values {
		diff := float64(v) - mean
		sq += diff * diff
	}
	return math.Sqrt(sq / float64(n-1))
}

