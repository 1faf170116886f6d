package services

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// QueryResult is the common envelope every scalar questionnaire primitive
// returns: a cents value plus the window and evidence it was derived from.
type QueryResult struct {
	ValueCents  int64      `json:"valueCents"`
	WindowStart domain.Day `json:"windowStart"`
	WindowEnd   domain.Day `json:"windowEnd"`
	Method      string     `json:"method"`
	EvidenceIDs []string   `json:"evidenceIds"`
}

type LoanRow struct {
	CommitmentID string     `json:"commitmentID"`
	Name         string     `json:"name"`
	AmountCents  int64      `json:"amountCents"`
	DueRule      string     `json:"dueRule"`
	NextDueDate  domain.Day `json:"nextDueDate"`
	AccountID    string     `json:"accountID"`
	Type         string     `json:"type"`
}

type ActiveLoansResult struct {
	Rows        []LoanRow `json:"rows"`
	Method      string    `json:"method"`
	EvidenceIDs []string  `json:"evidenceIds"`
}

type CategoryBreakdownRow struct {
	CategoryID   string `json:"categoryID"`
	CategoryName string `json:"categoryName"`
	TotalCents   int64  `json:"totalCents"`
}

type CategoryBreakdownResult struct {
	Rows        []CategoryBreakdownRow `json:"rows"`
	WindowStart domain.Day             `json:"windowStart"`
	WindowEnd   domain.Day             `json:"windowEnd"`
	Method      string                 `json:"method"`
}

type IncomeSourceRow struct {
	Source      string `json:"source"`
	ValueCents  int64  `json:"valueCents"`
}

type IncomeSummaryResult struct {
	QueryResult
	BySource []IncomeSourceRow `json:"bySource"`
}

type SupportingTransactionRow struct {
	TransactionID string     `json:"transactionID"`
	PostedAt      domain.Day `json:"postedAt"`
	AmountCents   int64      `json:"amountCents"`
	Payee         string     `json:"payee"`
	Memo          string     `json:"memo"`
	CategoryID    string     `json:"categoryID,omitempty"`
}

type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
	Total    int `json:"total"`
}

type SupportingTransactionsResult struct {
	Rows        []SupportingTransactionRow `json:"rows"`
	Pagination  Pagination                 `json:"pagination"`
	WindowStart domain.Day                 `json:"windowStart"`
	WindowEnd   domain.Day                 `json:"windowEnd"`
	Method      string                     `json:"method"`
	EvidenceIDs []string                   `json:"evidenceIds"`
}

type SubscriptionRow struct {
	Payee              string     `json:"payee"`
	AverageAmountCents int64      `json:"averageAmountCents"`
	MonthsObserved     int        `json:"monthsObserved"`
	LastPostedAt       domain.Day `json:"lastPostedAt"`
}

type SubscriptionsResult struct {
	Rows        []SubscriptionRow `json:"rows"`
	Method      string            `json:"method"`
	EvidenceIDs []string          `json:"evidenceIds"`
}

const subscriptionAmountBandPct = 10

// Questionnaire answers the fixed set of primitive queries the pack layer
// composes: everything traces to a window, a method label, and the
// transaction/commitment rows it was computed from.
type Questionnaire struct {
	repos repositories.Repos
}

func NewQuestionnaire(repos repositories.Repos) *Questionnaire {
	return &Questionnaire{repos: repos}
}

// resolveCategory prefers an already-resolved internal id, then the
// question-vocabulary alias table, then an exact internal category name.
func (q *Questionnaire) resolveCategory(ctx context.Context, categoryID, categoryText string) (string, error) {
	if categoryID != "" {
		return categoryID, nil
	}
	if categoryText == "" {
		return "", nil
	}
	if id, err := q.repos.Categories.ResolveAlias(ctx, categoryText); err == nil {
		return id, nil
	} else if !isNotFound(err) {
		return "", err
	}
	if cat, err := q.repos.Categories.FindInternalByName(ctx, strings.TrimSpace(categoryText)); err == nil {
		return cat.CategoryID, nil
	} else if !isNotFound(err) {
		return "", err
	}
	return "", nil
}

// MonthlyTotalByCategory sums outflow magnitudes for categoryID (or the
// alias/name in categoryText) over [start, end]. Empty category means "all
// outflows."
func (q *Questionnaire) MonthlyTotalByCategory(ctx context.Context, categoryID, categoryText string, start, end domain.Day) (QueryResult, error) {
	catID, err := q.resolveCategory(ctx, categoryID, categoryText)
	if err != nil {
		return QueryResult{}, err
	}
	filter := repositories.TransactionFilter{From: &start, To: &end, ClearedOnly: true}
	if catID != "" {
		filter.CategoryID = catID
	}
	txns, err := q.repos.Transactions.ListTransactions(ctx, filter)
	if err != nil {
		return QueryResult{}, err
	}
	var total int64
	var evid []string
	for _, t := range txns {
		if t.AmountCents >= 0 {
			continue
		}
		total += -t.AmountCents
		evid = append(evid, t.IdempotencyKey)
	}
	return QueryResult{
		ValueCents:  total,
		WindowStart: start,
		WindowEnd:   end,
		Method:      "sum_expense_transactions_in_window",
		EvidenceIDs: evid,
	}, nil
}

// monthsBetween counts inclusive calendar months spanned by [start, end].
func monthsBetween(start, end domain.Day) int {
	if end.Before(start) {
		return 0
	}
	sy, sm, _ := start.Date()
	ey, em, _ := end.Date()
	return (ey-sy)*12 + int(em-sm) + 1
}

// lastFullMonths returns the [start, end] window of the last n full calendar
// months preceding asOf's month.
func lastFullMonths(n int, asOf domain.Day) (domain.Day, domain.Day) {
	y, m, _ := asOf.Date()
	firstOfThisMonth := domain.NewDay(time.Date(y, m, 1, 0, 0, 0, 0, time.UTC))
	end := firstOfThisMonth.AddDays(-1)
	ey, em, _ := end.Date()
	mStart := int(em) - (n - 1)
	yStart := ey
	for mStart <= 0 {
		mStart += 12
		yStart--
	}
	start := domain.NewDay(time.Date(yStart, time.Month(mStart), 1, 0, 0, 0, 0, time.UTC))
	return start, end
}

// MonthlyAverageByCategory divides MonthlyTotalByCategory's total over the
// last `months` full calendar months by that month count.
func (q *Questionnaire) MonthlyAverageByCategory(ctx context.Context, categoryID, categoryText string, months int, asOf domain.Day) (QueryResult, error) {
	start, end := lastFullMonths(months, asOf)
	total, err := q.MonthlyTotalByCategory(ctx, categoryID, categoryText, start, end)
	if err != nil {
		return QueryResult{}, err
	}
	n := monthsBetween(start, end)
	if n < 1 {
		n = 1
	}
	total.ValueCents = roundDiv(total.ValueCents, int64(n))
	total.Method = "monthly_average_over_full_months"
	return total, nil
}

func roundDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if a >= 0 {
		return (a + b/2) / b
	}
	return -((-a + b/2) / b)
}

var loanCommitmentTypes = map[string]bool{"loan": true, "debt": true, "credit": true}

// ActiveLoans returns commitments whose Type marks them as debt-bearing.
func (q *Questionnaire) ActiveLoans(ctx context.Context) (ActiveLoansResult, error) {
	commitments, err := q.repos.Commitments.ListActive(ctx)
	if err != nil {
		return ActiveLoansResult{}, err
	}
	var rows []LoanRow
	var evid []string
	for _, c := range commitments {
		if !loanCommitmentTypes[strings.ToLower(c.Type)] {
			continue
		}
		rows = append(rows, LoanRow{
			CommitmentID: c.CommitmentID, Name: c.Name, AmountCents: c.AmountCents,
			DueRule: c.DueRule, NextDueDate: c.NextDueDate, AccountID: c.AccountID, Type: c.Type,
		})
		evid = append(evid, "commitment:"+c.CommitmentID)
	}
	return ActiveLoansResult{Rows: rows, Method: "commitments_type_filter", EvidenceIDs: evid}, nil
}

// MonthlyCommitmentTotal sums the amounts of active commitments of kind
// (case-insensitive; empty kind means all) whose rule fires within
// [start, end].
func (q *Questionnaire) MonthlyCommitmentTotal(ctx context.Context, kind string, start, end domain.Day) (QueryResult, error) {
	commitments, err := q.repos.Commitments.ListActive(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	var total int64
	var evid []string
	for _, c := range commitments {
		if kind != "" && !strings.EqualFold(c.Type, kind) {
			continue
		}
		rule, err := ParseRule(c.DueRule)
		if err != nil {
			continue
		}
		occ := rule.Occurrences(start, end)
		if len(occ) == 0 {
			continue
		}
		total += c.AmountCents * int64(len(occ))
		evid = append(evid, "commitment:"+c.CommitmentID)
	}
	return QueryResult{
		ValueCents: total, WindowStart: start, WindowEnd: end,
		Method: "sum_commitments_by_kind_in_window", EvidenceIDs: evid,
	}, nil
}

// IncomeSummary sums inflow-magnitude transactions in [start, end] and
// breaks the total down by their Source.
func (q *Questionnaire) IncomeSummary(ctx context.Context, start, end domain.Day) (IncomeSummaryResult, error) {
	txns, err := q.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	})
	if err != nil {
		return IncomeSummaryResult{}, err
	}
	var total int64
	var evid []string
	bySource := map[string]int64{}
	for _, t := range txns {
		if t.AmountCents <= 0 {
			continue
		}
		total += t.AmountCents
		bySource[t.Source] += t.AmountCents
		evid = append(evid, t.IdempotencyKey)
	}
	var rows []IncomeSourceRow
	for src, amt := range bySource {
		rows = append(rows, IncomeSourceRow{Source: src, ValueCents: amt})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Source < rows[j].Source })
	return IncomeSummaryResult{
		QueryResult: QueryResult{
			ValueCents: total, WindowStart: start, WindowEnd: end,
			Method: "sum_income_transactions_in_window", EvidenceIDs: evid,
		},
		BySource: rows,
	}, nil
}

// CategoryBreakdown ranks the top-n categories by outflow magnitude in
// [start, end].
func (q *Questionnaire) CategoryBreakdown(ctx context.Context, start, end domain.Day, topN int) (CategoryBreakdownResult, error) {
	txns, err := q.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	})
	if err != nil {
		return CategoryBreakdownResult{}, err
	}
	totals := map[string]int64{}
	for _, t := range txns {
		if t.AmountCents >= 0 {
			continue
		}
		totals[t.CategoryID] += -t.AmountCents
	}
	var rows []CategoryBreakdownRow
	for catID, total := range totals {
		rows = append(rows, CategoryBreakdownRow{CategoryID: catID, CategoryName: catID, TotalCents: total})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TotalCents > rows[j].TotalCents })
	if topN > 0 && len(rows) > topN {
		rows = rows[:topN]
	}
	for i := range rows {
		if rows[i].CategoryID != "" {
			if cat, err := q.repos.Categories.GetCategoryByID(ctx, rows[i].CategoryID); err == nil {
				rows[i].CategoryName = cat.Name
			}
		}
	}
	return CategoryBreakdownResult{Rows: rows, WindowStart: start, WindowEnd: end, Method: "sum_by_category_expenses"}, nil
}

// SupportingTransactions returns a paginated evidence page of the raw
// transactions behind another primitive's total.
func (q *Questionnaire) SupportingTransactions(ctx context.Context, categoryID, categoryText string, start, end domain.Day, page, pageSize int) (SupportingTransactionsResult, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}
	catID, err := q.resolveCategory(ctx, categoryID, categoryText)
	if err != nil {
		return SupportingTransactionsResult{}, err
	}

	filter := repositories.TransactionFilter{From: &start, To: &end, Limit: pageSize, Offset: (page - 1) * pageSize}
	if catID != "" {
		filter.CategoryID = catID
	}
	txns, err := q.repos.Transactions.ListTransactions(ctx, filter)
	if err != nil {
		return SupportingTransactionsResult{}, err
	}

	totalFilter := filter
	totalFilter.Limit, totalFilter.Offset = 0, 0
	all, err := q.repos.Transactions.ListTransactions(ctx, totalFilter)
	if err != nil {
		return SupportingTransactionsResult{}, err
	}

	rows := make([]SupportingTransactionRow, 0, len(txns))
	evid := make([]string, 0, len(txns))
	for _, t := range txns {
		rows = append(rows, SupportingTransactionRow{
			TransactionID: t.TransactionID, PostedAt: t.PostedAt, AmountCents: t.AmountCents,
			Payee: t.Payee, Memo: t.Memo, CategoryID: t.CategoryID,
		})
		evid = append(evid, t.IdempotencyKey)
	}

	return SupportingTransactionsResult{
		Rows:        rows,
		Pagination:  Pagination{Page: page, PageSize: pageSize, Total: len(all)},
		WindowStart: start, WindowEnd: end,
		Method:      "list_transactions_window_filtered",
		EvidenceIDs: evid,
	}, nil
}

// SubscriptionList heuristically detects recurring payees: the same payee
// name appearing in >= 3 distinct months at a roughly stable amount.
func (q *Questionnaire) SubscriptionList(ctx context.Context) (SubscriptionsResult, error) {
	txns, err := q.repos.Transactions.ListTransactions(ctx, repositories.TransactionFilter{ClearedOnly: true})
	if err != nil {
		return SubscriptionsResult{}, err
	}

	byPayee := map[string][]domain.Transaction{}
	for _, t := range txns {
		if t.AmountCents >= 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(t.Payee))
		if key == "" {
			continue
		}
		byPayee[key] = append(byPayee[key], t)
	}

	var rows []SubscriptionRow
	var evid []string
	for payee, group := range byPayee {
		months, err := q.repos.Transactions.CountDistinctMonthsForPayee(ctx, group[0].Payee)
		if err != nil {
			return SubscriptionsResult{}, err
		}
		if months < 3 {
			continue
		}
		if !withinBand(group, subscriptionAmountBandPct) {
			continue
		}

		var sum int64
		latest := group[0].PostedAt
		for _, t := range group {
			sum += t.AmountCents
			if t.PostedAt.After(latest) {
				latest = t.PostedAt
			}
			evid = append(evid, t.IdempotencyKey)
		}
		rows = append(rows, SubscriptionRow{
			Payee: payee, AverageAmountCents: roundDiv(sum, int64(len(group))),
			MonthsObserved: months, LastPostedAt: latest,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Payee < rows[j].Payee })
	return SubscriptionsResult{Rows: rows, Method: "recurring_payee_amount_band", EvidenceIDs: evid}, nil
}

// withinBand reports whether every amount in group is within pct percent of
// the group's mean magnitude.
func withinBand(group []domain.Transaction, pct int64) bool {
	var sum int64
	for _, t := range group {
		sum += -t.AmountCents
	}
	mean := sum / int64(len(group))
	if mean == 0 {
		return false
	}
	tolerance := mean * pct / 100
	for _, t := range group {
		amt := -t.AmountCents
		diff := amt - mean
		if diff < 0 {
			diff = -diff
		}
		if diff > tolerance {
			return false
		}
	}
	return true
}

var householdFixedCostTypes = map[string]bool{"bill": true, "rent": true, "mortgage": true, "utility": true}

// HouseholdFixedCosts sums active commitments whose Type marks them as a
// fixed household cost and whose rule fires within [start, end], reported as
// a negative (outflow) magnitude.
func (q *Questionnaire) HouseholdFixedCosts(ctx context.Context, start, end domain.Day) (QueryResult, error) {
	commitments, err := q.repos.Commitments.ListActive(ctx)
	if err != nil {
		return QueryResult{}, err
	}
	var total int64
	var evid []string
	for _, c := range commitments {
		if !householdFixedCostTypes[strings.ToLower(c.Type)] {
			continue
		}
		rule, err := ParseRule(c.DueRule)
		if err != nil {
			continue
		}
		occ := rule.Occurrences(start, end)
		if len(occ) == 0 {
			continue
		}
		total += c.AmountCents * int64(len(occ))
		evid = append(evid, "commitment:"+c.CommitmentID)
	}
	return QueryResult{
		ValueCents: -total, WindowStart: start, WindowEnd: end,
		Method: "sum_commitments_fixed_types_in_window", EvidenceIDs: evid,
	}, nil
}
