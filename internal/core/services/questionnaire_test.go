package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/apperrors"
	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func TestQuestionnaire_MonthlyTotalByCategory_ResolvesIDDirectly(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true, CategoryID: "cat-groceries",
	}).Return([]domain.Transaction{
		{IdempotencyKey: "k1", AmountCents: -2500, CategoryID: "cat-groceries"},
		{IdempotencyKey: "k2", AmountCents: -1500, CategoryID: "cat-groceries"},
		{IdempotencyKey: "k3", AmountCents: 300000, CategoryID: "cat-groceries"}, // income, excluded
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.MonthlyTotalByCategory(ctx, "cat-groceries", "", start, end)
	require.NoError(t, err)
	require.Equal(t, int64(4000), result.ValueCents)
	require.Equal(t, []string{"k1", "k2"}, result.EvidenceIDs)
	require.Equal(t, "sum_expense_transactions_in_window", result.Method)
}

func TestQuestionnaire_MonthlyTotalByCategory_ResolvesTextViaAliasThenName(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	repos.Categories.On("ResolveAlias", ctx, "food").Return("", apperrors.NotFound("no alias"))
	repos.Categories.On("FindInternalByName", ctx, "food").Return(&domain.Category{CategoryID: "cat-groceries"}, nil)
	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true, CategoryID: "cat-groceries",
	}).Return([]domain.Transaction{
		{IdempotencyKey: "k1", AmountCents: -1000, CategoryID: "cat-groceries"},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.MonthlyTotalByCategory(ctx, "", "food", start, end)
	require.NoError(t, err)
	require.Equal(t, int64(1000), result.ValueCents)
}

func TestQuestionnaire_MonthlyAverageByCategory_DividesByFullMonthCount(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	asOf := day("2025-03-15")
	// lastFullMonths(2, 2025-03-15) => Jan 1 - Feb 28 2025.
	start := day("2025-01-01")
	end := day("2025-02-28")

	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	}).Return([]domain.Transaction{
		{IdempotencyKey: "k1", AmountCents: -10000},
		{IdempotencyKey: "k2", AmountCents: -6000},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.MonthlyAverageByCategory(ctx, "", "", 2, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(8000), result.ValueCents) // 16000 / 2 months
	require.Equal(t, "monthly_average_over_full_months", result.Method)
}

func TestQuestionnaire_ActiveLoans_FiltersByDebtBearingType(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{
		{CommitmentID: "car-loan", Type: "Loan", Name: "Car Loan"},
		{CommitmentID: "rent", Type: "rent", Name: "Rent"},
		{CommitmentID: "cc", Type: "credit", Name: "Credit Card"},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.ActiveLoans(ctx)
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	require.ElementsMatch(t, []string{"car-loan", "cc"}, []string{result.Rows[0].CommitmentID, result.Rows[1].CommitmentID})
}

func TestQuestionnaire_MonthlyCommitmentTotal_MultipliesByOccurrenceCount(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{
		{CommitmentID: "netflix", Type: "subscription", AmountCents: 1500, DueRule: "monthly:5"},
		{CommitmentID: "rent", Type: "rent", AmountCents: 150000, DueRule: "monthly:1"},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.MonthlyCommitmentTotal(ctx, "subscription", start, end)
	require.NoError(t, err)
	require.Equal(t, int64(1500), result.ValueCents)
	require.Equal(t, []string{"commitment:netflix"}, result.EvidenceIDs)
}

func TestQuestionnaire_IncomeSummary_BreaksDownBySource(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	}).Return([]domain.Transaction{
		{IdempotencyKey: "k1", AmountCents: 300000, Source: "ynab"},
		{IdempotencyKey: "k2", AmountCents: 20000, Source: "csv"},
		{IdempotencyKey: "k3", AmountCents: -5000, Source: "ynab"}, // expense excluded
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.IncomeSummary(ctx, start, end)
	require.NoError(t, err)
	require.Equal(t, int64(320000), result.ValueCents)
	require.Len(t, result.BySource, 2)
	require.Equal(t, "csv", result.BySource[0].Source) // sorted by source name
	require.Equal(t, int64(20000), result.BySource[0].ValueCents)
	require.Equal(t, "ynab", result.BySource[1].Source)
	require.Equal(t, int64(300000), result.BySource[1].ValueCents)
}

func TestQuestionnaire_CategoryBreakdown_RanksByMagnitudeAndTruncatesTopN(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	}).Return([]domain.Transaction{
		{AmountCents: -1000, CategoryID: "cat-a"},
		{AmountCents: -5000, CategoryID: "cat-b"},
		{AmountCents: -2000, CategoryID: "cat-b"},
		{AmountCents: -100, CategoryID: "cat-c"},
	}, nil)
	repos.Categories.On("GetCategoryByID", ctx, "cat-b").Return(&domain.Category{CategoryID: "cat-b", Name: "Bills"}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.CategoryBreakdown(ctx, start, end, 1)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "cat-b", result.Rows[0].CategoryID)
	require.Equal(t, "Bills", result.Rows[0].CategoryName)
	require.Equal(t, int64(7000), result.Rows[0].TotalCents)
}

func TestQuestionnaire_SupportingTransactions_PaginatesAndReportsTotal(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")

	pageFilter := repositories.TransactionFilter{From: &start, To: &end, Limit: 1, Offset: 1}
	totalFilter := repositories.TransactionFilter{From: &start, To: &end}

	repos.Transactions.On("ListTransactions", ctx, pageFilter).Return([]domain.Transaction{
		{TransactionID: "t2", IdempotencyKey: "k2", PostedAt: day("2025-01-10"), AmountCents: -500},
	}, nil)
	repos.Transactions.On("ListTransactions", ctx, totalFilter).Return([]domain.Transaction{
		{TransactionID: "t1"}, {TransactionID: "t2"}, {TransactionID: "t3"},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.SupportingTransactions(ctx, "", "", start, end, 2, 1)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "t2", result.Rows[0].TransactionID)
	require.Equal(t, 3, result.Pagination.Total)
	require.Equal(t, 2, result.Pagination.Page)
	require.Equal(t, 1, result.Pagination.PageSize)
}

func TestQuestionnaire_SubscriptionList_RequiresThreeMonthsAndStableAmount(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	repos.Transactions.On("ListTransactions", ctx, repositories.TransactionFilter{ClearedOnly: true}).Return([]domain.Transaction{
		{IdempotencyKey: "n1", Payee: "Netflix", AmountCents: -1500, PostedAt: day("2025-01-05")},
		{IdempotencyKey: "n2", Payee: "Netflix", AmountCents: -1500, PostedAt: day("2025-02-05")},
		{IdempotencyKey: "n3", Payee: "Netflix", AmountCents: -1600, PostedAt: day("2025-03-05")},
		{IdempotencyKey: "o1", Payee: "OneOff", AmountCents: -9999, PostedAt: day("2025-01-01")},
	}, nil)
	repos.Transactions.On("CountDistinctMonthsForPayee", ctx, "Netflix").Return(3, nil)
	repos.Transactions.On("CountDistinctMonthsForPayee", ctx, "OneOff").Return(1, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.SubscriptionList(ctx)
	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	require.Equal(t, "netflix", result.Rows[0].Payee)
	require.Equal(t, 3, result.Rows[0].MonthsObserved)
	require.Equal(t, day("2025-03-05"), result.Rows[0].LastPostedAt)
}

func TestQuestionnaire_HouseholdFixedCosts_SumsFixedTypesAsNegative(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()

	start, end := day("2025-01-01"), day("2025-01-31")
	repos.Commitments.On("ListActive", ctx).Return([]domain.Commitment{
		{CommitmentID: "rent", Type: "rent", AmountCents: 150000, DueRule: "fixed:2025-01-05"},
		{CommitmentID: "power", Type: "utility", AmountCents: 8000, DueRule: "fixed:2025-01-10"},
		{CommitmentID: "netflix", Type: "subscription", AmountCents: 1500, DueRule: "fixed:2025-01-15"},
	}, nil)

	q := services.NewQuestionnaire(repos.Repos())
	result, err := q.HouseholdFixedCosts(ctx, start, end)
	require.NoError(t, err)
	require.Equal(t, int64(-158000), result.ValueCents)
	require.ElementsMatch(t, []string{"commitment:rent", "commitment:power"}, result.EvidenceIDs)
}
