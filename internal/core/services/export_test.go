package services_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
	"github.com/cashkeep/cashkeep/internal/core/services"
)

func stubDebtAndFixedCostsRepos(repos *mockRepos, start, end domain.Day) {
	repos.Commitments.On("ListActive", context.Background()).Return([]domain.Commitment{
		{CommitmentID: "rent", Type: "rent", AmountCents: 100000},
		{CommitmentID: "car-loan", Type: "loan", AmountCents: 20000, DueRule: "monthly:15"},
	}, nil)
	repos.Transactions.On("ListTransactions", context.Background(), repositories.TransactionFilter{
		From: &start, To: &end, ClearedOnly: true,
	}).Return([]domain.Transaction{
		{IdempotencyKey: "inc1", AmountCents: 500000},
	}, nil)
}

func TestExporter_ExportPack_WritesCSVAndPDF(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")
	stubDebtAndFixedCostsRepos(repos, start, end)

	dir := t.TempDir()
	exporter := services.NewExporter(services.NewPackAssembler(repos.Repos()), dir)
	generatedAt := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	result, err := exporter.ExportPack(ctx, services.PackDebtAndFixedCosts, end, start, end, services.ExportBoth, false, generatedAt)
	require.NoError(t, err)
	require.NotEmpty(t, result.Hash)
	require.NotEmpty(t, result.CSVPath)
	require.NotEmpty(t, result.PDFPath)

	csvBytes, err := os.ReadFile(result.CSVPath)
	require.NoError(t, err)
	require.Contains(t, string(csvBytes), "debt_and_fixed_costs")
	require.Contains(t, string(csvBytes), result.Hash)

	pdfBytes, err := os.ReadFile(result.PDFPath)
	require.NoError(t, err)
	require.Contains(t, string(pdfBytes), "debt_and_fixed_costs")
	require.Contains(t, string(pdfBytes), result.Hash)
}

func TestExporter_ExportPack_SameInputsProduceSameHash(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")
	stubDebtAndFixedCostsRepos(repos, start, end)

	dir := t.TempDir()
	exporter := services.NewExporter(services.NewPackAssembler(repos.Repos()), dir)
	generatedAt := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)

	first, err := exporter.ExportPack(ctx, services.PackDebtAndFixedCosts, end, start, end, services.ExportCSV, false, generatedAt)
	require.NoError(t, err)
	second, err := exporter.ExportPack(ctx, services.PackDebtAndFixedCosts, end, start, end, services.ExportCSV, false, generatedAt)
	require.NoError(t, err)
	require.Equal(t, first.Hash, second.Hash)
}

func TestExporter_ExportPack_DifferentGeneratedAtChangesHash(t *testing.T) {
	ctx := context.Background()
	repos := newMockRepos()
	start, end := day("2025-01-01"), day("2025-01-31")
	stubDebtAndFixedCostsRepos(repos, start, end)

	dir := t.TempDir()
	exporter := services.NewExporter(services.NewPackAssembler(repos.Repos()), dir)

	first, err := exporter.ExportPack(ctx, services.PackDebtAndFixedCosts, end, start, end, services.ExportCSV, false,
		time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := exporter.ExportPack(ctx, services.PackDebtAndFixedCosts, end, start, end, services.ExportCSV, false,
		time.Date(2025, 2, 1, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotEqual(t, first.Hash, second.Hash)
}
