package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/cashkeep/cashkeep/internal/core/domain"
	"github.com/cashkeep/cashkeep/internal/core/ports/repositories"
)

// The mocks below satisfy every repositories.* interface via
// testify/mock.Mock, in the teacher's MockAccountRepository style. They live
// in one file since every services test needs some subset of the same
// repositories.Repos bundle.

type MockAccountRepository struct{ mock.Mock }

func (m *MockAccountRepository) UpsertAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}
func (m *MockAccountRepository) GetAccount(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepository) FindAccountByExternalID(ctx context.Context, source, externalID string) (*domain.Account, error) {
	args := m.Called(ctx, source, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}
func (m *MockAccountRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]domain.Account, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}
func (m *MockAccountRepository) Deactivate(ctx context.Context, accountID string) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}

type MockTransactionRepository struct{ mock.Mock }

func (m *MockTransactionRepository) UpsertTransaction(ctx context.Context, txn domain.Transaction) (bool, error) {
	args := m.Called(ctx, txn)
	return args.Bool(0), args.Error(1)
}
func (m *MockTransactionRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Transaction, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepository) ListTransactions(ctx context.Context, filter repositories.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}
func (m *MockTransactionRepository) SumCleared(ctx context.Context, accountIDs []string, from, to *domain.Day) (int64, error) {
	args := m.Called(ctx, accountIDs, from, to)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockTransactionRepository) CountDistinctMonthsForPayee(ctx context.Context, payee string) (int, error) {
	args := m.Called(ctx, payee)
	return args.Int(0), args.Error(1)
}

type MockCategoryRepository struct{ mock.Mock }

func (m *MockCategoryRepository) UpsertCategory(ctx context.Context, c domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCategoryRepository) GetCategoryByID(ctx context.Context, id string) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}
func (m *MockCategoryRepository) FindInternalByName(ctx context.Context, name string) (*domain.Category, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}
func (m *MockCategoryRepository) ListCategories(ctx context.Context, source string) ([]domain.Category, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Category), args.Error(1)
}
func (m *MockCategoryRepository) GetMapping(ctx context.Context, source, externalID string) (*domain.CategoryMap, error) {
	args := m.Called(ctx, source, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CategoryMap), args.Error(1)
}
func (m *MockCategoryRepository) SetMapping(ctx context.Context, cm domain.CategoryMap) error {
	args := m.Called(ctx, cm)
	return args.Error(0)
}
func (m *MockCategoryRepository) ResolveAlias(ctx context.Context, questionText string) (string, error) {
	args := m.Called(ctx, questionText)
	return args.String(0), args.Error(1)
}

type MockCommitmentRepository struct{ mock.Mock }

func (m *MockCommitmentRepository) Upsert(ctx context.Context, c domain.Commitment) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCommitmentRepository) Get(ctx context.Context, id string) (*domain.Commitment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Commitment), args.Error(1)
}
func (m *MockCommitmentRepository) ListActive(ctx context.Context) ([]domain.Commitment, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Commitment), args.Error(1)
}
func (m *MockCommitmentRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockScheduledInflowRepository struct{ mock.Mock }

func (m *MockScheduledInflowRepository) Upsert(ctx context.Context, i domain.ScheduledInflow) error {
	args := m.Called(ctx, i)
	return args.Error(0)
}
func (m *MockScheduledInflowRepository) Get(ctx context.Context, id string) (*domain.ScheduledInflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledInflow), args.Error(1)
}
func (m *MockScheduledInflowRepository) ListActive(ctx context.Context) ([]domain.ScheduledInflow, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ScheduledInflow), args.Error(1)
}
func (m *MockScheduledInflowRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockKeySpendEventRepository struct{ mock.Mock }

func (m *MockKeySpendEventRepository) Upsert(ctx context.Context, e domain.KeySpendEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}
func (m *MockKeySpendEventRepository) Get(ctx context.Context, id string) (*domain.KeySpendEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KeySpendEvent), args.Error(1)
}
func (m *MockKeySpendEventRepository) ListAll(ctx context.Context) ([]domain.KeySpendEvent, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KeySpendEvent), args.Error(1)
}
func (m *MockKeySpendEventRepository) ListInRange(ctx context.Context, from, to domain.Day) ([]domain.KeySpendEvent, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KeySpendEvent), args.Error(1)
}
func (m *MockKeySpendEventRepository) ListUpcoming(ctx context.Context, asOf domain.Day) ([]domain.KeySpendEvent, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KeySpendEvent), args.Error(1)
}
func (m *MockKeySpendEventRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockAnchorRepository struct{ mock.Mock }

func (m *MockAnchorRepository) Upsert(ctx context.Context, a domain.AccountAnchor) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAnchorRepository) Get(ctx context.Context, accountID string) (*domain.AccountAnchor, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountAnchor), args.Error(1)
}
func (m *MockAnchorRepository) ListAll(ctx context.Context) ([]domain.AccountAnchor, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountAnchor), args.Error(1)
}

type MockSnapshotRepository struct{ mock.Mock }

func (m *MockSnapshotRepository) Insert(ctx context.Context, s domain.ForecastSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
func (m *MockSnapshotRepository) Latest(ctx context.Context) (*domain.ForecastSnapshot, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ForecastSnapshot), args.Error(1)
}
func (m *MockSnapshotRepository) Previous(ctx context.Context, beforeID string) (*domain.ForecastSnapshot, error) {
	args := m.Called(ctx, beforeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ForecastSnapshot), args.Error(1)
}

type MockCursorRepository struct{ mock.Mock }

func (m *MockCursorRepository) Get(ctx context.Context, source string) (*domain.SourceCursor, error) {
	args := m.Called(ctx, source)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SourceCursor), args.Error(1)
}
func (m *MockCursorRepository) Advance(ctx context.Context, source, cursor string) error {
	args := m.Called(ctx, source, cursor)
	return args.Error(0)
}

type MockAuditRepository struct{ mock.Mock }

func (m *MockAuditRepository) Insert(ctx context.Context, a domain.IngestAudit) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAuditRepository) ListBySource(ctx context.Context, source string, limit int) ([]domain.IngestAudit, error) {
	args := m.Called(ctx, source, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.IngestAudit), args.Error(1)
}

type MockAlertRepository struct{ mock.Mock }

func (m *MockAlertRepository) Upsert(ctx context.Context, a domain.Alert) (bool, error) {
	args := m.Called(ctx, a)
	return args.Bool(0), args.Error(1)
}
func (m *MockAlertRepository) ListUnresolved(ctx context.Context) ([]domain.Alert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Alert), args.Error(1)
}
func (m *MockAlertRepository) Resolve(ctx context.Context, alertID string) error {
	args := m.Called(ctx, alertID)
	return args.Error(0)
}

// mockRepos bundles a fresh set of mock repositories. Tests that don't care
// about a given repository leave it unset; testify panics loudly if a test
// calls into a repository it never stubbed with .On(...).
type mockRepos struct {
	Accounts     *MockAccountRepository
	Transactions *MockTransactionRepository
	Categories   *MockCategoryRepository
	Commitments  *MockCommitmentRepository
	Inflows      *MockScheduledInflowRepository
	KeyEvents    *MockKeySpendEventRepository
	Anchors      *MockAnchorRepository
	Snapshots    *MockSnapshotRepository
	Cursors      *MockCursorRepository
	Audits       *MockAuditRepository
	Alerts       *MockAlertRepository
}

func newMockRepos() *mockRepos {
	return &mockRepos{
		Accounts:     new(MockAccountRepository),
		Transactions: new(MockTransactionRepository),
		Categories:   new(MockCategoryRepository),
		Commitments:  new(MockCommitmentRepository),
		Inflows:      new(MockScheduledInflowRepository),
		KeyEvents:    new(MockKeySpendEventRepository),
		Anchors:      new(MockAnchorRepository),
		Snapshots:    new(MockSnapshotRepository),
		Cursors:      new(MockCursorRepository),
		Audits:       new(MockAuditRepository),
		Alerts:       new(MockAlertRepository),
	}
}

func (r *mockRepos) Repos() repositories.Repos {
	return repositories.Repos{
		Accounts:     r.Accounts,
		Transactions: r.Transactions,
		Categories:   r.Categories,
		Commitments:  r.Commitments,
		Inflows:      r.Inflows,
		KeyEvents:    r.KeyEvents,
		Anchors:      r.Anchors,
		Snapshots:    r.Snapshots,
		Cursors:      r.Cursors,
		Audits:       r.Audits,
		Alerts:       r.Alerts,
	}
}

// fakeUnitOfWork runs fn directly against the same Repos: adequate for
// service-level tests, which never assert on rollback semantics (that's
// covered at the sqlite store layer instead).
type fakeUnitOfWork struct{ repos repositories.Repos }

func (f fakeUnitOfWork) WithTx(ctx context.Context, fn func(repositories.Repos) error) error {
	return fn(f.repos)
}
