package service

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	"github.com/utafrali/catalog/pkg/database"
)

// --- Mock repositories ---

type mockProductRepository struct {
	mock.Mock
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) GetByTerm(ctx context.Context, term string) (*domain.Product, error) {
	args := m.Called(ctx, term)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Product), args.Error(1)
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]domain.Product, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]domain.Product), args.Int(1), args.Error(2)
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *mockProductRepository) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProductRepository) WithTx(pgx.Tx) repository.ProductRepository {
	return m
}

type mockImageRepository struct {
	mock.Mock
}

func (m *mockImageRepository) CreateBatch(ctx context.Context, images []domain.ProductImage) error {
	return m.Called(ctx, images).Error(0)
}

func (m *mockImageRepository) DeleteByProductID(ctx context.Context, productID string) (int64, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockImageRepository) WithTx(pgx.Tx) repository.ImageRepository {
	return m
}

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// --- Mock cache and events ---

type mockCache struct {
	mock.Mock
}

func (m *mockCache) Get(ctx context.Context, id string) (*domain.ProductDetail, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*domain.ProductDetail), args.Bool(1), args.Error(2)
}

func (m *mockCache) Set(ctx context.Context, detail *domain.ProductDetail) error {
	return m.Called(ctx, detail).Error(0)
}

func (m *mockCache) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockEvents struct {
	mock.Mock
}

func (m *mockEvents) PublishProductCreated(ctx context.Context, d *domain.ProductDetail) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockEvents) PublishProductUpdated(ctx context.Context, d *domain.ProductDetail) error {
	return m.Called(ctx, d).Error(0)
}

func (m *mockEvents) PublishProductDeleted(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

// --- Fixture ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	db       pgxmock.PgxPoolIface
	products *mockProductRepository
	images   *mockImageRepository
	cache    *mockCache
	events   *mockEvents
	catalog  *CatalogService
	writer   *ProductWriter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.NewMockPool()
	require.NoError(t, err)
	t.Cleanup(db.Close)

	f := &fixture{
		db:       db,
		products: &mockProductRepository{},
		images:   &mockImageRepository{},
		cache:    &mockCache{},
		events:   &mockEvents{},
	}
	logger := newTestLogger()
	f.catalog = NewCatalogService(db, f.products, f.images, f.cache, f.events, nil, logger)
	f.writer = NewProductWriter(db, f.products, f.images, f.catalog, f.events, nil, logger)

	ids := 0
	f.writer.newID = func() string {
		ids++
		return testIDs[ids-1]
	}
	return f
}

// assertAll checks every mock plus the SQL expectations.
func (f *fixture) assertAll(t *testing.T) {
	t.Helper()
	f.products.AssertExpectations(t)
	f.images.AssertExpectations(t)
	f.cache.AssertExpectations(t)
	f.events.AssertExpectations(t)
	require.NoError(t, f.db.ExpectationsWereMet())
}

var testIDs = []string{
	"11111111-1111-4111-8111-111111111111",
	"22222222-2222-4222-8222-222222222222",
	"33333333-3333-4333-8333-333333333333",
	"44444444-4444-4444-8444-444444444444",
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
