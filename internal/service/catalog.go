package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/pagination"
)

// ListProductsInput selects a page of the catalog. A nil Gender lists every
// product; zero Limit and Offset take the pagination defaults.
type ListProductsInput struct {
	Limit  int
	Offset int
	Gender *domain.Gender
}

// CatalogService answers product reads and removes products.
type CatalogService struct {
	db       Beginner
	products repository.ProductRepository
	images   repository.ImageRepository
	cache    ProductCache
	events   EventPublisher
	metrics  *Metrics
	logger   *slog.Logger
}

// NewCatalogService creates a catalog service.
func NewCatalogService(
	db Beginner,
	products repository.ProductRepository,
	images repository.ImageRepository,
	cache ProductCache,
	events EventPublisher,
	metrics *Metrics,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		db:       db,
		products: products,
		images:   images,
		cache:    cache,
		events:   events,
		metrics:  metrics,
		logger:   logger,
	}
}

// parseID returns the canonical form of s when it parses as a UUID. Braced,
// upper-case and urn:uuid: spellings all map to the same id.
func parseID(s string) (string, bool) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}

// FindOne looks a product up by id when idOrTerm parses as a UUID and by
// title or slug otherwise. Only one of the two lookups runs.
func (s *CatalogService) FindOne(ctx context.Context, idOrTerm string) (*domain.ProductDetail, error) {
	if id, ok := parseID(idOrTerm); ok {
		return s.findByID(ctx, id)
	}

	p, err := s.products.GetByTerm(ctx, idOrTerm)
	if err != nil {
		return nil, s.readError(ctx, idOrTerm, err)
	}
	return domain.NewProductDetail(p), nil
}

func (s *CatalogService) findByID(ctx context.Context, id string) (*domain.ProductDetail, error) {
	cached, ok, err := s.cache.Get(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "product cache read failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	if ok {
		return cached, nil
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, s.readError(ctx, id, err)
	}

	detail := domain.NewProductDetail(p)
	if err := s.cache.Set(ctx, detail); err != nil {
		s.logger.WarnContext(ctx, "product cache write failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
	return detail, nil
}

func (s *CatalogService) readError(ctx context.Context, key string, err error) error {
	if errors.Is(err, apperrors.ErrNotFound) {
		return apperrors.NotFound("product", key)
	}
	s.logger.ErrorContext(ctx, "product read failed",
		slog.String("key", key),
		slog.String("error", err.Error()),
	)
	return apperrors.Internal(err)
}

// FindAll returns one page of products ordered by id. With a gender filter,
// unisex products are included alongside the requested gender.
func (s *CatalogService) FindAll(ctx context.Context, input ListProductsInput) (*domain.ProductPage, error) {
	params := pagination.Params{Limit: input.Limit, Offset: input.Offset}.Normalize()

	if input.Gender != nil && !input.Gender.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("gender must be one of %v", domain.Genders()))
	}

	products, count, err := s.products.List(ctx, repository.ProductFilter{
		Gender: input.Gender,
		Limit:  params.Limit,
		Offset: params.Offset,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "list products failed", slog.String("error", err.Error()))
		return nil, apperrors.Internal(err)
	}

	page := &domain.ProductPage{
		Count:    count,
		Pages:    pagination.Pages(count, params.Limit),
		Products: make([]domain.ProductDetail, len(products)),
	}
	for i := range products {
		page.Products[i] = *domain.NewProductDetail(&products[i])
	}
	return page, nil
}

// Remove deletes a product and its images in one transaction.
func (s *CatalogService) Remove(ctx context.Context, rawID string) (err error) {
	defer func() { s.metrics.observe("remove", err) }()

	id, ok := parseID(rawID)
	if !ok {
		return apperrors.NotFound("product", rawID)
	}

	err = runInTx(ctx, s.db, "product.remove", func(tx pgx.Tx) error {
		if _, err := s.images.WithTx(tx).DeleteByProductID(ctx, id); err != nil {
			return err
		}
		if err := s.products.WithTx(tx).Delete(ctx, id); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("product", id)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return classifyWriteError(ctx, s.logger, "remove product", err)
	}

	s.invalidate(ctx, id)
	if err := s.events.PublishProductDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish product.deleted event",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "product removed", slog.String("product_id", id))
	return nil
}

// invalidate drops id from the cache. A failure leaves a stale entry until
// its TTL runs out, so it is logged and otherwise ignored.
func (s *CatalogService) invalidate(ctx context.Context, id string) {
	if err := s.cache.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "product cache invalidation failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}
