package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/slug"
)

// CreateProductInput holds the attributes of a new product. Nil pointers
// take the column defaults; a nil Images creates a product without images.
type CreateProductInput struct {
	Title       string
	Price       *decimal.Decimal
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      domain.Gender
	Tags        []string
	Images      []string
}

// UpdateProductInput is a partial update. Nil fields are left unchanged. A
// non-nil Images, even an empty one, replaces every stored image.
type UpdateProductInput struct {
	Title       *string
	Price       *decimal.Decimal
	Description *string
	Slug        *string
	Stock       *int
	Sizes       []string
	Gender      *domain.Gender
	Tags        []string
	Images      []string
}

// ProductWriter creates and updates a product together with its images as
// one atomic unit.
type ProductWriter struct {
	db       Beginner
	products repository.ProductRepository
	images   repository.ImageRepository
	catalog  *CatalogService
	events   EventPublisher
	metrics  *Metrics
	logger   *slog.Logger
	newID    func() string
}

// NewProductWriter creates a product writer. catalog serves the read-back
// after an update.
func NewProductWriter(
	db Beginner,
	products repository.ProductRepository,
	images repository.ImageRepository,
	catalog *CatalogService,
	events EventPublisher,
	metrics *Metrics,
	logger *slog.Logger,
) *ProductWriter {
	return &ProductWriter{
		db:       db,
		products: products,
		images:   images,
		catalog:  catalog,
		events:   events,
		metrics:  metrics,
		logger:   logger,
		newID:    uuid.NewString,
	}
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func ownerRef(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}

// Create inserts the product and its images in a single transaction. The
// returned detail echoes the caller's image strings.
func (w *ProductWriter) Create(ctx context.Context, input CreateProductInput, userID string) (detail *domain.ProductDetail, err error) {
	defer func() { w.metrics.observe("create", err) }()

	source := input.Title
	if input.Slug != nil && *input.Slug != "" {
		source = *input.Slug
	}
	if !input.Gender.Valid() {
		return nil, apperrors.InvalidInput("gender must be one of men, women, unisex, kid")
	}

	now := time.Now().UTC()
	p := &domain.Product{
		ID:          w.newID(),
		Title:       input.Title,
		Description: input.Description,
		Slug:        slug.Normalize(source),
		Sizes:       orEmpty(input.Sizes),
		Gender:      input.Gender,
		Tags:        orEmpty(input.Tags),
		UserID:      ownerRef(userID),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Slug == "" {
		return nil, apperrors.InvalidInput("slug must not be empty")
	}
	if input.Price != nil {
		if err := checkPrice(*input.Price); err != nil {
			return nil, err
		}
		p.Price = domain.RoundPrice(*input.Price)
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}

	images := orEmpty(input.Images)
	p.Images = domain.NewProductImages(p.ID, images, w.newID)

	err = runInTx(ctx, w.db, "product.create", func(tx pgx.Tx) error {
		if err := w.products.WithTx(tx).Create(ctx, p); err != nil {
			return err
		}
		return w.images.WithTx(tx).CreateBatch(ctx, p.Images)
	})
	if err != nil {
		return nil, classifyWriteError(ctx, w.logger, "create product", err)
	}

	detail = domain.NewProductDetail(p)
	detail.Images = images

	if err := w.events.PublishProductCreated(ctx, detail); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish product.created event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.InfoContext(ctx, "product created",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
		slog.Int("images", len(images)),
	)
	return detail, nil
}

// Update merges input into the stored product and, when Images is given,
// swaps the whole image set, all in one transaction. The result is read
// back after commit.
func (w *ProductWriter) Update(ctx context.Context, rawID string, input UpdateProductInput, userID string) (detail *domain.ProductDetail, err error) {
	defer func() { w.metrics.observe("update", err) }()

	id, ok := parseID(rawID)
	if !ok {
		return nil, apperrors.NotFound("product", rawID)
	}

	p, err := w.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.NotFound("product", id)
		}
		return nil, classifyWriteError(ctx, w.logger, "load product for update", err)
	}

	if err := merge(p, input); err != nil {
		return nil, err
	}
	p.UserID = ownerRef(userID)

	var staged []domain.ProductImage
	if input.Images != nil {
		staged = domain.NewProductImages(p.ID, input.Images, w.newID)
	}

	err = runInTx(ctx, w.db, "product.update", func(tx pgx.Tx) error {
		images := w.images.WithTx(tx)
		if staged != nil {
			if _, err := images.DeleteByProductID(ctx, p.ID); err != nil {
				return err
			}
		}
		if err := w.products.WithTx(tx).Update(ctx, p); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return apperrors.NotFound("product", id)
			}
			return err
		}
		if staged == nil {
			return nil
		}
		return images.CreateBatch(ctx, staged)
	})
	if err != nil {
		return nil, classifyWriteError(ctx, w.logger, "update product", err)
	}

	w.catalog.invalidate(ctx, p.ID)

	detail, err = w.catalog.FindOne(ctx, p.ID)
	if err != nil {
		return nil, err
	}

	if err := w.events.PublishProductUpdated(ctx, detail); err != nil {
		w.logger.ErrorContext(ctx, "failed to publish product.updated event",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
	}

	w.logger.InfoContext(ctx, "product updated",
		slog.String("product_id", p.ID),
		slog.String("slug", p.Slug),
		slog.Bool("images_replaced", staged != nil),
	)
	return detail, nil
}

func checkPrice(p decimal.Decimal) error {
	if p.IsNegative() {
		return apperrors.InvalidInput("price must not be negative")
	}
	if domain.RoundPrice(p).GreaterThanOrEqual(domain.PriceLimit) {
		return apperrors.InvalidInput("price must be less than " + domain.PriceLimit.String())
	}
	return nil
}

// merge applies the non-nil fields of input to p and re-normalizes the
// slug.
func merge(p *domain.Product, input UpdateProductInput) error {
	if input.Title != nil {
		p.Title = *input.Title
	}
	if input.Price != nil {
		if err := checkPrice(*input.Price); err != nil {
			return err
		}
		p.Price = domain.RoundPrice(*input.Price)
	}
	if input.Description != nil {
		p.Description = input.Description
	}
	if input.Slug != nil {
		p.Slug = *input.Slug
	}
	if input.Stock != nil {
		p.Stock = *input.Stock
	}
	if input.Sizes != nil {
		p.Sizes = input.Sizes
	}
	if input.Gender != nil {
		if !input.Gender.Valid() {
			return apperrors.InvalidInput("gender must be one of men, women, unisex, kid")
		}
		p.Gender = *input.Gender
	}
	if input.Tags != nil {
		p.Tags = input.Tags
	}

	p.Slug = slug.Normalize(p.Slug)
	if p.Slug == "" {
		return apperrors.InvalidInput("slug must not be empty")
	}
	return nil
}
