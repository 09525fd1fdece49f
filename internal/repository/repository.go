package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
)

// ProductFilter selects one page of products. A nil Gender lists everything;
// otherwise products of that gender plus unisex ones are returned.
type ProductFilter struct {
	Gender *domain.Gender
	Limit  int
	Offset int
}

// ProductRepository persists product rows. Reads return the product with
// its images ordered by position.
type ProductRepository interface {
	// Create inserts the product row only; images are written separately.
	Create(ctx context.Context, product *domain.Product) error

	// GetByID returns apperrors.ErrNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*domain.Product, error)

	// GetByTerm matches a lowercased title or an exact slug.
	GetByTerm(ctx context.Context, term string) (*domain.Product, error)

	// List returns the page selected by filter and the total match count.
	List(ctx context.Context, filter ProductFilter) ([]domain.Product, int, error)

	// Update rewrites every mutable column of the product row.
	Update(ctx context.Context, product *domain.Product) error

	// Delete removes the product row, returning ErrNotFound if none existed.
	Delete(ctx context.Context, id string) error

	// WithTx returns a repository bound to tx.
	WithTx(tx pgx.Tx) ProductRepository
}

// ImageRepository persists product_images rows.
type ImageRepository interface {
	// CreateBatch inserts images in order.
	CreateBatch(ctx context.Context, images []domain.ProductImage) error

	// DeleteByProductID removes every image of a product.
	DeleteByProductID(ctx context.Context, productID string) (int64, error)

	// WithTx returns a repository bound to tx.
	WithTx(tx pgx.Tx) ImageRepository
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}
