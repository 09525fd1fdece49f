package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	"github.com/utafrali/catalog/pkg/database"
)

// ImageRepository implements repository.ImageRepository on PostgreSQL.
type ImageRepository struct {
	db database.DBTX
}

// NewImageRepository creates an image repository on db.
func NewImageRepository(db database.DBTX) *ImageRepository {
	return &ImageRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ImageRepository) WithTx(tx pgx.Tx) repository.ImageRepository {
	return &ImageRepository{db: tx}
}

// CreateBatch inserts every image in a single statement. An empty slice is
// a no-op.
func (r *ImageRepository) CreateBatch(ctx context.Context, images []domain.ProductImage) error {
	if len(images) == 0 {
		return nil
	}

	ids := make([]string, len(images))
	productIDs := make([]string, len(images))
	urls := make([]string, len(images))
	positions := make([]int32, len(images))
	for i, img := range images {
		ids[i] = img.ID
		productIDs[i] = img.ProductID
		urls[i] = img.URL
		positions[i] = int32(img.Position)
	}

	query := `
		INSERT INTO product_images (id, product_id, url, position)
		SELECT * FROM UNNEST($1::uuid[], $2::uuid[], $3::text[], $4::int[])`

	if _, err := r.db.Exec(ctx, query, ids, productIDs, urls, positions); err != nil {
		return fmt.Errorf("insert product images: %w", err)
	}
	return nil
}

// DeleteByProductID removes all images of a product and reports how many
// rows went away.
func (r *ImageRepository) DeleteByProductID(ctx context.Context, productID string) (int64, error) {
	ct, err := r.db.Exec(ctx, `DELETE FROM product_images WHERE product_id = $1`, productID)
	if err != nil {
		return 0, fmt.Errorf("delete product images: %w", err)
	}
	return ct.RowsAffected(), nil
}
