package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// productSelect reads a product together with its images, ordered by
// position, as one JSON array.
const productSelect = `
	SELECT p.id, p.title, p.price, p.description, p.slug, p.stock, p.sizes, p.gender, p.tags,
	       p.user_id, p.created_at, p.updated_at,
	       COALESCE(
	           JSONB_AGG(JSONB_BUILD_OBJECT('id', pi.id, 'url', pi.url, 'position', pi.position)
	                     ORDER BY pi.position) FILTER (WHERE pi.id IS NOT NULL),
	           '[]'::jsonb
	       ) AS images
	FROM products p
	LEFT JOIN product_images pi ON pi.product_id = p.id`

// ProductRepository implements repository.ProductRepository on PostgreSQL.
type ProductRepository struct {
	db database.DBTX
}

// NewProductRepository creates a product repository on db.
func NewProductRepository(db database.DBTX) *ProductRepository {
	return &ProductRepository{db: db}
}

// WithTx returns a copy of the repository bound to tx.
func (r *ProductRepository) WithTx(tx pgx.Tx) repository.ProductRepository {
	return &ProductRepository{db: tx}
}

// Create inserts the product row.
func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (id, title, price, description, slug, stock, sizes, gender, tags, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.Exec(ctx, query,
		p.ID,
		p.Title,
		p.Price,
		p.Description,
		p.Slug,
		p.Stock,
		nonNil(p.Sizes),
		string(p.Gender),
		nonNil(p.Tags),
		p.UserID,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by its ID.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (p *domain.Product, err error) {
	query := productSelect + `
	WHERE p.id = $1
	GROUP BY p.id`

	ctx, end := database.TraceQuery(ctx, "products.GetByID", query)
	defer func() { end(err) }()

	return scanProduct(r.db.QueryRow(ctx, query, id))
}

// GetByTerm matches the lowercased title or the slug against term.
func (r *ProductRepository) GetByTerm(ctx context.Context, term string) (p *domain.Product, err error) {
	query := productSelect + `
	WHERE LOWER(p.title) = $1 OR p.slug = $1
	GROUP BY p.id
	ORDER BY p.id
	LIMIT 1`

	ctx, end := database.TraceQuery(ctx, "products.GetByTerm", query)
	defer func() { end(err) }()

	return scanProduct(r.db.QueryRow(ctx, query, term))
}

// listPredicate builds the WHERE clause shared by the count and page
// queries, so count and rows always agree.
func listPredicate(filter repository.ProductFilter) (string, []any) {
	if filter.Gender == nil {
		return "", nil
	}
	return "WHERE (p.gender = $1 OR p.gender = 'unisex')", []any{string(*filter.Gender)}
}

// List returns one page ordered by id together with the total match count.
func (r *ProductRepository) List(ctx context.Context, filter repository.ProductFilter) (products []domain.Product, total int, err error) {
	where, args := listPredicate(filter)

	countQuery := "SELECT COUNT(*) FROM products p " + where
	pageQuery := fmt.Sprintf(`%s
	%s
	GROUP BY p.id
	ORDER BY p.id ASC
	LIMIT $%d OFFSET $%d`, productSelect, where, len(args)+1, len(args)+2)

	ctx, end := database.TraceQuery(ctx, "products.List", pageQuery)
	defer func() { end(err) }()

	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.Query(ctx, pageQuery, append(args, filter.Limit, filter.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products = []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, total, nil
}

// Update rewrites the mutable columns of the product row.
func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	p.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE products
		SET title = $1, price = $2, description = $3, slug = $4, stock = $5,
		    sizes = $6, gender = $7, tags = $8, user_id = $9, updated_at = $10
		WHERE id = $11`

	ct, err := r.db.Exec(ctx, query,
		p.Title,
		p.Price,
		p.Description,
		p.Slug,
		p.Stock,
		nonNil(p.Sizes),
		string(p.Gender),
		nonNil(p.Tags),
		p.UserID,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", p.ID)
	}
	return nil
}

// Delete removes the product row.
func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		gender     string
		imagesJSON []byte
	)

	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Price,
		&p.Description,
		&p.Slug,
		&p.Stock,
		&p.Sizes,
		&gender,
		&p.Tags,
		&p.UserID,
		&p.CreatedAt,
		&p.UpdatedAt,
		&imagesJSON,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan product: %w", err)
	}

	if p.Gender, err = domain.ParseGender(gender); err != nil {
		return nil, fmt.Errorf("scan product %s: %w", p.ID, err)
	}

	p.Images = []domain.ProductImage{}
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("unmarshal product images: %w", err)
		}
	}
	for i := range p.Images {
		p.Images[i].ProductID = p.ID
	}
	return &p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
