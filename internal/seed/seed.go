// Package seed fills an empty catalog with an administrator and a
// deterministic set of sample products. Products go through the regular
// write path so slugs, images and events behave exactly as for API writes.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/service"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// Accounts provisions the seed administrator.
type Accounts interface {
	RegisterWithRoles(ctx context.Context, input service.RegisterInput, roles ...domain.Role) (*service.AuthResult, error)
	Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error)
}

// Products creates catalog entries.
type Products interface {
	Create(ctx context.Context, input service.CreateProductInput, userID string) (*domain.ProductDetail, error)
}

// Options controls a seed run.
type Options struct {
	Count         int
	Purge         bool
	RandSeed      int64
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Result summarizes a seed run.
type Result struct {
	AdminID string
	Created int
	Skipped int
}

// Seeder writes sample data.
type Seeder struct {
	db       database.DBTX
	accounts Accounts
	products Products
	logger   *slog.Logger
}

// New creates a seeder. db is only used to purge existing products.
func New(db database.DBTX, accounts Accounts, products Products, logger *slog.Logger) *Seeder {
	return &Seeder{
		db:       db,
		accounts: accounts,
		products: products,
		logger:   logger,
	}
}

// Run provisions the administrator and creates opts.Count products. Products
// whose title or slug already exists are skipped, so a run without Purge can
// be repeated.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Purge {
		if err := Purge(ctx, s.db); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "existing products purged")
	}

	adminID, err := s.admin(ctx, opts)
	if err != nil {
		return nil, err
	}

	res := &Result{AdminID: adminID}
	rng := rand.New(rand.NewSource(opts.RandSeed))
	for _, input := range Generate(rng, opts.Count) {
		if _, err := s.products.Create(ctx, input, adminID); err != nil {
			if errors.Is(err, apperrors.ErrConflict) {
				res.Skipped++
				continue
			}
			return res, fmt.Errorf("create product %q: %w", input.Title, err)
		}
		res.Created++
	}

	s.logger.InfoContext(ctx, "catalog seeded",
		slog.Int("created", res.Created),
		slog.Int("skipped", res.Skipped),
	)
	return res, nil
}

// admin registers the administrator, or signs in when the account exists.
func (s *Seeder) admin(ctx context.Context, opts Options) (string, error) {
	res, err := s.accounts.RegisterWithRoles(ctx, service.RegisterInput{
		Email:    opts.AdminEmail,
		Password: opts.AdminPassword,
		FullName: opts.AdminName,
	}, domain.RoleAdmin, domain.RoleUser)
	if errors.Is(err, apperrors.ErrConflict) {
		res, err = s.accounts.Login(ctx, service.LoginInput{Email: opts.AdminEmail, Password: opts.AdminPassword})
	}
	if err != nil {
		return "", fmt.Errorf("provision admin %s: %w", opts.AdminEmail, err)
	}
	if !res.User.HasAnyRole(domain.RoleAdmin) {
		return "", fmt.Errorf("provision admin %s: account exists without the admin role", opts.AdminEmail)
	}
	return res.User.ID, nil
}

// Purge deletes every product and image.
func Purge(ctx context.Context, db database.DBTX) error {
	if _, err := db.Exec(ctx, "TRUNCATE TABLE product_images, products"); err != nil {
		return fmt.Errorf("purge products: %w", err)
	}
	return nil
}

var (
	prefixes = []string{"Classic", "Relaxed", "Slim", "Oversized", "Cropped", "Heavyweight", "Lightweight", "Vintage"}
	garments = []string{"Tee", "Hoodie", "Sweatshirt", "Jacket", "Polo", "Tank Top", "Long Sleeve Tee", "Beanie"}
	colors   = []string{"Black", "White", "Heather Grey", "Navy", "Olive", "Sand", "Burgundy", "Sky Blue"}
	allSizes = []string{"XS", "S", "M", "L", "XL", "XXL"}
)

// Generate builds n product inputs from rng. Titles carry a running number
// so they stay unique for any n, and genders rotate through every value.
func Generate(rng *rand.Rand, n int) []service.CreateProductInput {
	genders := domain.Genders()
	inputs := make([]service.CreateProductInput, 0, max(n, 0))
	for i := range n {
		prefix := prefixes[rng.Intn(len(prefixes))]
		garment := garments[rng.Intn(len(garments))]
		color := colors[rng.Intn(len(colors))]
		gender := genders[i%len(genders)]

		title := fmt.Sprintf("%s %s %s %d", prefix, color, garment, i+1)
		price := decimal.New(int64(999+rng.Intn(9000)), -2)
		description := fmt.Sprintf("%s %s in %s, made for %s.", prefix, strings.ToLower(garment), strings.ToLower(color), gender)
		stock := rng.Intn(50)

		lo := rng.Intn(len(allSizes) - 1)
		hi := lo + 1 + rng.Intn(len(allSizes)-lo-1)
		sizes := append([]string(nil), allSizes[lo:hi+1]...)

		images := make([]string, 1+rng.Intn(3))
		for j := range images {
			images[j] = fmt.Sprintf("%d%02d-%d.jpg", 1000000+i, j, rng.Intn(1000000))
		}

		inputs = append(inputs, service.CreateProductInput{
			Title:       title,
			Price:       &price,
			Description: &description,
			Stock:       &stock,
			Sizes:       sizes,
			Gender:      gender,
			Tags:        []string{strings.ToLower(strings.ReplaceAll(garment, " ", "-")), strings.ToLower(prefix)},
			Images:      images,
		})
	}
	return inputs
}
