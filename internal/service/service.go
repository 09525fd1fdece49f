package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// Beginner opens a transaction on a dedicated pooled connection.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ProductCache is a read-through cache of product details keyed by id.
type ProductCache interface {
	Get(ctx context.Context, id string) (*domain.ProductDetail, bool, error)
	Set(ctx context.Context, detail *domain.ProductDetail) error
	Delete(ctx context.Context, id string) error
}

// EventPublisher announces committed product changes.
type EventPublisher interface {
	PublishProductCreated(ctx context.Context, detail *domain.ProductDetail) error
	PublishProductUpdated(ctx context.Context, detail *domain.ProductDetail) error
	PublishProductDeleted(ctx context.Context, id string) error
}

// NoopCache never hits.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (*domain.ProductDetail, bool, error) {
	return nil, false, nil
}
func (NoopCache) Set(context.Context, *domain.ProductDetail) error { return nil }
func (NoopCache) Delete(context.Context, string) error             { return nil }

// classifyWriteError maps a failed write onto the caller-facing taxonomy.
// Unique violations become Conflict with the server's detail text. Anything
// that is not already a client error is logged with its raw cause and
// replaced by a generic Internal error.
func classifyWriteError(ctx context.Context, logger *slog.Logger, op string, err error) error {
	var appErr *apperrors.AppError
	if !errors.Is(err, apperrors.ErrInternal) {
		if detail, ok := database.UniqueViolation(err); ok {
			return apperrors.Conflict(detail)
		}
		if errors.As(err, &appErr) {
			return appErr
		}
	}

	logger.ErrorContext(ctx, op+" failed", slog.String("error", err.Error()))
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperrors.Internal(err)
}
