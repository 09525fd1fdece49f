package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/catalog/pkg/database"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

// runInTx runs fn inside one transaction. fn's error triggers a rollback
// and is returned unchanged; a rollback that itself fails is reported as an
// Internal error joining both causes. A panic in fn rolls back and
// re-panics. pgx hands the connection back to the pool on Commit or
// Rollback.
func runInTx(ctx context.Context, db Beginner, op string, fn func(tx pgx.Tx) error) (err error) {
	ctx, end := database.TraceQuery(ctx, "tx."+op, "BEGIN")
	defer func() { end(err) }()

	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin %s: %w", op, err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.WithoutCancel(ctx))
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(context.WithoutCancel(ctx)); rbErr != nil {
			return apperrors.Internal(errors.Join(err, fmt.Errorf("rollback %s: %w", op, rbErr)))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit %s: %w", op, err)
	}
	return nil
}
