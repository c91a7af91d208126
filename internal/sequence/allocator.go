package sequence

import (
	"context"
	"database/sql"
	"fmt"

	"kirana-be/internal/logger"

	"go.uber.org/zap"
)

// Allocator hands out monotonically increasing integers scoped to a named
// counter. Values are never reissued for the same name; gaps are permitted.
type Allocator interface {
	Next(ctx context.Context, name string) (int64, error)
}

type allocator struct {
	db *sql.DB
}

func NewAllocator(db *sql.DB) Allocator {
	return &allocator{db: db}
}

// Next atomically increments the named counter and returns the new value.
// The upsert creates the counter at 1 on first use; the whole
// read-increment-store happens in a single statement.
func (a *allocator) Next(ctx context.Context, name string) (int64, error) {
	var value int64
	err := a.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value)
		VALUES ($1, 1)
		ON CONFLICT (name)
		DO UPDATE SET value = counters.value + 1
		RETURNING value
	`, name).Scan(&value)

	if err != nil {
		logger.FromCtx(ctx).Error("failed to allocate sequence value",
			zap.String("counter", name),
			zap.Error(err),
		)
		return 0, fmt.Errorf("allocate sequence %q: %w", name, err)
	}

	return value, nil
}
