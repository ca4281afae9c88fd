// Package repository defines the grade record store and its SQLite backing.
package repository

import (
	"context"

	"github.com/okian/gradebook/internal/domain/model"
)

// Store is an append-only table of computed grade records.
type Store interface {
	// EnsureSchema creates the table if it does not exist. Safe to call repeatedly.
	EnsureSchema(ctx context.Context) error

	// Insert appends rec (its ID is ignored) and returns the assigned id.
	Insert(ctx context.Context, rec model.GradeRecord) (int64, error)

	// FetchAllDescending returns every record, most recent first.
	FetchAllDescending(ctx context.Context) ([]model.GradeRecord, error)

	// FetchAllAscending returns name and weighted mean of every record in insertion order.
	FetchAllAscending(ctx context.Context) ([]model.ChartPoint, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) (int64, error)

	// Close releases the underlying handle. Later calls are no-ops.
	Close() error
}
