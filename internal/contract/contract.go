// Package contract provides interfaces and shared utilities for tribal's internal architecture.
package contract

import (
	"context"

	"github.com/huangsam/tribal/schema"
)

// DatasetSource produces the usage and metrics tables the model consumes.
// Any producer that conforms to the table schema can stand in for the generator.
type DatasetSource interface {
	Load(ctx context.Context) (*schema.Dataset, error)
}

// FixtureStore defines the operations on the static topology fixture.
// It only ever holds input rows; fit results are never written to it.
type FixtureStore interface {
	// ImportUsage replaces the stored topology with rows and logs the import under source.
	ImportUsage(ctx context.Context, source string, rows []schema.LanguageUsage) (int, error)

	// LoadUsage returns every stored topology row in project, repository, language order.
	LoadUsage(ctx context.Context) ([]schema.LanguageUsage, error)

	// History returns the import log, newest first.
	History(ctx context.Context) ([]schema.ImportRecord, error)

	// Clear removes all topology rows and the import log.
	Clear(ctx context.Context) error

	// GetStatus returns status information about the fixture store.
	GetStatus(ctx context.Context) (schema.FixtureStatus, error)

	// Close closes the underlying connection.
	Close() error
}
