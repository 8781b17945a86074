// Package store provides read access to the catalog records served by the catalog service.
package store

import (
	"context"

	"github.com/abgdnv/catalogsearch/internal/catalog"
)

// ProductStore is an interface for catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type ProductStore interface {
	// FindByID retrieves a single record by its identifier.
	// Returns ErrRecordNotFound if no record exists with the given ID.
	FindByID(ctx context.Context, id string) (*catalog.Record, error)

	// FindAll returns the full record set in catalog order.
	// Returns an empty slice if no records exist.
	FindAll(ctx context.Context) ([]catalog.Record, error)
}
