// Package store provides an interface for catalog storage operations.
package store

import (
	"context"

	"github.com/abgdnv/gocatalog/internal/model"
)

// ListFilter narrows a catalog listing. Nil fields are not applied; set
// fields combine conjunctively.
type ListFilter struct {
	// Name matches items whose name starts with the given string (case-sensitive).
	Name *string
	// TypeID matches items with the exact catalog type.
	TypeID *int64
	// BrandID matches items with the exact catalog brand.
	BrandID *int64
}

// CatalogStore is an interface for catalog storage operations.
// It abstracts the underlying data store, allowing for different implementations (e.g., in-memory, database).
type CatalogStore interface {
	// FindByID retrieves a single catalog item by its identifier.
	// Returns ErrItemNotFound if no item exists with the given ID.
	FindByID(ctx context.Context, id int64) (*model.CatalogItem, error)

	// FindByIDs returns the items whose IDs are in the given set, in no
	// particular order. IDs that do not exist are silently omitted.
	FindByIDs(ctx context.Context, ids []int64) ([]model.CatalogItem, error)

	// List returns one page of items matching the filter, ordered by name
	// ascending with ID as tiebreak, together with the total number of
	// matching items before pagination.
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]model.CatalogItem, int64, error)

	// CountItems returns the total number of items in the catalog.
	CountItems(ctx context.Context) (int64, error)

	// Create adds a new catalog item with the caller-assigned ID.
	Create(ctx context.Context, item model.CatalogItem) (*model.CatalogItem, error)

	// Update replaces every field of an existing item with the given values.
	// Returns ErrItemNotFound if no item exists with the item's ID.
	Update(ctx context.Context, item model.CatalogItem) error

	// DeleteByID removes an item.
	// Returns ErrItemNotFound if no item exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// ListBrands returns all brands ordered by name.
	ListBrands(ctx context.Context) ([]model.CatalogBrand, error)

	// ListTypes returns all types ordered by name.
	ListTypes(ctx context.Context) ([]model.CatalogType, error)

	// ReplaceBrands clears the brand dimension and inserts one row per name,
	// returning the rows with their generated IDs.
	ReplaceBrands(ctx context.Context, names []string) ([]model.CatalogBrand, error)

	// ReplaceTypes clears the type dimension and inserts one row per name,
	// returning the rows with their generated IDs.
	ReplaceTypes(ctx context.Context, names []string) ([]model.CatalogType, error)

	// BulkAddItems inserts the given items in a single unit of work.
	BulkAddItems(ctx context.Context, items []model.CatalogItem) error
}
