// Package service provides the implementation of catalog-related business logic.
package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/model"
	"github.com/abgdnv/gocatalog/internal/store"
)

// CatalogService defines the methods for querying and mutating the catalog.
// It abstracts the underlying business logic and data access.
type CatalogService interface {
	// List returns one page of catalog items matching the filter.
	// Returns ErrInvalidPagination when the page request is malformed.
	List(ctx context.Context, page PageRequest, filter store.ListFilter) (*model.PaginatedItems, error)

	// FindByID retrieves a single catalog item by its identifier.
	// Returns ErrInvalidID for non-positive IDs and ErrItemNotFound if no item matches.
	FindByID(ctx context.Context, id int64) (*model.CatalogItem, error)

	// FindByIDs returns the items whose IDs are in the given set, silently
	// omitting IDs that do not exist.
	FindByIDs(ctx context.Context, ids []int64) ([]model.CatalogItem, error)

	// Create adds a new catalog item with the caller-assigned ID.
	Create(ctx context.Context, item ItemDto) (*model.CatalogItem, error)

	// Replace overwrites every field of an existing catalog item.
	// Returns ErrItemNotFound if no item exists with the given ID.
	Replace(ctx context.Context, item ItemDto) (*model.CatalogItem, error)

	// DeleteByID removes a catalog item.
	// Returns ErrItemNotFound if no item exists with the given ID.
	DeleteByID(ctx context.Context, id int64) error

	// AddStock increments an item's stock, capped at its maximum threshold,
	// and persists the result. The returned change carries the delta actually applied.
	AddStock(ctx context.Context, id int64, quantity int) (*StockChange, error)

	// RemoveStock decrements an item's stock by up to quantityDesired and
	// persists the result. The returned change carries the count actually
	// removed, which is less than quantityDesired when stock ran short.
	RemoveStock(ctx context.Context, id int64, quantityDesired int) (*StockChange, error)

	// ListBrands returns all catalog brands ordered by name.
	ListBrands(ctx context.Context) ([]model.CatalogBrand, error)

	// ListTypes returns all catalog types ordered by name.
	ListTypes(ctx context.Context) ([]model.CatalogType, error)
}

// PageRequest identifies one page of a listing.
type PageRequest struct {
	PageIndex int
	PageSize  int
}

// ItemDto represents the full value of a catalog item as supplied by a caller
// for create and replace operations.
type ItemDto struct {
	ID                int64           `json:"id"                validate:"required,gt=0"`
	Name              string          `json:"name"              validate:"required,min=3,max=100"`
	Description       string          `json:"description"       validate:"required,min=10,max=500"`
	Price             decimal.Decimal `json:"price"`
	PictureFileName   string          `json:"pictureFileName"`
	CatalogTypeID     int64           `json:"catalogTypeId"     validate:"required,gt=0"`
	CatalogBrandID    int64           `json:"catalogBrandId"    validate:"required,gt=0"`
	AvailableStock    int             `json:"availableStock"    validate:"gte=0"`
	RestockThreshold  int             `json:"restockThreshold"  validate:"gte=0"`
	MaxStockThreshold int             `json:"maxStockThreshold" validate:"gte=0"`
}

// StockChange is the outcome of a stock mutation: the quantity actually
// applied and the item state after the change was persisted.
type StockChange struct {
	Quantity int               `json:"quantity"`
	Item     model.CatalogItem `json:"item"`
}

// Service implements CatalogService and provides methods to manage the catalog.
type Service struct {
	repository store.CatalogStore
}

// NewService creates a new instance of CatalogService with the provided repository.
func NewService(repo store.CatalogStore) *Service {
	return &Service{
		repository: repo,
	}
}

// List returns one page of catalog items matching the filter together with
// the total match count. A page past the end of the result set is empty but
// not an error.
func (s *Service) List(ctx context.Context, page PageRequest, filter store.ListFilter) (*model.PaginatedItems, error) {
	if page.PageIndex < 0 || page.PageSize <= 0 {
		return nil, catalogerrors.ErrInvalidPagination
	}

	items, total, err := s.repository.List(ctx, filter, page.PageSize*page.PageIndex, page.PageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog items: %w", err)
	}

	return &model.PaginatedItems{
		PageIndex: page.PageIndex,
		PageSize:  page.PageSize,
		Count:     total,
		Data:      items,
	}, nil
}

// FindByID retrieves a catalog item by its ID.
// Returns ErrInvalidID for non-positive IDs and ErrItemNotFound if no item matches.
func (s *Service) FindByID(ctx context.Context, id int64) (*model.CatalogItem, error) {
	if id <= 0 {
		return nil, catalogerrors.ErrInvalidID
	}
	item, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog item by ID %d: %w", id, err)
	}
	return item, nil
}

// FindByIDs retrieves the catalog items whose IDs are in the given set.
func (s *Service) FindByIDs(ctx context.Context, ids []int64) ([]model.CatalogItem, error) {
	items, err := s.repository.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog items: %w", err)
	}
	return items, nil
}

// Create adds a new catalog item with the caller-assigned ID.
func (s *Service) Create(ctx context.Context, item ItemDto) (*model.CatalogItem, error) {
	created, err := s.repository.Create(ctx, toModel(item))
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return created, nil
}

// Replace overwrites every field of an existing catalog item with the given
// values. There are no partial-patch semantics.
func (s *Service) Replace(ctx context.Context, item ItemDto) (*model.CatalogItem, error) {
	replaced := toModel(item)
	if err := s.repository.Update(ctx, replaced); err != nil {
		return nil, fmt.Errorf("failed to replace catalog item with ID %d: %w", item.ID, err)
	}
	return &replaced, nil
}

// DeleteByID removes a catalog item by its ID.
func (s *Service) DeleteByID(ctx context.Context, id int64) error {
	if id <= 0 {
		return catalogerrors.ErrInvalidID
	}
	return s.repository.DeleteByID(ctx, id)
}

// AddStock loads the item, applies the increment through the stock ledger and
// persists the result.
func (s *Service) AddStock(ctx context.Context, id int64, quantity int) (*StockChange, error) {
	item, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	added := item.AddStock(quantity)

	if err := s.repository.Update(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to persist stock addition for item %d: %w", id, err)
	}
	return &StockChange{Quantity: added, Item: *item}, nil
}

// RemoveStock loads the item, applies the decrement through the stock ledger
// and persists the result.
func (s *Service) RemoveStock(ctx context.Context, id int64, quantityDesired int) (*StockChange, error) {
	item, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	removed, err := item.RemoveStock(quantityDesired)
	if err != nil {
		return nil, fmt.Errorf("failed to remove stock for item %d: %w", id, err)
	}

	if err := s.repository.Update(ctx, *item); err != nil {
		return nil, fmt.Errorf("failed to persist stock removal for item %d: %w", id, err)
	}
	return &StockChange{Quantity: removed, Item: *item}, nil
}

// ListBrands returns all catalog brands ordered by name.
func (s *Service) ListBrands(ctx context.Context) ([]model.CatalogBrand, error) {
	brands, err := s.repository.ListBrands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog brands: %w", err)
	}
	return brands, nil
}

// ListTypes returns all catalog types ordered by name.
func (s *Service) ListTypes(ctx context.Context) ([]model.CatalogType, error) {
	types, err := s.repository.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog types: %w", err)
	}
	return types, nil
}

// toModel converts an ItemDto to the domain entity.
func toModel(item ItemDto) model.CatalogItem {
	return model.CatalogItem{
		ID:                item.ID,
		Name:              item.Name,
		Description:       item.Description,
		Price:             item.Price,
		PictureFileName:   item.PictureFileName,
		CatalogTypeID:     item.CatalogTypeID,
		CatalogBrandID:    item.CatalogBrandID,
		AvailableStock:    item.AvailableStock,
		RestockThreshold:  item.RestockThreshold,
		MaxStockThreshold: item.MaxStockThreshold,
	}
}
