// Package model contains the catalog domain entities and the stock bookkeeping
// rules that operate on them.
package model

import (
	"github.com/shopspring/decimal"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
)

// CatalogBrand is a dimension row referenced by catalog items.
type CatalogBrand struct {
	ID    int64  `json:"id"`
	Brand string `json:"brand"`
}

// CatalogType is a dimension row referenced by catalog items.
type CatalogType struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// CatalogItem represents a single product in the catalog.
type CatalogItem struct {
	ID              int64           `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Price           decimal.Decimal `json:"price"`
	PictureFileName string          `json:"pictureFileName,omitempty"`
	CatalogTypeID   int64           `json:"catalogTypeId"`
	CatalogBrandID  int64           `json:"catalogBrandId"`

	// AvailableStock is the quantity in stock. Invariant: 0 <= AvailableStock <= MaxStockThreshold.
	AvailableStock int `json:"availableStock"`
	// RestockThreshold is the stock level at which a restock is warranted.
	RestockThreshold int `json:"restockThreshold"`
	// MaxStockThreshold is the maximum number of units that can be in stock at
	// any time, due to physical constraints in warehouses.
	MaxStockThreshold int `json:"maxStockThreshold"`
	// OnReorder is true while the item is on reorder.
	OnReorder bool `json:"onReorder"`
}

// RemoveStock decrements the available stock of the item by up to quantityDesired.
//
// If there is sufficient stock, the returned count equals quantityDesired.
// Otherwise whatever stock is available is removed and that count is returned;
// it is the caller's responsibility to compare the result against
// quantityDesired to detect partial fulfilment. Partial fulfilment is not an
// error. The method mutates only the receiver; persisting the change is the
// caller's job.
//
// Returns ErrOutOfStock when the item has no stock at all, and
// ErrInvalidQuantity when quantityDesired is not positive.
func (i *CatalogItem) RemoveStock(quantityDesired int) (int, error) {
	if i.AvailableStock == 0 {
		return 0, catalogerrors.ErrOutOfStock
	}
	if quantityDesired <= 0 {
		return 0, catalogerrors.ErrInvalidQuantity
	}

	removed := min(quantityDesired, i.AvailableStock)
	i.AvailableStock -= removed
	return removed, nil
}

// AddStock increments the available stock of the item, capping it at
// MaxStockThreshold. The returned value is the delta actually applied, which
// is less than quantity when the cap is hit. OnReorder is cleared
// unconditionally. Non-positive quantities are accepted as-is and pass
// through uncapped.
func (i *CatalogItem) AddStock(quantity int) int {
	original := i.AvailableStock

	if i.AvailableStock+quantity > i.MaxStockThreshold {
		// Only add new units up to the maximum stock threshold; the overflow
		// is dropped rather than tracked as overstock.
		i.AvailableStock = i.MaxStockThreshold
	} else {
		i.AvailableStock += quantity
	}

	i.OnReorder = false

	return i.AvailableStock - original
}

// PaginatedItems is one page of a filtered catalog query. Count is the size
// of the full filtered set before pagination was applied.
type PaginatedItems struct {
	PageIndex int           `json:"pageIndex"`
	PageSize  int           `json:"pageSize"`
	Count     int64         `json:"count"`
	Data      []CatalogItem `json:"data"`
}
