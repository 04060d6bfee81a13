// Package errors provides custom error types for catalog-related operations.
package errors

import "errors"

var (
	// ErrItemNotFound is returned when no catalog item exists with the requested ID.
	ErrItemNotFound = errors.New("catalog item not found")

	// ErrInvalidID is returned when a caller supplies a non-positive item ID.
	ErrInvalidID = errors.New("id is not valid")

	// ErrInvalidPagination is returned when page index is negative or page size is not positive.
	ErrInvalidPagination = errors.New("page index must be non-negative and page size positive")

	// ErrInvalidQuantity is returned by stock removal when the desired quantity is not positive.
	ErrInvalidQuantity = errors.New("item units desired should be greater than zero")

	// ErrOutOfStock is returned by stock removal when the item has no available stock.
	ErrOutOfStock = errors.New("empty stock, product item is sold out")

	// ErrSeedIntegrity is returned when a seed record references a brand or type
	// missing from the freshly built dimension tables. Fatal to startup.
	ErrSeedIntegrity = errors.New("seed record references unknown brand or type")
)
