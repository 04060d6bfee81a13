// Package seed implements the one-time bootstrap that loads the flat catalog
// dataset into the normalized brand, type and item tables.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/shopspring/decimal"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/model"
	"github.com/abgdnv/gocatalog/internal/store"
)

// Stock levels assigned to every seeded item.
const (
	defaultAvailableStock    = 100
	defaultMaxStockThreshold = 200
	defaultRestockThreshold  = 10
)

// pictureExtension is the extension of the picture files shipped with the seed dataset.
const pictureExtension = ".webp"

// SourceEntry is one record of the flat seed dataset.
type SourceEntry struct {
	ID          int64           `json:"id"`
	Type        string          `json:"type"`
	Brand       string          `json:"brand"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

// Seeder populates an empty catalog store from a JSON source file.
type Seeder struct {
	repository store.CatalogStore
	sourcePath string
	logger     *slog.Logger
}

// NewSeeder creates a Seeder reading its dataset from sourcePath.
func NewSeeder(repo store.CatalogStore, sourcePath string, logger *slog.Logger) *Seeder {
	return &Seeder{
		repository: repo,
		sourcePath: sourcePath,
		logger:     logger.With("component", "seed"),
	}
}

// Run seeds the store if and only if the item table is empty; re-running
// against a populated store is a no-op. Any failure reading or resolving the
// source dataset is returned to the caller and must abort startup.
func (s *Seeder) Run(ctx context.Context) error {
	count, err := s.repository.CountItems(ctx)
	if err != nil {
		return fmt.Errorf("failed to check whether catalog is seeded: %w", err)
	}
	if count > 0 {
		s.logger.InfoContext(ctx, "Catalog already seeded, skipping", "items", count)
		return nil
	}

	entries, err := s.load()
	if err != nil {
		return err
	}

	brands, err := s.repository.ReplaceBrands(ctx, distinctBrands(entries))
	if err != nil {
		return fmt.Errorf("failed to seed catalog brands: %w", err)
	}
	s.logger.InfoContext(ctx, "Seeded catalog brands", "count", len(brands))

	types, err := s.repository.ReplaceTypes(ctx, distinctTypes(entries))
	if err != nil {
		return fmt.Errorf("failed to seed catalog types: %w", err)
	}
	s.logger.InfoContext(ctx, "Seeded catalog types", "count", len(types))

	items, err := resolveItems(entries, brands, types)
	if err != nil {
		return err
	}

	if err := s.repository.BulkAddItems(ctx, items); err != nil {
		return fmt.Errorf("failed to seed catalog items: %w", err)
	}
	s.logger.InfoContext(ctx, "Seeded catalog items", "count", len(items))
	return nil
}

// load reads and decodes the source dataset.
func (s *Seeder) load() ([]SourceEntry, error) {
	data, err := os.ReadFile(s.sourcePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed source %s: %w", s.sourcePath, err)
	}
	var entries []SourceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse seed source %s: %w", s.sourcePath, err)
	}
	return entries, nil
}

// resolveItems builds catalog items from the source entries, resolving brand
// and type names against the freshly inserted dimension rows. A name with no
// dimension row fails the whole run with ErrSeedIntegrity.
func resolveItems(entries []SourceEntry, brands []model.CatalogBrand, types []model.CatalogType) ([]model.CatalogItem, error) {
	brandIDs := make(map[string]int64, len(brands))
	for _, b := range brands {
		brandIDs[b.Brand] = b.ID
	}
	typeIDs := make(map[string]int64, len(types))
	for _, t := range types {
		typeIDs[t.Type] = t.ID
	}

	items := make([]model.CatalogItem, 0, len(entries))
	for _, entry := range entries {
		brandID, ok := brandIDs[entry.Brand]
		if !ok {
			return nil, fmt.Errorf("%w: brand %q (item %d)", catalogerrors.ErrSeedIntegrity, entry.Brand, entry.ID)
		}
		typeID, ok := typeIDs[entry.Type]
		if !ok {
			return nil, fmt.Errorf("%w: type %q (item %d)", catalogerrors.ErrSeedIntegrity, entry.Type, entry.ID)
		}
		items = append(items, model.CatalogItem{
			ID:                entry.ID,
			Name:              entry.Name,
			Description:       entry.Description,
			Price:             entry.Price,
			PictureFileName:   fmt.Sprintf("%d%s", entry.ID, pictureExtension),
			CatalogBrandID:    brandID,
			CatalogTypeID:     typeID,
			AvailableStock:    defaultAvailableStock,
			MaxStockThreshold: defaultMaxStockThreshold,
			RestockThreshold:  defaultRestockThreshold,
		})
	}
	return items, nil
}

func distinctBrands(entries []SourceEntry) []string {
	return distinct(entries, func(e SourceEntry) string { return e.Brand })
}

func distinctTypes(entries []SourceEntry) []string {
	return distinct(entries, func(e SourceEntry) string { return e.Type })
}

// distinct collects the unique values of key over entries, keeping first-seen order.
func distinct(entries []SourceEntry, key func(SourceEntry) string) []string {
	seen := make(map[string]struct{}, len(entries))
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		k := key(e)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		names = append(names, k)
	}
	return names
}
