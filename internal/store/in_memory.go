package store

import (
	"context"
	"sort"
	"strings"
	"sync"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/model"
)

// inMemory implements CatalogStore using in-memory maps. It is used by tests
// and for running the service without a database.
type inMemory struct {
	mu        sync.RWMutex
	items     map[int64]model.CatalogItem
	brands    map[int64]model.CatalogBrand
	types     map[int64]model.CatalogType
	nextBrand int64
	nextType  int64
}

// NewInMemoryStore creates a new instance of CatalogStore backed by process memory.
func NewInMemoryStore() CatalogStore {
	return &inMemory{
		items:     make(map[int64]model.CatalogItem),
		brands:    make(map[int64]model.CatalogBrand),
		types:     make(map[int64]model.CatalogType),
		nextBrand: 1,
		nextType:  1,
	}
}

// FindByID retrieves a catalog item by its ID.
func (s *inMemory) FindByID(_ context.Context, id int64) (*model.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, catalogerrors.ErrItemNotFound
	}
	return &item, nil
}

// FindByIDs retrieves the catalog items whose IDs are in the given set.
func (s *inMemory) FindByIDs(_ context.Context, ids []int64) ([]model.CatalogItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.CatalogItem, 0, len(ids))
	for _, id := range ids {
		if item, ok := s.items[id]; ok {
			list = append(list, item)
		}
	}
	return list, nil
}

// List returns one page of items matching the filter plus the total match count.
func (s *inMemory) List(_ context.Context, filter ListFilter, offset, limit int) ([]model.CatalogItem, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]model.CatalogItem, 0, len(s.items))
	for _, item := range s.items {
		if filter.Name != nil && !strings.HasPrefix(item.Name, *filter.Name) {
			continue
		}
		if filter.TypeID != nil && item.CatalogTypeID != *filter.TypeID {
			continue
		}
		if filter.BrandID != nil && item.CatalogBrandID != *filter.BrandID {
			continue
		}
		matched = append(matched, item)
	}

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Name != matched[j].Name {
			return matched[i].Name < matched[j].Name
		}
		return matched[i].ID < matched[j].ID
	})

	total := int64(len(matched))
	if offset >= len(matched) {
		return []model.CatalogItem{}, total, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], total, nil
}

// CountItems returns the number of items in the store.
func (s *inMemory) CountItems(_ context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.items)), nil
}

// Create adds a new catalog item with the caller-assigned ID.
func (s *inMemory) Create(_ context.Context, item model.CatalogItem) (*model.CatalogItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[item.ID] = item
	return &item, nil
}

// Update replaces every field of an existing item.
func (s *inMemory) Update(_ context.Context, item model.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[item.ID]; !ok {
		return catalogerrors.ErrItemNotFound
	}
	s.items[item.ID] = item
	return nil
}

// DeleteByID removes an item by its ID.
func (s *inMemory) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return catalogerrors.ErrItemNotFound
	}
	delete(s.items, id)
	return nil
}

// ListBrands returns all brands ordered by name.
func (s *inMemory) ListBrands(_ context.Context) ([]model.CatalogBrand, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.CatalogBrand, 0, len(s.brands))
	for _, b := range s.brands {
		list = append(list, b)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Brand < list[j].Brand })
	return list, nil
}

// ListTypes returns all types ordered by name.
func (s *inMemory) ListTypes(_ context.Context) ([]model.CatalogType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]model.CatalogType, 0, len(s.types))
	for _, t := range s.types {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Type < list[j].Type })
	return list, nil
}

// ReplaceBrands clears the brand dimension and inserts one row per name.
func (s *inMemory) ReplaceBrands(_ context.Context, names []string) ([]model.CatalogBrand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.brands = make(map[int64]model.CatalogBrand, len(names))
	inserted := make([]model.CatalogBrand, 0, len(names))
	for _, name := range names {
		b := model.CatalogBrand{ID: s.nextBrand, Brand: name}
		s.nextBrand++
		s.brands[b.ID] = b
		inserted = append(inserted, b)
	}
	return inserted, nil
}

// ReplaceTypes clears the type dimension and inserts one row per name.
func (s *inMemory) ReplaceTypes(_ context.Context, names []string) ([]model.CatalogType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.types = make(map[int64]model.CatalogType, len(names))
	inserted := make([]model.CatalogType, 0, len(names))
	for _, name := range names {
		t := model.CatalogType{ID: s.nextType, Type: name}
		s.nextType++
		s.types[t.ID] = t
		inserted = append(inserted, t)
	}
	return inserted, nil
}

// BulkAddItems inserts the given items.
func (s *inMemory) BulkAddItems(_ context.Context, items []model.CatalogItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		s.items[item.ID] = item
	}
	return nil
}
