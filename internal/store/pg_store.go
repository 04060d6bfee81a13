package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/model"
)

// PgStore implements CatalogStore using PostgreSQL as the data store.
type PgStore struct {
	db *pgxpool.Pool
}

// NewPgStore creates a new instance of CatalogStore using a PostgreSQL connection pool.
func NewPgStore(dbp *pgxpool.Pool) *PgStore {
	return &PgStore{db: dbp}
}

const itemColumns = `id, name, description, price, picture_file_name,
		catalog_type_id, catalog_brand_id, available_stock, restock_threshold,
		max_stock_threshold, on_reorder`

// FindByID retrieves a catalog item by its identifier.
// Returns ErrItemNotFound if no item exists with the given ID.
func (p *PgStore) FindByID(ctx context.Context, id int64) (*model.CatalogItem, error) {
	row := p.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM catalog_item WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalogerrors.ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find catalog item by ID: %w", err)
	}
	return item, nil
}

// FindByIDs retrieves the catalog items whose IDs are in the given set.
// IDs without a matching row are silently omitted from the result.
func (p *PgStore) FindByIDs(ctx context.Context, ids []int64) ([]model.CatalogItem, error) {
	rows, err := p.db.Query(ctx, `SELECT `+itemColumns+` FROM catalog_item WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to find catalog items by IDs: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns one page of catalog items matching the filter, ordered by name
// with ID as tiebreak, together with the pre-pagination match count.
func (p *PgStore) List(ctx context.Context, filter ListFilter, offset, limit int) ([]model.CatalogItem, int64, error) {
	where, args := buildFilter(filter)

	var total int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_item`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count catalog items: %w", err)
	}

	query := fmt.Sprintf(`SELECT `+itemColumns+` FROM catalog_item%s ORDER BY name, id OFFSET $%d LIMIT $%d`,
		where, len(args)+1, len(args)+2)
	rows, err := p.db.Query(ctx, query, append(args, offset, limit)...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list catalog items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CountItems returns the total number of catalog items.
func (p *PgStore) CountItems(ctx context.Context) (int64, error) {
	var count int64
	if err := p.db.QueryRow(ctx, `SELECT COUNT(*) FROM catalog_item`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count catalog items: %w", err)
	}
	return count, nil
}

// Create adds a new catalog item with the caller-assigned ID.
func (p *PgStore) Create(ctx context.Context, item model.CatalogItem) (*model.CatalogItem, error) {
	_, err := p.db.Exec(ctx, `INSERT INTO catalog_item (`+itemColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		itemArgs(item)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create catalog item: %w", err)
	}
	return &item, nil
}

// Update replaces every field of an existing catalog item.
// Returns ErrItemNotFound if no item exists with the item's ID.
func (p *PgStore) Update(ctx context.Context, item model.CatalogItem) error {
	tag, err := p.db.Exec(ctx, `UPDATE catalog_item SET
		name = $2, description = $3, price = $4, picture_file_name = $5,
		catalog_type_id = $6, catalog_brand_id = $7, available_stock = $8,
		restock_threshold = $9, max_stock_threshold = $10, on_reorder = $11
		WHERE id = $1`,
		itemArgs(item)...)
	if err != nil {
		return fmt.Errorf("failed to update catalog item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrItemNotFound
	}
	return nil
}

// DeleteByID removes a catalog item by its identifier.
// Returns ErrItemNotFound if no item exists with the given ID.
func (p *PgStore) DeleteByID(ctx context.Context, id int64) error {
	tag, err := p.db.Exec(ctx, `DELETE FROM catalog_item WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete catalog item by ID: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogerrors.ErrItemNotFound
	}
	return nil
}

// ListBrands returns all catalog brands ordered by name.
func (p *PgStore) ListBrands(ctx context.Context) ([]model.CatalogBrand, error) {
	rows, err := p.db.Query(ctx, `SELECT id, brand FROM catalog_brand ORDER BY brand`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog brands: %w", err)
	}
	defer rows.Close()

	brands := make([]model.CatalogBrand, 0)
	for rows.Next() {
		var b model.CatalogBrand
		if err := rows.Scan(&b.ID, &b.Brand); err != nil {
			return nil, fmt.Errorf("failed to scan catalog brand: %w", err)
		}
		brands = append(brands, b)
	}
	return brands, rows.Err()
}

// ListTypes returns all catalog types ordered by name.
func (p *PgStore) ListTypes(ctx context.Context) ([]model.CatalogType, error) {
	rows, err := p.db.Query(ctx, `SELECT id, type FROM catalog_type ORDER BY type`)
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog types: %w", err)
	}
	defer rows.Close()

	types := make([]model.CatalogType, 0)
	for rows.Next() {
		var t model.CatalogType
		if err := rows.Scan(&t.ID, &t.Type); err != nil {
			return nil, fmt.Errorf("failed to scan catalog type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

// ReplaceBrands clears the brand dimension and inserts one row per name.
// Clear and insert run in a single transaction.
func (p *PgStore) ReplaceBrands(ctx context.Context, names []string) ([]model.CatalogBrand, error) {
	brands := make([]model.CatalogBrand, 0, len(names))
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_brand`); err != nil {
			return fmt.Errorf("failed to clear catalog brands: %w", err)
		}
		for _, name := range names {
			var b model.CatalogBrand
			err := tx.QueryRow(ctx, `INSERT INTO catalog_brand (brand) VALUES ($1) RETURNING id, brand`, name).
				Scan(&b.ID, &b.Brand)
			if err != nil {
				return fmt.Errorf("failed to insert catalog brand %q: %w", name, err)
			}
			brands = append(brands, b)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return brands, nil
}

// ReplaceTypes clears the type dimension and inserts one row per name.
// Clear and insert run in a single transaction.
func (p *PgStore) ReplaceTypes(ctx context.Context, names []string) ([]model.CatalogType, error) {
	types := make([]model.CatalogType, 0, len(names))
	txErr := p.withTransaction(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM catalog_type`); err != nil {
			return fmt.Errorf("failed to clear catalog types: %w", err)
		}
		for _, name := range names {
			var t model.CatalogType
			err := tx.QueryRow(ctx, `INSERT INTO catalog_type (type) VALUES ($1) RETURNING id, type`, name).
				Scan(&t.ID, &t.Type)
			if err != nil {
				return fmt.Errorf("failed to insert catalog type %q: %w", name, err)
			}
			types = append(types, t)
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return types, nil
}

// BulkAddItems inserts the given catalog items using the PostgreSQL COPY protocol.
func (p *PgStore) BulkAddItems(ctx context.Context, items []model.CatalogItem) error {
	_, err := p.db.CopyFrom(ctx,
		pgx.Identifier{"catalog_item"},
		[]string{"id", "name", "description", "price", "picture_file_name",
			"catalog_type_id", "catalog_brand_id", "available_stock",
			"restock_threshold", "max_stock_threshold", "on_reorder"},
		pgx.CopyFromSlice(len(items), func(i int) ([]any, error) {
			return itemArgs(items[i]), nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to bulk insert catalog items: %w", err)
	}
	return nil
}

// withTransaction runs fn inside a transaction, rolling back on error.
func (p *PgStore) withTransaction(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// buildFilter renders the WHERE clause and its arguments for a ListFilter.
func buildFilter(filter ListFilter) (string, []any) {
	conds := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if filter.Name != nil {
		args = append(args, escapeLike(*filter.Name)+"%")
		conds = append(conds, fmt.Sprintf(`name LIKE $%d`, len(args)))
	}
	if filter.TypeID != nil {
		args = append(args, *filter.TypeID)
		conds = append(conds, fmt.Sprintf(`catalog_type_id = $%d`, len(args)))
	}
	if filter.BrandID != nil {
		args = append(args, *filter.BrandID)
		conds = append(conds, fmt.Sprintf(`catalog_brand_id = $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike escapes LIKE metacharacters so the filter stays a literal prefix match.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

func itemArgs(item model.CatalogItem) []any {
	return []any{
		item.ID, item.Name, item.Description, item.Price, item.PictureFileName,
		item.CatalogTypeID, item.CatalogBrandID, item.AvailableStock,
		item.RestockThreshold, item.MaxStockThreshold, item.OnReorder,
	}
}

func scanItem(row pgx.Row) (*model.CatalogItem, error) {
	var item model.CatalogItem
	err := row.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
		&item.PictureFileName, &item.CatalogTypeID, &item.CatalogBrandID,
		&item.AvailableStock, &item.RestockThreshold, &item.MaxStockThreshold,
		&item.OnReorder)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]model.CatalogItem, error) {
	items := make([]model.CatalogItem, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog items: %w", err)
	}
	return items, nil
}
