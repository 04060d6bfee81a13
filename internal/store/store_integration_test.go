package store

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/model"
)

const skipIntegrationTests = "CATALOG_SVC_SKIP_INTEGRATION_TESTS"

// CatalogStoreSuite is a test suite for the PostgreSQL CatalogStore implementation.
type CatalogStoreSuite struct {
	suite.Suite                             // Embedding testify's suite for structured testing
	pgContainer *postgres.PostgresContainer // PostgreSQL container for E2E tests
	dbPool      *pgxpool.Pool               // PostgreSQL connection pool for E2E tests
	store       CatalogStore                //
	logger      *slog.Logger                // Logger for the test suite
	ctx         context.Context             // Context for the test suite, used for cancellation and timeouts

	brandID int64 // dimension rows recreated before each test
	typeID  int64
}

// SetupSuite initializes the test suite by setting up a PostgreSQL container,
func (s *CatalogStoreSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	dbName := "catalog"
	dbUser := "user"
	dbPassword := "password"

	// 1. Start a PostgreSQL container with the specified configuration. Wait for the container to be ready.
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPassword),
		// Wait for a specific log message indicating the database service is ready.
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
		// Ensure the container is ready to accept connections on the default PostgreSQL port.
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort("5432/tcp"),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")

	// 2. Get the connection string from the container
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")

	// 3. create a new pgxpool instance using the connection string.
	// Register the shopspring decimal codec so NUMERIC prices round-trip exactly.
	poolCfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(s.T(), err, "Failed to parse connection string")
	poolCfg.AfterConnect = func(_ context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	s.dbPool, err = pgxpool.NewWithConfig(s.ctx, poolCfg)
	require.NoError(s.T(), err, "Failed to create pgxpool")

	// 3.1 Ping the database to ensure the connection is established
	for i := range 10 {
		s.logger.Info("Pinging PostgreSQL database", "attempt", i+1)
		err = s.dbPool.Ping(s.ctx)
		if err == nil {
			break
		}
		time.Sleep(time.Second * 2)
	}
	require.NoError(s.T(), err, "Failed to connect to PostgreSQL after retries")

	// 4. Database migration
	// Build path to migrations directory
	wd, _ := os.Getwd()
	migrationsPath := filepath.Join(wd, "..", "..", "migrations")
	sourceURL := "file://" + migrationsPath
	// Create a new migrate instance with the source URL and connection string
	m, err := migrate.New(sourceURL, connStr)
	require.NoError(s.T(), err, "Failed to create migrate instance")
	// Apply all available migrations
	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		_, _ = m.Close()
		require.NoError(s.T(), err, "Failed to apply migrations")
	}
	s.logger.Info("Migrations applied for E2E tests")

	s.store = NewPgStore(s.dbPool)
	s.logger.Info("Initialization complete for CatalogStoreSuite")
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *CatalogStoreSuite) TearDownSuite() {
	s.logger.Info("Tearing down suite...")
	if s.dbPool != nil {
		s.dbPool.Close()
		s.logger.Info("DB pool closed.")
	}
	if s.pgContainer != nil {
		s.logger.Info("Terminating PostgreSQL container...")
		err := s.pgContainer.Terminate(s.ctx)
		if err != nil {
			s.logger.Warn("failed to terminate PostgreSQL container", "error", err)
		} else {
			s.logger.Info("PostgreSQL container terminated.")
		}
	}
}

// SetupTest truncates the catalog tables and recreates one brand and one type
// for items to reference.
func (s *CatalogStoreSuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE catalog_item, catalog_brand, catalog_type RESTART IDENTITY CASCADE")
	require.NoError(s.T(), err, "Failed to truncate catalog tables")

	brands, err := s.store.ReplaceBrands(s.ctx, []string{"Daybird"})
	require.NoError(s.T(), err, "Failed to seed test brand")
	s.brandID = brands[0].ID

	types, err := s.store.ReplaceTypes(s.ctx, []string{"Footwear"})
	require.NoError(s.T(), err, "Failed to seed test type")
	s.typeID = types[0].ID
}

// TestCatalogStoreIntegration runs the CatalogStore integration tests.
func TestCatalogStoreIntegration(t *testing.T) {
	// Skip integration tests if the environment variable is set
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	// Run the test suite
	suite.Run(t, new(CatalogStoreSuite))
}

// createTestItem is a helper function to create a catalog item for testing purposes.
func (s *CatalogStoreSuite) createTestItem(id int64, name string, price float64, stock int) *model.CatalogItem {
	s.T().Helper()
	item, err := s.store.Create(s.ctx, model.CatalogItem{
		ID:                id,
		Name:              name,
		Description:       "Test description for " + name,
		Price:             decimal.NewFromFloat(price),
		PictureFileName:   "",
		CatalogTypeID:     s.typeID,
		CatalogBrandID:    s.brandID,
		AvailableStock:    stock,
		RestockThreshold:  10,
		MaxStockThreshold: 200,
	})
	require.NoError(s.T(), err, "createTestItem helper failed to create item")
	return item
}

func (s *CatalogStoreSuite) TestCreateAndFindByID() {
	// 1. Create a new catalog item
	created := s.createTestItem(1, "Wanderer Black Hiking Boots", 109.99, 100)

	// 2. Fetch the item by ID
	fetched, err := s.store.FindByID(s.ctx, created.ID)

	// 3. Check that the fetched item matches the created one
	require.NoError(s.T(), err, "FindByID should not return an error")
	require.Equal(s.T(), created.ID, fetched.ID)
	require.Equal(s.T(), created.Name, fetched.Name)
	require.Equal(s.T(), created.Description, fetched.Description)
	require.True(s.T(), created.Price.Equal(fetched.Price), "Price should round-trip exactly")
	require.Equal(s.T(), created.AvailableStock, fetched.AvailableStock)
	require.Equal(s.T(), created.MaxStockThreshold, fetched.MaxStockThreshold)
}

func (s *CatalogStoreSuite) TestFindByID_NotFound() {
	// Attempt to fetch an item that does not exist
	_, err := s.store.FindByID(s.ctx, 9999)
	// Check that the error is ErrItemNotFound
	require.ErrorIs(s.T(), err, catalogerrors.ErrItemNotFound, "Expected ErrItemNotFound for non-existent item")
}

func (s *CatalogStoreSuite) TestFindByIDs_OmitsMissing() {
	s.createTestItem(1, "Item A", 10, 5)
	s.createTestItem(2, "Item B", 20, 5)

	items, err := s.store.FindByIDs(s.ctx, []int64{1, 2, 9999})

	require.NoError(s.T(), err)
	require.Len(s.T(), items, 2, "Missing IDs should be omitted, not reported")
}

func (s *CatalogStoreSuite) TestList_OrderAndCount() {
	s.createTestItem(3, "Alpine Jacket", 250, 5)
	s.createTestItem(1, "Zenith Tent", 400, 5)
	s.createTestItem(2, "Alpine Jacket", 260, 5)

	items, total, err := s.store.List(s.ctx, ListFilter{}, 0, 10)

	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 3, total)
	require.Len(s.T(), items, 3)
	// Ordered by name ascending, ID breaks the tie between equal names.
	assert.EqualValues(s.T(), 2, items[0].ID)
	assert.EqualValues(s.T(), 3, items[1].ID)
	assert.EqualValues(s.T(), 1, items[2].ID)
}

func (s *CatalogStoreSuite) TestList_PrefixFilterAndPaging() {
	s.createTestItem(1, "Summit Pro Harness", 100, 5)
	s.createTestItem(2, "Summit Rope 60m", 80, 5)
	s.createTestItem(3, "Gravity Chalk Bag", 15, 5)

	name := "Summit"
	items, total, err := s.store.List(s.ctx, ListFilter{Name: &name}, 0, 1)

	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 2, total, "Count should cover the whole filtered set, not the page")
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Summit Pro Harness", items[0].Name)

	// Second page picks up where the first left off.
	items, _, err = s.store.List(s.ctx, ListFilter{Name: &name}, 1, 1)
	require.NoError(s.T(), err)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Summit Rope 60m", items[0].Name)
}

func (s *CatalogStoreSuite) TestList_LikeMetacharactersAreLiteral() {
	s.createTestItem(1, "100% Cotton Tee", 25, 5)
	s.createTestItem(2, "100x Zoom Scope", 300, 5)

	name := "100%"
	items, total, err := s.store.List(s.ctx, ListFilter{Name: &name}, 0, 10)

	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 1, total, "Percent sign must match literally, not as a wildcard")
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "100% Cotton Tee", items[0].Name)
}

func (s *CatalogStoreSuite) TestList_ConjunctiveFilters() {
	types, err := s.store.ReplaceTypes(s.ctx, []string{"Footwear", "Climbing"})
	require.NoError(s.T(), err)
	s.typeID = types[0].ID
	s.createTestItem(1, "Summit Boots", 120, 5)
	s.typeID = types[1].ID
	s.createTestItem(2, "Summit Harness", 90, 5)

	name := "Summit"
	items, total, err := s.store.List(s.ctx, ListFilter{Name: &name, TypeID: &types[1].ID}, 0, 10)

	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 1, total)
	require.Len(s.T(), items, 1)
	assert.Equal(s.T(), "Summit Harness", items[0].Name)
}

func (s *CatalogStoreSuite) TestUpdate() {
	created := s.createTestItem(1, "Trailblazer Pack", 150, 40)

	toUpdate := *created
	toUpdate.Name = "Trailblazer Pack 2"
	toUpdate.Price = decimal.NewFromFloat(175.50)
	toUpdate.AvailableStock = 35
	err := s.store.Update(s.ctx, toUpdate)
	require.NoError(s.T(), err, "Update should not return an error")

	fetched, err := s.store.FindByID(s.ctx, created.ID)
	require.NoError(s.T(), err)
	require.Equal(s.T(), toUpdate.Name, fetched.Name)
	require.True(s.T(), toUpdate.Price.Equal(fetched.Price))
	require.Equal(s.T(), toUpdate.AvailableStock, fetched.AvailableStock)
}

func (s *CatalogStoreSuite) TestUpdate_NotFound() {
	// Attempt to update an item that does not exist
	missing := model.CatalogItem{
		ID:                9999,
		Name:              "Non-existent Item",
		Description:       "Should never be written",
		Price:             decimal.NewFromInt(10),
		CatalogTypeID:     s.typeID,
		CatalogBrandID:    s.brandID,
		MaxStockThreshold: 200,
	}
	err := s.store.Update(s.ctx, missing)
	require.ErrorIs(s.T(), err, catalogerrors.ErrItemNotFound, "Expected ErrItemNotFound for non-existent item")
}

func (s *CatalogStoreSuite) TestDeleteByID() {
	created := s.createTestItem(1, "Riverrun Paddle", 70, 10)

	err := s.store.DeleteByID(s.ctx, created.ID)
	require.NoError(s.T(), err, "DeleteByID should not return an error")

	_, err = s.store.FindByID(s.ctx, created.ID)
	require.ErrorIs(s.T(), err, catalogerrors.ErrItemNotFound, "Expected ErrItemNotFound for deleted item")
}

func (s *CatalogStoreSuite) TestDeleteByID_NotFound() {
	err := s.store.DeleteByID(s.ctx, 9999)
	require.ErrorIs(s.T(), err, catalogerrors.ErrItemNotFound, "Expected ErrItemNotFound for non-existent item")
}

func (s *CatalogStoreSuite) TestReplaceBrands() {
	brands, err := s.store.ReplaceBrands(s.ctx, []string{"Gravitator", "Aquaflow"})
	require.NoError(s.T(), err)
	require.Len(s.T(), brands, 2)
	// Returned rows keep the input order and carry generated IDs.
	assert.Equal(s.T(), "Gravitator", brands[0].Brand)
	assert.Equal(s.T(), "Aquaflow", brands[1].Brand)
	assert.NotZero(s.T(), brands[0].ID)

	// ListBrands returns the dimension ordered by name.
	listed, err := s.store.ListBrands(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2)
	assert.Equal(s.T(), "Aquaflow", listed[0].Brand)
	assert.Equal(s.T(), "Gravitator", listed[1].Brand)
}

func (s *CatalogStoreSuite) TestReplaceTypes() {
	types, err := s.store.ReplaceTypes(s.ctx, []string{"Trekking", "Kayaking"})
	require.NoError(s.T(), err)
	require.Len(s.T(), types, 2)

	listed, err := s.store.ListTypes(s.ctx)
	require.NoError(s.T(), err)
	require.Len(s.T(), listed, 2)
	assert.Equal(s.T(), "Kayaking", listed[0].Type)
	assert.Equal(s.T(), "Trekking", listed[1].Type)
}

func (s *CatalogStoreSuite) TestBulkAddItemsAndCount() {
	items := []model.CatalogItem{
		{ID: 1, Name: "Bulk A", Description: "First bulk item", Price: decimal.NewFromInt(10),
			CatalogTypeID: s.typeID, CatalogBrandID: s.brandID, AvailableStock: 100, RestockThreshold: 10, MaxStockThreshold: 200},
		{ID: 2, Name: "Bulk B", Description: "Second bulk item", Price: decimal.NewFromInt(20),
			CatalogTypeID: s.typeID, CatalogBrandID: s.brandID, AvailableStock: 100, RestockThreshold: 10, MaxStockThreshold: 200},
	}

	err := s.store.BulkAddItems(s.ctx, items)
	require.NoError(s.T(), err)

	count, err := s.store.CountItems(s.ctx)
	require.NoError(s.T(), err)
	require.EqualValues(s.T(), 2, count)
}
