// Package rest provides HTTP handlers for catalog operations.
package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	catalogerrors "github.com/abgdnv/gocatalog/internal/errors"
	"github.com/abgdnv/gocatalog/internal/service"
	"github.com/abgdnv/gocatalog/internal/store"
	"github.com/abgdnv/gocatalog/pkg/web"
)

// Price bounds accepted for catalog items.
var (
	minPrice = decimal.NewFromFloat(0.01)
	maxPrice = decimal.NewFromInt(10000)
)

const (
	defaultPageSize  = 10
	defaultPageIndex = 0
)

type Handler struct {
	service  service.CatalogService
	validate *validator.Validate
	picsDir  string
	logger   *slog.Logger
}

// NewHandler creates a new instance of the catalog API with the provided service.
func NewHandler(service service.CatalogService, picsDir string, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		picsDir:  picsDir,
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/catalog", func(r chi.Router) {
		r.Get("/items", h.List)
		r.Get("/items/by", h.FindByIDs)
		r.Post("/items", h.Create)

		r.Route("/items/{id}", func(r chi.Router) {
			r.Get("/", h.FindByID)
			r.Put("/", h.Replace)
			r.Delete("/", h.DeleteByID)
			r.Get("/pic", h.GetPicture)
			r.Put("/stock/add", h.AddStock)
			r.Put("/stock/remove", h.RemoveStock)
		})

		r.Get("/types", h.ListTypes)
		r.Get("/brands", h.ListBrands)
	})

	r.Get("/healthz", h.HealthCheck)
}

// List returns a paginated, optionally filtered page of catalog items.
// Filters combine conjunctively: name prefix, exact type id, exact brand id.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	pageSize, ok := web.ParseValidateGt(r, w, mLogger, "pageSize", 0, defaultPageSize)
	if !ok {
		return
	}
	pageIndex, ok := web.ParseValidateGte(r, w, mLogger, "pageIndex", 0, defaultPageIndex)
	if !ok {
		return
	}

	filter := store.ListFilter{}
	if name := r.URL.Query().Get("name"); name != "" {
		filter.Name = &name
	}
	if filter.TypeID, ok = web.ParseOptionalInt64(r, w, mLogger, "type"); !ok {
		return
	}
	if filter.BrandID, ok = web.ParseOptionalInt64(r, w, mLogger, "brand"); !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list catalog items",
		"pageSize", pageSize, "pageIndex", pageIndex)
	page, err := h.service.List(r.Context(), service.PageRequest{PageIndex: pageIndex, PageSize: pageSize}, filter)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrInvalidPagination) {
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
			return
		}
		mLogger.ErrorContext(r.Context(), "Error listing catalog items", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch catalog items")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully listed catalog items", "count", len(page.Data), "total", page.Count)
	web.RespondJSON(w, mLogger, http.StatusOK, page)
}

// FindByID retrieves a catalog item by its ID.
func (h *Handler) FindByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to find catalog item by ID", "ID", id)
	found, err := h.service.FindByID(r.Context(), id)
	if err != nil {
		h.respondItemError(w, r, mLogger, id, err, "retrieve")
		return
	}
	mLogger.DebugContext(r.Context(), "Successfully retrieved catalog item", "ID", found.ID, "Name", found.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, found)
}

// FindByIDs retrieves the catalog items whose IDs are listed in the "ids"
// query parameter. IDs without a matching item are silently omitted.
func (h *Handler) FindByIDs(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	ids, ok := web.ParseIDList(r, w, mLogger, "ids")
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to batch get catalog items", "count", len(ids))
	items, err := h.service.FindByIDs(r.Context(), ids)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving catalog items", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch catalog items")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, items)
}

// Create handles the creation of a new catalog item.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	item, ok := h.decodeItem(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to create catalog item", "ID", item.ID)
	created, err := h.service.Create(r.Context(), *item)
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error creating catalog item", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to create catalog item")
		return
	}
	mLogger.InfoContext(r.Context(), "Catalog item created successfully", "ID", created.ID, "Name", created.Name)
	w.Header().Set("Location", fmt.Sprintf("/api/catalog/items/%d", created.ID))
	web.RespondJSON(w, mLogger, http.StatusCreated, created)
}

// Replace overwrites every field of an existing catalog item with the
// caller-supplied values. There are no partial-patch semantics.
func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	item, ok := h.decodeItem(w, r, mLogger)
	if !ok {
		return
	}
	item.ID = id

	mLogger.DebugContext(r.Context(), "Received request to replace catalog item", "ID", id)
	replaced, err := h.service.Replace(r.Context(), *item)
	if err != nil {
		h.respondItemError(w, r, mLogger, id, err, "replace")
		return
	}
	mLogger.InfoContext(r.Context(), "Catalog item replaced successfully", "ID", replaced.ID, "Name", replaced.Name)
	web.RespondJSON(w, mLogger, http.StatusOK, replaced)
}

// DeleteByID deletes a catalog item by its ID.
func (h *Handler) DeleteByID(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to delete catalog item", "ID", id)
	if err := h.service.DeleteByID(r.Context(), id); err != nil {
		h.respondItemError(w, r, mLogger, id, err, "delete")
		return
	}
	mLogger.InfoContext(r.Context(), "Catalog item deleted successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// stockRequest is the body of a stock mutation request.
type stockRequest struct {
	Quantity int `json:"quantity" validate:"required"`
}

// AddStock increments an item's stock, capped at its maximum threshold. The
// response carries the delta actually applied, which is less than the
// requested quantity when the cap was hit.
func (h *Handler) AddStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var req stockRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to add stock", "ID", id, "quantity", req.Quantity)
	change, err := h.service.AddStock(r.Context(), id, req.Quantity)
	if err != nil {
		h.respondItemError(w, r, mLogger, id, err, "add stock to")
		return
	}
	mLogger.InfoContext(r.Context(), "Stock added successfully", "ID", id, "added", change.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, change)
}

// RemoveStock decrements an item's stock by up to the requested quantity. The
// response carries the count actually removed; callers detect partial
// fulfilment by comparing it against the requested quantity.
func (h *Handler) RemoveStock(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.ParseID(w, r, mLogger)
	if !ok {
		return
	}
	var req stockRequest
	if !h.decodeValid(w, r, mLogger, &req) {
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to remove stock", "ID", id, "quantity", req.Quantity)
	change, err := h.service.RemoveStock(r.Context(), id, req.Quantity)
	if err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrOutOfStock):
			mLogger.WarnContext(r.Context(), "Item out of stock", "ID", id)
			web.RespondError(w, mLogger, http.StatusConflict, fmt.Sprintf("Catalog item with ID %d is out of stock", id))
		case errors.Is(err, catalogerrors.ErrInvalidQuantity):
			web.RespondError(w, mLogger, http.StatusBadRequest, err.Error())
		default:
			h.respondItemError(w, r, mLogger, id, err, "remove stock from")
		}
		return
	}
	mLogger.InfoContext(r.Context(), "Stock removed successfully", "ID", id, "removed", change.Quantity)
	web.RespondJSON(w, mLogger, http.StatusOK, change)
}

// ListBrands returns all catalog brands ordered by name.
func (h *Handler) ListBrands(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	brands, err := h.service.ListBrands(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving catalog brands", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch catalog brands")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, brands)
}

// ListTypes returns all catalog types ordered by name.
func (h *Handler) ListTypes(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	types, err := h.service.ListTypes(r.Context())
	if err != nil {
		mLogger.ErrorContext(r.Context(), "Error retrieving catalog types", "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, "Failed to fetch catalog types")
		return
	}
	web.RespondJSON(w, mLogger, http.StatusOK, types)
}

// HealthCheck is a simple health check endpoint.
func (h *Handler) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeItem decodes and validates a full item value from the request body.
func (h *Handler) decodeItem(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger) (*service.ItemDto, bool) {
	var item service.ItemDto
	if !h.decodeValid(w, r, mLogger, &item) {
		return nil, false
	}
	if item.Price.LessThan(minPrice) || item.Price.GreaterThan(maxPrice) {
		mLogger.WarnContext(r.Context(), "Item price out of range", "price", item.Price)
		web.RespondError(w, mLogger, http.StatusBadRequest,
			fmt.Sprintf("Price must be between %s and %s", minPrice, maxPrice))
		return nil, false
	}
	return &item, true
}

// decodeValid decodes the request body into dst and validates its struct tags.
func (h *Handler) decodeValid(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		mLogger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			// If the error is a validation error, we can extract field-specific errors.
			errorResponse := make(map[string]string)
			for _, fieldErr := range validationErrors {
				// fieldErr.Tag() returns "required", "max", etc.
				errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
			}
			mLogger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
			web.RespondJSON(w, mLogger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
			return false
		}
		mLogger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		// If it's not a validation error, we can return a generic error.
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// respondItemError maps service errors for a single-item operation onto HTTP responses.
func (h *Handler) respondItemError(w http.ResponseWriter, r *http.Request, mLogger *slog.Logger, id int64, err error, verb string) {
	switch {
	case errors.Is(err, catalogerrors.ErrInvalidID):
		web.RespondError(w, mLogger, http.StatusBadRequest, "Id is not valid")
	case errors.Is(err, catalogerrors.ErrItemNotFound):
		mLogger.WarnContext(r.Context(), "Catalog item not found", "ID", id)
		web.RespondError(w, mLogger, http.StatusNotFound, fmt.Sprintf("Catalog item with ID %d not found", id))
	default:
		mLogger.ErrorContext(r.Context(), "Error handling catalog item", "ID", id, "error", err)
		web.RespondError(w, mLogger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s catalog item with ID %d", verb, id))
	}
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}
