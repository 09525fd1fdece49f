package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/service"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/httputil"
	"github.com/utafrali/catalog/pkg/middleware"
	"github.com/utafrali/catalog/pkg/pagination"
	"github.com/utafrali/catalog/pkg/validator"
)

// ProductCatalog is the read and remove side of the catalog.
type ProductCatalog interface {
	FindOne(ctx context.Context, idOrTerm string) (*domain.ProductDetail, error)
	FindAll(ctx context.Context, input service.ListProductsInput) (*domain.ProductPage, error)
	Remove(ctx context.Context, id string) error
}

// ProductWriter is the transactional write side of the catalog.
type ProductWriter interface {
	Create(ctx context.Context, input service.CreateProductInput, userID string) (*domain.ProductDetail, error)
	Update(ctx context.Context, id string, input service.UpdateProductInput, userID string) (*domain.ProductDetail, error)
}

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	catalog ProductCatalog
	writer  ProductWriter
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(catalog ProductCatalog, writer ProductWriter, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		writer:  writer,
		logger:  logger,
	}
}

// --- Request DTOs ---

// CreateProductRequest is the JSON body for creating a product.
type CreateProductRequest struct {
	Title       string           `json:"title" validate:"required,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Slug        *string          `json:"slug" validate:"omitempty,min=1"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Sizes       []string         `json:"sizes" validate:"required,dive,min=1"`
	Gender      string           `json:"gender" validate:"required,oneof=men women unisex kid"`
	Tags        []string         `json:"tags" validate:"omitempty,dive,min=1"`
	Images      []string         `json:"images" validate:"omitempty,dive,min=1"`
}

// UpdateProductRequest is the JSON body for a partial update. Sending
// "images" replaces every stored image, an empty list clears them.
type UpdateProductRequest struct {
	Title       *string          `json:"title" validate:"omitempty,min=1"`
	Price       *decimal.Decimal `json:"price"`
	Description *string          `json:"description"`
	Slug        *string          `json:"slug" validate:"omitempty,min=1"`
	Stock       *int             `json:"stock" validate:"omitempty,gte=0"`
	Sizes       []string         `json:"sizes" validate:"omitempty,dive,min=1"`
	Gender      *string          `json:"gender" validate:"omitempty,oneof=men women unisex kid"`
	Tags        []string         `json:"tags" validate:"omitempty,dive,min=1"`
	Images      []string         `json:"images" validate:"omitempty,dive,min=1"`
}

func validPrice(p *decimal.Decimal) error {
	if p == nil {
		return nil
	}
	if p.IsNegative() {
		return apperrors.InvalidInput("price must not be less than 0")
	}
	if domain.RoundPrice(*p).GreaterThanOrEqual(domain.PriceLimit) {
		return apperrors.InvalidInput("price must be less than " + domain.PriceLimit.String())
	}
	return nil
}

// --- Handlers ---

// ListProducts handles GET /api/products?limit&offset&gender
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	params, err := pagination.FromRequest(r)
	if err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput(err.Error()), h.logger)
		return
	}

	input := service.ListProductsInput{Limit: params.Limit, Offset: params.Offset}
	if v := r.URL.Query().Get("gender"); v != "" {
		g, err := domain.ParseGender(v)
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("gender must be one of: men, women, unisex, kid"), h.logger)
			return
		}
		input.Gender = &g
	}

	page, err := h.catalog.FindAll(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, page)
}

// GetProduct handles GET /api/products/{id}. Besides a product id the
// segment may carry a slug or a lowercase title.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.FindOne(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validPrice(req.Price); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	detail, err := h.writer.Create(r.Context(), service.CreateProductInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Slug:        req.Slug,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Gender:      domain.Gender(req.Gender),
		Tags:        req.Tags,
		Images:      req.Images,
	}, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusCreated, detail)
}

// UpdateProduct handles PATCH /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req UpdateProductRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validPrice(req.Price); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	input := service.UpdateProductInput{
		Title:       req.Title,
		Price:       req.Price,
		Description: req.Description,
		Slug:        req.Slug,
		Stock:       req.Stock,
		Sizes:       req.Sizes,
		Tags:        req.Tags,
		Images:      req.Images,
	}
	if req.Gender != nil {
		g := domain.Gender(*req.Gender)
		input.Gender = &g
	}

	detail, err := h.writer.Update(r.Context(), chi.URLParam(r, "id"), input, middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, detail)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Remove(r.Context(), chi.URLParam(r, "id")); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
