package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/service"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

func sampleDetail() *domain.ProductDetail {
	return &domain.ProductDetail{
		Product: domain.Product{
			ID:        productID,
			Title:     "Kids Tee",
			Price:     decimal.RequireFromString("19.99"),
			Slug:      "kids-tee",
			Sizes:     []string{"XS"},
			Gender:    domain.GenderKid,
			Tags:      []string{},
			CreatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
			UpdatedAt: time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		},
		Images: []string{"front.jpg"},
	}
}

// --- List ---

func TestListProducts_Defaults(t *testing.T) {
	s := newTestServer(t)
	page := &domain.ProductPage{Count: 1, Pages: 1, Products: []domain.ProductDetail{*sampleDetail()}}

	s.catalog.On("FindAll", mock.Anything, service.ListProductsInput{Limit: 10, Offset: 0}).Return(page, nil).Once()

	rec := s.do(http.MethodGet, "/api/products", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			Count    int              `json:"count"`
			Pages    int              `json:"pages"`
			Products []map[string]any `json:"products"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Data.Count)
	require.Len(t, body.Data.Products, 1)
	p := body.Data.Products[0]
	assert.Equal(t, 19.99, p["price"])
	assert.Equal(t, []any{"front.jpg"}, p["images"])
	assert.Equal(t, "kids-tee", p["slug"])
}

func TestListProducts_GenderFilter(t *testing.T) {
	s := newTestServer(t)
	men := domain.GenderMen

	s.catalog.On("FindAll", mock.Anything, service.ListProductsInput{Limit: 5, Offset: 10, Gender: &men}).
		Return(&domain.ProductPage{Products: []domain.ProductDetail{}}, nil).Once()

	rec := s.do(http.MethodGet, "/api/products?limit=5&offset=10&gender=men", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListProducts_BadQuery(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"limit=0", "offset=-1", "gender=aliens", "limit=ten"} {
		t.Run(q, func(t *testing.T) {
			rec := s.do(http.MethodGet, "/api/products?"+q, "", nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "INVALID_INPUT", decodeEnvelope(t, rec).Error.Code)
		})
	}
}

// --- Get ---

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)

	s.catalog.On("FindOne", mock.Anything, "kids-tee").Return(sampleDetail(), nil).Once()

	rec := s.do(http.MethodGet, "/api/products/kids-tee", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"images":["front.jpg"]`)
	assert.NotContains(t, rec.Body.String(), "product_id")
}

func TestGetProduct_NotFound(t *testing.T) {
	s := newTestServer(t)

	s.catalog.On("FindOne", mock.Anything, "missing").Return(nil, apperrors.NotFound("product", "missing")).Once()

	rec := s.do(http.MethodGet, "/api/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Product with missing not found", decodeEnvelope(t, rec).Error.Message)
}

// --- Create ---

func TestCreateProduct(t *testing.T) {
	s := newTestServer(t)
	price := decimal.RequireFromString("19.99")

	s.writer.On("Create", mock.Anything, service.CreateProductInput{
		Title:  "Kids Tee",
		Price:  &price,
		Sizes:  []string{"XS"},
		Gender: domain.GenderKid,
		Images: []string{"front.jpg"},
	}, "user-1").Return(sampleDetail(), nil).Once()

	rec := s.do(http.MethodPost, "/api/products", userToken,
		`{"title":"Kids Tee","price":19.99,"sizes":["XS"],"gender":"kid","images":["front.jpg"]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"price":19.99`)
}

func TestCreateProduct_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/products", "", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodPost, "/api/products", "forged", `{"title":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateProduct_Validation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", `{"sizes":["S"],"gender":"men"}`, "title"},
		{"bad gender", `{"title":"x","sizes":["S"],"gender":"robot"}`, "gender"},
		{"missing sizes", `{"title":"x","gender":"men"}`, "sizes"},
		{"negative stock", `{"title":"x","sizes":["S"],"gender":"men","stock":-1}`, "stock"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/products", userToken, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			env := decodeEnvelope(t, rec)
			assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
			assert.Contains(t, env.Error.Fields, tt.field)
		})
	}
}

func TestCreateProduct_MalformedBody(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{"title":`, `{"title":"x","unknown":1}`, `{"title":"x"} {}`} {
		rec := s.do(http.MethodPost, "/api/products", userToken, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

func TestCreateProduct_NegativePrice(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/products", userToken, `{"title":"x","sizes":["S"],"gender":"men","price":-1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "price must not be less than 0", decodeEnvelope(t, rec).Error.Message)
}

func TestCreateProduct_PriceOutOfRange(t *testing.T) {
	s := newTestServer(t)

	for _, price := range []string{"10000000000", "9999999999.995"} {
		rec := s.do(http.MethodPost, "/api/products", userToken, `{"title":"x","sizes":["S"],"gender":"men","price":`+price+`}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code, price)
		assert.Equal(t, "price must be less than 10000000000", decodeEnvelope(t, rec).Error.Message, price)
	}
}

func TestCreateProduct_Conflict(t *testing.T) {
	s := newTestServer(t)

	s.writer.On("Create", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperrors.Conflict("Key (title)=(Kids Tee) already exists.")).Once()

	rec := s.do(http.MethodPost, "/api/products", userToken, `{"title":"Kids Tee","sizes":["S"],"gender":"kid"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Key (title)=(Kids Tee) already exists.", decodeEnvelope(t, rec).Error.Message)
}

func TestCreateProduct_InternalHidesCause(t *testing.T) {
	s := newTestServer(t)

	s.writer.On("Create", mock.Anything, mock.Anything, "user-1").
		Return(nil, apperrors.Internal(errors.New("pq: relation does not exist"))).Once()

	rec := s.do(http.MethodPost, "/api/products", userToken, `{"title":"Kids Tee","sizes":["S"],"gender":"kid"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "relation")
	assert.Equal(t, apperrors.InternalMessage, decodeEnvelope(t, rec).Error.Message)
}

// --- Update ---

func TestUpdateProduct_AdminOnly(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPatch, "/api/products/"+productID, userToken, `{"stock":3}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "user user@google.com needs a valid role: [admin]", decodeEnvelope(t, rec).Error.Message)
}

func TestUpdateProduct(t *testing.T) {
	s := newTestServer(t)
	stock := 3
	women := domain.GenderWomen

	s.writer.On("Update", mock.Anything, productID, service.UpdateProductInput{
		Stock:  &stock,
		Gender: &women,
		Images: []string{},
	}, "admin-1").Return(sampleDetail(), nil).Once()

	rec := s.do(http.MethodPatch, "/api/products/"+productID, adminToken, `{"stock":3,"gender":"women","images":[]}`)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestUpdateProduct_NotFound(t *testing.T) {
	s := newTestServer(t)

	s.writer.On("Update", mock.Anything, "nope", mock.Anything, "admin-1").
		Return(nil, apperrors.NotFound("product", "nope")).Once()

	rec := s.do(http.MethodPatch, "/api/products/nope", adminToken, `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

// --- Delete ---

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(t)

	s.catalog.On("Remove", mock.Anything, productID).Return(nil).Once()

	rec := s.do(http.MethodDelete, "/api/products/"+productID, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestDeleteProduct_Forbidden(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodDelete, "/api/products/"+productID, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// --- Infra routes ---

func TestHealthRoutes(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", "", nil).Code)
}
