package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/service"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/health"
	"github.com/utafrali/catalog/pkg/middleware"
)

// --- Mocks ---

type mockCatalog struct {
	mock.Mock
}

func (m *mockCatalog) FindOne(ctx context.Context, idOrTerm string) (*domain.ProductDetail, error) {
	args := m.Called(ctx, idOrTerm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

func (m *mockCatalog) FindAll(ctx context.Context, input service.ListProductsInput) (*domain.ProductPage, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductPage), args.Error(1)
}

func (m *mockCatalog) Remove(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type mockWriter struct {
	mock.Mock
}

func (m *mockWriter) Create(ctx context.Context, input service.CreateProductInput, userID string) (*domain.ProductDetail, error) {
	args := m.Called(ctx, input, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

func (m *mockWriter) Update(ctx context.Context, id string, input service.UpdateProductInput, userID string) (*domain.ProductDetail, error) {
	args := m.Called(ctx, id, input, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ProductDetail), args.Error(1)
}

type mockAccounts struct {
	mock.Mock
}

func (m *mockAccounts) Register(ctx context.Context, input service.RegisterInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *mockAccounts) Login(ctx context.Context, input service.LoginInput) (*service.AuthResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

func (m *mockAccounts) CheckAuthStatus(ctx context.Context, userID string) (*service.AuthResult, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.AuthResult), args.Error(1)
}

// staticAuthenticator resolves a fixed set of tokens.
type staticAuthenticator map[string]*middleware.Claims

func (a staticAuthenticator) Authenticate(_ context.Context, token string) (*middleware.Claims, error) {
	if c, ok := a[token]; ok {
		return c, nil
	}
	return nil, apperrors.Unauthorized("token not valid")
}

const (
	adminToken = "admin-token"
	userToken  = "user-token"
	productID  = "8f0c1f4e-2a8b-4f1e-9d3c-1b2a3c4d5e6f"
)

var testAuthenticator = staticAuthenticator{
	adminToken: {UserID: "admin-1", Email: "admin@google.com", Roles: []string{"admin"}},
	userToken:  {UserID: "user-1", Email: "user@google.com", Roles: []string{"user"}},
}

// --- Router fixture ---

type testServer struct {
	catalog  *mockCatalog
	writer   *mockWriter
	accounts *mockAccounts
	handler  http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := &testServer{
		catalog:  &mockCatalog{},
		writer:   &mockWriter{},
		accounts: &mockAccounts{},
	}
	s.handler = NewRouter(ctx, Handlers{
		Products:      NewProductHandler(s.catalog, s.writer, logger),
		Auth:          NewAuthHandler(s.accounts, logger),
		Authenticator: testAuthenticator,
		Health:        health.NewHandler(),
	}, RouterConfig{
		ServiceName: "catalog-test",
		CORS:        middleware.DefaultCORSConfig(),
	}, logger)

	t.Cleanup(func() {
		s.catalog.AssertExpectations(t)
		s.writer.AssertExpectations(t)
		s.accounts.AssertExpectations(t)
	})
	return s
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		reader = bytes.NewBuffer(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
