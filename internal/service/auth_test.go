package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/catalog/internal/auth"
	"github.com/utafrali/catalog/internal/domain"
	apperrors "github.com/utafrali/catalog/pkg/errors"
)

func newTestAuthService() (*AuthService, *mockUserRepository, *auth.TokenManager) {
	users := &mockUserRepository{}
	tokens := auth.NewTokenManager("test-secret", time.Hour)
	return NewAuthService(users, tokens, bcrypt.MinCost, newTestLogger()), users, tokens
}

func existingUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &domain.User{
		ID:           testIDs[0],
		Email:        "test1@google.com",
		PasswordHash: string(hash),
		FullName:     "Test One",
		IsActive:     true,
		Roles:        []domain.Role{domain.RoleAdmin, domain.RoleUser},
	}
}

func TestRegister(t *testing.T) {
	svc, users, tokens := newTestAuthService()

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "test1@google.com" &&
			u.IsActive &&
			assert.ObjectsAreEqual([]domain.Role{domain.RoleUser}, u.Roles) &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("Abc123")) == nil
	})).Return(nil).Once()

	res, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  Test1@Google.com ",
		Password: "Abc123",
		FullName: "Test One",
	})
	require.NoError(t, err)

	assert.Equal(t, "test1@google.com", res.User.Email)
	claims, err := tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	users.AssertExpectations(t)
}

func TestRegisterWithRoles(t *testing.T) {
	svc, users, _ := newTestAuthService()

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return assert.ObjectsAreEqual([]domain.Role{domain.RoleAdmin, domain.RoleUser}, u.Roles)
	})).Return(nil).Once()

	res, err := svc.RegisterWithRoles(context.Background(), RegisterInput{
		Email: "admin@google.com", Password: "Abc123", FullName: "Admin",
	}, domain.RoleAdmin, domain.RoleUser)
	require.NoError(t, err)
	assert.True(t, res.User.HasAnyRole(domain.RoleAdmin))
	users.AssertExpectations(t)
}

func TestRegisterWithRoles_RejectsBadRoles(t *testing.T) {
	svc, users, _ := newTestAuthService()
	input := RegisterInput{Email: "a@google.com", Password: "Abc123", FullName: "A"}

	_, err := svc.RegisterWithRoles(context.Background(), input)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	_, err = svc.RegisterWithRoles(context.Background(), input, domain.Role("root"))
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)

	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_PasswordBeyondBcryptLimit(t *testing.T) {
	svc, users, _ := newTestAuthService()

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "test1@google.com",
		Password: "A1" + strings.Repeat("é", 48),
		FullName: "Test One",
	})
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _ := newTestAuthService()

	users.On("Create", mock.Anything, mock.Anything).Return(&pgconn.PgError{
		Code:   "23505",
		Detail: "Key (email)=(test1@google.com) already exists.",
	}).Once()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "test1@google.com", Password: "Abc123"})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusConflict, appErr.Status)
	assert.Equal(t, "Key (email)=(test1@google.com) already exists.", appErr.Message)
}

func TestRegister_StoreFailure(t *testing.T) {
	svc, users, _ := newTestAuthService()

	users.On("Create", mock.Anything, mock.Anything).Return(errors.New("disk full")).Once()

	_, err := svc.Register(context.Background(), RegisterInput{Email: "a@b.co", Password: "Abc123"})
	assert.ErrorIs(t, err, apperrors.ErrInternal)
}

func TestLogin(t *testing.T) {
	svc, users, _ := newTestAuthService()
	u := existingUser(t, "Abc123")

	users.On("GetByEmail", mock.Anything, "test1@google.com").Return(u, nil)

	res, err := svc.Login(context.Background(), LoginInput{Email: "TEST1@google.com", Password: "Abc123"})
	require.NoError(t, err)
	assert.Equal(t, u.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, users, _ := newTestAuthService()
	u := existingUser(t, "Abc123")

	users.On("GetByEmail", mock.Anything, "test1@google.com").Return(u, nil)
	users.On("GetByEmail", mock.Anything, "nobody@google.com").Return(nil, apperrors.ErrNotFound)

	_, err := svc.Login(context.Background(), LoginInput{Email: "nobody@google.com", Password: "Abc123"})
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, http.StatusUnauthorized, appErr.Status)
	assert.Equal(t, "credentials are not valid (email)", appErr.Message)

	_, err = svc.Login(context.Background(), LoginInput{Email: "test1@google.com", Password: "wrong"})
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "credentials are not valid (password)", appErr.Message)
}

func TestCheckAuthStatus_IssuesFreshToken(t *testing.T) {
	svc, users, tokens := newTestAuthService()
	u := existingUser(t, "Abc123")

	users.On("GetByID", mock.Anything, u.ID).Return(u, nil).Once()

	res, err := svc.CheckAuthStatus(context.Background(), u.ID)
	require.NoError(t, err)
	claims, err := tokens.Validate(res.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
}

func TestAuthenticate(t *testing.T) {
	svc, users, tokens := newTestAuthService()
	u := existingUser(t, "Abc123")
	token, err := tokens.Generate(u.ID)
	require.NoError(t, err)

	users.On("GetByID", mock.Anything, u.ID).Return(u, nil).Once()

	claims, err := svc.Authenticate(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.Equal(t, u.Email, claims.Email)
	assert.Equal(t, []string{"admin", "user"}, claims.Roles)
}

func TestAuthenticate_Rejections(t *testing.T) {
	svc, users, tokens := newTestAuthService()

	inactive := existingUser(t, "Abc123")
	inactive.ID = testIDs[1]
	inactive.IsActive = false

	users.On("GetByID", mock.Anything, testIDs[1]).Return(inactive, nil)
	users.On("GetByID", mock.Anything, testIDs[2]).Return(nil, apperrors.ErrNotFound)

	inactiveToken, _ := tokens.Generate(testIDs[1])
	goneToken, _ := tokens.Generate(testIDs[2])

	tests := []struct {
		name    string
		token   string
		message string
	}{
		{"garbage", "abc.def.ghi", "token not valid"},
		{"deleted user", goneToken, "token not valid"},
		{"inactive user", inactiveToken, "user is inactive, talk with an admin"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Authenticate(context.Background(), tt.token)
			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, http.StatusUnauthorized, appErr.Status)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}
