package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/utafrali/catalog/internal/auth"
	"github.com/utafrali/catalog/internal/domain"
	"github.com/utafrali/catalog/internal/repository"
	apperrors "github.com/utafrali/catalog/pkg/errors"
	"github.com/utafrali/catalog/pkg/middleware"
)

// RegisterInput holds the parameters for creating an account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginInput holds the parameters for signing in.
type LoginInput struct {
	Email    string
	Password string
}

// AuthResult is a user with a freshly signed token.
type AuthResult struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token"`
}

// AuthService registers users, signs them in and resolves their tokens.
type AuthService struct {
	users      repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	logger     *slog.Logger
}

// NewAuthService creates an auth service. bcryptCost of zero uses
// bcrypt.DefaultCost.
func NewAuthService(users repository.UserRepository, tokens *auth.TokenManager, bcryptCost int, logger *slog.Logger) *AuthService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates an active account with the user role.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	return s.RegisterWithRoles(ctx, input, domain.RoleUser)
}

// RegisterWithRoles creates an active account holding roles. It backs
// Register and the seed tool, which provisions administrators.
func (s *AuthService) RegisterWithRoles(ctx context.Context, input RegisterInput, roles ...domain.Role) (*AuthResult, error) {
	if len(roles) == 0 {
		return nil, apperrors.InvalidInput("at least one role is required")
	}
	for _, r := range roles {
		if !r.Valid() {
			return nil, apperrors.InvalidInput("unknown role " + string(r))
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return nil, apperrors.InvalidInput("password must be at most 72 bytes")
	}
	if err != nil {
		return nil, classifyWriteError(ctx, s.logger, "hash password", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        domain.NormalizeEmail(input.Email),
		PasswordHash: string(hash),
		FullName:     input.FullName,
		IsActive:     true,
		Roles:        roles,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, classifyWriteError(ctx, s.logger, "register user", err)
	}

	s.logger.InfoContext(ctx, "user registered", slog.String("user_id", user.ID))
	return s.issue(ctx, user)
}

// Login checks the credentials and returns the user with a new token.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("credentials are not valid (email)")
		}
		return nil, classifyWriteError(ctx, s.logger, "load user for login", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, apperrors.Unauthorized("credentials are not valid (password)")
	}

	return s.issue(ctx, user)
}

// CheckAuthStatus returns the caller with a fresh token.
func (s *AuthService) CheckAuthStatus(ctx context.Context, userID string) (*AuthResult, error) {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Authenticate resolves a bearer token into claims. The token's user must
// still exist and be active.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.Claims, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		return nil, apperrors.Unauthorized("token not valid")
	}

	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	return &middleware.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Roles:  domain.RoleStrings(user.Roles),
	}, nil
}

func (s *AuthService) activeUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("token not valid")
		}
		return nil, classifyWriteError(ctx, s.logger, "load user", err)
	}
	if !user.IsActive {
		return nil, apperrors.Unauthorized("user is inactive, talk with an admin")
	}
	return user, nil
}

func (s *AuthService) issue(ctx context.Context, user *domain.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, classifyWriteError(ctx, s.logger, "sign token", err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
