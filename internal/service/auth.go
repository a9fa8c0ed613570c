package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/inkwell/inkwell-server/internal/auth"
	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/errors"
	"github.com/inkwell/inkwell-server/internal/id"
	"github.com/inkwell/inkwell-server/internal/store"
)

// AuthService handles registration, login and token verification.
type AuthService struct {
	store  Store
	tokens *auth.TokenService
	logger *slog.Logger
	now    func() time.Time
}

// NewAuthService creates a new authentication service.
func NewAuthService(s Store, tokens *auth.TokenService, logger *slog.Logger, opts Options) *AuthService {
	return &AuthService{store: s, tokens: tokens, logger: logger, now: opts.now()}
}

// RegisterRequest contains open registration data.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=1024"`
	DisplayName string `json:"display_name" validate:"required,min=1,max=64"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest changes the caller's public profile. Nil fields are
// left alone.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" validate:"omitempty,min=1,max=64"`
	Bio         *string `json:"bio,omitempty" validate:"omitempty,max=2000"`
}

// AuthResponse contains an access token and the authenticated user.
type AuthResponse struct {
	User        *domain.User `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Register creates an account and signs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Email:        req.Email,
		PasswordHash: hash,
		DisplayName:  req.DisplayName,
	}
	user.ID = userID
	user.InitTimestamps(s.now())

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return nil, errors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID)
	return s.issue(user)
}

// Login verifies credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if store.IsNotFound(err) {
		return nil, errors.InvalidCredentials("invalid email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.logger.Debug("failed login", "user_id", user.ID)
		return nil, errors.InvalidCredentials("invalid email or password")
	}

	return s.issue(user)
}

func (s *AuthService) issue(user *domain.User) (*AuthResponse, error) {
	token, exp, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{User: user, AccessToken: token, TokenType: "Bearer", ExpiresAt: exp}, nil
}

// VerifyToken resolves a bearer token to its user.
func (s *AuthService) VerifyToken(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, claims.UserID)
	if store.IsNotFound(err) {
		return nil, errors.Unauthorized("account no longer exists")
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// CurrentUser returns the user with the given id.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfile changes display name and bio. A display name change is
// picked up by the search index through every novel the user wrote.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, req UpdateProfileRequest) (*domain.User, error) {
	req.DisplayName = trimPtr(req.DisplayName)
	req.Bio = trimPtr(req.Bio)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.DisplayName != nil {
		user.DisplayName = *req.DisplayName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	user.Touch(s.now())

	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}
