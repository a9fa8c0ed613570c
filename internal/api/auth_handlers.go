package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/inkwell/inkwell-server/internal/domain"
	"github.com/inkwell/inkwell-server/internal/service"
)

func (s *Server) registerAuthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "register",
		Method:        http.MethodPost,
		Path:          "/api/v1/auth/register",
		Summary:       "Register new user",
		Description:   "Creates an account and returns an access token",
		Tags:          []string{"Authentication"},
		DefaultStatus: http.StatusCreated,
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/api/v1/auth/login",
		Summary:     "User login",
		Description: "Authenticates a user and returns an access token",
		Tags:        []string{"Authentication"},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/v1/auth/me",
		Summary:     "Get current user",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetCurrentUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPatch,
		Path:        "/api/v1/auth/me",
		Summary:     "Update profile",
		Description: "Changes the caller's display name or bio",
		Tags:        []string{"Authentication"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)
}

// RegisterRequest is the request body for user registration.
type RegisterRequest struct {
	Email       string `json:"email" doc:"User email address"`
	Password    string `json:"password" doc:"User password, at least 8 characters"`
	DisplayName string `json:"display_name" doc:"Public name"`
}

// RegisterInput wraps the register request for Huma.
type RegisterInput struct {
	Body RegisterRequest
}

// LoginRequest is the request body for user login.
type LoginRequest struct {
	Email    string `json:"email" doc:"User email"`
	Password string `json:"password" doc:"User password"`
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body LoginRequest
}

// AuthOutput wraps a token and its user for Huma.
type AuthOutput struct {
	Body *service.AuthResponse
}

// UpdateProfileRequest is the request body for profile changes.
type UpdateProfileRequest struct {
	DisplayName *string `json:"display_name,omitempty" doc:"New display name"`
	Bio         *string `json:"bio,omitempty" doc:"New bio"`
}

// UpdateProfileInput wraps the profile request for Huma.
type UpdateProfileInput struct {
	Authorization string `header:"Authorization"`
	Body          UpdateProfileRequest
}

// UserOutput wraps a user for Huma.
type UserOutput struct {
	Body *domain.User
}

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Register(ctx, service.RegisterRequest{
		Email:       input.Body.Email,
		Password:    input.Body.Password,
		DisplayName: input.Body.DisplayName,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	resp, err := s.services.Auth.Login(ctx, service.LoginRequest{
		Email:    input.Body.Email,
		Password: input.Body.Password,
	})
	if err != nil {
		return nil, err
	}
	return &AuthOutput{Body: resp}, nil
}

func (s *Server) handleGetCurrentUser(ctx context.Context, _ *AuthenticatedInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.CurrentUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UserOutput, error) {
	userID, err := GetUserID(ctx)
	if err != nil {
		return nil, err
	}
	user, err := s.services.Auth.UpdateProfile(ctx, userID, service.UpdateProfileRequest{
		DisplayName: input.Body.DisplayName,
		Bio:         input.Body.Bio,
	})
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: user}, nil
}
