package api

import (
	"context"
	"fmt"
	"net/http"

	"huddle/internal/models"
)

type AuthAPI interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	LoginLegacy(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	RegisterLegacy(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error)
	Logout(ctx context.Context, refreshToken string) error
}

const (
	pathLogin          = "/api/auth/login"
	pathLoginLegacy    = "/api/users/login"
	pathRegister       = "/api/auth/register"
	pathRegisterLegacy = "/api/users/register"
	pathRefresh        = "/api/auth/refresh"
	pathLogout         = "/api/auth/logout"
)

type AuthService struct {
	client *Client
}

func NewAuthService(client *Client) *AuthService {
	return &AuthService{client: client}
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return s.issue(ctx, pathLogin, req)
}

// LoginLegacy is Login against the older /api/users path.
func (s *AuthService) LoginLegacy(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return s.issue(ctx, pathLoginLegacy, req)
}

func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return s.issue(ctx, pathRegister, req)
}

func (s *AuthService) RegisterLegacy(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return s.issue(ctx, pathRegisterLegacy, req)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.AuthResponse, error) {
	return s.issue(ctx, pathRefresh, models.RefreshRequest{RefreshToken: refreshToken})
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	var body any
	if refreshToken != "" {
		body = models.RefreshRequest{RefreshToken: refreshToken}
	}
	return s.client.do(ctx, request{method: http.MethodPost, path: pathLogout, body: body}, nil)
}

// issue posts to a token-issuing endpoint. A 2xx without a token or a user id
// is a failure: the caller could not build a session from it.
func (s *AuthService) issue(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := s.client.do(ctx, request{method: http.MethodPost, path: path, body: body}, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" || resp.UserID <= 0 {
		return nil, fmt.Errorf("POST %s: %w: missing token or user id", path, ErrInvalidResponse)
	}
	return &resp, nil
}
