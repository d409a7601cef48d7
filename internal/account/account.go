// Package account runs the flows that create and destroy a session: login,
// registration, token refresh, logout and account deletion.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"huddle/internal/api"
	"huddle/internal/models"
	"huddle/internal/session"
)

var ErrNotLoggedIn = errors.New("not logged in")

type Config struct {
	// LegacyAuthPaths sends login and register to /api/users.
	LegacyAuthPaths bool
	RetryBase       time.Duration
	MaxRetries      uint64
	Logger          *slog.Logger
}

type Service struct {
	auth   api.AuthAPI
	users  api.UsersAPI
	store  session.Store
	legacy bool
	logger *slog.Logger

	retryBase  time.Duration
	maxRetries uint64
}

func New(auth api.AuthAPI, users api.UsersAPI, store session.Store, cfg Config) *Service {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = 500 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	return &Service{
		auth:       auth,
		users:      users,
		store:      store,
		legacy:     cfg.LegacyAuthPaths,
		logger:     cfg.Logger.With("component", "account"),
		retryBase:  cfg.RetryBase,
		maxRetries: cfg.MaxRetries,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login authenticates and stores the resulting session.
func (s *Service) Login(ctx context.Context, email, password string) (session.Session, error) {
	req := models.LoginRequest{Email: normalizeEmail(email), Password: password}

	login := s.auth.Login
	if s.legacy {
		login = s.auth.LoginLegacy
	}
	resp, err := login(ctx, req)
	if err != nil {
		return session.Session{}, fmt.Errorf("logging in: %w", err)
	}
	return s.save(ctx, resp, req.Email)
}

// LoginWithRetry is Login with exponential backoff for a user who asked to
// try again. Only failures that may be transient are retried: no response at
// all, or a 5xx. Wrong credentials fail at once.
func (s *Service) LoginWithRetry(ctx context.Context, email, password string) (session.Session, error) {
	backoff := retry.WithMaxRetries(s.maxRetries, retry.WithJitterPercent(10, retry.NewExponential(s.retryBase)))

	var sess session.Session
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		var err error
		sess, err = s.Login(ctx, email, password)
		if err != nil && (api.IsTransport(err) || api.IsServerError(err)) {
			s.logger.Debug("login attempt failed, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return err
	})
	if err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (session.Session, error) {
	req.Email = normalizeEmail(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)

	register := s.auth.Register
	if s.legacy {
		register = s.auth.RegisterLegacy
	}
	resp, err := register(ctx, req)
	if err != nil {
		return session.Session{}, fmt.Errorf("registering: %w", err)
	}
	return s.save(ctx, resp, req.Email)
}

// Refresh trades the stored refresh token for a new pair. A rejected refresh
// token ends the session.
func (s *Service) Refresh(ctx context.Context) (session.Session, error) {
	current, ok := s.store.Current()
	if !ok || current.RefreshToken == "" {
		return session.Session{}, ErrNotLoggedIn
	}

	resp, err := s.auth.Refresh(ctx, current.RefreshToken)
	if err != nil {
		s.HandleUnauthorized(ctx, err)
		return session.Session{}, fmt.Errorf("refreshing session: %w", err)
	}
	if resp.RefreshToken == "" {
		resp.RefreshToken = current.RefreshToken
	}
	return s.save(ctx, resp, current.Email)
}

// Logout tells the backend and clears the local session. The local session is
// cleared even when the backend cannot be reached.
func (s *Service) Logout(ctx context.Context) error {
	if s.store.IsLoggedIn() {
		if err := s.auth.Logout(ctx, s.store.RefreshToken()); err != nil {
			s.logger.Warn("server logout failed", "error", err)
		}
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// DeleteAccount removes the signed-in user on the backend, then clears the
// session. A failed delete leaves the session in place.
func (s *Service) DeleteAccount(ctx context.Context) error {
	userID := s.store.UserID()
	if userID <= 0 {
		return ErrNotLoggedIn
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		return fmt.Errorf("deleting account: %w", err)
	}
	if err := s.store.Clear(ctx); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

// HandleUnauthorized clears the session when err is a 401 and reports whether
// the user has to sign in again.
func (s *Service) HandleUnauthorized(ctx context.Context, err error) bool {
	if !api.IsUnauthorized(err) {
		return false
	}
	if clearErr := s.store.Clear(ctx); clearErr != nil {
		s.logger.Error("clearing session after 401", "error", clearErr)
	}
	s.logger.Info("session ended by server")
	return true
}

func (s *Service) save(ctx context.Context, resp *models.AuthResponse, fallbackEmail string) (session.Session, error) {
	sess := session.Session{
		UserID:       resp.UserID,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Email:        resp.Email,
	}
	if sess.Email == "" {
		sess.Email = fallbackEmail
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return session.Session{}, fmt.Errorf("storing session: %w", err)
	}
	s.logger.Info("session started", "user_id", sess.UserID)
	return sess, nil
}
