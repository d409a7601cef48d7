package account

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huddle/internal/api"
	"huddle/internal/apitest"
	"huddle/internal/db"
	"huddle/internal/models"
	"huddle/internal/session"
)

type fixture struct {
	backend *apitest.Backend
	store   *session.Persistent
	kv      *db.KVStore
	svc     *api.Services
	user    models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "huddle.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	kv := db.NewKVStore(database)
	store, err := session.Open(context.Background(), kv)
	require.NoError(t, err)

	backend := apitest.New(t)
	user := backend.AddUser("Alice Smith", "alice@example.com", "secret1")
	client := api.NewClient(backend.URL(), store)
	return &fixture{backend: backend, store: store, kv: kv, svc: api.NewServices(client), user: user}
}

func (f *fixture) service(cfg Config) *Service {
	if cfg.RetryBase == 0 {
		cfg.RetryBase = time.Millisecond
	}
	return New(f.svc.Auth, f.svc.Users, f.store, cfg)
}

func TestLoginStoresSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	sess, err := f.service(Config{}).Login(ctx, "  Alice@Example.com ", "secret1")
	require.NoError(t, err)
	require.Equal(t, f.user.ID, sess.UserID)
	require.Equal(t, "alice@example.com", sess.Email)

	current, ok := f.store.Current()
	require.True(t, ok)
	require.Equal(t, sess, current)

	// The stored session survives a restart.
	reopened, err := session.Open(ctx, f.kv)
	require.NoError(t, err)
	require.Equal(t, sess.AccessToken, reopened.AccessToken())

	// And authenticates subsequent calls.
	me, err := f.svc.Users.Get(ctx, sess.UserID)
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", me.FullName)
}

func TestLegacyAndCurrentLoginProduceSameSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	current, err := f.service(Config{}).Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	legacy, err := f.service(Config{LegacyAuthPaths: true}).Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.Equal(t, current.UserID, legacy.UserID)
	require.Equal(t, current.Email, legacy.Email)
	require.NotEmpty(t, legacy.RefreshToken)
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/users/login"), 1)
}

func TestLoginFailureLeavesSessionUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	_, err := svc.Login(ctx, "alice@example.com", "wrong-password")
	require.Error(t, err)
	require.Equal(t, "Invalid email or password", api.Message(err))
	require.False(t, f.store.IsLoggedIn())

	_, err = svc.Login(ctx, "not-an-email", "secret1")
	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/auth/login"), 1, "invalid input must not reach the backend")
}

func TestLoginWithRetry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{MaxRetries: 3})

	f.backend.FailNext(http.MethodPost, "/api/auth/login", http.StatusServiceUnavailable, `{"message":"maintenance"}`)
	f.backend.FailNext(http.MethodPost, "/api/auth/login", http.StatusBadGateway, "")

	sess, err := svc.LoginWithRetry(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)
	require.Equal(t, f.user.ID, sess.UserID)
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/auth/login"), 3)
}

func TestLoginWithRetryDoesNotRetryClientErrors(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Config{MaxRetries: 3})

	_, err := svc.LoginWithRetry(context.Background(), "alice@example.com", "wrong-password")
	require.True(t, api.IsUnauthorized(err))
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/auth/login"), 1)
}

func TestLoginWithRetryGivesUp(t *testing.T) {
	f := newFixture(t)
	svc := f.service(Config{MaxRetries: 2})

	for range 3 {
		f.backend.FailNext(http.MethodPost, "/api/auth/login", http.StatusInternalServerError, "")
	}
	_, err := svc.LoginWithRetry(context.Background(), "alice@example.com", "secret1")
	require.True(t, api.IsServerError(err))
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/auth/login"), 3)
	require.False(t, f.store.IsLoggedIn())
}

func TestRegister(t *testing.T) {
	f := newFixture(t)

	sess, err := f.service(Config{}).Register(context.Background(), models.RegisterRequest{
		FullName: " Bob Jones ",
		Email:    "Bob@Example.com",
		Password: "password1",
	})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", sess.Email)
	require.True(t, f.store.IsLoggedIn())
}

func TestRefreshRotatesStoredTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	before, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	after, err := svc.Refresh(ctx)
	require.NoError(t, err)
	require.Equal(t, before.UserID, after.UserID)
	require.NotEqual(t, before.RefreshToken, after.RefreshToken)
	require.Equal(t, after.RefreshToken, f.store.RefreshToken())
}

func TestRefreshRejectedEndsSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	_, err := svc.Refresh(ctx)
	require.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, f.store.Save(ctx, session.Session{UserID: f.user.ID, AccessToken: "a", RefreshToken: "unknown"}))
	_, err = svc.Refresh(ctx)
	require.True(t, api.IsUnauthorized(err))
	require.False(t, f.store.IsLoggedIn())
}

func TestLogoutAlwaysClears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	_, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	f.backend.FailNext(http.MethodPost, "/api/auth/logout", http.StatusInternalServerError, "")
	require.NoError(t, svc.Logout(ctx))
	require.False(t, f.store.IsLoggedIn())

	reqs := f.backend.RequestsTo(http.MethodPost, "/api/auth/logout")
	require.Len(t, reqs, 1)
	require.NotEmpty(t, reqs[0].Authorization)

	// Logging out twice is harmless and does not call the backend again.
	require.NoError(t, svc.Logout(ctx))
	require.Len(t, f.backend.RequestsTo(http.MethodPost, "/api/auth/logout"), 1)
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	require.ErrorIs(t, svc.DeleteAccount(ctx), ErrNotLoggedIn)

	_, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	f.backend.FailNext(http.MethodDelete, "/api/users/"+strconv.FormatInt(f.user.ID, 10), http.StatusInternalServerError, "")
	require.Error(t, svc.DeleteAccount(ctx))
	require.True(t, f.store.IsLoggedIn(), "failed delete must keep the session")

	require.NoError(t, svc.DeleteAccount(ctx))
	require.False(t, f.store.IsLoggedIn())
	require.False(t, f.backend.HasUser(f.user.ID))
}

func TestHandleUnauthorized(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := f.service(Config{})

	_, err := svc.Login(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	require.False(t, svc.HandleUnauthorized(ctx, errors.New("boom")))
	require.False(t, svc.HandleUnauthorized(ctx, &api.Error{Status: http.StatusForbidden}))
	require.True(t, f.store.IsLoggedIn())

	f.backend.RevokeAccessTokens()
	_, err = f.svc.Categories.List(ctx)
	require.True(t, svc.HandleUnauthorized(ctx, err))
	require.False(t, f.store.IsLoggedIn())

	// Next request goes out without a token.
	f.backend.ResetRequests()
	_, _ = f.svc.Categories.List(ctx)
	require.Empty(t, f.backend.Requests()[0].Authorization)
}
