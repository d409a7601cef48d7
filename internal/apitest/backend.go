// Package apitest runs an in-memory huddle backend on an httptest server. It
// implements the routes the client calls with just enough behaviour to
// exercise authentication, error envelopes and chat polling.
package apitest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"huddle/internal/models"
)

// Epoch is the server clock's starting point. Every write advances the clock
// by one second so createdAt values are distinct and ordered.
var Epoch = time.Date(2024, 10, 25, 18, 0, 0, 0, time.UTC)

// RecordedRequest is what the backend saw of one client request.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         string
	Authorization string
	UserID        string
	RequestID     string
}

type failure struct {
	method string
	path   string
	status int
	body   string
}

type account struct {
	user     models.User
	password string
}

type Backend struct {
	server *httptest.Server
	tokens *tokenIssuer

	mu            sync.Mutex
	clock         time.Time
	nextID        int64
	accounts      map[int64]*account
	refresh       map[string]int64
	activities    map[int64]*models.Activity
	participants  map[int64]*models.Participant
	messages      []models.ActivityMessage
	notifications map[int64]*models.Notification
	reviews       []models.Review
	reports       []models.Report
	photos        map[int64]*models.Photo
	categories    []models.Category
	crashReports  []models.CrashReport
	requests      []RecordedRequest
	failures      []failure
	delay         time.Duration
}

// New starts a backend that is shut down when t finishes.
func New(t testing.TB) *Backend {
	t.Helper()

	b := &Backend{
		tokens:        newTokenIssuer(time.Hour),
		clock:         Epoch,
		accounts:      make(map[int64]*account),
		refresh:       make(map[string]int64),
		activities:    make(map[int64]*models.Activity),
		participants:  make(map[int64]*models.Participant),
		notifications: make(map[int64]*models.Notification),
		photos:        make(map[int64]*models.Photo),
		categories: []models.Category{
			{ID: 1, Name: "Sports"},
			{ID: 2, Name: "Board games"},
			{ID: 3, Name: "Outdoors"},
		},
	}
	b.server = httptest.NewServer(b.routes())
	t.Cleanup(b.server.Close)
	return b
}

func (b *Backend) URL() string {
	return b.server.URL
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)
	r.Use(b.injectFailures)

	r.Route("/api", func(r chi.Router) {
		for _, prefix := range []string{"/auth", "/users"} {
			r.Post(prefix+"/login", b.login)
			r.Post(prefix+"/register", b.register)
		}
		r.Post("/auth/refresh", b.refreshTokens)
		r.Post("/crash-reports", b.createCrashReport)

		r.Group(func(r chi.Router) {
			r.Use(b.requireAuth)

			r.Post("/auth/logout", b.logout)

			r.Get("/users/{id}", b.getUser)
			r.Put("/users/{id}", b.updateUser)
			r.Delete("/users/{id}", b.deleteUser)
			r.Put("/users/{id}/push-token", b.updatePushToken)

			r.Get("/activities", b.listActivities)
			r.Post("/activities", b.createActivity)
			r.Get("/activities/{id}", b.getActivity)
			r.Put("/activities/{id}", b.updateActivity)
			r.Delete("/activities/{id}", b.deleteActivity)
			r.Get("/activities/creator/{userId}", b.listActivitiesByCreator)
			r.Get("/activities/joined/{userId}", b.listJoinedActivities)

			r.Get("/activities/{id}/messages", b.listMessages)
			r.Get("/activities/{id}/messages/since", b.listMessagesSince)
			r.Post("/activities/{id}/messages", b.sendMessage)
			r.Delete("/messages/{id}", b.deleteMessage)

			r.Post("/participants/activity/{id}/join", b.joinActivity)
			r.Delete("/participants/activity/{id}/leave", b.leaveActivity)
			r.Get("/participants/activity/{id}", b.listParticipantsForActivity)
			r.Get("/participants/user/{userId}", b.listParticipantsForUser)
			r.Put("/participants/{id}/status", b.updateParticipantStatus)

			r.Get("/notifications/user/{userId}", b.listNotifications)
			r.Get("/notifications/user/{userId}/unread-count", b.unreadCount)
			r.Put("/notifications/user/{userId}/read-all", b.markAllRead)
			r.Put("/notifications/{id}/read", b.markRead)
			r.Delete("/notifications/{id}", b.deleteNotification)

			r.Post("/reviews", b.createReview)
			r.Get("/reviews/activity/{id}", b.listReviewsForActivity)
			r.Get("/reviews/user/{userId}", b.listReviewsForUser)

			r.Post("/reports", b.createReport)

			r.Post("/photos/user/{userId}", b.uploadPhoto)
			r.Get("/photos/user/{userId}", b.listPhotos)
			r.Delete("/photos/{id}", b.deletePhoto)

			r.Get("/categories", b.listCategories)
		})
	})

	return r
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			UserID:        r.Header.Get("User-Id"),
			RequestID:     r.Header.Get("X-Request-Id"),
		})
		delay := b.delay
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		var hit *failure
		for i, f := range b.failures {
			if f.method == r.Method && f.path == r.URL.Path {
				hit = &f
				b.failures = append(b.failures[:i], b.failures[i+1:]...)
				break
			}
		}
		b.mu.Unlock()

		if hit == nil {
			next.ServeHTTP(w, r)
			return
		}
		if hit.body != "" {
			w.Header().Set("Content-Type", "application/json")
		}
		w.WriteHeader(hit.status)
		_, _ = w.Write([]byte(hit.body))
	})
}

type userIDKey struct{}

func (b *Backend) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Authorization header required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			unauthorized(w, "Invalid authorization header format")
			return
		}

		b.mu.Lock()
		tokens := b.tokens
		b.mu.Unlock()

		userID, err := tokens.validate(parts[1])
		if err != nil {
			unauthorized(w, "Invalid or expired token")
			return
		}

		if !b.HasUser(userID) {
			unauthorized(w, "Account no longer exists")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(r *http.Request) int64 {
	id, _ := r.Context().Value(userIDKey{}).(int64)
	return id
}

// actorID checks the User-Id header against the token's subject.
func actorID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	header := r.Header.Get("User-Id")
	if header == "" {
		badRequest(w, "User-Id header is required")
		return 0, false
	}
	id, err := strconv.ParseInt(header, 10, 64)
	if err != nil || id != callerID(r) {
		forbidden(w, "User-Id does not match the authenticated user")
		return 0, false
	}
	return id, true
}

func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid "+name)
		return 0, false
	}
	return id, true
}

// FailNext makes the next request for method and path answer with status and
// the raw body instead of reaching its handler.
func (b *Backend) FailNext(method, path string, status int, body string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, failure{method: method, path: path, status: status, body: body})
}

// SetDelay holds every subsequent request for d before handling it.
func (b *Backend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

func (b *Backend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// RequestsTo returns the recorded requests for one method and path.
func (b *Backend) RequestsTo(method, path string) []RecordedRequest {
	var out []RecordedRequest
	for _, req := range b.Requests() {
		if req.Method == method && req.Path == path {
			out = append(out, req)
		}
	}
	return out
}

func (b *Backend) ResetRequests() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.requests = nil
}

// tick advances the server clock. Callers hold b.mu.
func (b *Backend) tick() string {
	b.clock = b.clock.Add(time.Second)
	return models.FormatTimestamp(b.clock)
}

// newID hands out ids from one sequence shared by every resource. Callers hold
// b.mu.
func (b *Backend) newID() int64 {
	b.nextID++
	return b.nextID
}
