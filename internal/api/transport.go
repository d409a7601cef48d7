package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"huddle/internal/constants"
)

// TokenSource yields the current access token, or "" when signed out.
// session.Store satisfies it.
type TokenSource interface {
	AccessToken() string
}

// exemptAuthPaths issue or renew tokens and must never carry a stale one.
var exemptAuthPaths = []string{
	"/api/auth/login",
	"/api/auth/register",
	"/api/auth/refresh",
	"/api/users/login",
	"/api/users/register",
}

func isExemptPath(path string) bool {
	path = strings.TrimRight(path, "/")
	for _, exempt := range exemptAuthPaths {
		if strings.HasSuffix(path, exempt) {
			return true
		}
	}
	return false
}

// AuthTransport attaches "Authorization: Bearer <token>" to every request
// except the token-issuing endpoints. It never retries, refreshes or fails on
// its own account: a missing token just means the request goes out bare.
type AuthTransport struct {
	Base   http.RoundTripper
	Tokens TokenSource
}

func (t *AuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if isExemptPath(req.URL.Path) || t.Tokens == nil {
		return t.base().RoundTrip(req)
	}

	token := t.Tokens.AccessToken()
	if token == "" {
		return t.base().RoundTrip(req)
	}

	authed := req.Clone(req.Context())
	authed.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	return t.base().RoundTrip(authed)
}

func (t *AuthTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RequestIDTransport stamps an X-Request-Id on requests that do not carry one.
type RequestIDTransport struct {
	Base http.RoundTripper
}

func (t *RequestIDTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Header.Get(constants.HeaderRequestID) != "" {
		return base.RoundTrip(req)
	}

	stamped := req.Clone(req.Context())
	stamped.Header.Set(constants.HeaderRequestID, uuid.NewString())
	return base.RoundTrip(stamped)
}
