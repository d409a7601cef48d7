// Package session holds the signed-in user's credentials for the lifetime of
// the process and across restarts.
package session

import (
	"context"
	"errors"
	"strconv"
)

var ErrInvalidSession = errors.New("session requires a user id and an access token")

// Session is the credential set returned by login, register and refresh.
type Session struct {
	UserID       int64
	AccessToken  string
	RefreshToken string
	Email        string
}

func (s Session) validate() error {
	if s.UserID <= 0 || s.AccessToken == "" {
		return ErrInvalidSession
	}
	return nil
}

// Store is read on every authenticated request and written by the login,
// refresh and logout flows. Implementations must publish a Save or Clear as a
// single change: readers see either the previous session or the new one.
type Store interface {
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Current() (Session, bool)
	IsLoggedIn() bool
	UserID() int64
	AccessToken() string
	RefreshToken() string
	Email() string
}

// Storage keys. The logged-in flag is written in the same commit as the four
// session fields.
const (
	KeyUserID       = "session.user_id"
	KeyAccessToken  = "session.access_token"
	KeyRefreshToken = "session.refresh_token"
	KeyEmail        = "session.email"
	KeyLoggedIn     = "session.logged_in"
)

var allKeys = []string{KeyUserID, KeyAccessToken, KeyRefreshToken, KeyEmail, KeyLoggedIn}

func encode(s Session) map[string]string {
	return map[string]string{
		KeyUserID:       strconv.FormatInt(s.UserID, 10),
		KeyAccessToken:  s.AccessToken,
		KeyRefreshToken: s.RefreshToken,
		KeyEmail:        s.Email,
		KeyLoggedIn:     "true",
	}
}

// decode rebuilds a session from stored values. Anything short of a complete
// logged-in record counts as logged out.
func decode(values map[string]string) (Session, bool) {
	if values[KeyLoggedIn] != "true" {
		return Session{}, false
	}
	userID, err := strconv.ParseInt(values[KeyUserID], 10, 64)
	if err != nil {
		return Session{}, false
	}
	s := Session{
		UserID:       userID,
		AccessToken:  values[KeyAccessToken],
		RefreshToken: values[KeyRefreshToken],
		Email:        values[KeyEmail],
	}
	if s.validate() != nil {
		return Session{}, false
	}
	return s, true
}
