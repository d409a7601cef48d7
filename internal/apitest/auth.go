package apitest

import (
	"net/http"
	"strings"
	"time"

	"huddle/internal/models"
)

type authResponse struct {
	UserID       int64        `json:"userId"`
	Email        string       `json:"email"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// legacyAuthResponse is what the /api/users endpoints return: the same
// credentials under older member names, with the id only in the nested user.
type legacyAuthResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

func isLegacy(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/users/")
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	var found *account
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) && acc.password == req.Password {
			found = acc
			break
		}
	}
	b.mu.Unlock()

	if found == nil {
		writeError(w, http.StatusUnauthorized, ErrCodeInvalidCredentials, "Invalid email or password")
		return
	}
	b.writeAuth(w, r, http.StatusOK, found.user)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		badRequest(w, "fullName, email and password are required")
		return
	}

	b.mu.Lock()
	for _, acc := range b.accounts {
		if strings.EqualFold(acc.user.Email, req.Email) {
			b.mu.Unlock()
			conflict(w, "Email is already registered")
			return
		}
	}
	u := models.User{
		ID:        b.newID(),
		FullName:  req.FullName,
		Email:     req.Email,
		Age:       req.Age,
		City:      req.City,
		CreatedAt: b.tick(),
	}
	b.accounts[u.ID] = &account{user: u, password: req.Password}
	b.mu.Unlock()

	b.writeAuth(w, r, http.StatusCreated, u)
}

func (b *Backend) refreshTokens(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		badRequest(w, err.Error())
		return
	}

	b.mu.Lock()
	userID, ok := b.refresh[req.RefreshToken]
	delete(b.refresh, req.RefreshToken)
	acc := b.accounts[userID]
	b.mu.Unlock()

	if !ok || acc == nil {
		unauthorized(w, "Invalid or expired refresh token")
		return
	}
	b.writeAuth(w, r, http.StatusOK, acc.user)
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request) {
	var req models.RefreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r.Body, &req); err != nil {
			badRequest(w, err.Error())
			return
		}
	}

	b.mu.Lock()
	delete(b.refresh, req.RefreshToken)
	b.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) writeAuth(w http.ResponseWriter, r *http.Request, status int, u models.User) {
	b.mu.Lock()
	access, refresh, err := b.tokens.issue(u.ID, time.Now())
	if err == nil {
		b.refresh[refresh] = u.ID
	}
	b.mu.Unlock()

	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
		return
	}

	if isLegacy(r) {
		writeJSON(w, status, legacyAuthResponse{Token: access, RefreshToken: refresh, User: &u})
		return
	}
	writeJSON(w, status, authResponse{
		UserID:       u.ID,
		Email:        u.Email,
		AccessToken:  access,
		RefreshToken: refresh,
		User:         &u,
	})
}
