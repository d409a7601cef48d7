package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"huddle/internal/constants"
	"huddle/internal/models"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{name: "flat_message", status: 400, body: `{"message":"Activity is full"}`, wantMessage: "Activity is full"},
		{name: "envelope", status: 409, body: `{"error":{"code":"CONFLICT","message":"Already joined"}}`, wantCode: "CONFLICT", wantMessage: "Already joined"},
		{name: "error_string", status: 404, body: `{"error":"Not Found","status":404}`, wantMessage: "Not Found"},
		{name: "detail", status: 422, body: `{"detail":"rating out of range"}`, wantMessage: "rating out of range"},
		{name: "message_wins_over_detail", status: 400, body: `{"detail":"d","message":"m"}`, wantMessage: "m"},
		{name: "blank_message_skipped", status: 400, body: `{"message":"  ","detail":"d"}`, wantMessage: "d"},
		{name: "empty_body", status: 500, body: ``},
		{name: "not_json", status: 502, body: `<html>Bad Gateway</html>`},
		{name: "unauthorized_code", status: 401, body: ``, wantCode: constants.ErrCodeUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseError(tt.status, []byte(tt.body))
			if got.Status != tt.status || got.Code != tt.wantCode || got.Message != tt.wantMessage {
				t.Fatalf("parseError() = %+v, want status %d code %q message %q", got, tt.status, tt.wantCode, tt.wantMessage)
			}
		})
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "nil", err: nil, want: ""},
		{name: "server_message", err: &Error{Status: 400, Message: "Activity is full"}, want: "Activity is full"},
		{name: "server_without_message", err: &Error{Status: 500}, want: constants.MsgRequestFailed},
		{name: "transport", err: &TransportError{Method: "GET", Path: "/x", Err: errors.New("dial tcp: refused")}, want: constants.MsgNetworkError},
		{name: "validation", err: &ValidationError{Message: "email is required"}, want: "email is required"},
		{name: "empty_response", err: ErrEmptyResponse, want: constants.MsgRequestFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Message(tt.err); got != tt.want {
				t.Fatalf("Message() = %q, want %q", got, tt.want)
			}
		})
	}
}

func newStubServer(t *testing.T, status int, body string) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return NewClient(server.URL, staticTokens("token"))
}

func TestSuccessfulStatusWithoutBodyIsAnError(t *testing.T) {
	for _, body := range []string{"", "   ", "null"} {
		client := newStubServer(t, http.StatusOK, body)

		_, err := NewActivityService(client).Get(context.Background(), 1)
		if !errors.Is(err, ErrEmptyResponse) {
			t.Fatalf("Get() with body %q error = %v, want ErrEmptyResponse", body, err)
		}
	}
}

func TestMalformedBodyIsAnError(t *testing.T) {
	client := newStubServer(t, http.StatusOK, `{"id": "not a number`)

	activity, err := NewActivityService(client).Get(context.Background(), 1)
	if err == nil {
		t.Fatalf("Get() = %+v, want decode error", activity)
	}
}

func TestVoidCallIgnoresBody(t *testing.T) {
	client := newStubServer(t, http.StatusOK, "")

	if err := NewNotificationService(client).MarkRead(context.Background(), 3); err != nil {
		t.Fatalf("MarkRead() error = %v", err)
	}
}

func TestAuthResponseWithoutTokenIsInvalid(t *testing.T) {
	client := newStubServer(t, http.StatusOK, `{"userId": 4}`)

	_, err := NewAuthService(client).Login(context.Background(), models.LoginRequest{Email: "a@example.com", Password: "secret1"})
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("Login() error = %v, want ErrInvalidResponse", err)
	}
}

func TestTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	client := NewClient(server.URL, nil)
	server.Close()

	_, err := NewCategoryService(client).List(context.Background())
	if !IsTransport(err) {
		t.Fatalf("List() error = %v, want transport error", err)
	}
	if Message(err) != constants.MsgNetworkError {
		t.Fatalf("Message() = %q", Message(err))
	}
	if IsUnauthorized(err) || IsServerError(err) {
		t.Fatal("transport error classified as an HTTP status")
	}
}

func TestStatusClassification(t *testing.T) {
	unauthorized := newStubServer(t, http.StatusUnauthorized, `{"message":"Token expired"}`)
	_, err := NewCategoryService(unauthorized).List(context.Background())
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized(%v) = false", err)
	}
	if Message(err) != "Token expired" {
		t.Fatalf("Message() = %q", Message(err))
	}

	unavailable := newStubServer(t, http.StatusServiceUnavailable, "")
	_, err = NewCategoryService(unavailable).List(context.Background())
	if !IsServerError(err) || IsUnauthorized(err) {
		t.Fatalf("classification of %v wrong", err)
	}
}
