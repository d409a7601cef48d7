package apitest

import (
	"testing"
	"time"

	"huddle/internal/models"
)

func (b *Backend) AddUser(fullName, email, password string) models.User {
	b.mu.Lock()
	defer b.mu.Unlock()

	u := models.User{ID: b.newID(), FullName: fullName, Email: email, CreatedAt: b.tick()}
	b.accounts[u.ID] = &account{user: u, password: password}
	return u
}

// AddActivity creates an activity starting at 2024-10-25T20:15:00.
func (b *Backend) AddActivity(creatorID int64, title string) models.Activity {
	b.mu.Lock()
	defer b.mu.Unlock()

	a := &models.Activity{
		ID:              b.newID(),
		Title:           title,
		Location:        "Central Park",
		CategoryID:      1,
		CreatorID:       creatorID,
		MaxParticipants: 10,
		AvailableSpots:  10,
		Status:          "OPEN",
	}
	if acc, ok := b.accounts[creatorID]; ok {
		a.CreatorName = acc.user.FullName
	}
	a.SetDateTime("2024-10-25T20:15:00")
	b.activities[a.ID] = a
	return *a
}

func (b *Backend) AddMessage(activityID, senderID int64, text string) models.ActivityMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.appendMessage(activityID, senderID, text)
}

func (b *Backend) AddNotification(userID int64, kind, title, body string) models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := &models.Notification{
		ID:        b.newID(),
		UserID:    userID,
		Title:     title,
		Body:      body,
		Type:      kind,
		CreatedAt: b.tick(),
	}
	b.notifications[n.ID] = n
	return *n
}

// Messages returns the stored messages of an activity, soft-deleted included.
func (b *Backend) Messages(activityID int64) []models.ActivityMessage {
	b.mu.Lock()
	defer b.mu.Unlock()

	var out []models.ActivityMessage
	for _, m := range b.messages {
		if m.ActivityID == activityID {
			out = append(out, m)
		}
	}
	return out
}

func (b *Backend) Reports() []models.Report {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Report(nil), b.reports...)
}

func (b *Backend) CrashReports() []models.CrashReport {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.CrashReport(nil), b.crashReports...)
}

// HasUser reports whether the account still exists.
func (b *Backend) HasUser(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.accounts[userID]
	return ok
}

// IssueTokens mints a token pair for an existing user without a login call.
func (b *Backend) IssueTokens(t testing.TB, userID int64) (access, refresh string) {
	t.Helper()

	b.mu.Lock()
	defer b.mu.Unlock()

	access, refresh, err := b.tokens.issue(userID, time.Now())
	if err != nil {
		t.Fatalf("issuing tokens: %v", err)
	}
	b.refresh[refresh] = userID
	return access, refresh
}

// RevokeAccessTokens rotates the signing key so every outstanding access token
// is rejected with 401. Refresh tokens keep working.
func (b *Backend) RevokeAccessTokens() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = newTokenIssuer(b.tokens.accessTTL)
}

// appendMessage stores a message. Callers hold b.mu.
func (b *Backend) appendMessage(activityID, senderID int64, text string) models.ActivityMessage {
	m := models.ActivityMessage{
		ID:         b.newID(),
		ActivityID: activityID,
		SenderID:   senderID,
		Text:       text,
		CreatedAt:  b.tick(),
	}
	if acc, ok := b.accounts[senderID]; ok {
		m.SenderName = acc.user.FullName
	}
	b.messages = append(b.messages, m)
	return m
}
