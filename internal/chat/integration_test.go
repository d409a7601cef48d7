package chat

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"huddle/internal/api"
	"huddle/internal/apitest"
	"huddle/internal/models"
	"huddle/internal/session"
)

func TestSynchronizerAgainstBackend(t *testing.T) {
	ctx := context.Background()
	backend := apitest.New(t)
	alice := backend.AddUser("Alice", "alice@example.com", "secret1")
	bob := backend.AddUser("Bob", "bob@example.com", "secret1")
	activity := backend.AddActivity(alice.ID, "Climbing")
	backend.AddMessage(activity.ID, bob.ID, "see you at 8")

	access, refresh := backend.IssueTokens(t, alice.ID)
	store := session.NewMemory()
	require.NoError(t, store.Save(ctx, session.Session{UserID: alice.ID, AccessToken: access, RefreshToken: refresh}))

	messages := api.NewMessageService(api.NewClient(backend.URL(), store))
	s := New(messages, Config{ActivityID: activity.ID, UserID: store.UserID(), PollInterval: 10 * time.Millisecond})
	t.Cleanup(s.Close)

	require.NoError(t, s.Load(ctx))
	require.Len(t, s.Messages(), 1)

	sent, err := s.Send(ctx, "<i>on my way</i>")
	require.NoError(t, err)
	require.Equal(t, "on my way", sent.DisplayText())

	require.NoError(t, s.Start())
	fromBob := backend.AddMessage(activity.ID, bob.ID, "bring chalk")
	require.Eventually(t, func() bool {
		view := s.Messages()
		return len(view) == 3 && view[2].ID == fromBob.ID
	}, 2*time.Second, 10*time.Millisecond)

	// A failing poll is skipped and the next one catches up.
	backend.FailNext(http.MethodGet, "/api/activities/"+itoa(activity.ID)+"/messages/since", http.StatusBadGateway, "")
	late := backend.AddMessage(activity.ID, bob.ID, "parking is full")
	require.Eventually(t, func() bool {
		view := s.Messages()
		return view[len(view)-1].ID == late.ID
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, s.Delete(ctx, sent.ID))
	for _, m := range s.Messages() {
		if m.ID == sent.ID {
			require.Equal(t, models.DeletedMessagePlaceholder, m.DisplayText())
		}
	}

	for _, req := range backend.Requests() {
		require.Equal(t, "Bearer "+access, req.Authorization)
	}

	s.Close()
	backend.ResetRequests()
	time.Sleep(40 * time.Millisecond)
	require.Empty(t, backend.Requests())
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
