package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"huddle/internal/apitest"
	"huddle/internal/models"
)

// tokenBox is a mutable TokenSource for tests that log in mid-way.
type tokenBox struct {
	token string
}

func (b *tokenBox) AccessToken() string { return b.token }

type fixture struct {
	backend  *apitest.Backend
	tokens   *tokenBox
	services *Services
	user     models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	backend := apitest.New(t)
	user := backend.AddUser("Alice Smith", "alice@example.com", "secret1")
	access, _ := backend.IssueTokens(t, user.ID)

	tokens := &tokenBox{token: access}
	client := NewClient(backend.URL(), tokens)
	return &fixture{backend: backend, tokens: tokens, services: NewServices(client), user: user}
}

func TestLoginPathsProduceIdenticalResults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := models.LoginRequest{Email: "alice@example.com", Password: "secret1"}

	current, err := f.services.Auth.Login(ctx, req)
	require.NoError(t, err)
	legacy, err := f.services.Auth.LoginLegacy(ctx, req)
	require.NoError(t, err)

	require.Equal(t, f.user.ID, current.UserID)
	require.Equal(t, current.UserID, legacy.UserID)
	require.Equal(t, current.Email, legacy.Email)
	require.NotEmpty(t, legacy.AccessToken)
	require.NotEmpty(t, legacy.RefreshToken)

	for _, path := range []string{"/api/auth/login", "/api/users/login"} {
		reqs := f.backend.RequestsTo(http.MethodPost, path)
		require.Len(t, reqs, 1)
		require.Empty(t, reqs[0].Authorization, "login must not carry a token")
		require.NotEmpty(t, reqs[0].RequestID)
	}
}

func TestRegisterPaths(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	resp, err := f.services.Auth.Register(ctx, models.RegisterRequest{FullName: "Bob", Email: "bob@example.com", Password: "password1"})
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", resp.Email)

	legacy, err := f.services.Auth.RegisterLegacy(ctx, models.RegisterRequest{FullName: "Carol", Email: "carol@example.com", Password: "password1"})
	require.NoError(t, err)
	require.NotZero(t, legacy.UserID)

	_, err = f.services.Auth.Register(ctx, models.RegisterRequest{FullName: "Bob", Email: "bob@example.com", Password: "password1"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusConflict, apiErr.Status)
	require.Equal(t, "Email is already registered", Message(err))
}

func TestLoginFailureSurfacesServerMessage(t *testing.T) {
	f := newFixture(t)

	_, err := f.services.Auth.Login(context.Background(), models.LoginRequest{Email: "alice@example.com", Password: "wrong-password"})
	require.True(t, IsUnauthorized(err))
	require.Equal(t, "Invalid email or password", Message(err))
}

func TestRefreshRotatesTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, refresh := f.backend.IssueTokens(t, f.user.ID)

	resp, err := f.services.Auth.Refresh(ctx, refresh)
	require.NoError(t, err)
	require.NotEqual(t, refresh, resp.RefreshToken)

	_, err = f.services.Auth.Refresh(ctx, refresh)
	require.True(t, IsUnauthorized(err), "a used refresh token must be rejected")
}

func TestValidationHappensBeforeNetwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.backend.ResetRequests()

	_, err := f.services.Auth.Login(ctx, models.LoginRequest{Email: "not-an-email", Password: "secret1"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "email", verr.Field)

	_, err = f.services.Reports.Create(ctx, f.user.ID, models.Report{Reason: "spam"})
	require.ErrorAs(t, err, &verr)
	require.Equal(t, "one_target", verr.Tag)

	both := models.ReportForActivity(1, "spam")
	both.MessageID = both.ActivityID
	_, err = f.services.Reports.Create(ctx, f.user.ID, both)
	require.ErrorAs(t, err, &verr)

	_, err = f.services.Messages.Send(ctx, f.user.ID, 1, models.SendMessageRequest{})
	require.ErrorAs(t, err, &verr)

	require.Empty(t, f.backend.Requests())
}

func TestActivities(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.services.Activities.Create(ctx, f.user.ID, models.ActivityRequest{
		Title:           "Sunset run",
		Location:        "Riverside",
		CategoryID:      1,
		MaxParticipants: 8,
		DateTime:        "2024-10-25T20:15:00",
	})
	require.NoError(t, err)
	require.Equal(t, f.user.ID, created.CreatorID)

	date, ok := created.DisplayDate()
	require.True(t, ok)
	require.Equal(t, "Oct 25, 2024", date)
	clock, _ := created.DisplayTime()
	require.Equal(t, "08:15 PM", clock)

	reqs := f.backend.RequestsTo(http.MethodPost, "/api/activities")
	require.Len(t, reqs, 1)
	require.Equal(t, pathID(f.user.ID), reqs[0].UserID)
	require.Equal(t, "Bearer "+f.tokens.token, reqs[0].Authorization)

	other := f.backend.AddActivity(f.user.ID, "Chess night")
	list, err := f.services.Activities.List(ctx, models.ActivityFilter{CategoryID: 1})
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, created.ID, list[0].ID)
	require.Equal(t, other.ID, list[1].ID)

	mine, err := f.services.Activities.ListByCreator(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	updated, err := f.services.Activities.Update(ctx, f.user.ID, created.ID, models.ActivityRequest{
		Title:           "Sunrise run",
		Location:        "Riverside",
		CategoryID:      1,
		MaxParticipants: 8,
		DateTime:        "2024-10-26T06:30:00",
	})
	require.NoError(t, err)
	clock, _ = updated.DisplayTime()
	require.Equal(t, "06:30 AM", clock)

	require.NoError(t, f.services.Activities.Delete(ctx, f.user.ID, created.ID))
	_, err = f.services.Activities.Get(ctx, created.ID)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestParticipants(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	host := f.backend.AddUser("Hank Host", "hank@example.com", "secret1")
	activity := f.backend.AddActivity(host.ID, "Board games")

	joined, err := f.services.Participants.Join(ctx, activity.ID, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, models.StatusPending, joined.Status)
	require.Equal(t, "Board games", joined.ActivityTitle())

	reqs := f.backend.RequestsTo(http.MethodPost, "/api/participants/activity/"+pathID(activity.ID)+"/join")
	require.Len(t, reqs, 1)
	require.Equal(t, "userId="+pathID(f.user.ID), reqs[0].Query)

	list, err := f.services.Participants.ListForActivity(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Alice Smith", list[0].UserName())
	require.Equal(t, f.user.ID, list[0].UserID())

	// Only the host may accept.
	_, err = f.services.Participants.UpdateStatus(ctx, f.user.ID, joined.ID, models.StatusAccepted)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusForbidden, apiErr.Status)

	_, err = f.services.Participants.UpdateStatus(ctx, f.user.ID, joined.ID, "")
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, f.services.Participants.Leave(ctx, activity.ID, f.user.ID))
	mine, err := f.services.Participants.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.Equal(t, models.StatusLeft, mine[0].Status)
}

func TestMessages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	activity := f.backend.AddActivity(f.user.ID, "Picnic")

	first := f.backend.AddMessage(activity.ID, f.user.ID, "hello")
	sent, err := f.services.Messages.Send(ctx, f.user.ID, activity.ID, models.SendMessageRequest{Text: "anyone bringing a ball?"})
	require.NoError(t, err)
	require.Equal(t, "Alice Smith", sent.SenderName)

	all, err := f.services.Messages.List(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, first.ID, all[0].ID)

	since, err := f.services.Messages.ListSince(ctx, activity.ID, first.CreatedAt)
	require.NoError(t, err)
	require.Len(t, since, 1)
	require.Equal(t, sent.ID, since[0].ID)

	require.NoError(t, f.services.Messages.Delete(ctx, f.user.ID, sent.ID))
	all, err = f.services.Messages.List(ctx, activity.ID)
	require.NoError(t, err)
	require.True(t, all[1].IsDeleted)
	require.Equal(t, models.DeletedMessagePlaceholder, all[1].DisplayText())
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	n1 := f.backend.AddNotification(f.user.ID, "ACTIVITY_REMINDER", "Soon", "Starts in 1h")
	f.backend.AddNotification(f.user.ID, "NEW_MESSAGE", "Chat", "<b>Bob</b>: hi")

	count, err := f.services.Notifications.UnreadCount(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	require.NoError(t, f.services.Notifications.MarkRead(ctx, n1.ID))
	count, err = f.services.Notifications.UnreadCount(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, 1, count)

	list, err := f.services.Notifications.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "Bob: hi", list[0].DisplayBody())

	require.NoError(t, f.services.Notifications.MarkAllRead(ctx, f.user.ID))
	require.NoError(t, f.services.Notifications.Delete(ctx, n1.ID))
	list, err = f.services.Notifications.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.True(t, list[0].IsRead)
}

func TestReviewsAndReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	host := f.backend.AddUser("Hank Host", "hank@example.com", "secret1")
	activity := f.backend.AddActivity(host.ID, "Hike")

	review, err := f.services.Reviews.Create(ctx, f.user.ID, models.CreateReviewRequest{
		ActivityID: activity.ID, RevieweeID: host.ID, Rating: 5, Comment: "Great hike",
	})
	require.NoError(t, err)
	require.Equal(t, f.user.ID, review.ReviewerID)

	byActivity, err := f.services.Reviews.ListForActivity(ctx, activity.ID)
	require.NoError(t, err)
	require.Len(t, byActivity, 1)
	byUser, err := f.services.Reviews.ListForUser(ctx, host.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	_, err = f.services.Reviews.Create(ctx, f.user.ID, models.CreateReviewRequest{ActivityID: activity.ID, Rating: 6})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	receipt, err := f.services.Reports.Create(ctx, f.user.ID, models.ReportForUser(host.ID, "harassment"))
	require.NoError(t, err)
	require.NotZero(t, receipt.ID)

	reports := f.backend.Reports()
	require.Len(t, reports, 1)
	require.NotNil(t, reports[0].ReportedUserID)
	require.Nil(t, reports[0].ActivityID)
	require.Nil(t, reports[0].MessageID)
}

func TestUsers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	bio := "Weekend climber"
	updated, err := f.services.Users.Update(ctx, f.user.ID, models.UpdateUserRequest{Bio: &bio})
	require.NoError(t, err)
	require.Equal(t, bio, updated.Bio)
	require.Equal(t, "Alice Smith", updated.FullName)

	got, err := f.services.Users.Get(ctx, f.user.ID)
	require.NoError(t, err)
	require.Equal(t, bio, got.Bio)

	require.NoError(t, f.services.Users.UpdatePushToken(ctx, f.user.ID, models.PushTokenRequest{Token: "fcm-token", Platform: "android"}))

	require.NoError(t, f.services.Users.Delete(ctx, f.user.ID))
	require.False(t, f.backend.HasUser(f.user.ID))
}

func TestPhotos(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	photo, err := f.services.Photos.Upload(ctx, f.user.ID, "/tmp/avatar.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)
	require.Equal(t, f.backend.URL()+"/uploads/avatar.jpg", photo.URL)

	photos, err := f.services.Photos.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Len(t, photos, 1)
	require.Equal(t, photo.URL, photos[0].URL)

	_, err = f.services.Photos.Upload(ctx, f.user.ID, "empty.jpg", strings.NewReader(""))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, f.services.Photos.Delete(ctx, f.user.ID, photo.ID))
	photos, err = f.services.Photos.ListForUser(ctx, f.user.ID)
	require.NoError(t, err)
	require.Empty(t, photos)
}

func TestCategoriesAndCrashReports(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	categories, err := f.services.Categories.List(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, categories)

	userID := f.user.ID
	err = f.services.CrashReports.Submit(ctx, models.CrashReport{
		AppVersion: "1.4.0",
		Platform:   "android",
		Message:    "nil pointer",
		Timestamp:  "2024-10-25T18:00:00",
		UserID:     &userID,
	})
	require.NoError(t, err)
	require.Len(t, f.backend.CrashReports(), 1)
}

func TestUnauthorizedAfterRevocation(t *testing.T) {
	f := newFixture(t)
	f.backend.RevokeAccessTokens()

	_, err := f.services.Categories.List(context.Background())
	require.True(t, IsUnauthorized(err))

	f.tokens.token = ""
	_, err = f.services.Categories.List(context.Background())
	require.True(t, IsUnauthorized(err))
	require.False(t, errors.Is(err, ErrEmptyResponse))
}
