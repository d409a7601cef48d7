package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"huddle/internal/account"
	"huddle/internal/chat"
	"huddle/internal/constants"
	"huddle/internal/models"
	"huddle/internal/photo"
	"huddle/internal/prefs"
	"huddle/internal/push"
	"huddle/internal/session"
)

var errUsage = errors.New("usage")

func (a *app) run(ctx context.Context, name string, args []string) error {
	commands := map[string]func(context.Context, []string) error{
		"register":       a.register,
		"login":          a.login,
		"logout":         a.logout,
		"refresh":        a.refresh,
		"whoami":         a.whoami,
		"delete-account": a.deleteAccount,
		"categories":     a.categories,
		"activities":     a.activities,
		"create":         a.createActivity,
		"join":           a.join,
		"leave":          a.leave,
		"participants":   a.participants,
		"chat":           a.chat,
		"send":           a.send,
		"notifications":  a.notifications,
		"prefs":          a.preferences,
		"review":         a.review,
		"report":         a.report,
		"photos":         a.photos,
		"upload-photo":   a.uploadPhoto,
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n", name)
		usage()
		return errUsage
	}
	return cmd(ctx, args)
}

func newFlagSet(name string) *flag.FlagSet {
	return flag.NewFlagSet(name, flag.ContinueOnError)
}

func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	return nil
}

// requireSession returns the stored session or account.ErrNotLoggedIn.
func (a *app) requireSession() (session.Session, error) {
	s, ok := a.store.Current()
	if !ok {
		return session.Session{}, account.ErrNotLoggedIn
	}
	return s, nil
}

// password reads the password flag, falling back to HUDDLE_PASSWORD so it
// can be kept out of shell history.
func password(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv("HUDDLE_PASSWORD")
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := newFlagSet("register")
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email address")
	pass := fs.String("password", "", "password (or HUDDLE_PASSWORD)")
	city := fs.String("city", "", "home city")
	if err := parse(fs, args); err != nil {
		return err
	}

	s, err := a.account.Register(ctx, models.RegisterRequest{
		FullName: *name,
		Email:    *email,
		Password: password(*pass),
		City:     *city,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Registered and signed in as %s (user %d)\n", s.Email, s.UserID)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := newFlagSet("login")
	email := fs.String("email", "", "email address")
	pass := fs.String("password", "", "password (or HUDDLE_PASSWORD)")
	retry := fs.Bool("retry", false, "retry on network and server errors")
	if err := parse(fs, args); err != nil {
		return err
	}

	login := a.account.Login
	if *retry {
		login = a.account.LoginWithRetry
	}
	s, err := login(ctx, *email, password(*pass))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Signed in as %s (user %d)\n", s.Email, s.UserID)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.account.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Signed out")
	return nil
}

func (a *app) refresh(ctx context.Context, _ []string) error {
	s, err := a.account.Refresh(ctx)
	if err != nil {
		return err
	}
	if exp, ok := session.TokenExpiry(s.AccessToken); ok {
		fmt.Fprintf(a.out, "Token renewed, valid until %s\n", exp.Local().Format("Jan 02 15:04"))
		return nil
	}
	fmt.Fprintln(a.out, "Token renewed")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	user, err := a.services.Users.Get(ctx, s.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s <%s> (user %d)\n", user.FullName, s.Email, s.UserID)
	if user.City != "" {
		fmt.Fprintf(a.out, "City: %s\n", user.City)
	}
	if exp, ok := session.TokenExpiry(s.AccessToken); ok {
		fmt.Fprintf(a.out, "Token expires: %s\n", exp.Local().Format("Jan 02 15:04"))
	}
	return nil
}

func (a *app) deleteAccount(ctx context.Context, args []string) error {
	fs := newFlagSet("delete-account")
	confirm := fs.Bool("yes", false, "confirm deletion")
	if err := parse(fs, args); err != nil {
		return err
	}
	if !*confirm {
		fmt.Fprintln(os.Stderr, "refusing to delete the account without -yes")
		return errUsage
	}

	if err := a.account.DeleteAccount(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Account deleted")
	return nil
}

func (a *app) categories(ctx context.Context, _ []string) error {
	categories, err := a.services.Categories.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range categories {
		fmt.Fprintf(a.out, "%d\t%s\n", c.ID, c.Name)
	}
	return nil
}

func (a *app) activities(ctx context.Context, args []string) error {
	fs := newFlagSet("activities")
	category := fs.Int64("category", 0, "category id")
	mine := fs.Bool("mine", false, "only activities I created")
	joined := fs.Bool("joined", false, "only activities I joined")
	lat := fs.Float64("lat", 0, "latitude")
	lng := fs.Float64("lng", 0, "longitude")
	radius := fs.Float64("radius", 0, "search radius, in the preferred distance unit")
	if err := parse(fs, args); err != nil {
		return err
	}

	var (
		list []models.Activity
		err  error
	)
	switch {
	case *mine || *joined:
		s, serr := a.requireSession()
		if serr != nil {
			return serr
		}
		if *mine {
			list, err = a.services.Activities.ListByCreator(ctx, s.UserID)
		} else {
			list, err = a.services.Activities.ListJoined(ctx, s.UserID)
		}
	default:
		radiusKm := *radius
		if a.prefs.DistanceUnit(ctx) == prefs.Miles {
			radiusKm *= 1.609344
		}
		list, err = a.services.Activities.List(ctx, models.ActivityFilter{
			CategoryID: *category,
			Latitude:   *lat,
			Longitude:  *lng,
			RadiusKm:   radiusKm,
		})
	}
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDATE\tTIME\tSPOTS\tLOCATION")
	for i := range list {
		act := &list[i]
		date, _ := act.DisplayDate()
		clock, _ := act.DisplayTime()
		spots := strconv.Itoa(act.AvailableSpots)
		if act.IsFull() {
			spots = "full"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", act.ID, models.SanitizeDisplay(act.Title), date, clock, spots, act.Location)
	}
	return w.Flush()
}

func (a *app) createActivity(ctx context.Context, args []string) error {
	fs := newFlagSet("create")
	title := fs.String("title", "", "title")
	description := fs.String("description", "", "description")
	location := fs.String("location", "", "location")
	category := fs.Int64("category", 0, "category id")
	capacity := fs.Int("max", 0, "maximum participants")
	when := fs.String("at", "", "start, as 2006-01-02T15:04:05")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	act, err := a.services.Activities.Create(ctx, s.UserID, models.ActivityRequest{
		Title:           *title,
		Description:     *description,
		Location:        *location,
		CategoryID:      *category,
		MaxParticipants: *capacity,
		DateTime:        *when,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created activity %d\n", act.ID)
	return nil
}

func activityFlag(name string, args []string) (int64, error) {
	fs := newFlagSet(name)
	id := fs.Int64("activity", 0, "activity id")
	if err := parse(fs, args); err != nil {
		return 0, err
	}
	if *id <= 0 {
		fmt.Fprintln(os.Stderr, "-activity is required")
		return 0, errUsage
	}
	return *id, nil
}

func (a *app) join(ctx context.Context, args []string) error {
	activityID, err := activityFlag("join", args)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	p, err := a.services.Participants.Join(ctx, activityID, s.UserID)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Request sent for %q, status %s\n", p.ActivityTitle(), p.Status)
	return nil
}

func (a *app) leave(ctx context.Context, args []string) error {
	activityID, err := activityFlag("leave", args)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	if err := a.services.Participants.Leave(ctx, activityID, s.UserID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Left activity")
	return nil
}

func (a *app) participants(ctx context.Context, args []string) error {
	activityID, err := activityFlag("participants", args)
	if err != nil {
		return err
	}

	list, err := a.services.Participants.ListForActivity(ctx, activityID)
	if err != nil {
		return err
	}
	for i := range list {
		p := &list[i]
		marker := ""
		if p.Status.Awaiting() {
			marker = " (awaiting host)"
		}
		fmt.Fprintf(a.out, "%d\t%s\t%s%s\n", p.ID, p.UserName(), p.Status, marker)
	}
	return nil
}

func (a *app) chat(ctx context.Context, args []string) error {
	activityID, err := activityFlag("chat", args)
	if err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	conv := chat.New(a.services.Messages, chat.Config{
		ActivityID:   activityID,
		UserID:       s.UserID,
		PollInterval: a.cfg.Chat.PollInterval,
		Logger:       a.logger,
	})
	defer conv.Close()

	var (
		mu      sync.Mutex
		printed int
	)
	conv.OnChange(func(view []models.ActivityMessage) {
		mu.Lock()
		defer mu.Unlock()
		// Delete reloads the whole view, so anything shorter is a fresh page.
		if len(view) < printed {
			printed = 0
		}
		for _, m := range view[printed:] {
			printMessage(a.out, &m)
		}
		printed = len(view)
	})

	if err := conv.Load(ctx); err != nil {
		return err
	}
	if err := conv.Start(); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func printMessage(w io.Writer, m *models.ActivityMessage) {
	stamp := m.CreatedAt
	if t, ok := m.CreatedTime(); ok {
		stamp = t.Format("Jan 02 " + models.DisplayTimeLayout)
	}
	fmt.Fprintf(w, "[%s] %s: %s\n", stamp, m.SenderName, m.DisplayText())
}

func (a *app) send(ctx context.Context, args []string) error {
	fs := newFlagSet("send")
	activityID := fs.Int64("activity", 0, "activity id")
	text := fs.String("text", "", "message text")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	m, err := a.services.Messages.Send(ctx, s.UserID, *activityID, models.SendMessageRequest{Text: strings.TrimSpace(*text)})
	if err != nil {
		return err
	}
	printMessage(a.out, m)
	return nil
}

func (a *app) notifications(ctx context.Context, args []string) error {
	fs := newFlagSet("notifications")
	all := fs.Bool("all", false, "include types switched off in preferences")
	markRead := fs.Bool("mark-read", false, "mark everything as read afterwards")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	list, err := a.services.Notifications.ListForUser(ctx, s.UserID)
	if err != nil {
		return err
	}
	if !*all {
		list = push.FilterVisible(ctx, a.prefs, list)
	}
	unread, err := a.services.Notifications.UnreadCount(ctx, s.UserID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%d unread\n", unread)
	for i := range list {
		n := &list[i]
		mark := " "
		if !n.IsRead {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s: %s\n", mark, models.SanitizeDisplay(n.Title), n.DisplayBody())
	}

	if *markRead {
		return a.services.Notifications.MarkAllRead(ctx, s.UserID)
	}
	return nil
}

// preferences prints every preference, or sets one: "prefs reminders off",
// "prefs distance mi".
func (a *app) preferences(ctx context.Context, args []string) error {
	switch len(args) {
	case 0:
		fmt.Fprintf(a.out, "reminders\t%s\n", onOff(a.prefs.NotificationsEnabled(ctx, prefs.Reminders)))
		fmt.Fprintf(a.out, "activity_updates\t%s\n", onOff(a.prefs.NotificationsEnabled(ctx, prefs.ActivityUpdates)))
		fmt.Fprintf(a.out, "distance\t%s\n", a.prefs.DistanceUnit(ctx))
		return nil
	case 2:
	default:
		fmt.Fprintln(os.Stderr, "usage: huddle prefs [reminders|activity_updates on|off] [distance km|mi]")
		return errUsage
	}

	key, value := args[0], args[1]
	if key == "distance" {
		return a.prefs.SetDistanceUnit(ctx, prefs.DistanceUnit(value))
	}
	var enabled bool
	switch strings.ToLower(value) {
	case "on", "true":
		enabled = true
	case "off", "false":
	default:
		return fmt.Errorf("value must be on or off, got %q", value)
	}
	return a.prefs.SetNotificationsEnabled(ctx, prefs.Category(key), enabled)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func (a *app) review(ctx context.Context, args []string) error {
	fs := newFlagSet("review")
	activityID := fs.Int64("activity", 0, "activity id")
	user := fs.Int64("user", 0, "user being reviewed")
	rating := fs.Int("rating", 0, "rating from 1 to 5")
	comment := fs.String("comment", "", "comment")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	_, err = a.services.Reviews.Create(ctx, s.UserID, models.CreateReviewRequest{
		ActivityID: *activityID,
		RevieweeID: *user,
		Rating:     *rating,
		Comment:    *comment,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Review posted")
	return nil
}

func (a *app) report(ctx context.Context, args []string) error {
	fs := newFlagSet("report")
	activityID := fs.Int64("activity", 0, "activity to report")
	messageID := fs.Int64("message", 0, "message to report")
	userID := fs.Int64("user", 0, "user to report")
	reason := fs.String("reason", "", "reason")
	description := fs.String("description", "", "details")
	if err := parse(fs, args); err != nil {
		return err
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	var r models.Report
	switch {
	case *activityID > 0 && *messageID == 0 && *userID == 0:
		r = models.ReportForActivity(*activityID, *reason)
	case *messageID > 0 && *activityID == 0 && *userID == 0:
		r = models.ReportForMessage(*messageID, *reason)
	case *userID > 0 && *activityID == 0 && *messageID == 0:
		r = models.ReportForUser(*userID, *reason)
	default:
		fmt.Fprintln(os.Stderr, "give exactly one of -activity, -message, -user")
		return errUsage
	}
	r.Description = *description

	receipt, err := a.services.Reports.Create(ctx, s.UserID, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Report %d filed\n", receipt.ID)
	return nil
}

func (a *app) photos(ctx context.Context, _ []string) error {
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	list, err := a.services.Photos.ListForUser(ctx, s.UserID)
	if err != nil {
		return err
	}
	for _, p := range list {
		fmt.Fprintf(a.out, "%d\t%s\n", p.ID, p.URL)
	}
	return nil
}

func (a *app) uploadPhoto(ctx context.Context, args []string) error {
	fs := newFlagSet("upload-photo")
	path := fs.String("file", "", "image to upload")
	if err := parse(fs, args); err != nil {
		return err
	}
	if *path == "" {
		fmt.Fprintln(os.Stderr, "-file is required")
		return errUsage
	}
	s, err := a.requireSession()
	if err != nil {
		return err
	}

	f, err := os.Open(*path)
	if err != nil {
		return fmt.Errorf("opening photo: %w", err)
	}
	defer f.Close()

	prepared, err := photo.Prepare(filepath.Base(*path), f, photo.Options{MaxBytes: constants.DefaultUploadMaxBytes})
	if err != nil {
		return err
	}
	a.logger.Debug("photo prepared", "name", prepared.FileName, "mime", prepared.MimeType, "width", prepared.Width, "height", prepared.Height, "bytes", len(prepared.Data))

	uploaded, err := a.services.Photos.Upload(ctx, s.UserID, prepared.FileName, bytes.NewReader(prepared.Data))
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Uploaded photo %d: %s\n", uploaded.ID, uploaded.URL)
	return nil
}
