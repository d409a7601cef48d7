// Package push decides which notifications are shown. Inbound push messages
// and the in-app notification list go through the same type table so a toggle
// hides a type in both places.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"huddle/internal/models"
	"huddle/internal/prefs"
)

// typeCategories maps known notification types to their toggle. Types not
// listed here are always shown.
var typeCategories = map[string]prefs.Category{
	"ACTIVITY_REMINDER": prefs.Reminders,
	"EVENT_REMINDER":    prefs.Reminders,
	"REVIEW_REMINDER":   prefs.Reminders,

	"JOIN_REQUEST":       prefs.ActivityUpdates,
	"REQUEST_ACCEPTED":   prefs.ActivityUpdates,
	"REQUEST_DECLINED":   prefs.ActivityUpdates,
	"PARTICIPANT_JOINED": prefs.ActivityUpdates,
	"PARTICIPANT_LEFT":   prefs.ActivityUpdates,
	"ACTIVITY_UPDATED":   prefs.ActivityUpdates,
	"ACTIVITY_CANCELLED": prefs.ActivityUpdates,
	"NEW_MESSAGE":        prefs.ActivityUpdates,
	"NEW_REVIEW":         prefs.ActivityUpdates,
}

// CategoryOf returns the toggle governing a notification type. Matching is
// case-insensitive.
func CategoryOf(kind string) (prefs.Category, bool) {
	c, ok := typeCategories[strings.ToUpper(strings.TrimSpace(kind))]
	return c, ok
}

// Toggles is the read side of the preference store.
type Toggles interface {
	NotificationsEnabled(ctx context.Context, c prefs.Category) bool
}

// ShouldDisplay reports whether a notification of kind may be shown. Unknown
// types display regardless of toggles.
func ShouldDisplay(ctx context.Context, toggles Toggles, kind string) bool {
	c, ok := CategoryOf(kind)
	if !ok {
		return true
	}
	return toggles.NotificationsEnabled(ctx, c)
}

// FilterVisible drops notifications whose category is switched off. Order is
// preserved.
func FilterVisible(ctx context.Context, toggles Toggles, notifications []models.Notification) []models.Notification {
	out := make([]models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if ShouldDisplay(ctx, toggles, n.Type) {
			out = append(out, n)
		}
	}
	return out
}

var ErrMissingType = errors.New("push payload has no type")

// Message is an inbound push payload. Data payloads carry every value as a
// string, so ids are accepted as strings or numbers.
type Message struct {
	Type           string
	Title          string
	Body           string
	ActivityID     *int64
	ParticipantID  *int64
	NotificationID *int64
}

func Decode(data []byte) (*Message, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding push payload: %w", err)
	}

	m := &Message{
		Type:  rawString(raw["type"]),
		Title: rawString(raw["title"]),
		Body:  rawString(raw["body"]),
	}
	if m.Type == "" {
		return nil, ErrMissingType
	}

	var err error
	if m.ActivityID, err = rawID(raw, "activityId"); err != nil {
		return nil, err
	}
	if m.ParticipantID, err = rawID(raw, "participantId"); err != nil {
		return nil, err
	}
	if m.NotificationID, err = rawID(raw, "notificationId"); err != nil {
		return nil, err
	}
	return m, nil
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func rawID(raw map[string]json.RawMessage, key string) (*int64, error) {
	value, ok := raw[key]
	if !ok || string(value) == "null" {
		return nil, nil
	}

	text := strings.Trim(strings.TrimSpace(string(value)), `"`)
	if text == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("push payload %s: %w", key, err)
	}
	return &id, nil
}
