// Package prefs stores per-feature user preferences next to the session in
// the client's key/value storage. Each flag is independent.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"huddle/internal/db"
)

// Category groups notification types under one user-facing toggle.
type Category string

const (
	Reminders       Category = "reminders"
	ActivityUpdates Category = "activity_updates"
)

type DistanceUnit string

const (
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
)

const (
	KeyDistanceUnit = "distance_unit"
	notificationKey = "notifications."
)

var ErrUnknownCategory = errors.New("unknown notification category")

type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type Store struct {
	backend Backend
	logger  *slog.Logger
}

func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, logger: logger.With("component", "prefs")}
}

func (c Category) valid() bool {
	return c == Reminders || c == ActivityUpdates
}

func (c Category) key() string {
	return notificationKey + string(c)
}

// NotificationsEnabled reports the toggle for c. Toggles default to on, and a
// storage failure reads as on so notifications are not silently lost.
func (s *Store) NotificationsEnabled(ctx context.Context, c Category) bool {
	if !c.valid() {
		return true
	}

	value, err := s.backend.Get(ctx, c.key())
	if errors.Is(err, db.ErrNotFound) {
		return true
	}
	if err != nil {
		s.logger.Warn("reading notification preference", "category", c, "error", err)
		return true
	}

	enabled, err := strconv.ParseBool(value)
	if err != nil {
		return true
	}
	return enabled
}

func (s *Store) SetNotificationsEnabled(ctx context.Context, c Category, enabled bool) error {
	if !c.valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	if err := s.backend.Set(ctx, c.key(), strconv.FormatBool(enabled)); err != nil {
		return fmt.Errorf("saving %s preference: %w", c, err)
	}
	return nil
}

// DistanceUnit returns the stored unit, Kilometers when unset or unreadable.
func (s *Store) DistanceUnit(ctx context.Context) DistanceUnit {
	value, err := s.backend.Get(ctx, KeyDistanceUnit)
	if err != nil {
		if !errors.Is(err, db.ErrNotFound) {
			s.logger.Warn("reading distance unit", "error", err)
		}
		return Kilometers
	}
	if unit, ok := ParseDistanceUnit(value); ok {
		return unit
	}
	return Kilometers
}

func (s *Store) SetDistanceUnit(ctx context.Context, unit DistanceUnit) error {
	if _, ok := ParseDistanceUnit(string(unit)); !ok {
		return fmt.Errorf("distance unit must be km or mi, got %q", unit)
	}
	if err := s.backend.Set(ctx, KeyDistanceUnit, string(unit)); err != nil {
		return fmt.Errorf("saving distance unit: %w", err)
	}
	return nil
}

func ParseDistanceUnit(s string) (DistanceUnit, bool) {
	switch DistanceUnit(s) {
	case Kilometers, Miles:
		return DistanceUnit(s), true
	}
	return "", false
}
