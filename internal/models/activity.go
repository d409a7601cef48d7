package models

import (
	"net/url"
	"strconv"
)

type Activity struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	Location        string  `json:"location,omitempty"`
	Latitude        float64 `json:"latitude,omitempty"`
	Longitude       float64 `json:"longitude,omitempty"`
	CategoryID      int64   `json:"categoryId,omitempty"`
	CategoryName    string  `json:"categoryName,omitempty"`
	CreatorID       int64   `json:"creatorId"`
	CreatorName     string  `json:"creatorName,omitempty"`
	MaxParticipants int     `json:"maxParticipants,omitempty"`
	AvailableSpots  int     `json:"availableSpots"`
	Status          string  `json:"status,omitempty"`

	// DateTime is the combined ISO-8601 start time and the only source of truth
	// for the display date and time below.
	DateTime string `json:"dateTime"`

	schedule *schedule
}

// schedule caches the display strings derived from the DateTime it was
// computed from.
type schedule struct {
	source string
	date   string
	time   string
	ok     bool
}

// SetDateTime replaces the combined start time and drops the derived values.
func (a *Activity) SetDateTime(dateTime string) {
	a.DateTime = dateTime
	a.schedule = nil
}

// DisplayDate returns the start date as "Oct 25, 2024". ok is false when
// DateTime cannot be parsed.
func (a *Activity) DisplayDate() (string, bool) {
	s := a.derive()
	return s.date, s.ok
}

// DisplayTime returns the start time as "08:15 PM".
func (a *Activity) DisplayTime() (string, bool) {
	s := a.derive()
	return s.time, s.ok
}

func (a *Activity) derive() *schedule {
	if a.schedule != nil && a.schedule.source == a.DateTime {
		return a.schedule
	}
	s := &schedule{source: a.DateTime}
	if t, ok := ParseTimestamp(a.DateTime); ok {
		s.date = t.Format(DisplayDateLayout)
		s.time = t.Format(DisplayTimeLayout)
		s.ok = true
	}
	a.schedule = s
	return s
}

// IsFull reports whether the server says no spots are left.
func (a *Activity) IsFull() bool {
	return a.MaxParticipants > 0 && a.AvailableSpots <= 0
}

func (a *Activity) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&a.ID, "id", "activityId", "activity_id")
	f.str(&a.Title, "title", "name")
	f.str(&a.Description, "description")
	f.str(&a.Location, "location", "locationName", "address")
	f.float(&a.Latitude, "latitude", "lat")
	f.float(&a.Longitude, "longitude", "lng", "lon")
	f.number(&a.CategoryID, "categoryId", "category_id")
	f.str(&a.CategoryName, "categoryName", "category_name")
	f.number(&a.CreatorID, "creatorId", "creator_id", "createdBy", "userId")
	f.str(&a.CreatorName, "creatorName", "creator_name")
	f.integer(&a.MaxParticipants, "maxParticipants", "max_participants", "capacity")
	f.integer(&a.AvailableSpots, "availableSpots", "available_spots", "spotsLeft")
	f.str(&a.Status, "status")

	var dateTime string
	if !f.str(&dateTime, "dateTime", "date_time", "startDateTime", "startTime") {
		// Older payloads split the start into separate date and time members.
		var date, clock string
		if f.str(&date, "date") && f.str(&clock, "time") {
			dateTime = date + "T" + clock
		}
	}
	if f.err != nil {
		return f.err
	}
	a.SetDateTime(dateTime)
	return nil
}

// ActivityRequest is the body of create and update calls.
type ActivityRequest struct {
	Title           string  `json:"title" validate:"required,max=120"`
	Description     string  `json:"description,omitempty" validate:"max=2000"`
	Location        string  `json:"location" validate:"required,max=200"`
	Latitude        float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude       float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	CategoryID      int64   `json:"categoryId" validate:"required,gt=0"`
	MaxParticipants int     `json:"maxParticipants" validate:"required,min=1,max=1000"`
	DateTime        string  `json:"dateTime" validate:"required,datetime=2006-01-02T15:04:05"`
}

// ActivityFilter narrows activity listings. Zero values are omitted.
type ActivityFilter struct {
	CategoryID int64
	Latitude   float64
	Longitude  float64
	RadiusKm   float64
	Query      string
}

func (f ActivityFilter) Values() url.Values {
	v := url.Values{}
	if f.CategoryID > 0 {
		v.Set("categoryId", strconv.FormatInt(f.CategoryID, 10))
	}
	if f.Latitude != 0 || f.Longitude != 0 {
		v.Set("lat", strconv.FormatFloat(f.Latitude, 'f', -1, 64))
		v.Set("lng", strconv.FormatFloat(f.Longitude, 'f', -1, 64))
	}
	if f.RadiusKm > 0 {
		v.Set("radiusKm", strconv.FormatFloat(f.RadiusKm, 'f', -1, 64))
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}
