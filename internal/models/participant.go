package models

import "strings"

// ParticipantStatus is an open set: the backend owns the vocabulary and may
// add values the client does not know yet.
type ParticipantStatus string

const (
	StatusPending    ParticipantStatus = "PENDING"
	StatusInterested ParticipantStatus = "INTERESTED"
	StatusAccepted   ParticipantStatus = "ACCEPTED"
	StatusDeclined   ParticipantStatus = "DECLINED"
	StatusJoined     ParticipantStatus = "JOINED"
	StatusLeft       ParticipantStatus = "LEFT"
)

// ParseParticipantStatus normalises case and whitespace. Unknown values are
// returned as-is so they round-trip unchanged.
func ParseParticipantStatus(s string) ParticipantStatus {
	return ParticipantStatus(strings.ToUpper(strings.TrimSpace(s)))
}

func (s ParticipantStatus) Known() bool {
	switch s {
	case StatusPending, StatusInterested, StatusAccepted, StatusDeclined, StatusJoined, StatusLeft:
		return true
	}
	return false
}

// Awaiting reports whether the request still needs a decision by the host.
func (s ParticipantStatus) Awaiting() bool {
	return s == StatusPending || s == StatusInterested
}

// Active reports whether the participant currently holds a spot.
func (s ParticipantStatus) Active() bool {
	return s == StatusAccepted || s == StatusJoined
}

type ParticipantUser struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	PhotoURL string `json:"photoUrl,omitempty"`
}

type ParticipantActivity struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	DateTime string `json:"dateTime,omitempty"`
}

// Participant joins a user to an activity. Newer responses nest the user and
// activity; older ones only carry the Flat* members. Accessors prefer the
// nested value and fall back to the flat one.
type Participant struct {
	ID       int64                `json:"id"`
	Status   ParticipantStatus    `json:"status"`
	JoinedAt string               `json:"joinedAt,omitempty"`
	User     *ParticipantUser     `json:"user,omitempty"`
	Activity *ParticipantActivity `json:"activity,omitempty"`

	FlatUserID        int64  `json:"userId,omitempty"`
	FlatUserName      string `json:"userName,omitempty"`
	FlatUserPhotoURL  string `json:"userPhotoUrl,omitempty"`
	FlatActivityID    int64  `json:"activityId,omitempty"`
	FlatActivityTitle string `json:"activityTitle,omitempty"`
}

func (p *Participant) UserID() int64 {
	if p.User != nil && p.User.ID != 0 {
		return p.User.ID
	}
	return p.FlatUserID
}

func (p *Participant) UserName() string {
	if p.User != nil && p.User.FullName != "" {
		return p.User.FullName
	}
	return p.FlatUserName
}

func (p *Participant) UserPhotoURL() string {
	if p.User != nil && p.User.PhotoURL != "" {
		return p.User.PhotoURL
	}
	return p.FlatUserPhotoURL
}

func (p *Participant) ActivityID() int64 {
	if p.Activity != nil && p.Activity.ID != 0 {
		return p.Activity.ID
	}
	return p.FlatActivityID
}

func (p *Participant) ActivityTitle() string {
	if p.Activity != nil && p.Activity.Title != "" {
		return p.Activity.Title
	}
	return p.FlatActivityTitle
}

func (p *Participant) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	var status string
	f.number(&p.ID, "id", "participantId")
	if f.str(&status, "status", "participantStatus") {
		p.Status = ParseParticipantStatus(status)
	}
	f.str(&p.JoinedAt, "joinedAt", "joined_at", "createdAt")

	if f.has("user") {
		var u ParticipantUser
		if f.into(&u, "user") {
			p.User = &u
		}
	}
	if f.has("activity") {
		var a ParticipantActivity
		if f.into(&a, "activity") {
			p.Activity = &a
		}
	}

	f.number(&p.FlatUserID, "userId", "user_id")
	f.str(&p.FlatUserName, "userName", "user_name", "fullName")
	f.str(&p.FlatUserPhotoURL, "userPhotoUrl", "user_photo_url", "photoUrl")
	f.number(&p.FlatActivityID, "activityId", "activity_id")
	f.str(&p.FlatActivityTitle, "activityTitle", "activity_title")
	return f.err
}

func (u *ParticipantUser) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}
	f.number(&u.ID, "id", "userId")
	f.str(&u.FullName, "fullName", "full_name", "name")
	f.str(&u.PhotoURL, "photoUrl", "photo_url", "profilePhotoUrl")
	return f.err
}

func (a *ParticipantActivity) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}
	f.number(&a.ID, "id", "activityId")
	f.str(&a.Title, "title", "name")
	f.str(&a.DateTime, "dateTime", "date_time", "startDateTime")
	return f.err
}
