package models

type ReportKind string

const (
	ReportKindActivity ReportKind = "ACTIVITY"
	ReportKindMessage  ReportKind = "MESSAGE"
	ReportKindUser     ReportKind = "USER"
)

// Report targets exactly one of an activity, a message or a user. The unused
// target ids stay nil so they are absent from the payload rather than zero.
type Report struct {
	ActivityID     *int64 `json:"activityId,omitempty"`
	MessageID      *int64 `json:"messageId,omitempty"`
	ReportedUserID *int64 `json:"reportedUserId,omitempty"`
	Reason         string `json:"reason" validate:"required,max=100"`
	Description    string `json:"description,omitempty" validate:"max=1000"`
}

func ReportForActivity(activityID int64, reason string) Report {
	return Report{ActivityID: &activityID, Reason: reason}
}

func ReportForMessage(messageID int64, reason string) Report {
	return Report{MessageID: &messageID, Reason: reason}
}

func ReportForUser(userID int64, reason string) Report {
	return Report{ReportedUserID: &userID, Reason: reason}
}

// Kind returns the populated target. ok is false unless exactly one target id
// is set.
func (r Report) Kind() (ReportKind, bool) {
	var kind ReportKind
	n := 0
	if r.ActivityID != nil {
		kind, n = ReportKindActivity, n+1
	}
	if r.MessageID != nil {
		kind, n = ReportKindMessage, n+1
	}
	if r.ReportedUserID != nil {
		kind, n = ReportKindUser, n+1
	}
	if n != 1 {
		return "", false
	}
	return kind, true
}

type ReportReceipt struct {
	ID        int64  `json:"id"`
	Status    string `json:"status,omitempty"`
	CreatedAt string `json:"createdAt,omitempty"`
}
