package models

import "time"

const DeletedMessagePlaceholder = "This message was deleted"

// ActivityMessage is one entry of an activity's group chat. The server assigns
// ID and CreatedAt; the client never edits a message in place.
type ActivityMessage struct {
	ID         int64  `json:"id"`
	ActivityID int64  `json:"activityId"`
	SenderID   int64  `json:"senderId"`
	SenderName string `json:"senderName"`
	Text       string `json:"text"`
	CreatedAt  string `json:"createdAt"`
	IsDeleted  bool   `json:"isDeleted"`
}

func (m *ActivityMessage) CreatedTime() (time.Time, bool) {
	return ParseTimestamp(m.CreatedAt)
}

// DisplayText is the text to render: a placeholder for soft-deleted messages,
// otherwise the body stripped of markup.
func (m *ActivityMessage) DisplayText() string {
	if m.IsDeleted {
		return DeletedMessagePlaceholder
	}
	return SanitizeDisplay(m.Text)
}

func (m *ActivityMessage) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&m.ID, "id", "messageId")
	f.number(&m.ActivityID, "activityId", "activity_id")
	f.number(&m.SenderID, "senderId", "sender_id", "userId")
	f.str(&m.SenderName, "senderName", "sender_name", "userName")
	f.str(&m.Text, "text", "content", "message")
	f.str(&m.CreatedAt, "createdAt", "created_at", "timestamp", "sentAt")
	f.boolean(&m.IsDeleted, "isDeleted", "is_deleted", "deleted")
	return f.err
}

type SendMessageRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}
