package models

import "encoding/json"

type Notification struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"userId,omitempty"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Type          string `json:"type"`
	IsRead        bool   `json:"isRead"`
	ActivityID    *int64 `json:"activityId,omitempty"`
	ParticipantID *int64 `json:"participantId,omitempty"`
	ReviewID      *int64 `json:"reviewId,omitempty"`
	CreatedAt     string `json:"createdAt,omitempty"`
}

func (n *Notification) DisplayBody() string {
	return SanitizeDisplay(n.Body)
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}

	f.number(&n.ID, "id", "notificationId")
	f.number(&n.UserID, "userId", "user_id", "recipientId")
	f.str(&n.Title, "title")
	f.str(&n.Body, "body", "message", "content")
	f.str(&n.Type, "type", "notificationType")
	f.boolean(&n.IsRead, "isRead", "is_read", "read")
	f.optionalNumber(&n.ActivityID, "activityId", "activity_id")
	f.optionalNumber(&n.ParticipantID, "participantId", "participant_id")
	f.optionalNumber(&n.ReviewID, "reviewId", "review_id")
	f.str(&n.CreatedAt, "createdAt", "created_at")
	return f.err
}

type UnreadCount struct {
	Count int `json:"count"`
}

func (c *UnreadCount) UnmarshalJSON(data []byte) error {
	if isNullJSON(data) {
		return nil
	}
	// Some deployments answer with a bare number.
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		c.Count = n
		return nil
	}
	f, err := decodeFieldSet(data)
	if err != nil {
		return err
	}
	f.integer(&c.Count, "count", "unreadCount", "unread_count")
	return f.err
}
