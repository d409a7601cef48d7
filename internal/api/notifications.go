package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type NotificationsAPI interface {
	ListForUser(ctx context.Context, userID int64) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int, error)
	MarkRead(ctx context.Context, notificationID int64) error
	MarkAllRead(ctx context.Context, userID int64) error
	Delete(ctx context.Context, notificationID int64) error
}

type NotificationService struct {
	client *Client
}

func NewNotificationService(client *Client) *NotificationService {
	return &NotificationService{client: client}
}

func (s *NotificationService) ListForUser(ctx context.Context, userID int64) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := s.client.do(ctx, request{method: http.MethodGet, path: userNotificationsPath(userID)}, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var count models.UnreadCount
	err := s.client.do(ctx, request{method: http.MethodGet, path: userNotificationsPath(userID) + "/unread-count"}, &count)
	if err != nil {
		return 0, err
	}
	return count.Count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, notificationID int64) error {
	return s.client.do(ctx, request{method: http.MethodPut, path: "/api/notifications/" + pathID(notificationID) + "/read"}, nil)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	return s.client.do(ctx, request{method: http.MethodPut, path: userNotificationsPath(userID) + "/read-all"}, nil)
}

func (s *NotificationService) Delete(ctx context.Context, notificationID int64) error {
	return s.client.do(ctx, request{method: http.MethodDelete, path: "/api/notifications/" + pathID(notificationID)}, nil)
}

func userNotificationsPath(userID int64) string {
	return "/api/notifications/user/" + pathID(userID)
}
