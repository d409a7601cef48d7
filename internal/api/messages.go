package api

import (
	"context"
	"net/http"
	"net/url"

	"huddle/internal/models"
)

type MessagesAPI interface {
	List(ctx context.Context, activityID int64) ([]models.ActivityMessage, error)
	ListSince(ctx context.Context, activityID int64, since string) ([]models.ActivityMessage, error)
	Send(ctx context.Context, actorID, activityID int64, req models.SendMessageRequest) (*models.ActivityMessage, error)
	Delete(ctx context.Context, actorID, messageID int64) error
}

type MessageService struct {
	client *Client
}

func NewMessageService(client *Client) *MessageService {
	return &MessageService{client: client}
}

func (s *MessageService) List(ctx context.Context, activityID int64) ([]models.ActivityMessage, error) {
	return s.list(ctx, request{method: http.MethodGet, path: messagesPath(activityID)})
}

// ListSince returns messages created strictly after since, oldest first.
func (s *MessageService) ListSince(ctx context.Context, activityID int64, since string) ([]models.ActivityMessage, error) {
	return s.list(ctx, request{
		method: http.MethodGet,
		path:   messagesPath(activityID) + "/since",
		query:  url.Values{"timestamp": {since}},
	})
}

func (s *MessageService) Send(ctx context.Context, actorID, activityID int64, req models.SendMessageRequest) (*models.ActivityMessage, error) {
	var message models.ActivityMessage
	err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   messagesPath(activityID),
		actor:  actorID,
		body:   req,
	}, &message)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (s *MessageService) Delete(ctx context.Context, actorID, messageID int64) error {
	return s.client.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/messages/" + pathID(messageID),
		actor:  actorID,
	}, nil)
}

func (s *MessageService) list(ctx context.Context, req request) ([]models.ActivityMessage, error) {
	var messages []models.ActivityMessage
	if err := s.client.do(ctx, req, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func messagesPath(activityID int64) string {
	return "/api/activities/" + pathID(activityID) + "/messages"
}
