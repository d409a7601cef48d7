package api

import (
	"context"
	"net/http"
	"net/url"

	"huddle/internal/models"
)

type ParticipantsAPI interface {
	Join(ctx context.Context, activityID, userID int64) (*models.Participant, error)
	Leave(ctx context.Context, activityID, userID int64) error
	ListForActivity(ctx context.Context, activityID int64) ([]models.Participant, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Participant, error)
	UpdateStatus(ctx context.Context, actorID, participantID int64, status models.ParticipantStatus) (*models.Participant, error)
}

type ParticipantService struct {
	client *Client
}

func NewParticipantService(client *Client) *ParticipantService {
	return &ParticipantService{client: client}
}

func (s *ParticipantService) Join(ctx context.Context, activityID, userID int64) (*models.Participant, error) {
	var participant models.Participant
	err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/participants/activity/" + pathID(activityID) + "/join",
		query:  url.Values{"userId": {pathID(userID)}},
	}, &participant)
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (s *ParticipantService) Leave(ctx context.Context, activityID, userID int64) error {
	return s.client.do(ctx, request{
		method: http.MethodDelete,
		path:   "/api/participants/activity/" + pathID(activityID) + "/leave",
		query:  url.Values{"userId": {pathID(userID)}},
	}, nil)
}

func (s *ParticipantService) ListForActivity(ctx context.Context, activityID int64) ([]models.Participant, error) {
	return s.list(ctx, "/api/participants/activity/"+pathID(activityID))
}

func (s *ParticipantService) ListForUser(ctx context.Context, userID int64) ([]models.Participant, error) {
	return s.list(ctx, "/api/participants/user/"+pathID(userID))
}

// UpdateStatus is called by the activity creator to accept or decline a
// request. The status is passed through as is; the backend decides which
// transitions are allowed.
func (s *ParticipantService) UpdateStatus(ctx context.Context, actorID, participantID int64, status models.ParticipantStatus) (*models.Participant, error) {
	if status == "" {
		return nil, &ValidationError{Field: "status", Tag: "required", Message: "status is required"}
	}

	var participant models.Participant
	err := s.client.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/participants/" + pathID(participantID) + "/status",
		query:  url.Values{"status": {string(status)}},
		actor:  actorID,
	}, &participant)
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (s *ParticipantService) list(ctx context.Context, path string) ([]models.Participant, error) {
	var participants []models.Participant
	if err := s.client.do(ctx, request{method: http.MethodGet, path: path}, &participants); err != nil {
		return nil, err
	}
	return participants, nil
}
