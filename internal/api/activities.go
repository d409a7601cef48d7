package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type ActivitiesAPI interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
	Get(ctx context.Context, activityID int64) (*models.Activity, error)
	Create(ctx context.Context, actorID int64, req models.ActivityRequest) (*models.Activity, error)
	Update(ctx context.Context, actorID, activityID int64, req models.ActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, actorID, activityID int64) error
	ListByCreator(ctx context.Context, userID int64) ([]models.Activity, error)
	ListJoined(ctx context.Context, userID int64) ([]models.Activity, error)
}

type ActivityService struct {
	client *Client
}

func NewActivityService(client *Client) *ActivityService {
	return &ActivityService{client: client}
}

func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	return s.list(ctx, request{method: http.MethodGet, path: "/api/activities", query: filter.Values()})
}

func (s *ActivityService) Get(ctx context.Context, activityID int64) (*models.Activity, error) {
	var activity models.Activity
	if err := s.client.do(ctx, request{method: http.MethodGet, path: activityPath(activityID)}, &activity); err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *ActivityService) Create(ctx context.Context, actorID int64, req models.ActivityRequest) (*models.Activity, error) {
	var activity models.Activity
	err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   "/api/activities",
		actor:  actorID,
		body:   req,
	}, &activity)
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *ActivityService) Update(ctx context.Context, actorID, activityID int64, req models.ActivityRequest) (*models.Activity, error) {
	var activity models.Activity
	err := s.client.do(ctx, request{
		method: http.MethodPut,
		path:   activityPath(activityID),
		actor:  actorID,
		body:   req,
	}, &activity)
	if err != nil {
		return nil, err
	}
	return &activity, nil
}

func (s *ActivityService) Delete(ctx context.Context, actorID, activityID int64) error {
	return s.client.do(ctx, request{method: http.MethodDelete, path: activityPath(activityID), actor: actorID}, nil)
}

func (s *ActivityService) ListByCreator(ctx context.Context, userID int64) ([]models.Activity, error) {
	return s.list(ctx, request{method: http.MethodGet, path: "/api/activities/creator/" + pathID(userID)})
}

func (s *ActivityService) ListJoined(ctx context.Context, userID int64) ([]models.Activity, error) {
	return s.list(ctx, request{method: http.MethodGet, path: "/api/activities/joined/" + pathID(userID)})
}

func (s *ActivityService) list(ctx context.Context, req request) ([]models.Activity, error) {
	var activities []models.Activity
	if err := s.client.do(ctx, req, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func activityPath(activityID int64) string {
	return "/api/activities/" + pathID(activityID)
}
