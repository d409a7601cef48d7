package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type UsersAPI interface {
	Get(ctx context.Context, userID int64) (*models.User, error)
	Update(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error)
	Delete(ctx context.Context, userID int64) error
	UpdatePushToken(ctx context.Context, userID int64, req models.PushTokenRequest) error
}

type UserService struct {
	client *Client
}

func NewUserService(client *Client) *UserService {
	return &UserService{client: client}
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	var user models.User
	if err := s.client.do(ctx, request{method: http.MethodGet, path: "/api/users/" + pathID(userID)}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Update(ctx context.Context, userID int64, req models.UpdateUserRequest) (*models.User, error) {
	var user models.User
	err := s.client.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/users/" + pathID(userID),
		body:   req,
	}, &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Delete(ctx context.Context, userID int64) error {
	return s.client.do(ctx, request{method: http.MethodDelete, path: "/api/users/" + pathID(userID)}, nil)
}

func (s *UserService) UpdatePushToken(ctx context.Context, userID int64, req models.PushTokenRequest) error {
	return s.client.do(ctx, request{
		method: http.MethodPut,
		path:   "/api/users/" + pathID(userID) + "/push-token",
		body:   req,
	}, nil)
}
