package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type ReviewsAPI interface {
	Create(ctx context.Context, actorID int64, req models.CreateReviewRequest) (*models.Review, error)
	ListForActivity(ctx context.Context, activityID int64) ([]models.Review, error)
	ListForUser(ctx context.Context, userID int64) ([]models.Review, error)
}

type ReviewService struct {
	client *Client
}

func NewReviewService(client *Client) *ReviewService {
	return &ReviewService{client: client}
}

func (s *ReviewService) Create(ctx context.Context, actorID int64, req models.CreateReviewRequest) (*models.Review, error) {
	var review models.Review
	err := s.client.do(ctx, request{method: http.MethodPost, path: "/api/reviews", actor: actorID, body: req}, &review)
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (s *ReviewService) ListForActivity(ctx context.Context, activityID int64) ([]models.Review, error) {
	return s.list(ctx, "/api/reviews/activity/"+pathID(activityID))
}

func (s *ReviewService) ListForUser(ctx context.Context, userID int64) ([]models.Review, error) {
	return s.list(ctx, "/api/reviews/user/"+pathID(userID))
}

func (s *ReviewService) list(ctx context.Context, path string) ([]models.Review, error) {
	var reviews []models.Review
	if err := s.client.do(ctx, request{method: http.MethodGet, path: path}, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
