package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type CategoriesAPI interface {
	List(ctx context.Context) ([]models.Category, error)
}

type CategoryService struct {
	client *Client
}

func NewCategoryService(client *Client) *CategoryService {
	return &CategoryService{client: client}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := s.client.do(ctx, request{method: http.MethodGet, path: "/api/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
