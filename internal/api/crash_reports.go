package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type CrashReportsAPI interface {
	Submit(ctx context.Context, report models.CrashReport) error
}

type CrashReportService struct {
	client *Client
}

func NewCrashReportService(client *Client) *CrashReportService {
	return &CrashReportService{client: client}
}

func (s *CrashReportService) Submit(ctx context.Context, report models.CrashReport) error {
	return s.client.do(ctx, request{method: http.MethodPost, path: "/api/crash-reports", body: report}, nil)
}
