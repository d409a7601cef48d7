package api

import (
	"context"
	"net/http"

	"huddle/internal/models"
)

type ReportsAPI interface {
	Create(ctx context.Context, actorID int64, report models.Report) (*models.ReportReceipt, error)
}

type ReportService struct {
	client *Client
}

func NewReportService(client *Client) *ReportService {
	return &ReportService{client: client}
}

// Create files a report. Reports with zero or several targets are rejected
// locally.
func (s *ReportService) Create(ctx context.Context, actorID int64, report models.Report) (*models.ReportReceipt, error) {
	var receipt models.ReportReceipt
	err := s.client.do(ctx, request{method: http.MethodPost, path: "/api/reports", actor: actorID, body: report}, &receipt)
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}
