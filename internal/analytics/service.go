package analytics

import (
	"context"
	"fmt"

	"github.com/calebmoran/printworks-backend/internal/analytics/query"
	"github.com/calebmoran/printworks-backend/internal/analytics/types"
	"github.com/calebmoran/printworks-backend/pkg/bigquery"
)

// Service provides storefront analytics reports.
type Service interface {
	// Summary returns storefront KPIs for the provided window.
	Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error)
}

type service struct {
	summary query.SummaryService
}

// NewService builds an analytics service backed by BigQuery.
func NewService(client *bigquery.Client, project, dataset, table string) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}

	summary, err := query.NewSummaryService(client, project, dataset, table)
	if err != nil {
		return nil, err
	}

	return &service{summary: summary}, nil
}

func (s *service) Summary(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	return s.summary.Query(ctx, req)
}
