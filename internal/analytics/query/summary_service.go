package query

import (
	"context"
	"fmt"

	cloudbigquery "cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	"github.com/calebmoran/printworks-backend/internal/analytics/types"
	"github.com/calebmoran/printworks-backend/pkg/bigquery"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

const (
	timeSeriesOrdersSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  COUNTIF(event_type = 'order_placed') AS value
FROM %s
WHERE event_type = 'order_placed'
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	timeSeriesRevenueSQL = `
SELECT
  FORMAT_DATE('%%F', DATE_TRUNC(occurred_at, DAY)) AS day,
  SUM(COALESCE(amount_cents, 0)) AS value
FROM %s
WHERE event_type IN ('order_placed', 'invoice_paid')
  AND occurred_at BETWEEN @start AND @end
GROUP BY day
ORDER BY day ASC
`

	topViewedSQL = `
SELECT product_id AS label, COUNT(*) AS value
FROM %s
WHERE event_type = 'product_viewed'
  AND product_id IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
GROUP BY product_id
ORDER BY value DESC
LIMIT 5
`

	funnelSQL = `
SELECT
  COUNTIF(event_type = 'quote_requested') AS quotes,
  COUNTIF(event_type = 'order_placed') AS orders
FROM %s
WHERE occurred_at BETWEEN @start AND @end
`

	aovSQL = `
SELECT SAFE_DIVIDE(SUM(COALESCE(amount_cents, 0)), NULLIF(COUNT(DISTINCT order_id), 0)) AS value
FROM %s
WHERE event_type IN ('order_placed', 'invoice_paid')
  AND order_id IS NOT NULL
  AND occurred_at BETWEEN @start AND @end
`
)

// SummaryService provides dashboard data from BigQuery storefront_events.
type SummaryService interface {
	Query(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error)
}

type summaryService struct {
	client   *bigquery.Client
	tableRef string
}

// NewSummaryService builds a service backed by BigQuery.
func NewSummaryService(client *bigquery.Client, project, dataset, table string) (SummaryService, error) {
	if client == nil {
		return nil, fmt.Errorf("bigquery client required")
	}
	if project == "" || dataset == "" || table == "" {
		return nil, fmt.Errorf("project, dataset, and table are required")
	}
	return &summaryService{
		client:   client,
		tableRef: fmt.Sprintf("`%s.%s.%s`", project, dataset, table),
	}, nil
}

func (s *summaryService) Query(ctx context.Context, req types.SummaryRequest) (*types.SummaryResponse, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	params := []cloudbigquery.QueryParameter{
		{Name: "start", Value: req.Start},
		{Name: "end", Value: req.End},
	}

	orders, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesOrdersSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	revenue, err := s.querySeries(ctx, fmt.Sprintf(timeSeriesRevenueSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	topViewed, err := s.queryTopLabels(ctx, fmt.Sprintf(topViewedSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	quotes, placed, err := s.queryFunnel(ctx, fmt.Sprintf(funnelSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}
	aov, err := s.queryAOV(ctx, fmt.Sprintf(aovSQL, s.tableRef), params)
	if err != nil {
		return nil, err
	}

	conversion := 0.0
	if quotes > 0 {
		conversion = float64(placed) / float64(quotes)
	}

	return &types.SummaryResponse{
		OrdersSeries:    orders,
		RevenueSeries:   revenue,
		TopViewed:       topViewed,
		QuotesRequested: quotes,
		OrdersPlaced:    placed,
		QuoteConversion: conversion,
		AOVCents:        aov,
	}, nil
}

func validateRequest(req types.SummaryRequest) error {
	if req.Start.IsZero() || req.End.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "start and end are required")
	}
	if req.End.Before(req.Start) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end must be after start")
	}
	return nil
}

func (s *summaryService) querySeries(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.TimeSeriesPoint, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}

	var points []types.TimeSeriesPoint
	for {
		var row struct {
			Day   string `bigquery:"day"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading series row: %w", err)
		}
		points = append(points, types.TimeSeriesPoint{Date: row.Day, Value: row.Value})
	}
	return points, nil
}

func (s *summaryService) queryTopLabels(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) ([]types.LabelValue, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return nil, fmt.Errorf("query top labels: %w", err)
	}

	var result []types.LabelValue
	for {
		var row struct {
			Label string `bigquery:"label"`
			Value int64  `bigquery:"value"`
		}
		if err := iter.Next(&row); err != nil {
			if err == iterator.Done {
				break
			}
			return nil, fmt.Errorf("reading top label row: %w", err)
		}
		result = append(result, types.LabelValue{Label: row.Label, Value: row.Value})
	}
	return result, nil
}

func (s *summaryService) queryFunnel(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (int64, int64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, 0, fmt.Errorf("query funnel: %w", err)
	}
	var row struct {
		Quotes int64 `bigquery:"quotes"`
		Orders int64 `bigquery:"orders"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("reading funnel row: %w", err)
	}
	return row.Quotes, row.Orders, nil
}

func (s *summaryService) queryAOV(ctx context.Context, sql string, params []cloudbigquery.QueryParameter) (float64, error) {
	iter, err := s.client.Query(ctx, sql, params)
	if err != nil {
		return 0, fmt.Errorf("query aov: %w", err)
	}
	var row struct {
		Value cloudbigquery.NullFloat64 `bigquery:"value"`
	}
	if err := iter.Next(&row); err != nil {
		if err == iterator.Done {
			return 0, nil
		}
		return 0, fmt.Errorf("reading aov row: %w", err)
	}
	if !row.Value.Valid {
		return 0, nil
	}
	return row.Value.Float64, nil
}
