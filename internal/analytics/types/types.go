package types

import (
	"time"

	cbigquery "cloud.google.com/go/bigquery"
)

// StorefrontEventRow mirrors the storefront_events BigQuery schema.
type StorefrontEventRow struct {
	EventID     string             `bigquery:"event_id"`
	EventType   string             `bigquery:"event_type"`
	OccurredAt  time.Time          `bigquery:"occurred_at"`
	CustomerID  *string            `bigquery:"customer_id"`
	ProductID   *string            `bigquery:"product_id"`
	OrderID     *string            `bigquery:"order_id"`
	Quantity    *int64             `bigquery:"quantity"`
	AmountCents *int64             `bigquery:"amount_cents"`
	Payload     cbigquery.NullJSON `bigquery:"payload"`
}

// TimeSeriesPoint describes a single date/value pair returned by the query service.
type TimeSeriesPoint struct {
	Date  string `json:"date"`
	Value int64  `json:"value"`
}

// LabelValue represents a top-N entry such as a product.
type LabelValue struct {
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// SummaryRequest carries the input parameters for storefront summary queries.
type SummaryRequest struct {
	Start time.Time
	End   time.Time
}

// SummaryResponse wraps the storefront KPIs for the back-office dashboard.
type SummaryResponse struct {
	OrdersSeries    []TimeSeriesPoint `json:"orders"`
	RevenueSeries   []TimeSeriesPoint `json:"revenue"`
	TopViewed       []LabelValue      `json:"top_viewed_products"`
	QuotesRequested int64             `json:"quotes_requested"`
	OrdersPlaced    int64             `json:"orders_placed"`
	QuoteConversion float64           `json:"quote_conversion"`
	AOVCents        float64           `json:"aov_cents"`
}
