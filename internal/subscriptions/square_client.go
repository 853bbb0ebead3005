package subscriptions

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	sq "github.com/square/square-go-sdk"

	"github.com/calebmoran/printworks-backend/pkg/square"
)

// SquareSubscriptionClient defines the subset of Square interactions the
// subscription service relies on.
type SquareSubscriptionClient interface {
	Create(ctx context.Context, params *SquareSubscriptionParams) (*SquareSubscription, error)
	Cancel(ctx context.Context, id string) (*SquareSubscription, error)
	Get(ctx context.Context, id string) (*SquareSubscription, error)
}

// NewSquareClient wraps the shared pkg/square client with the required
// location context.
func NewSquareClient(squareClient *square.Client, locationID string) SquareSubscriptionClient {
	return &squareSubscriptionClient{
		square:     squareClient,
		locationID: strings.TrimSpace(locationID),
	}
}

type squareSubscriptionClient struct {
	square     *square.Client
	locationID string
}

func (c *squareSubscriptionClient) Create(ctx context.Context, params *SquareSubscriptionParams) (*SquareSubscription, error) {
	if c.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	if c.locationID == "" {
		return nil, fmt.Errorf("square location id required")
	}
	if params == nil {
		return nil, fmt.Errorf("square subscription params required")
	}

	resp, err := c.square.CreateSubscription(ctx, square.SubscriptionCreateParams{
		LocationID:      c.locationID,
		PlanVariationID: strings.TrimSpace(params.PlanVariationID),
		CustomerID:      params.CustomerID,
		CardID:          params.CardID,
	})
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, params.PlanVariationID, params.Metadata), nil
}

func (c *squareSubscriptionClient) Cancel(ctx context.Context, id string) (*SquareSubscription, error) {
	if c.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	resp, err := c.square.CancelSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, "", nil), nil
}

func (c *squareSubscriptionClient) Get(ctx context.Context, id string) (*SquareSubscription, error) {
	if c.square == nil {
		return nil, fmt.Errorf("square client required")
	}
	resp, err := c.square.GetSubscription(ctx, id)
	if err != nil {
		return nil, err
	}
	return convertSubscription(resp, "", nil), nil
}

func convertSubscription(resp *sq.Subscription, fallbackPlanVariation string, providedMetadata map[string]string) *SquareSubscription {
	if resp == nil {
		return nil
	}
	planVariationID := strings.TrimSpace(safeString(resp.GetPlanVariationID()))
	if planVariationID == "" {
		planVariationID = strings.TrimSpace(fallbackPlanVariation)
	}
	status := resp.GetStatus()
	canceledAt := parseDate(resp.GetCanceledDate())
	// Square keeps a subscription ACTIVE with canceled_date set until the
	// paid-through date passes.
	cancelAtPeriodEnd := canceledAt != 0 && (status == nil || *status != sq.SubscriptionStatusCanceled)
	return &SquareSubscription{
		ID:                 safeString(resp.GetID()),
		Status:             subscriptionStatusString(status),
		PlanVariationID:    planVariationID,
		Metadata:           cloneMetadata(providedMetadata),
		CancelAtPeriodEnd:  cancelAtPeriodEnd,
		CanceledAt:         canceledAt,
		StartDate:          parseDate(resp.GetStartDate()),
		ChargedThroughDate: parseDate(resp.GetChargedThroughDate()),
	}
}

func cloneMetadata(rows map[string]string) map[string]string {
	if len(rows) == 0 {
		return nil
	}
	clone := make(map[string]string, len(rows))
	for k, v := range rows {
		clone[k] = v
	}
	return clone
}

func parseDate(value *string) int64 {
	if value == nil || strings.TrimSpace(*value) == "" {
		return 0
	}
	formats := []string{time.RFC3339, "2006-01-02"}
	for _, layout := range formats {
		if ts, err := time.Parse(layout, *value); err == nil {
			return ts.Unix()
		}
	}
	if i, err := strconv.ParseInt(*value, 10, 64); err == nil {
		return i
	}
	return 0
}

func safeString(ptr *string) string {
	if ptr == nil {
		return ""
	}
	return *ptr
}

func subscriptionStatusString(status *sq.SubscriptionStatus) string {
	if status == nil {
		return ""
	}
	return string(*status)
}
