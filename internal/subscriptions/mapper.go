package subscriptions

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/calebmoran/printworks-backend/pkg/db/models"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	pkgerrors "github.com/calebmoran/printworks-backend/pkg/errors"
)

// BuildSubscriptionFromSquare maps a Square subscription into the canonical model.
func BuildSubscriptionFromSquare(squareSub *SquareSubscription, customerID uuid.UUID, planID string) (*models.Subscription, error) {
	if squareSub == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "square subscription is nil")
	}
	status, err := mapSquareStatus(squareSub.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid square subscription status")
	}

	metadata, err := marshalMetadata(squareSub.Metadata)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal metadata")
	}

	return &models.Subscription{
		CustomerID:           customerID,
		PlanID:               planID,
		SquareSubscriptionID: squareSub.ID,
		Status:               status,
		CurrentPeriodStart:   toTimePtr(squareSub.StartDate),
		CurrentPeriodEnd:     toTime(squareSub.ChargedThroughDate),
		CancelAtPeriodEnd:    squareSub.CancelAtPeriodEnd,
		CanceledAt:           toTimePtr(squareSub.CanceledAt),
		Metadata:             metadata,
	}, nil
}

// UpdateSubscriptionFromSquare mutates the stored subscription with new Square data.
func UpdateSubscriptionFromSquare(target *models.Subscription, squareSub *SquareSubscription) error {
	if target == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "target subscription is nil")
	}
	if squareSub == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "square subscription is nil")
	}
	status, err := mapSquareStatus(squareSub.Status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "invalid square subscription status")
	}

	target.SquareSubscriptionID = squareSub.ID
	target.Status = status
	target.CurrentPeriodStart = toTimePtr(squareSub.StartDate)
	target.CurrentPeriodEnd = toTime(squareSub.ChargedThroughDate)
	target.CancelAtPeriodEnd = squareSub.CancelAtPeriodEnd
	target.CanceledAt = toTimePtr(squareSub.CanceledAt)
	if len(squareSub.Metadata) > 0 {
		metadata, err := marshalMetadata(squareSub.Metadata)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal metadata")
		}
		target.Metadata = metadata
	}
	return nil
}

// CustomerIDFromMetadata extracts the customer ID attached to Square metadata.
func CustomerIDFromMetadata(metadata map[string]string) (uuid.UUID, error) {
	if metadata == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "subscription metadata is required")
	}
	customerID, ok := metadata["customer_id"]
	if !ok || strings.TrimSpace(customerID) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "customer_id missing from metadata")
	}
	id, err := uuid.Parse(strings.TrimSpace(customerID))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid customer_id metadata")
	}
	return id, nil
}

// IsActiveStatus reports whether the provided status keeps the wholesale
// program benefits in force.
func IsActiveStatus(status enums.SubscriptionStatus) bool {
	return status != enums.SubscriptionStatusCanceled && status != enums.SubscriptionStatusPaused
}

func marshalMetadata(rows map[string]string) (json.RawMessage, error) {
	if len(rows) == 0 {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(data), nil
}

func toTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}

func toTimePtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}

func mapSquareStatus(raw string) (enums.SubscriptionStatus, error) {
	normalized := normalizeSquareStatus(raw)
	if normalized == "" {
		return enums.SubscriptionStatusActive, nil
	}
	if mapped, ok := squareStatusAliases[normalized]; ok {
		return mapped, nil
	}
	if parsed, err := enums.ParseSubscriptionStatus(strings.ToLower(normalized)); err == nil {
		return parsed, nil
	}
	return enums.SubscriptionStatusActive, nil
}

func normalizeSquareStatus(raw string) string {
	normalized := strings.TrimSpace(raw)
	normalized = strings.ToUpper(normalized)
	normalized = strings.ReplaceAll(normalized, "-", "_")
	normalized = strings.ReplaceAll(normalized, " ", "_")
	return normalized
}

var squareStatusAliases = map[string]enums.SubscriptionStatus{
	"PENDING":     enums.SubscriptionStatusTrialing,
	"TRIAL":       enums.SubscriptionStatusTrialing,
	"DEACTIVATED": enums.SubscriptionStatusCanceled,
	"COMPLETED":   enums.SubscriptionStatusCanceled,
	"CANCELING":   enums.SubscriptionStatusCanceled,
	"CANCELLING":  enums.SubscriptionStatusCanceled,
	"CANCELLED":   enums.SubscriptionStatusCanceled,
	"SUSPENDED":   enums.SubscriptionStatusPaused,
}
