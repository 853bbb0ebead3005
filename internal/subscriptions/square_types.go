package subscriptions

// SquareSubscription is the subset of a Square subscription mirrored into the
// billing tables.
type SquareSubscription struct {
	ID                 string
	Status             string
	PlanVariationID    string
	Metadata           map[string]string
	CancelAtPeriodEnd  bool
	CanceledAt         int64
	StartDate          int64
	ChargedThroughDate int64
}

// SquareSubscriptionParams carries the identifiers required to start a
// subscription at Square.
type SquareSubscriptionParams struct {
	CustomerID      string
	PlanVariationID string
	CardID          string
	Metadata        map[string]string
}
