package cron

import (
	"context"
	"fmt"

	"github.com/calebmoran/printworks-backend/internal/subscriptions"
	"github.com/calebmoran/printworks-backend/pkg/logger"
)

const defaultReconcileLimit = 250

type subscriptionReconciler interface {
	Reconcile(ctx context.Context, limit int) (*subscriptions.ReconcileResult, error)
}

// SubscriptionReconcileJobParams configures the subscription sync cron job.
type SubscriptionReconcileJobParams struct {
	Logger        *logger.Logger
	Subscriptions subscriptionReconciler
	Limit         int
}

// NewSubscriptionReconcileJob builds a job that realigns stored
// subscriptions and customer tiers with live Square state.
func NewSubscriptionReconcileJob(params SubscriptionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscriptions service required")
	}
	limit := params.Limit
	if limit <= 0 {
		limit = defaultReconcileLimit
	}
	return &subscriptionReconcileJob{
		logg:          params.Logger,
		subscriptions: params.Subscriptions,
		limit:         limit,
	}, nil
}

type subscriptionReconcileJob struct {
	logg          *logger.Logger
	subscriptions subscriptionReconciler
	limit         int
}

func (j *subscriptionReconcileJob) Name() string { return "subscription-reconcile" }

func (j *subscriptionReconcileJob) Run(ctx context.Context) error {
	result, err := j.subscriptions.Reconcile(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("reconcile subscriptions: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"checked":    result.Checked,
		"updated":    result.Updated,
		"downgraded": result.Downgraded,
		"failed":     result.Failed,
	})
	j.logg.Info(logCtx, "subscription reconcile loop complete")
	if result.Failed > 0 {
		return fmt.Errorf("%d subscriptions failed to reconcile", result.Failed)
	}
	return nil
}
