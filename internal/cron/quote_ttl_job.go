package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/calebmoran/printworks-backend/pkg/logger"
)

const quoteGraceHours = 24

// QuoteTTLJobParams configure the stale cart sweep.
type QuoteTTLJobParams struct {
	Logger     *logger.Logger
	Carts      staleCartAbandoner
	GraceHours int
}

type staleCartAbandoner interface {
	AbandonStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewQuoteTTLJob builds the cron job that abandons carts whose quoted
// prices lapsed. A grace period past the quote validity gives customers
// a window to refresh before the cart is closed out.
func NewQuoteTTLJob(params QuoteTTLJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	grace := params.GraceHours
	if grace <= 0 {
		grace = quoteGraceHours
	}
	return &quoteTTLJob{
		logg:  params.Logger,
		carts: params.Carts,
		grace: grace,
		now:   time.Now,
	}, nil
}

type quoteTTLJob struct {
	logg  *logger.Logger
	carts staleCartAbandoner
	grace int
	now   func() time.Time
}

func (j *quoteTTLJob) Name() string { return "quote-ttl" }

func (j *quoteTTLJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.grace) * time.Hour)
	abandoned, err := j.carts.AbandonStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("abandon stale carts: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"grace_hours":     j.grace,
		"carts_abandoned": abandoned,
	})
	j.logg.Info(logCtx, "quote ttl sweep complete")
	return nil
}
