package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	consumersanalytics "github.com/calebmoran/printworks-backend/internal/consumers/analytics"
	"github.com/calebmoran/printworks-backend/internal/notifications"
	"github.com/calebmoran/printworks-backend/pkg/bigquery"
	"github.com/calebmoran/printworks-backend/pkg/config"
	"github.com/calebmoran/printworks-backend/pkg/db"
	"github.com/calebmoran/printworks-backend/pkg/enums"
	"github.com/calebmoran/printworks-backend/pkg/logger"
	"github.com/calebmoran/printworks-backend/pkg/outbox"
	"github.com/calebmoran/printworks-backend/pkg/pubsub"
	"github.com/calebmoran/printworks-backend/pkg/redis"
)

type ServiceParams struct {
	Config                *config.Config
	Logger                *logger.Logger
	DB                    *db.Client
	Redis                 *redis.Client
	PubSub                *pubsub.Client
	BigQuery              *bigquery.Client
	NotificationConsumer  *notifications.Consumer
	AnalyticsConsumer     *consumersanalytics.Consumer
	AnalyticsSubscription *gcppubsub.Subscriber
}

// Service runs the notification and analytics consumers side by side.
// Each consumer drains its own subscription; a failure in either one
// brings the whole worker down so the platform restarts it.
type Service struct {
	cfg                   *config.Config
	logg                  *logger.Logger
	db                    *db.Client
	redis                 *redis.Client
	pubsub                *pubsub.Client
	bigquery              *bigquery.Client
	notificationConsumer  *notifications.Consumer
	analyticsConsumer     *consumersanalytics.Consumer
	analyticsSubscription *gcppubsub.Subscriber
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Config == nil {
		return nil, errors.New("config is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.DB == nil {
		return nil, errors.New("database client is required")
	}
	if params.Redis == nil {
		return nil, errors.New("redis client is required")
	}
	if params.PubSub == nil {
		return nil, errors.New("pubsub client is required")
	}
	if params.BigQuery == nil {
		return nil, errors.New("bigquery client is required")
	}
	if params.NotificationConsumer == nil {
		return nil, errors.New("notification consumer is required")
	}
	if params.AnalyticsConsumer == nil {
		return nil, errors.New("analytics consumer is required")
	}
	if params.AnalyticsSubscription == nil {
		return nil, errors.New("analytics subscription is required")
	}

	return &Service{
		cfg:                   params.Config,
		logg:                  params.Logger,
		db:                    params.DB,
		redis:                 params.Redis,
		pubsub:                params.PubSub,
		bigquery:              params.BigQuery,
		notificationConsumer:  params.NotificationConsumer,
		analyticsConsumer:     params.AnalyticsConsumer,
		analyticsSubscription: params.AnalyticsSubscription,
	}, nil
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	if err := pingDependency(ctx, s.logg, "database", s.db.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "redis", s.redis.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "pubsub", s.pubsub.Ping); err != nil {
		return err
	}
	if err := pingDependency(ctx, s.logg, "bigquery", s.bigquery.Ping); err != nil {
		return err
	}
	s.logg.Info(ctx, "all worker dependencies are ready")
	return nil
}

func pingDependency(ctx context.Context, logg *logger.Logger, name string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		logg.Error(ctx, fmt.Sprintf("%s ping failed", name), err)
		return fmt.Errorf("%s ping failed: %w", name, err)
	}
	return nil
}

func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		errCh <- s.notificationConsumer.Run(ctx)
	}()
	go func() {
		errCh <- s.runAnalytics(ctx)
	}()

	select {
	case <-ctx.Done():
		s.logg.Info(ctx, "worker context canceled")
		return ctx.Err()
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logg.Error(ctx, "consumer stopped unexpectedly", err)
		}
		return err
	}
}

// runAnalytics pumps the analytics subscription into the BigQuery consumer.
// Transient failures nack so Pub/Sub redelivers; undecodable messages ack
// because redelivery cannot fix them.
func (s *Service) runAnalytics(ctx context.Context) error {
	return s.analyticsSubscription.Receive(ctx, func(ctx context.Context, msg *gcppubsub.Message) {
		eventType := enums.OutboxEventType(msg.Attributes["event_type"])

		var envelope outbox.PayloadEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "message_id", msg.ID), "failed to decode envelope", err)
			msg.Ack()
			return
		}

		if err := s.analyticsConsumer.Process(ctx, eventType, envelope); err != nil {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
