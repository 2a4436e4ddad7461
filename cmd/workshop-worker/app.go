package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/BearBump/WorkshopBox/config"
	"github.com/BearBump/WorkshopBox/internal/broker/kafka"
	"github.com/BearBump/WorkshopBox/internal/cache/rediscache"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer/httpmail"
	"github.com/BearBump/WorkshopBox/internal/integrations/mailer/logmail"
	"github.com/BearBump/WorkshopBox/internal/services/activity"
	"github.com/BearBump/WorkshopBox/internal/services/callbacks"
	"github.com/BearBump/WorkshopBox/internal/services/effects"
	"github.com/BearBump/WorkshopBox/internal/services/notifications"
	"github.com/BearBump/WorkshopBox/internal/services/sweeper"
	"github.com/BearBump/WorkshopBox/internal/storage/pgworkshop"
)

type assignmentConsumer interface {
	Consume(ctx context.Context, handle kafka.Handler) error
}

type workerFactories struct {
	newPurger   func(cfg *config.Config) (p sweeper.Purger, closeFn func(), err error)
	newLocker   func(cfg *config.Config) (l sweeper.Locker, closeFn func())
	newConsumer func(cfg *config.Config) (c assignmentConsumer, closeFn func())
	newMailer   func(cfg *config.Config) mailer.Client
}

func defaultWorkerFactories() workerFactories {
	return workerFactories{
		newPurger: func(cfg *config.Config) (sweeper.Purger, func(), error) {
			st, err := pgworkshop.New(cfg.Database.ConnString())
			if err != nil {
				return nil, nil, err
			}
			systemUserID := cfg.Workshop.SystemUserID
			if systemUserID <= 0 {
				systemUserID = 1
			}
			clk := clock.Real{}
			rec := activity.New(st, effects.New(), clk)
			// воркер только чистит удалённые колбэки, хуки задач не нужны
			return callbacks.New(st, rec, nil, clk, systemUserID), st.Close, nil
		},
		newLocker: func(cfg *config.Config) (sweeper.Locker, func()) {
			rc := rediscache.NewClient(cfg.Redis.Addr())
			return rediscache.NewLocker(rc), func() { _ = rc.Close() }
		},
		newConsumer: func(cfg *config.Config) (assignmentConsumer, func()) {
			topic := cfg.Kafka.TaskAssignedTopicName
			if topic == "" {
				topic = notifications.DefaultTopic
			}
			group := cfg.Workshop.KafkaConsumerGroup
			if group == "" {
				group = "workshop-worker"
			}
			c := kafka.NewConsumer(cfg.Kafka.Brokers(), topic, group)
			return c, func() { _ = c.Close() }
		},
		newMailer: func(cfg *config.Config) mailer.Client {
			// Без base_url письма только пишутся в лог.
			if cfg.Workshop.MailAPIBaseURL != "" {
				return httpmail.New(cfg.Workshop.MailAPIBaseURL, cfg.Workshop.MailAPIKey, cfg.Workshop.MailFrom)
			}
			return logmail.New()
		},
	}
}

// RunWorkshopWorker consumes assignment notifications and runs the callback
// purge sweeper until ctx is done. The two run independently: a broken
// consumer is restarted with a delay and never stops the sweeper.
func RunWorkshopWorker(ctx context.Context, cfg *config.Config, f workerFactories, httpOpts workerHTTPOpts) error {
	purgeInterval := time.Duration(cfg.Workshop.PurgeIntervalSeconds) * time.Second
	if purgeInterval <= 0 {
		purgeInterval = 5 * time.Minute
	}

	purger, closePurger, err := f.newPurger(cfg)
	if err != nil {
		return err
	}
	if closePurger != nil {
		defer closePurger()
	}
	locker, closeLocker := f.newLocker(cfg)
	if closeLocker != nil {
		defer closeLocker()
	}
	consumer, closeConsumer := f.newConsumer(cfg)
	if closeConsumer != nil {
		defer closeConsumer()
	}

	sw := sweeper.New(purger, locker).WithInterval(purgeInterval)
	handler := notifications.NewHandler(f.newMailer(cfg))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- sw.Run(ctx)
	}()
	consumed := make(chan struct{})
	go func() {
		defer close(consumed)
		slog.Info("kafka consumer started", "topic", cfg.Kafka.TaskAssignedTopicName, "group", cfg.Workshop.KafkaConsumerGroup)
		runConsumer(ctx, consumer, handler.Handle, consumerRestartDelay)
	}()
	if httpOpts.swaggerPath != "" {
		httpOpts.sweeper = sw
		httpOpts.handler = handler
		httpOpts.cfg = cfg
		go func() {
			errCh <- runWorkerHTTPServer(ctx, httpOpts)
		}()
	}

	select {
	case <-ctx.Done():
		err = ctx.Err()
	case err = <-errCh:
		if ctx.Err() != nil {
			err = ctx.Err()
		}
	}
	cancel()
	<-consumed
	return err
}

const consumerRestartDelay = 5 * time.Second

// runConsumer keeps the consumer alive until ctx is done. Handler failures
// are absorbed by the consumer; only broker errors end a Consume call.
func runConsumer(ctx context.Context, c assignmentConsumer, handle kafka.Handler, delay time.Duration) {
	for {
		err := c.Consume(ctx, handle)
		if ctx.Err() != nil {
			return
		}
		slog.Error("kafka consumer stopped, restarting", "error", errString(err), "delay", delay.String())
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

func errString(err error) string {
	if err == nil {
		return "consumer returned without error"
	}
	return err.Error()
}
