package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BearBump/WorkshopBox/config"
	workshopapi "github.com/BearBump/WorkshopBox/internal/api/workshop_api"
	"github.com/BearBump/WorkshopBox/internal/broker/kafka"
	"github.com/BearBump/WorkshopBox/internal/cache/rediscache"
	"github.com/BearBump/WorkshopBox/internal/clock"
	"github.com/BearBump/WorkshopBox/internal/services/notifications"
	"github.com/BearBump/WorkshopBox/internal/storage/pgworkshop"
	"github.com/redis/go-redis/v9"
)

type workshopAPIApp struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   workshopAPIOpts
	svc    workshopapi.Services

	limiter  *rediscache.RateLimiter
	ping     func(ctx context.Context) error
	producer *kafka.Producer
	redis    *redis.Client
	closeDB  func()
}

func mustBootstrapWorkshopAPI() *workshopAPIApp {
	cfgPath := os.Getenv("configPath")
	if cfgPath == "" {
		panic("configPath env var is required")
	}
	swaggerPath := os.Getenv("swaggerPath")
	if swaggerPath == "" {
		panic("swaggerPath env var is required")
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}

	httpAddr := cfg.Workshop.HTTPAddr
	if httpAddr == "" {
		httpAddr = ":8080"
	}
	topic := cfg.Kafka.TaskAssignedTopicName
	if topic == "" {
		topic = "task.assigned"
	}
	systemUserID := cfg.Workshop.SystemUserID
	if systemUserID <= 0 {
		systemUserID = 1
	}
	lookupPerMinute := cfg.Workshop.LookupRateLimitPerMinute
	if lookupPerMinute <= 0 {
		lookupPerMinute = 30
	}
	corsOrigins := cfg.Workshop.CORSOrigins
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"http://localhost:5173"}
	}

	st := mustOpenPostgresWithRetry(cfg.Database.ConnString(), 60*time.Second)

	rc := rediscache.NewClient(cfg.Redis.Addr())
	producer := kafka.NewProducer(cfg.Kafka.Brokers())
	publisher := notifications.NewPublisher(producer, topic)

	svc := newServices(st, publisher, clock.Real{}, systemUserID)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	return &workshopAPIApp{
		ctx:    ctx,
		cancel: cancel,
		opts: workshopAPIOpts{
			httpAddr:        httpAddr,
			swaggerPath:     swaggerPath,
			corsOrigins:     corsOrigins,
			lookupPerMinute: lookupPerMinute,
		},
		svc:      svc,
		limiter:  rediscache.NewRateLimiter(rc),
		ping: func(ctx context.Context) error {
			if err := st.Ping(ctx); err != nil {
				return err
			}
			return rediscache.Ping(ctx, rc)
		},
		producer: producer,
		redis:    rc,
		closeDB:  st.Close,
	}
}

func mustOpenPostgresWithRetry(connString string, wait time.Duration) *pgworkshop.Storage {
	deadline := time.Now().Add(wait)
	var lastErr error
	for time.Now().Before(deadline) {
		st, err := pgworkshop.New(connString)
		if err == nil {
			return st
		}
		lastErr = err
		time.Sleep(1 * time.Second)
	}
	panic(fmt.Sprintf("postgres is not ready after %s: %v", wait, lastErr))
}

func (a *workshopAPIApp) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	if a.producer != nil {
		_ = a.producer.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.closeDB != nil {
		a.closeDB()
	}
}

func (a *workshopAPIApp) Run() error {
	return runWorkshopAPI(a.ctx, a.opts, a.svc, a.limiter, a.ping)
}
