package components

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/CLillis357/VigilantIE/internal/api"
	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/admin"
	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/public"
	"github.com/CLillis357/VigilantIE/internal/api/handlers/http/system"
	"github.com/CLillis357/VigilantIE/internal/auth"
	"github.com/CLillis357/VigilantIE/internal/config"
	"github.com/CLillis357/VigilantIE/internal/notify"
	"github.com/CLillis357/VigilantIE/internal/redis"
	"github.com/CLillis357/VigilantIE/internal/service"
	"github.com/CLillis357/VigilantIE/internal/storage/postgres"
	"github.com/CLillis357/VigilantIE/internal/storage/sqlite"
	"github.com/CLillis357/VigilantIE/internal/subscriber"
	"github.com/CLillis357/VigilantIE/internal/workers"
	"github.com/CLillis357/VigilantIE/pkg/logger"
)

// Store is what a report backend has to provide.
type Store interface {
	service.ReportStore
	service.AlertLog
	Ping(ctx context.Context) error
	Close() error
}

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Store      Store
	Redis      *redis.Redis
	Hub        *notify.Hub
	Dispatcher *workers.AlertDispatcher
	Refresher  *workers.ReportRefresher
	Subscriber *subscriber.PositionSubscriber // nil when MQTT is disabled
	Publisher  *notify.Publisher              // nil when AMQP is disabled
	Service    *service.Service
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *Components, err error) {
	c := &Components{logger: logger}
	defer func() {
		if err != nil {
			c.ShutdownAll()
		}
	}()

	logger.Info("Initializing report store", slog.String("driver", cfg.Store.Driver))
	c.Store, err = OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init report store", slog.Any("error", err))
		return nil, fmt.Errorf("failed to init report store: %w", err)
	}

	logger.Info("Initializing Redis")
	c.Redis, err = redis.NewRedis(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}

	cache := redis.NewReportCache(c.Redis.Client, cfg.Cache.TTL)
	queue := redis.NewAlertQueue(c.Redis.Client, cfg.Alerts.QueueKey)
	positions := redis.NewPositionStore(c.Redis.Client)

	var triggers service.TriggerStore = redis.NewTriggerStore(c.Redis.Client)
	if cfg.Alerts.TriggerStore == "memory" {
		triggers = service.NewMemoryTriggerStore()
	}

	reportSvc := service.NewReportService(c.Store, cache, logger)
	alertSvc := service.NewAlertService(reportSvc, positions, triggers, queue, c.Store, logger, cfg.Alerts.ThresholdKm)
	statsSvc := service.NewStatsService(c.Store)
	c.Service = service.NewService(reportSvc, alertSvc, statsSvc)

	c.Refresher = workers.NewReportRefresher(reportSvc, cache, alertSvc, cfg.Cache.RefreshInterval, logger)
	reportSvc.OnChange(func(context.Context) { c.Refresher.Notify() })

	c.Hub = notify.NewHub(logger)
	notifiers, err := c.initNotifiers(cfg, logger)
	if err != nil {
		return nil, err
	}
	c.Dispatcher = workers.NewAlertDispatcher(queue, notifiers, cfg.Alerts.Workers, cfg.Alerts.PopTimeout, logger)

	if !cfg.MQTT.Disabled {
		logger.Info("Initializing MQTT", slog.String("broker", cfg.MQTT.Broker))
		client, err := subscriber.NewMQTTClient(cfg.MQTT, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to init mqtt: %w", err)
		}
		c.Subscriber = subscriber.NewPositionSubscriber(client, cfg.MQTT, alertSvc, logger)
	}

	tokens := auth.NewJWTService(cfg.Auth)
	handlers := api.Handlers{
		Admin:  admin.NewHandler(logger, statsSvc, alertSvc, reportSvc),
		Public: public.NewHandler(logger, reportSvc, alertSvc, c.Hub, tokens),
		System: system.NewHandler(logger, map[string]system.Check{
			"store": c.Store.Ping,
			"redis": c.Redis.Ping,
		}),
	}
	c.HttpServer = api.NewServer(ctx, cfg, logger, handlers, tokens)
	logger.Info("Initialized server")

	return c, nil
}

func (c *Components) initNotifiers(cfg *config.Config, logger *slog.Logger) ([]notify.Notifier, error) {
	notifiers := []notify.Notifier{c.Hub}

	if !cfg.Webhook.Disabled {
		notifiers = append(notifiers, notify.NewWebhook(logger, cfg.Webhook))
	} else {
		logger.Warn("Webhooks disabled")
	}

	if !cfg.AMQP.Disabled {
		logger.Info("Initializing AMQP publisher", slog.String("exchange", cfg.AMQP.Exchange))
		pub, err := notify.NewPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, cfg.AMQP.Queue)
		if err != nil {
			return nil, fmt.Errorf("failed to init amqp: %w", err)
		}
		c.Publisher = pub
		notifiers = append(notifiers, pub)
	}

	return notifiers, nil
}

// OpenStore connects the configured report backend and applies its schema.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite:
		st, err := sqlite.New(ctx, cfg.Store.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return st, nil
	case config.StoreDriverPostgres:
		pg, err := postgres.NewPostgres(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return &pgStore{ReportRepo: pg.Reports, AlertLogRepo: pg.Alerts, pg: pg}, nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

type pgStore struct {
	*postgres.ReportRepo
	*postgres.AlertLogRepo
	pg *postgres.Postgres
}

func (s *pgStore) Ping(ctx context.Context) error { return s.pg.Ping(ctx) }

func (s *pgStore) Close() error {
	s.pg.Close()
	return nil
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Shutting down components")

	var errs []error
	if c.Subscriber != nil {
		c.Subscriber.Stop()
	}
	if c.Publisher != nil {
		errs = append(errs, c.Publisher.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.Store != nil {
		errs = append(errs, c.Store.Close())
	}

	if err := errors.Join(errs...); err != nil {
		c.logger.Error("Component shutdown finished with errors", slog.Any("error", err))
		return
	}
	c.logger.Info("All components stopped", slog.Duration("latency", time.Since(start)))
}
