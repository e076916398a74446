package workers

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/internal/notify"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

type AlertSource interface {
	BRPop(ctx context.Context, timeout time.Duration) (domain.AlertEvent, error)
}

// AlertDispatcher drains the alert queue and hands every event to all notifiers.
type AlertDispatcher struct {
	source     AlertSource
	notifiers  []notify.Notifier
	jobs       chan domain.AlertEvent
	poolSize   int
	popTimeout time.Duration
	logger     *slog.Logger
}

func NewAlertDispatcher(source AlertSource, notifiers []notify.Notifier, poolSize int, popTimeout time.Duration, logger *slog.Logger) *AlertDispatcher {
	if poolSize <= 0 {
		poolSize = 1
	}
	if popTimeout <= 0 {
		popTimeout = 5 * time.Second
	}
	return &AlertDispatcher{
		source:     source,
		notifiers:  notifiers,
		jobs:       make(chan domain.AlertEvent, 100),
		poolSize:   poolSize,
		popTimeout: popTimeout,
		logger:     logger,
	}
}

// Run blocks until ctx is done and every worker has returned.
func (d *AlertDispatcher) Run(ctx context.Context) {
	d.logger.Info("alert dispatcher STARTED", slog.Int("workers", d.poolSize), slog.Int("notifiers", len(d.notifiers)))

	var wg sync.WaitGroup
	for i := 0; i < d.poolSize; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.worker(ctx)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		d.producer(ctx)
	}()
	wg.Wait()

	d.logger.Info("alert dispatcher STOPPED")
}

func (d *AlertDispatcher) producer(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		ev, err := d.source.BRPop(ctx, d.popTimeout)
		if err != nil {
			if errors.Is(err, e.ErrAlertQueueEmpty) || ctx.Err() != nil {
				continue
			}
			d.logger.Error("BRPop failed", slog.Any("error", err))
			select {
			case <-ctx.Done():
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}

		select {
		case d.jobs <- ev:
		case <-ctx.Done():
			return
		}
	}
}

func (d *AlertDispatcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-d.jobs:
			d.dispatch(ctx, ev)
		}
	}
}

func (d *AlertDispatcher) dispatch(ctx context.Context, ev domain.AlertEvent) {
	for _, n := range d.notifiers {
		if err := n.Notify(ctx, ev); err != nil {
			d.logger.Error("alert delivery failed",
				slog.String("notifier", n.Name()),
				slog.String("alert_id", ev.ID.String()),
				slog.String("user_id", ev.UserID),
				slog.Any("error", err),
			)
			continue
		}
		d.logger.Debug("alert delivered",
			slog.String("notifier", n.Name()),
			slog.String("alert_id", ev.ID.String()),
		)
	}
}
