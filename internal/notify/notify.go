// Package notify delivers fired proximity alerts to the outside world.
package notify

import (
	"context"

	"github.com/CLillis357/VigilantIE/internal/domain"
)

// Notifier delivers one alert over one channel.
type Notifier interface {
	Name() string
	Notify(ctx context.Context, ev domain.AlertEvent) error
}
