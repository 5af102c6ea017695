package notifications

import (
	"context"
	"log/slog"
	"time"

	"printq/internal/logging"
	"printq/internal/store"
)

const deliveryTimeout = 15 * time.Second

// Dispatcher consumes store events and hands them to the notification
// service. It runs on its own goroutine so delivery latency and failures
// never reach the store's mutation path; failed deliveries are warnings.
type Dispatcher struct {
	service Service
	logger  *slog.Logger
}

// NewDispatcher wires a dispatcher to a notification service.
func NewDispatcher(service Service, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		service: service,
		logger:  logging.NewComponentLogger(logger, "dispatcher"),
	}
}

// Run drains events until the context is cancelled.
func (d *Dispatcher) Run(ctx context.Context, events <-chan store.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-events:
			d.dispatch(ctx, event)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, event store.Event) {
	sendCtx, cancel := context.WithTimeout(ctx, deliveryTimeout)
	defer cancel()

	var err error
	switch event.Kind {
	case store.EventCreated:
		err = d.service.NotifyRequestReceived(sendCtx, event.RequestID, event.Title)
	case store.EventStatusChanged:
		err = d.service.NotifyStatusChanged(sendCtx, event.RequestID, event.NewStatus, event.Title)
	case store.EventArchived:
		err = d.service.NotifyRequestArchived(sendCtx, event.RequestID, event.Title)
	default:
		d.logger.Warn("unknown event kind", logging.String("kind", string(event.Kind)))
		return
	}
	if err != nil {
		d.logger.Warn("notification delivery failed",
			logging.String(logging.FieldRequestID, event.RequestID),
			logging.String("kind", string(event.Kind)),
			logging.Error(err),
		)
	}
}
