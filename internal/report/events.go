package report

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/syntrixbase/schemasync/internal/provision"
	"github.com/syntrixbase/schemasync/internal/pubsub"
)

// EventReporter publishes every event as JSON on subject <kind>, relative to
// the publisher's prefix. Publish failures never affect the run.
type EventReporter struct {
	publisher pubsub.Publisher
	failures  atomic.Int64
}

func NewEventReporter(p pubsub.Publisher) *EventReporter {
	return &EventReporter{publisher: p}
}

func (r *EventReporter) Report(ctx context.Context, e provision.Event) {
	data, err := json.Marshal(e)
	if err != nil {
		slog.Warn("Failed to encode event", "kind", e.Kind, "error", err)
		return
	}
	if err := r.publisher.Publish(ctx, string(e.Kind), data); err != nil {
		// Only the first failure is a warning.
		if r.failures.Add(1) == 1 {
			slog.Warn("Failed to publish event", "kind", e.Kind, "error", err)
		} else {
			slog.Debug("Failed to publish event", "kind", e.Kind, "error", err)
		}
	}
}

// Failures returns the number of events that could not be published.
func (r *EventReporter) Failures() int64 {
	return r.failures.Load()
}
