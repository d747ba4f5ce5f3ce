// Package report provides provision.Reporter implementations: a structured
// log transcript, a console summary table, a NATS event stream and
// Prometheus metrics.
package report

import (
	"context"
	"log/slog"

	"github.com/syntrixbase/schemasync/internal/provision"
)

// LogReporter writes one structured log line per step.
type LogReporter struct {
	logger *slog.Logger
}

// NewLogReporter logs through logger, or slog.Default() when nil.
func NewLogReporter(logger *slog.Logger) *LogReporter {
	return &LogReporter{logger: logger}
}

func (r *LogReporter) log() *slog.Logger {
	if r.logger != nil {
		return r.logger
	}
	return slog.Default()
}

func (r *LogReporter) Report(ctx context.Context, e provision.Event) {
	l := r.log()

	switch e.Kind {
	case provision.EventRunStarted:
		l.InfoContext(ctx, "Provisioning started",
			"catalog", e.Catalog,
			"fingerprint", e.Fingerprint,
			"database", e.DatabaseID,
			"scope", e.Message)

	case provision.EventStateChanged:
		l.DebugContext(ctx, "State changed", "from", e.From, "to", e.To)

	case provision.EventBucketChecked:
		if e.Message == "" {
			l.InfoContext(ctx, "Storage bucket found", "bucket", e.Key)
		} else {
			l.WarnContext(ctx, "Storage bucket check failed", "bucket", e.Key, "reason", e.Message)
		}

	case provision.EventDatabaseEnsured:
		r.outcome(ctx, "Database", e, "database", e.DatabaseID, "name", e.Key)

	case provision.EventCollectionStarted:
		l.DebugContext(ctx, "Collection started", "collection", e.CollectionID, "name", e.Key)

	case provision.EventCollectionEnsured:
		r.outcome(ctx, "Collection", e, "collection", e.CollectionID, "name", e.Key)

	case provision.EventAttributeAttempted:
		r.outcome(ctx, "Attribute", e, "collection", e.CollectionID, "attribute", e.Key, "type", e.Type)

	case provision.EventSchemaSettling:
		l.InfoContext(ctx, "Waiting for attributes", "collection", e.CollectionID, "mode", e.Mode, "limit", e.Delay)

	case provision.EventAttributeNotReady:
		l.WarnContext(ctx, "Attribute not ready", "collection", e.CollectionID, "attribute", e.Key, "reason", e.Message)

	case provision.EventIndexAttempted:
		r.outcome(ctx, "Index", e, "collection", e.CollectionID, "index", e.Key, "type", e.Type, "attributes", e.Attributes)

	case provision.EventCollectionFinished:
		l.DebugContext(ctx, "Collection finished", "collection", e.CollectionID, "detail", e.Message)

	case provision.EventRunFinished:
		s := e.Summary
		if s == nil {
			return
		}
		attrs := []any{
			"state", s.State,
			"duration", s.Duration(),
			"collections", s.CollectionsAttempted(),
			"attributes", s.AttributesAttempted(),
			"indexes", s.IndexesAttempted(),
			"failures", len(s.Failures()),
		}
		if s.Fatal != "" {
			l.ErrorContext(ctx, "Provisioning aborted", append(attrs, "error", s.Fatal)...)
			return
		}
		l.InfoContext(ctx, "Provisioning finished", attrs...)
	}
}

// outcome logs a create attempt: Info when the entity exists afterwards,
// Warn with the remote message when it does not.
func (r *LogReporter) outcome(ctx context.Context, entity string, e provision.Event, args ...any) {
	if e.Outcome == nil {
		return
	}
	args = append(args, "status", string(e.Outcome.Status))
	if e.Outcome.Succeeded() {
		r.log().InfoContext(ctx, entity+" ensured", args...)
		return
	}
	args = append(args, "kind", string(e.Outcome.Kind), "reason", e.Outcome.Reason)
	r.log().WarnContext(ctx, entity+" failed", args...)
}
