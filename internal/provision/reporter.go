package provision

import (
	"context"
	"time"
)

// EventKind identifies a step reported by the orchestrator.
type EventKind string

const (
	EventRunStarted         EventKind = "run_started"
	EventStateChanged       EventKind = "state_changed"
	EventBucketChecked      EventKind = "bucket_checked"
	EventDatabaseEnsured    EventKind = "database_ensured"
	EventCollectionStarted  EventKind = "collection_started"
	EventCollectionEnsured  EventKind = "collection_ensured"
	EventAttributeAttempted EventKind = "attribute_attempted"
	EventSchemaSettling     EventKind = "schema_settling"
	EventAttributeNotReady  EventKind = "attribute_not_ready"
	EventIndexAttempted     EventKind = "index_attempted"
	EventCollectionFinished EventKind = "collection_finished"
	EventRunFinished        EventKind = "run_finished"
)

// Event is one progress notification. Only the fields relevant to Kind are set.
type Event struct {
	Kind EventKind `json:"kind"`
	Time time.Time `json:"time"`

	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`

	DatabaseID   string `json:"database_id,omitempty"`
	CollectionID string `json:"collection_id,omitempty"`
	Key          string `json:"key,omitempty"`
	Type         string `json:"type,omitempty"`
	// Attributes is set on index events.
	Attributes []string `json:"attributes,omitempty"`
	Outcome    *Outcome `json:"outcome,omitempty"`

	// Mode is "poll" or "delay" on schema_settling.
	Mode  string        `json:"mode,omitempty"`
	Delay time.Duration `json:"delay,omitempty"`

	// Catalog and Fingerprint are set on run_started.
	Catalog     string `json:"catalog,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`

	Message string   `json:"message,omitempty"`
	Summary *Summary `json:"summary,omitempty"`
}

// Reporter receives progress events. Implementations must not block the run
// for long; errors are theirs to handle.
type Reporter interface {
	Report(ctx context.Context, e Event)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, e Event)

func (f ReporterFunc) Report(ctx context.Context, e Event) { f(ctx, e) }

// MultiReporter fans an event out to every reporter in order.
type MultiReporter []Reporter

func (m MultiReporter) Report(ctx context.Context, e Event) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, e)
		}
	}
}

type nopReporter struct{}

func (nopReporter) Report(context.Context, Event) {}

// Recorder keeps every event in memory.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Report(_ context.Context, e Event) {
	r.Events = append(r.Events, e)
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []EventKind {
	out := make([]EventKind, len(r.Events))
	for i, e := range r.Events {
		out[i] = e.Kind
	}
	return out
}

// Filter returns the recorded events of the given kind.
func (r *Recorder) Filter(kind EventKind) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}
