package report

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/syntrixbase/schemasync/internal/provision"
)

var (
	EntitiesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schemasync_entities_total",
		Help: "The total number of provisioning attempts by entity and status",
	}, []string{"entity", "status"})

	AttributesNotReady = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "schemasync_attributes_not_ready_total",
		Help: "The total number of attributes that did not become available",
	})

	RunDuration = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schemasync_run_duration_seconds",
		Help: "The wall time of the last provisioning run",
	})

	RunSuccess = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schemasync_run_success",
		Help: "1 if the last run walked the whole catalog, 0 if it aborted",
	})

	LastRunTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "schemasync_last_run_timestamp_seconds",
		Help: "Unix time at which the last run finished",
	})

	EventsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "schemasync_events_published_total",
		Help: "The total number of run events published by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(EntitiesTotal)
	prometheus.MustRegister(AttributesNotReady)
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(RunSuccess)
	prometheus.MustRegister(LastRunTimestamp)
	prometheus.MustRegister(EventsPublished)
}

// ObservePublish records one event publish attempt. It matches
// pubsub.PublisherOptions.OnPublish.
func ObservePublish(_ string, err error, _ time.Duration) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	EventsPublished.WithLabelValues(outcome).Inc()
}

// MetricsReporter updates the package metrics from run events.
type MetricsReporter struct{}

func NewMetricsReporter() *MetricsReporter {
	return &MetricsReporter{}
}

func (MetricsReporter) Report(_ context.Context, e provision.Event) {
	switch e.Kind {
	case provision.EventDatabaseEnsured:
		observeOutcome("database", e.Outcome)
	case provision.EventCollectionEnsured:
		observeOutcome("collection", e.Outcome)
	case provision.EventAttributeAttempted:
		observeOutcome("attribute", e.Outcome)
	case provision.EventIndexAttempted:
		observeOutcome("index", e.Outcome)
	case provision.EventAttributeNotReady:
		AttributesNotReady.Inc()
	case provision.EventRunFinished:
		if e.Summary == nil {
			return
		}
		RunDuration.Set(e.Summary.Duration().Seconds())
		LastRunTimestamp.Set(float64(e.Summary.FinishedAt.Unix()))
		if e.Summary.Fatal == "" {
			RunSuccess.Set(1)
		} else {
			RunSuccess.Set(0)
		}
	}
}

func observeOutcome(entity string, o *provision.Outcome) {
	if o == nil {
		return
	}
	EntitiesTotal.WithLabelValues(entity, string(o.Status)).Inc()
}

// Collectors returns the run metrics for pushing.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		EntitiesTotal,
		AttributesNotReady,
		RunDuration,
		RunSuccess,
		LastRunTimestamp,
		EventsPublished,
	}
}

// PushOptions configures Push.
type PushOptions struct {
	URL string
	Job string
	// Grouping adds grouping labels, e.g. database.
	Grouping map[string]string
	// Collectors are pushed in addition to Collectors().
	Collectors []prometheus.Collector
}

// Push replaces the job's metrics on the Pushgateway.
func Push(ctx context.Context, opts PushOptions) error {
	p := push.New(opts.URL, opts.Job)
	for _, c := range Collectors() {
		p = p.Collector(c)
	}
	for _, c := range opts.Collectors {
		p = p.Collector(c)
	}
	for name, value := range opts.Grouping {
		p = p.Grouping(name, value)
	}
	if err := p.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics to %s: %w", opts.URL, err)
	}
	return nil
}
