// Package provision drives a schema.Client through a catalog: database,
// then each collection with its attributes, a settle phase and its indexes,
// strictly in catalog order.
package provision

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/looplab/fsm"

	"github.com/syntrixbase/schemasync/internal/catalog"
	"github.com/syntrixbase/schemasync/internal/provision/config"
	"github.com/syntrixbase/schemasync/internal/schema"
)

// Options configures an Orchestrator.
type Options struct {
	DatabaseID   string
	DatabaseName string
	BucketID     string

	Catalog *catalog.Catalog
	Config  config.Config

	// Reporter receives progress events. Nil discards them.
	Reporter Reporter
	// Sleeper performs pacing delays. Nil uses TimerSleeper.
	Sleeper Sleeper
	// Now defaults to time.Now.
	Now func() time.Time
}

// FatalError aborts a run. It is returned when a database or collection
// cannot be ensured, or when the run context ends.
type FatalError struct {
	State        string
	CollectionID string
	Err          error
}

func (e *FatalError) Error() string {
	if e.CollectionID != "" {
		return fmt.Sprintf("provisioning aborted in %s (collection %s): %v", e.State, e.CollectionID, e.Err)
	}
	return fmt.Sprintf("provisioning aborted in %s: %v", e.State, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

// Orchestrator provisions one catalog. It is single-use.
type Orchestrator struct {
	client    schema.Client
	inspector schema.AttributeInspector
	opts      Options
	cfg       config.Config
	reporter  Reporter
	sleeper   Sleeper
	now       func() time.Time

	machine   *fsm.FSM
	reportCtx context.Context
	summary   *Summary
}

// New creates an Orchestrator.
func New(client schema.Client, opts Options) *Orchestrator {
	o := &Orchestrator{
		client:   client,
		opts:     opts,
		cfg:      opts.Config,
		reporter: opts.Reporter,
		sleeper:  opts.Sleeper,
		now:      opts.Now,
	}
	o.cfg.ApplyDefaults()
	if o.reporter == nil {
		o.reporter = nopReporter{}
	}
	if o.sleeper == nil {
		o.sleeper = TimerSleeper{}
	}
	if o.now == nil {
		o.now = time.Now
	}
	o.machine = newMachine(func(_ context.Context, from, to string) {
		o.summary.State = to
		o.emit(Event{Kind: EventStateChanged, From: from, To: to})
	})
	return o
}

// State returns the current state of the run.
func (o *Orchestrator) State() string {
	return o.machine.Current()
}

// Run provisions the catalog. The returned Summary is always non-nil; the
// error is non-nil only when the run ended in fatal_error.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	o.reportCtx = context.WithoutCancel(ctx)
	o.summary = &Summary{
		DatabaseID: o.opts.DatabaseID,
		State:      o.machine.Current(),
		StartedAt:  o.now(),
	}

	if o.opts.Catalog == nil {
		err := &FatalError{State: o.machine.Current(), Err: errors.New("no catalog")}
		return o.finish(err), err
	}

	o.summary.Catalog = o.opts.Catalog.Name
	if fp, err := catalog.Fingerprint(o.opts.Catalog); err == nil {
		o.summary.Fingerprint = fp
	} else {
		slog.Warn("Catalog fingerprint unavailable", "error", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.cfg.RunTimeout)
	defer cancel()

	o.emit(Event{
		Kind:        EventRunStarted,
		DatabaseID:  o.opts.DatabaseID,
		Catalog:     o.summary.Catalog,
		Fingerprint: o.summary.Fingerprint,
		Message: fmt.Sprintf("%d collections, %d attributes, %d indexes",
			len(o.opts.Catalog.Collections), o.opts.Catalog.AttributeCount(), o.opts.Catalog.IndexCount()),
	})

	err := o.provision(ctx)
	return o.finish(err), err
}

func (o *Orchestrator) finish(err error) *Summary {
	if err != nil {
		o.summary.Fatal = err.Error()
		if terr := o.transition(eventFail); terr != nil {
			slog.Error("Failed to enter fatal state", "error", terr)
		}
	} else {
		if terr := o.transition(eventReport); terr != nil {
			slog.Error("Failed to enter reporting state", "error", terr)
		}
	}

	o.summary.FinishedAt = o.now()
	if err == nil {
		if terr := o.transition(eventFinish); terr != nil {
			slog.Error("Failed to enter done state", "error", terr)
		}
	}
	o.summary.State = o.machine.Current()
	o.emit(Event{Kind: EventRunFinished, DatabaseID: o.opts.DatabaseID, Summary: o.summary})
	return o.summary
}

func (o *Orchestrator) provision(ctx context.Context) error {
	if err := o.transition(eventConfigure); err != nil {
		return err
	}
	o.configureClient()

	if err := o.transition(eventCheckBucket); err != nil {
		return err
	}
	if err := o.checkBucket(ctx); err != nil {
		return err
	}

	if err := o.transition(eventEnsureDatabase); err != nil {
		return err
	}
	if err := o.ensureDatabase(ctx); err != nil {
		return err
	}

	for i := range o.opts.Catalog.Collections {
		if err := o.transition(eventEnsureCollection); err != nil {
			return err
		}
		if err := o.provisionCollection(ctx, &o.opts.Catalog.Collections[i]); err != nil {
			return err
		}
	}
	return nil
}

// transition fires an fsm event. Transitions ignore run cancellation so the
// machine can always reach fatal_error.
func (o *Orchestrator) transition(event string) error {
	if err := o.machine.Event(o.reportCtx, event); err != nil {
		return &FatalError{State: o.machine.Current(), Err: fmt.Errorf("transition %q: %w", event, err)}
	}
	return nil
}

func (o *Orchestrator) emit(e Event) {
	e.Time = o.now()
	o.reporter.Report(o.reportCtx, e)
}

// abort converts an ended run context into a FatalError.
func (o *Orchestrator) abort(ctx context.Context, collectionID string) error {
	if err := ctx.Err(); err != nil {
		return &FatalError{State: o.machine.Current(), CollectionID: collectionID, Err: err}
	}
	return nil
}

// call runs fn with the per-call timeout.
func (o *Orchestrator) call(ctx context.Context, fn func(ctx context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, o.cfg.CallTimeout)
	defer cancel()
	return fn(callCtx)
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration, collectionID string) error {
	if err := o.sleeper.Sleep(ctx, d); err != nil {
		if aerr := o.abort(ctx, collectionID); aerr != nil {
			return aerr
		}
		return &FatalError{State: o.machine.Current(), CollectionID: collectionID, Err: err}
	}
	return nil
}

func (o *Orchestrator) configureClient() {
	if inspector, ok := o.client.(schema.AttributeInspector); ok && o.cfg.Readiness.IsEnabled() {
		o.inspector = inspector
	}
	slog.Debug("Schema client configured",
		"readiness_polling", o.inspector != nil,
		"call_timeout", o.cfg.CallTimeout,
		"run_timeout", o.cfg.RunTimeout)
}

func (o *Orchestrator) checkBucket(ctx context.Context) error {
	check := BucketCheck{ID: o.opts.BucketID}

	err := o.call(ctx, func(ctx context.Context) error {
		_, err := o.client.GetBucket(ctx, o.opts.BucketID)
		return err
	})
	switch {
	case err == nil:
		check.Found = true
	case schema.IsNotFound(err):
		check.Kind = schema.KindNotFound
		check.Reason = fmt.Sprintf("storage bucket %q not found; create it in the console before uploading media", o.opts.BucketID)
	default:
		check.Kind = schema.KindOf(err)
		check.Reason = schema.Message(err)
	}
	o.summary.Bucket = check
	o.emit(Event{Kind: EventBucketChecked, Key: check.ID, Message: check.Reason})

	return o.abort(ctx, "")
}

func (o *Orchestrator) ensureDatabase(ctx context.Context) error {
	id, name := o.opts.DatabaseID, o.opts.DatabaseName

	err := o.call(ctx, func(ctx context.Context) error {
		_, err := o.client.CreateDatabase(ctx, id, name)
		return err
	})
	out := outcomeOf(err)
	if schema.IsConflict(err) {
		ferr := o.call(ctx, func(ctx context.Context) error {
			_, err := o.client.GetDatabase(ctx, id)
			return err
		})
		if ferr != nil {
			slog.Warn("Existing database could not be fetched", "database", id, "error", ferr)
		}
	}
	o.summary.Database = out
	o.emit(Event{Kind: EventDatabaseEnsured, DatabaseID: id, Key: name, Outcome: &out})

	if aerr := o.abort(ctx, ""); aerr != nil {
		return aerr
	}
	if !out.Succeeded() {
		return &FatalError{State: StateEnsuringDatabase, Err: err}
	}
	return nil
}

func (o *Orchestrator) provisionCollection(ctx context.Context, coll *catalog.Collection) error {
	o.summary.Collections = append(o.summary.Collections, CollectionResult{ID: coll.ID, Name: coll.Name})
	res := &o.summary.Collections[len(o.summary.Collections)-1]

	o.emit(Event{Kind: EventCollectionStarted, DatabaseID: o.opts.DatabaseID, CollectionID: coll.ID, Key: coll.Name})

	if err := o.ensureCollection(ctx, coll, res); err != nil {
		return err
	}

	if err := o.transition(eventAddAttributes); err != nil {
		return err
	}
	ready, err := o.addAttributes(ctx, coll, res)
	if err != nil {
		return err
	}

	if err := o.transition(eventSettle); err != nil {
		return err
	}
	if err := o.settle(ctx, coll, res, ready); err != nil {
		return err
	}

	if err := o.transition(eventAddIndexes); err != nil {
		return err
	}
	if err := o.addIndexes(ctx, coll, res); err != nil {
		return err
	}

	o.emit(Event{
		Kind:         EventCollectionFinished,
		DatabaseID:   o.opts.DatabaseID,
		CollectionID: coll.ID,
		Outcome:      &res.Outcome,
		Message:      fmt.Sprintf("%d attributes, %d indexes attempted", len(res.Attributes), len(res.Indexes)),
	})
	return nil
}

func (o *Orchestrator) ensureCollection(ctx context.Context, coll *catalog.Collection, res *CollectionResult) error {
	dbID := o.opts.DatabaseID
	permissions := o.opts.Catalog.PermissionsFor(coll)

	err := o.call(ctx, func(ctx context.Context) error {
		_, err := o.client.CreateCollection(ctx, dbID, coll.ID, coll.Name, permissions)
		return err
	})
	res.Outcome = outcomeOf(err)
	if schema.IsConflict(err) {
		ferr := o.call(ctx, func(ctx context.Context) error {
			_, err := o.client.GetCollection(ctx, dbID, coll.ID)
			return err
		})
		if ferr != nil {
			slog.Warn("Existing collection could not be fetched", "collection", coll.ID, "error", ferr)
		}
	}
	o.emit(Event{Kind: EventCollectionEnsured, DatabaseID: dbID, CollectionID: coll.ID, Key: coll.Name, Outcome: &res.Outcome})

	if aerr := o.abort(ctx, coll.ID); aerr != nil {
		return aerr
	}
	if !res.Outcome.Succeeded() {
		return &FatalError{State: StateEnsuringCollection, CollectionID: coll.ID, Err: err}
	}
	return nil
}

// addAttributes attempts every attribute in order and returns the keys that
// exist remotely afterwards.
func (o *Orchestrator) addAttributes(ctx context.Context, coll *catalog.Collection, res *CollectionResult) ([]string, error) {
	var existing []string
	for i := range coll.Attributes {
		attr := &coll.Attributes[i]

		err := o.call(ctx, func(ctx context.Context) error {
			return o.createAttribute(ctx, coll.ID, attr)
		})
		out := outcomeOf(err)
		res.Attributes = append(res.Attributes, EntityResult{Key: attr.Key, Type: string(attr.Type), Outcome: out})
		o.emit(Event{
			Kind:         EventAttributeAttempted,
			DatabaseID:   o.opts.DatabaseID,
			CollectionID: coll.ID,
			Key:          attr.Key,
			Type:         string(attr.Type),
			Outcome:      &out,
		})
		if out.Succeeded() {
			existing = append(existing, attr.Key)
		}

		if err := o.abort(ctx, coll.ID); err != nil {
			return nil, err
		}
		if err := o.sleep(ctx, o.cfg.AttributeDelay, coll.ID); err != nil {
			return nil, err
		}
	}
	return existing, nil
}

func (o *Orchestrator) settle(ctx context.Context, coll *catalog.Collection, res *CollectionResult, keys []string) error {
	if o.inspector == nil {
		o.emit(Event{Kind: EventSchemaSettling, CollectionID: coll.ID, Mode: "delay", Delay: o.cfg.SettleDelay})
		return o.sleep(ctx, o.cfg.SettleDelay, coll.ID)
	}

	o.emit(Event{Kind: EventSchemaSettling, CollectionID: coll.ID, Mode: "poll", Delay: o.cfg.Readiness.Timeout})
	notReady, err := o.awaitAttributes(ctx, coll.ID, keys)
	res.NotReady = notReady
	return err
}

func (o *Orchestrator) addIndexes(ctx context.Context, coll *catalog.Collection, res *CollectionResult) error {
	for i := range coll.Indexes {
		idx := &coll.Indexes[i]
		def := schema.IndexDefinition{
			Key:        idx.Key,
			Type:       string(idx.Type),
			Attributes: append([]string(nil), idx.Attributes...),
		}

		err := o.call(ctx, func(ctx context.Context) error {
			return o.client.CreateIndex(ctx, o.opts.DatabaseID, coll.ID, def)
		})
		out := outcomeOf(err)
		res.Indexes = append(res.Indexes, EntityResult{Key: idx.Key, Type: string(idx.Type), Outcome: out})
		o.emit(Event{
			Kind:         EventIndexAttempted,
			DatabaseID:   o.opts.DatabaseID,
			CollectionID: coll.ID,
			Key:          idx.Key,
			Type:         string(idx.Type),
			Attributes:   def.Attributes,
			Outcome:      &out,
		})

		if err := o.abort(ctx, coll.ID); err != nil {
			return err
		}
		if err := o.sleep(ctx, o.cfg.IndexDelay, coll.ID); err != nil {
			return err
		}
	}
	return nil
}
