// Command schemasync provisions the TikTok-style database schema on an
// Appwrite-compatible backend and optionally inserts sample data.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/syntrixbase/schemasync/internal/catalog"
	"github.com/syntrixbase/schemasync/internal/config"
	"github.com/syntrixbase/schemasync/internal/logging"
	"github.com/syntrixbase/schemasync/internal/provision"
	"github.com/syntrixbase/schemasync/internal/pubsub"
	"github.com/syntrixbase/schemasync/internal/pubsub/nats"
	"github.com/syntrixbase/schemasync/internal/report"
	"github.com/syntrixbase/schemasync/internal/schema"
	"github.com/syntrixbase/schemasync/internal/schema/appwrite"
	"github.com/syntrixbase/schemasync/internal/schema/memory"
	"github.com/syntrixbase/schemasync/internal/seed"
)

// Version is the tool version (can be overridden at build time).
var Version = "dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2

	pushTimeout = 10 * time.Second
)

// Defaults used by -dry-run when the connection variables are not set.
const (
	dryRunDatabaseID   = "dry_run_db"
	dryRunDatabaseName = "Dry Run"
	dryRunBucketID     = "dry_run_media"
)

// deps are the process collaborators, replaced in tests.
type deps struct {
	lookup func(string) (string, bool)
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	colors bool

	newClient     func(conn config.ConnectionConfig) schema.Client
	connectEvents func(ctx context.Context, opts nats.Options) (pubsub.Publisher, error)
	sleeper       provision.Sleeper
	now           func() time.Time
}

func defaultDeps() deps {
	return deps{
		lookup: os.LookupEnv,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		colors: !color.NoColor,
		newClient: func(conn config.ConnectionConfig) schema.Client {
			return appwrite.New(appwrite.Options{
				Endpoint:  conn.Endpoint,
				ProjectID: conn.ProjectID,
				APIKey:    conn.APIKey,
			})
		},
		connectEvents: func(ctx context.Context, opts nats.Options) (pubsub.Publisher, error) {
			return nats.Connect(ctx, opts)
		},
		now: time.Now,
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], defaultDeps())
	stop()
	os.Exit(code)
}

type flags struct {
	configPath string
	catalog    string
	seed       string
	dryRun     bool
	validate   bool
	version    bool
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	var f flags
	fs := flag.NewFlagSet("schemasync", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&f.configPath, "config", "", "path to the YAML config file (default "+config.DefaultConfigPath+" if present)")
	fs.StringVar(&f.catalog, "catalog", "", "catalog to provision: minimal, full or a path to a YAML catalog")
	fs.StringVar(&f.seed, "seed", "", "sample data: ask, always or never")
	fs.BoolVar(&f.dryRun, "dry-run", false, "provision an in-memory service instead of the remote one")
	fs.BoolVar(&f.validate, "validate", false, "validate the catalog and exit")
	fs.BoolVar(&f.version, "version", false, "print the version and exit")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return &f, nil
}

func run(ctx context.Context, args []string, d deps) int {
	f, err := parseFlags(args, d.stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return exitUsage
	}
	if d.now == nil {
		d.now = time.Now
	}

	switch {
	case f.version:
		fmt.Fprintf(d.stdout, "schemasync version %s\n", Version)
		return exitOK
	case f.validate:
		return validateCatalog(f, d)
	}

	// 1. Tool settings
	cfg, err := config.LoadConfig(config.LoadOptions{Path: f.configPath, Lookup: d.lookup})
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return exitError
	}
	if f.catalog != "" {
		cfg.Catalog.Source = f.catalog
	}
	if f.seed != "" {
		mode, err := config.ParseSeedMode(f.seed)
		if err != nil {
			fmt.Fprintf(d.stderr, "Error: %v\n", err)
			return exitUsage
		}
		cfg.Seed.Mode = mode
	}

	// 2. Logging
	if err := logging.Initialize(cfg.Logging, d.stderr); err != nil {
		fmt.Fprintf(d.stderr, "Error: failed to initialize logging: %v\n", err)
		return exitError
	}
	defer func() {
		if err := logging.Shutdown(); err != nil {
			fmt.Fprintf(d.stderr, "Error: failed to close log files: %v\n", err)
		}
	}()
	if cfg.Path != "" {
		slog.Debug("Configuration loaded", "path", cfg.Path)
	}

	// 3. Connection
	conn, err := connection(f.dryRun, d.lookup)
	if err != nil {
		slog.Error("Configuration incomplete", "error", err)
		return exitError
	}
	slog.Info("Connection configured", "connection", conn.String(), "dry_run", f.dryRun)

	// 4. Catalog
	cat, err := catalog.Load(cfg.Catalog.Source)
	if err != nil {
		if errors.Is(err, catalog.ErrUnknownCatalog) {
			slog.Error("Catalog not found", "source", cfg.Catalog.Source, "builtin", catalog.Builtin())
			return exitError
		}
		slog.Error("Catalog invalid", "source", cfg.Catalog.Source, "error", err)
		return exitError
	}

	// 5. Client
	var client schema.Client
	sleeper := d.sleeper
	if f.dryRun {
		client = memory.New(memory.WithBucket(conn.BucketID, "Media"))
		sleeper = provision.SleeperFunc(func(ctx context.Context, _ time.Duration) error { return ctx.Err() })
	} else {
		client = d.newClient(conn)
	}

	// 6. Reporters
	reporters := provision.MultiReporter{
		report.NewLogReporter(nil),
		report.NewMetricsReporter(),
		report.NewConsoleReporter(d.stdout, d.colors),
	}
	if cfg.Events.Enabled() {
		publisher, err := d.connectEvents(ctx, nats.Options{
			URL:    cfg.Events.NATSURL,
			Stream: cfg.Events.Stream,
			PublisherOptions: pubsub.PublisherOptions{
				SubjectPrefix: cfg.Events.Subject,
				OnPublish:     report.ObservePublish,
			},
		})
		if err != nil {
			slog.Warn("Event publishing disabled", "url", cfg.Events.NATSURL, "error", err)
		} else {
			events := report.NewEventReporter(publisher)
			defer func() {
				if n := events.Failures(); n > 0 {
					slog.Warn("Some events were not published", "failures", n)
				}
				if err := publisher.Close(); err != nil {
					slog.Warn("Failed to close event publisher", "error", err)
				}
			}()
			reporters = append(reporters, events)
		}
	}

	// 7. Provision
	orch := provision.New(client, provision.Options{
		DatabaseID:   conn.DatabaseID,
		DatabaseName: conn.DatabaseName,
		BucketID:     conn.BucketID,
		Catalog:      cat,
		Config:       cfg.Provision,
		Reporter:     reporters,
		Sleeper:      sleeper,
		Now:          d.now,
	})
	summary, runErr := orch.Run(ctx)

	// 8. Sample data
	if runErr == nil {
		seedSampleData(ctx, client, cat, conn, cfg, d)
	}

	// 9. Metrics
	if cfg.Metrics.Enabled() {
		pushMetrics(ctx, cfg.Metrics, conn.DatabaseID)
	}

	if runErr != nil {
		slog.Error("Schema provisioning failed", "state", summary.State, "error", runErr)
		return exitError
	}
	return exitOK
}

// validateCatalog loads and validates the catalog without touching the
// configuration file or the network.
func validateCatalog(f *flags, d deps) int {
	source := f.catalog
	if source == "" {
		if v, ok := d.lookup("SCHEMASYNC_CATALOG"); ok && v != "" {
			source = v
		} else {
			source = catalog.Full
		}
	}

	cat, err := catalog.Load(source)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		if errors.Is(err, catalog.ErrUnknownCatalog) {
			fmt.Fprintf(d.stderr, "Builtin catalogs: %s\n", strings.Join(catalog.Builtin(), ", "))
		}
		return exitError
	}
	fp, err := catalog.Fingerprint(cat)
	if err != nil {
		fmt.Fprintf(d.stderr, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintf(d.stdout, "Catalog %s is valid: %d collections, %d attributes, %d indexes (fingerprint %s)\n",
		cat.Name, len(cat.Collections), cat.AttributeCount(), cat.IndexCount(), fp)
	return exitOK
}

// connection reads the connection variables. A dry run needs none of them.
func connection(dryRun bool, lookup func(string) (string, bool)) (config.ConnectionConfig, error) {
	if !dryRun {
		return config.LoadConnection(lookup)
	}
	get := func(name, def string) string {
		if v, ok := lookup(name); ok && v != "" {
			return v
		}
		return def
	}
	return config.ConnectionConfig{
		Endpoint:     get(config.EnvEndpoint, "memory://"),
		ProjectID:    get(config.EnvProjectID, "dry-run"),
		BucketID:     get(config.EnvBucketID, dryRunBucketID),
		DatabaseID:   get(config.EnvDatabaseID, dryRunDatabaseID),
		DatabaseName: get(config.EnvDatabaseName, dryRunDatabaseName),
	}, nil
}

func seedSampleData(ctx context.Context, client schema.Client, cat *catalog.Catalog, conn config.ConnectionConfig, cfg *config.Config, d deps) {
	switch cfg.Seed.Mode {
	case config.SeedNever:
		slog.Debug("Sample data disabled")
		return
	case config.SeedAsk:
		if !seed.Confirm(d.stdin, d.stdout, seed.Question) {
			slog.Info("Sample data skipped")
			return
		}
	}

	results := seed.New(client, seed.Options{
		DatabaseID:  conn.DatabaseID,
		Catalog:     cat,
		CallTimeout: cfg.Provision.CallTimeout,
		Now:         d.now,
	}).Run(ctx)

	fmt.Fprintln(d.stdout, "Sample data:")
	for _, r := range results {
		fmt.Fprintf(d.stdout, "  %s\n", r)
	}
}

func pushMetrics(ctx context.Context, cfg config.MetricsConfig, databaseID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), pushTimeout)
	defer cancel()

	err := report.Push(ctx, report.PushOptions{
		URL:        cfg.PushgatewayURL,
		Job:        cfg.Job,
		Grouping:   map[string]string{"database": databaseID},
		Collectors: []prometheus.Collector{appwrite.RequestLatency, appwrite.RequestsTotal},
	})
	if err != nil {
		slog.Warn("Failed to push metrics", "error", err)
		return
	}
	slog.Debug("Metrics pushed", "url", cfg.PushgatewayURL, "job", cfg.Job)
}
