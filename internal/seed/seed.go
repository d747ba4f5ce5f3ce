// Package seed inserts sample music, hashtags and a challenge after
// provisioning. Seeding is best effort: failures are logged and returned in
// the results, never escalated.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/syntrixbase/schemasync/internal/catalog"
	"github.com/syntrixbase/schemasync/internal/schema"
)

// Options configures a Seeder.
type Options struct {
	DatabaseID string
	// Catalog restricts seeding to collections it defines. Nil seeds all.
	Catalog *catalog.Catalog
	// CallTimeout bounds each remote call. Zero means no per-call bound.
	CallTimeout time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

// Result summarizes seeding for one collection.
type Result struct {
	Collection    string
	Created       int
	AlreadyExists int
	Failed        int
	// Total is the document count reported by the service afterwards, or
	// -1 when it could not be listed.
	Total int
	// Skipped explains why the collection was not seeded.
	Skipped string
	Errors  []string
}

func (r Result) String() string {
	if r.Skipped != "" {
		return fmt.Sprintf("%s: skipped (%s)", r.Collection, r.Skipped)
	}
	total := "unknown"
	if r.Total >= 0 {
		total = fmt.Sprint(r.Total)
	}
	return fmt.Sprintf("%s: %d created, %d already existed, %d failed (%s documents)",
		r.Collection, r.Created, r.AlreadyExists, r.Failed, total)
}

// Seeder inserts the sample documents.
type Seeder struct {
	client schema.Client
	opts   Options
}

func New(client schema.Client, opts Options) *Seeder {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Seeder{client: client, opts: opts}
}

// Run seeds every sample collection in order and returns one result per
// collection.
func (s *Seeder) Run(ctx context.Context) []Result {
	samples := Samples(s.opts.Now())
	slog.Info("Inserting sample data", "database", s.opts.DatabaseID, "documents", len(samples))

	var results []Result
	for _, coll := range Collections {
		res := Result{Collection: coll, Total: -1}
		if reason := s.skipReason(coll, samples); reason != "" {
			res.Skipped = reason
			slog.Info("Sample data skipped", "collection", coll, "reason", reason)
			results = append(results, res)
			continue
		}

		for _, sample := range samples {
			if sample.Collection != coll {
				continue
			}
			s.insert(ctx, sample, &res)
		}
		res.Total = s.count(ctx, coll)
		results = append(results, res)

		if ctx.Err() != nil {
			break
		}
	}
	return results
}

// skipReason reports why coll cannot be seeded against the configured
// catalog, or "" when it can.
func (s *Seeder) skipReason(coll string, samples []Sample) string {
	if s.opts.Catalog == nil {
		return ""
	}
	c, ok := s.opts.Catalog.Collection(coll)
	if !ok {
		return fmt.Sprintf("catalog %s has no %s collection", s.opts.Catalog.Name, coll)
	}
	for _, sample := range samples {
		if sample.Collection != coll {
			continue
		}
		for key := range sample.Data {
			if _, ok := c.Attribute(key); !ok {
				return fmt.Sprintf("collection has no %s attribute", key)
			}
		}
	}
	return ""
}

func (s *Seeder) insert(ctx context.Context, sample Sample, res *Result) {
	id := sample.ID()
	err := s.call(ctx, func(ctx context.Context) error {
		_, err := s.client.CreateDocument(ctx, s.opts.DatabaseID, sample.Collection, id, sample.Data)
		return err
	})

	switch {
	case err == nil:
		res.Created++
		slog.Debug("Sample document created", "collection", sample.Collection, "key", sample.Key, "id", id)

	case schema.IsConflict(err):
		res.AlreadyExists++
		gerr := s.call(ctx, func(ctx context.Context) error {
			_, err := s.client.GetDocument(ctx, s.opts.DatabaseID, sample.Collection, id)
			return err
		})
		if gerr != nil {
			slog.Warn("Existing sample document could not be fetched", "collection", sample.Collection, "id", id, "error", gerr)
		}

	default:
		res.Failed++
		msg := fmt.Sprintf("%s: %s", sample.Key, schema.Message(err))
		res.Errors = append(res.Errors, msg)
		if schema.IsCanceled(err) {
			slog.Warn("Sample document interrupted", "collection", sample.Collection, "key", sample.Key, "error", err)
			return
		}
		slog.Warn("Sample document failed", "collection", sample.Collection, "key", sample.Key, "kind", schema.KindOf(err), "error", schema.Message(err))
	}
}

func (s *Seeder) count(ctx context.Context, coll string) int {
	var list *schema.DocumentList
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		list, err = s.client.ListDocuments(ctx, s.opts.DatabaseID, coll, schema.ListOptions{
			Queries: []string{`{"method":"limit","values":[1]}`},
		})
		return err
	})
	if err != nil {
		slog.Warn("Sample collection could not be listed", "collection", coll, "error", err)
		return -1
	}
	return list.Total
}

func (s *Seeder) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.opts.CallTimeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}
