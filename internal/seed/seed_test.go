package seed

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/schemasync/internal/catalog"
	"github.com/syntrixbase/schemasync/internal/provision"
	"github.com/syntrixbase/schemasync/internal/provision/config"
	"github.com/syntrixbase/schemasync/internal/schema"
	"github.com/syntrixbase/schemasync/internal/schema/memory"
)

const dbID = "tiktok_db"

var now = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

// provisioned returns a memory service holding the given catalog.
func provisioned(t *testing.T, name string) (*memory.Service, *catalog.Catalog) {
	t.Helper()
	cat, err := catalog.Load(name)
	require.NoError(t, err)

	svc := memory.New(memory.WithBucket("media", "Media"))
	cfg := config.DefaultConfig()
	cfg.AttributeDelay, cfg.IndexDelay, cfg.SettleDelay = 0, 0, 0
	off := false
	cfg.Readiness.Enabled = &off

	_, err = provision.New(svc, provision.Options{
		DatabaseID:   dbID,
		DatabaseName: "TikTok",
		BucketID:     "media",
		Catalog:      cat,
		Config:       cfg,
		Sleeper:      provision.SleeperFunc(func(context.Context, time.Duration) error { return nil }),
	}).Run(context.Background())
	require.NoError(t, err)

	svc.ResetCalls()
	return svc, cat
}

func newSeeder(svc schema.Client, cat *catalog.Catalog) *Seeder {
	return New(svc, Options{
		DatabaseID:  dbID,
		Catalog:     cat,
		CallTimeout: time.Second,
		Now:         func() time.Time { return now },
	})
}

func TestSeeder_Run(t *testing.T) {
	svc, cat := provisioned(t, catalog.Full)

	results := newSeeder(svc, cat).Run(context.Background())

	assert.Equal(t, []Result{
		{Collection: "music", Created: 2, Total: 2},
		{Collection: "hashtags", Created: 4, Total: 4},
		{Collection: "challenges", Created: 1, Total: 1},
	}, results)

	challenge, err := svc.GetDocument(context.Background(), dbID, "challenges", DocumentID("challenges", "dancechallenge2024"))
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01T09:00:00Z", challenge["startDate"])
	assert.Equal(t, "2024-07-01T09:00:00Z", challenge["endDate"])
	assert.Equal(t, true, challenge["isOfficial"])
}

func TestSeeder_Idempotent(t *testing.T) {
	svc, cat := provisioned(t, catalog.Full)
	seeder := newSeeder(svc, cat)
	seeder.Run(context.Background())
	svc.ResetCalls()

	results := seeder.Run(context.Background())

	assert.Equal(t, []Result{
		{Collection: "music", AlreadyExists: 2, Total: 2},
		{Collection: "hashtags", AlreadyExists: 4, Total: 4},
		{Collection: "challenges", AlreadyExists: 1, Total: 1},
	}, results)

	var gets int
	for _, c := range svc.Calls() {
		if c.Op == "get_document" {
			gets++
		}
	}
	assert.Equal(t, 7, gets)
}

func TestSeeder_FailuresAreCollected(t *testing.T) {
	svc, cat := provisioned(t, catalog.Full)
	fyp := DocumentID("hashtags", "fyp")
	svc.SetHook(func(c memory.Call) error {
		if c.Op == "create_document" && c.Key == fyp {
			return schema.NewError(schema.KindService, c.Op, "Server Error")
		}
		if c.Op == "list_documents" && c.CollectionID == "challenges" {
			return schema.NewError(schema.KindService, c.Op, "Server Error")
		}
		return nil
	})

	results := newSeeder(svc, cat).Run(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, 3, results[1].Created)
	assert.Equal(t, 1, results[1].Failed)
	assert.Equal(t, []string{"fyp: Server Error"}, results[1].Errors)
	assert.Equal(t, 3, results[1].Total)
	assert.Equal(t, 1, results[2].Created)
	assert.Equal(t, -1, results[2].Total)
	assert.Equal(t, "challenges: 1 created, 0 already existed, 0 failed (unknown documents)", results[2].String())
}

func TestSeeder_SkipsCollectionsMissingFromCatalog(t *testing.T) {
	svc, cat := provisioned(t, catalog.Minimal)

	results := newSeeder(svc, cat).Run(context.Background())

	require.Len(t, results, 3)
	for _, r := range results {
		assert.Contains(t, r.Skipped, "catalog minimal has no")
		assert.Zero(t, r.Created)
	}
	assert.Empty(t, svc.Calls())
	assert.Equal(t, "music: skipped (catalog minimal has no music collection)", results[0].String())
}

func TestSeeder_SkipsCollectionMissingAttribute(t *testing.T) {
	cat, err := catalog.Load(catalog.Full)
	require.NoError(t, err)
	music, _ := cat.Collection("music")
	music.Attributes = music.Attributes[:3]

	results := New(memory.New(), Options{DatabaseID: dbID, Catalog: cat}).Run(context.Background())

	assert.Contains(t, results[0].Skipped, "collection has no ")
	assert.Empty(t, results[1].Skipped)
}

func TestSeeder_WithoutCatalogReportsRemoteErrors(t *testing.T) {
	svc := memory.New()

	results := New(svc, Options{DatabaseID: dbID}).Run(context.Background())

	require.Len(t, results, 3)
	assert.Equal(t, 2, results[0].Failed)
	assert.Equal(t, -1, results[0].Total)
}

func TestDocumentID(t *testing.T) {
	a := DocumentID("hashtags", "fyp")
	assert.Equal(t, a, DocumentID("hashtags", "fyp"))
	assert.NotEqual(t, a, DocumentID("hashtags", "viral"))
	assert.NotEqual(t, a, DocumentID("music", "fyp"))
	assert.Len(t, a, 36)

	samples := Samples(now)
	seen := map[string]bool{}
	for _, s := range samples {
		assert.False(t, seen[s.ID()], s.Key)
		seen[s.ID()] = true
	}
	assert.Len(t, samples, 7)
}

func TestSeeder_CanceledContext(t *testing.T) {
	svc, cat := provisioned(t, catalog.Full)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := newSeeder(svc, cat).Run(ctx)

	require.Len(t, results, 1)
	assert.Equal(t, "music", results[0].Collection)
	assert.Equal(t, 2, results[0].Failed)
	assert.Equal(t, -1, results[0].Total)
}
