package report

import (
	"time"

	"github.com/syntrixbase/schemasync/internal/provision"
	"github.com/syntrixbase/schemasync/internal/schema"
)

var (
	started  = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	finished = started.Add(42 * time.Second)
)

func created() provision.Outcome { return provision.Outcome{Status: provision.StatusCreated} }

func existing() provision.Outcome {
	return provision.Outcome{Status: provision.StatusAlreadyExists, Kind: schema.KindConflict}
}

func failed(reason string) provision.Outcome {
	return provision.Outcome{Status: provision.StatusFailed, Kind: schema.KindValidation, Reason: reason}
}

func sampleSummary() *provision.Summary {
	return &provision.Summary{
		Catalog:     "minimal",
		Fingerprint: "0123456789abcdef",
		DatabaseID:  "tiktok",
		Database:    existing(),
		Bucket:      provision.BucketCheck{ID: "media", Found: true},
		Collections: []provision.CollectionResult{
			{
				ID: "users", Name: "Users", Outcome: created(),
				Attributes: []provision.EntityResult{
					{Key: "email", Type: "string", Outcome: created()},
					{Key: "username", Type: "string", Outcome: created()},
					{Key: "bio", Type: "string", Outcome: failed("Invalid size")},
				},
				Indexes: []provision.EntityResult{
					{Key: "email_idx", Type: "unique", Outcome: created()},
				},
			},
			{
				ID: "videos", Name: "Videos", Outcome: existing(),
				Attributes: []provision.EntityResult{
					{Key: "title", Type: "string", Outcome: existing()},
				},
				NotReady: []string{"title"},
			},
		},
		State:      provision.StateDone,
		StartedAt:  started,
		FinishedAt: finished,
	}
}
