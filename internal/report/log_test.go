package report

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/syntrixbase/schemasync/internal/provision"
)

func newTestLogReporter() (*LogReporter, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewLogReporter(logger), &buf
}

func TestLogReporter_Steps(t *testing.T) {
	r, buf := newTestLogReporter()
	ctx := context.Background()
	ok, bad := created(), failed("Invalid size")

	r.Report(ctx, provision.Event{Kind: provision.EventRunStarted, Catalog: "minimal", DatabaseID: "tiktok", Message: "5 collections"})
	r.Report(ctx, provision.Event{Kind: provision.EventStateChanged, From: "idle", To: "configuring_client"})
	r.Report(ctx, provision.Event{Kind: provision.EventAttributeAttempted, CollectionID: "users", Key: "email", Type: "string", Outcome: &ok})
	r.Report(ctx, provision.Event{Kind: provision.EventAttributeAttempted, CollectionID: "users", Key: "bio", Type: "string", Outcome: &bad})
	r.Report(ctx, provision.Event{Kind: provision.EventIndexAttempted, CollectionID: "users", Key: "email_idx", Type: "unique", Attributes: []string{"email"}, Outcome: &ok})
	r.Report(ctx, provision.Event{Kind: provision.EventAttributeNotReady, CollectionID: "videos", Key: "title", Message: "not available after 1m0s"})

	out := buf.String()
	assert.Contains(t, out, `level=INFO msg="Provisioning started" catalog=minimal`)
	assert.Contains(t, out, `level=DEBUG msg="State changed" from=idle to=configuring_client`)
	assert.Contains(t, out, `level=INFO msg="Attribute ensured" collection=users attribute=email type=string status=created`)
	assert.Contains(t, out, `level=WARN msg="Attribute failed" collection=users attribute=bio type=string status=failed kind=validation reason="Invalid size"`)
	assert.Contains(t, out, `msg="Index ensured" collection=users index=email_idx type=unique attributes=[email]`)
	assert.Contains(t, out, `level=WARN msg="Attribute not ready" collection=videos attribute=title`)
}

func TestLogReporter_Bucket(t *testing.T) {
	r, buf := newTestLogReporter()

	r.Report(context.Background(), provision.Event{Kind: provision.EventBucketChecked, Key: "media"})
	r.Report(context.Background(), provision.Event{Kind: provision.EventBucketChecked, Key: "media", Message: `storage bucket "media" not found`})

	assert.Contains(t, buf.String(), `level=INFO msg="Storage bucket found" bucket=media`)
	assert.Contains(t, buf.String(), `level=WARN msg="Storage bucket check failed" bucket=media`)
}

func TestLogReporter_RunFinished(t *testing.T) {
	r, buf := newTestLogReporter()
	s := sampleSummary()

	r.Report(context.Background(), provision.Event{Kind: provision.EventRunFinished, Summary: s})
	assert.Contains(t, buf.String(), `level=INFO msg="Provisioning finished" state=done duration=42s collections=2 attributes=4 indexes=1 failures=1`)

	buf.Reset()
	s.Fatal = "provisioning aborted in ensuring_database: boom"
	s.State = provision.StateFatalError
	r.Report(context.Background(), provision.Event{Kind: provision.EventRunFinished, Summary: s})
	assert.Contains(t, buf.String(), `level=ERROR msg="Provisioning aborted" state=fatal_error`)

	buf.Reset()
	r.Report(context.Background(), provision.Event{Kind: provision.EventRunFinished})
	assert.Empty(t, buf.String())
}

func TestLogReporter_DefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	NewLogReporter(nil).Report(context.Background(), provision.Event{Kind: provision.EventSchemaSettling, CollectionID: "users", Mode: "delay"})

	assert.Contains(t, buf.String(), `msg="Waiting for attributes" collection=users mode=delay`)
}
