package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	var published []string
	p := NewMemoryPublisher(PublisherOptions{
		SubjectPrefix: "schemasync",
		OnPublish: func(subject string, err error, _ time.Duration) {
			published = append(published, subject)
		},
	})

	data := []byte(`{"kind":"run_started"}`)
	require.NoError(t, p.Publish(context.Background(), "events", data))
	data[0] = 'x'

	msgs := p.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "schemasync.events", msgs[0].Subject)
	assert.Equal(t, `{"kind":"run_started"}`, string(msgs[0].Data))
	assert.Equal(t, []string{"schemasync.events"}, published)

	require.NoError(t, p.Close())
	assert.ErrorIs(t, p.Publish(context.Background(), "events", data), ErrClosed)
	assert.Len(t, p.Messages(), 1)
}

func TestMemoryPublisher_CancelledContext(t *testing.T) {
	p := NewMemoryPublisher(PublisherOptions{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, p.Publish(ctx, "events", nil), context.Canceled)
	assert.Empty(t, p.Messages())
}

func TestPublisherOptions_FullSubject(t *testing.T) {
	assert.Equal(t, "events", PublisherOptions{}.FullSubject("events"))
	assert.Equal(t, "a.events", PublisherOptions{SubjectPrefix: "a"}.FullSubject("events"))
}
