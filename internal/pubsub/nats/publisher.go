// Package nats publishes run events to NATS, either as core messages or
// through a JetStream stream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/syntrixbase/schemasync/internal/pubsub"
)

// Conn is the subset of *nats.Conn used by Publisher.
type Conn interface {
	Publish(subject string, data []byte) error
	FlushWithContext(ctx context.Context) error
	Close()
}

// JetStream is the subset of jetstream.JetStream used by Publisher.
type JetStream interface {
	CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error)
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Options configures Connect.
type Options struct {
	URL string
	// Stream enables JetStream publishing when set. The stream is created
	// or updated to capture SubjectPrefix.>.
	Stream string
	// ConnectTimeout defaults to 5s.
	ConnectTimeout time.Duration
	// FlushTimeout bounds Close. Defaults to 5s.
	FlushTimeout time.Duration

	pubsub.PublisherOptions
}

// Injectable for tests.
var (
	connect = func(url string, opts ...nats.Option) (Conn, error) {
		return nats.Connect(url, opts...)
	}
	newJetStream = func(nc Conn) (JetStream, error) {
		c, ok := nc.(*nats.Conn)
		if !ok {
			return nil, fmt.Errorf("jetstream requires a *nats.Conn, got %T", nc)
		}
		return jetstream.New(c)
	}
)

// Publisher implements pubsub.Publisher on a NATS connection.
type Publisher struct {
	nc   Conn
	js   JetStream
	opts Options
}

var _ pubsub.Publisher = (*Publisher)(nil)

// Connect dials NATS and, if a stream is configured, ensures it exists.
func Connect(ctx context.Context, opts Options) (*Publisher, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.FlushTimeout <= 0 {
		opts.FlushTimeout = 5 * time.Second
	}

	nc, err := connect(opts.URL,
		nats.Name("schemasync"),
		nats.Timeout(opts.ConnectTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", opts.URL, err)
	}

	p := &Publisher{nc: nc, opts: opts}
	if opts.Stream != "" {
		js, err := newJetStream(nc)
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("failed to create JetStream: %w", err)
		}
		if err := ensureStream(ctx, js, opts); err != nil {
			nc.Close()
			return nil, err
		}
		p.js = js
	}

	slog.Debug("Connected to NATS", "url", opts.URL, "stream", opts.Stream)
	return p, nil
}

func ensureStream(ctx context.Context, js JetStream, opts Options) error {
	subjects := []string{">"}
	if opts.SubjectPrefix != "" {
		subjects = []string{opts.SubjectPrefix + ".>"}
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     opts.Stream,
		Subjects: subjects,
		Storage:  jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to ensure stream %s: %w", opts.Stream, err)
	}
	return nil
}

// Publish sends data to the prefixed subject.
func (p *Publisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	full := p.opts.FullSubject(subject)

	var err error
	if p.js != nil {
		_, err = p.js.Publish(ctx, full, data)
	} else {
		err = p.nc.Publish(full, data)
	}

	if p.opts.OnPublish != nil {
		p.opts.OnPublish(full, err, time.Since(start))
	}
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", full, err)
	}
	return nil
}

// Close flushes buffered core messages and closes the connection.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.opts.FlushTimeout)
	defer cancel()

	err := p.nc.FlushWithContext(ctx)
	p.nc.Close()
	p.nc = nil
	if err != nil {
		return fmt.Errorf("failed to flush NATS connection: %w", err)
	}
	return nil
}
