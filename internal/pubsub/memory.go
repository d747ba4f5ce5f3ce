package pubsub

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("publisher closed")

// Message is a published message kept by MemoryPublisher.
type Message struct {
	Subject string
	Data    []byte
}

// MemoryPublisher keeps published messages in memory.
type MemoryPublisher struct {
	opts PublisherOptions

	mu       sync.Mutex
	messages []Message
	closed   bool
}

func NewMemoryPublisher(opts PublisherOptions) *MemoryPublisher {
	return &MemoryPublisher{opts: opts}
}

func (p *MemoryPublisher) Publish(ctx context.Context, subject string, data []byte) error {
	start := time.Now()
	full := p.opts.FullSubject(subject)

	err := p.publish(ctx, full, data)
	if p.opts.OnPublish != nil {
		p.opts.OnPublish(full, err, time.Since(start))
	}
	return err
}

func (p *MemoryPublisher) publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.messages = append(p.messages, Message{Subject: subject, Data: append([]byte(nil), data...)})
	return nil
}

// Messages returns a copy of everything published so far.
func (p *MemoryPublisher) Messages() []Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Message(nil), p.messages...)
}

func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}
