package nats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/syntrixbase/schemasync/internal/pubsub"
)

// MockConn is a mock implementation of Conn for testing.
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Publish(subject string, data []byte) error {
	return m.Called(subject, data).Error(0)
}

func (m *MockConn) FlushWithContext(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockConn) Close() {
	m.Called()
}

// MockJetStream is a mock implementation of JetStream for testing.
type MockJetStream struct {
	mock.Mock
}

func (m *MockJetStream) CreateOrUpdateStream(ctx context.Context, cfg jetstream.StreamConfig) (jetstream.Stream, error) {
	args := m.Called(ctx, cfg)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(jetstream.Stream), args.Error(1)
}

func (m *MockJetStream) Publish(ctx context.Context, subject string, data []byte, _ ...jetstream.PublishOpt) (*jetstream.PubAck, error) {
	args := m.Called(ctx, subject, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*jetstream.PubAck), args.Error(1)
}

// stubConnect swaps the package connect and jetstream factories for the test.
func stubConnect(t *testing.T, nc Conn, connErr error, js JetStream, jsErr error) *string {
	t.Helper()
	var dialed string
	prevConnect, prevJS := connect, newJetStream
	connect = func(url string, _ ...nats.Option) (Conn, error) {
		dialed = url
		if connErr != nil {
			return nil, connErr
		}
		return nc, nil
	}
	newJetStream = func(Conn) (JetStream, error) { return js, jsErr }
	t.Cleanup(func() { connect, newJetStream = prevConnect, prevJS })
	return &dialed
}

func TestConnect_CorePublish(t *testing.T) {
	nc := new(MockConn)
	dialed := stubConnect(t, nc, nil, nil, nil)

	var observed []string
	p, err := Connect(context.Background(), Options{
		URL: "nats://localhost:4222",
		PublisherOptions: pubsub.PublisherOptions{
			SubjectPrefix: "schemasync.events",
			OnPublish: func(subject string, err error, _ time.Duration) {
				observed = append(observed, subject)
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "nats://localhost:4222", *dialed)

	nc.On("Publish", "schemasync.events.run_started", []byte("{}")).Return(nil).Once()
	require.NoError(t, p.Publish(context.Background(), "run_started", []byte("{}")))
	assert.Equal(t, []string{"schemasync.events.run_started"}, observed)

	nc.On("FlushWithContext", mock.Anything).Return(nil).Once()
	nc.On("Close").Return().Once()
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	nc.AssertExpectations(t)
}

func TestConnect_Error(t *testing.T) {
	stubConnect(t, nil, nats.ErrNoServers, nil, nil)

	_, err := Connect(context.Background(), Options{URL: "nats://nowhere:4222"})

	assert.ErrorIs(t, err, nats.ErrNoServers)
	assert.Contains(t, err.Error(), "nats://nowhere:4222")
}

func TestConnect_JetStream(t *testing.T) {
	nc := new(MockConn)
	js := new(MockJetStream)
	stubConnect(t, nc, nil, js, nil)

	js.On("CreateOrUpdateStream", mock.Anything, mock.MatchedBy(func(cfg jetstream.StreamConfig) bool {
		return cfg.Name == "SCHEMASYNC" && len(cfg.Subjects) == 1 && cfg.Subjects[0] == "schemasync.events.>"
	})).Return(nil, nil).Once()

	p, err := Connect(context.Background(), Options{
		URL:              "nats://localhost:4222",
		Stream:           "SCHEMASYNC",
		PublisherOptions: pubsub.PublisherOptions{SubjectPrefix: "schemasync.events"},
	})
	require.NoError(t, err)

	js.On("Publish", mock.Anything, "schemasync.events.run_finished", []byte("{}")).Return(&jetstream.PubAck{Stream: "SCHEMASYNC"}, nil).Once()
	require.NoError(t, p.Publish(context.Background(), "run_finished", []byte("{}")))

	js.On("Publish", mock.Anything, "schemasync.events.run_finished", []byte("x")).Return(nil, errors.New("no responders")).Once()
	err = p.Publish(context.Background(), "run_finished", []byte("x"))
	assert.ErrorContains(t, err, "no responders")

	js.AssertExpectations(t)
	nc.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestConnect_StreamError(t *testing.T) {
	nc := new(MockConn)
	js := new(MockJetStream)
	stubConnect(t, nc, nil, js, nil)

	js.On("CreateOrUpdateStream", mock.Anything, mock.Anything).Return(nil, errors.New("stream error")).Once()
	nc.On("Close").Return().Once()

	_, err := Connect(context.Background(), Options{URL: "nats://localhost:4222", Stream: "SCHEMASYNC"})

	assert.ErrorContains(t, err, "stream error")
	nc.AssertExpectations(t)
}

func TestConnect_JetStreamFactoryError(t *testing.T) {
	nc := new(MockConn)
	stubConnect(t, nc, nil, nil, errors.New("jetstream error"))
	nc.On("Close").Return().Once()

	_, err := Connect(context.Background(), Options{URL: "nats://localhost:4222", Stream: "SCHEMASYNC"})

	assert.ErrorContains(t, err, "jetstream error")
	nc.AssertExpectations(t)
}

func TestPublisher_CloseFlushError(t *testing.T) {
	nc := new(MockConn)
	stubConnect(t, nc, nil, nil, nil)
	p, err := Connect(context.Background(), Options{URL: "nats://localhost:4222"})
	require.NoError(t, err)

	nc.On("FlushWithContext", mock.Anything).Return(context.DeadlineExceeded).Once()
	nc.On("Close").Return().Once()

	assert.ErrorIs(t, p.Close(), context.DeadlineExceeded)
	nc.AssertExpectations(t)
}
