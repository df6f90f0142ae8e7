package events

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
)

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func TestProducer_DisabledWithoutBrokers(t *testing.T) {
	p := NewProducer(&config.Config{}, zap.NewNop().Sugar())
	require.False(t, p.Enabled())
	p.Start()
	require.NoError(t, p.Publish(context.Background(), "k", &Envelope{}))
	require.NoError(t, p.Close(context.Background()))
}

func TestProducer_FlushesOnClose(t *testing.T) {
	fw := &fakeWriter{}
	p := &Producer{w: fw, inbox: make(chan kafka.Message, 4), closeCh: make(chan struct{}), log: zap.NewNop().Sugar()}
	p.Start()

	env, err := NewEnvelope(EventPaymentReconciled, "trace-1", "order-1", PaymentReconciledPayload{OrderID: "order-1", OrderStatus: "PAID"})
	require.NoError(t, err)
	require.NoError(t, p.Publish(context.Background(), "order-1", env))
	require.NoError(t, p.Close(context.Background()))

	require.True(t, fw.closed)
	require.Len(t, fw.msgs, 1)
	require.Equal(t, "order-1", string(fw.msgs[0].Key))

	var got Envelope
	require.NoError(t, json.Unmarshal(fw.msgs[0].Value, &got))
	payload, err := UnwrapPayload[PaymentReconciledPayload](got.Payload)
	require.NoError(t, err)
	require.Equal(t, "PAID", payload.OrderStatus)
	require.Equal(t, EventPaymentReconciled, got.EventType)
	require.Equal(t, "trace-1", got.TraceID)
}

func TestProducer_FullBufferDoesNotBlock(t *testing.T) {
	p := &Producer{w: &fakeWriter{}, inbox: make(chan kafka.Message, 1), closeCh: make(chan struct{}), log: zap.NewNop().Sugar()}
	require.NoError(t, p.Publish(context.Background(), "a", &Envelope{}))
	require.ErrorIs(t, p.Publish(context.Background(), "b", &Envelope{}), ErrProducerFull)
}
