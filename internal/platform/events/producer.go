package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/fatflowers/checkout/pkg/config"
)

var ErrProducerFull = errors.New("event producer buffer is full")

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes envelopes to kafka from a single background loop.
// Publish never blocks the caller; when kafka is not configured it drops.
type Producer struct {
	w       writer
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     *zap.SugaredLogger
}

func NewProducer(cfg *config.Config, log *zap.SugaredLogger) *Producer {
	p := &Producer{log: log, closeCh: make(chan struct{})}
	if len(cfg.Kafka.Brokers) == 0 {
		close(p.closeCh)
		return p
	}
	buf := cfg.Kafka.Buffer
	if buf <= 0 {
		buf = 1024
	}
	p.w = &kafka.Writer{
		Addr:         kafka.TCP(cfg.Kafka.Brokers...),
		Topic:        cfg.Kafka.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 5 * time.Second,
	}
	p.inbox = make(chan kafka.Message, buf)
	return p
}

func (p *Producer) Enabled() bool { return p != nil && p.inbox != nil }

// Start runs the write loop until the inbox is closed by Close.
func (p *Producer) Start() {
	if !p.Enabled() {
		return
	}
	go func() {
		defer close(p.closeCh)
		for m := range p.inbox {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := p.w.WriteMessages(ctx, m); err != nil {
				p.log.Errorw("kafka_write_failed", "key", string(m.Key), "error", err)
			}
			cancel()
		}
		if err := p.w.Close(); err != nil {
			p.log.Warnw("kafka_writer_close_failed", "error", err)
		}
	}()
}

// Publish queues env keyed by key. Messages with the same key keep their order.
func (p *Producer) Publish(_ context.Context, key string, env *Envelope) error {
	if !p.Enabled() || env == nil {
		return nil
	}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "trace_id", Value: []byte(env.TraceID)},
		},
	}
	select {
	case p.inbox <- msg:
		return nil
	default:
		return ErrProducerFull
	}
}

// Close flushes queued messages and waits for the loop to exit.
func (p *Producer) Close(ctx context.Context) error {
	if !p.Enabled() {
		return nil
	}
	close(p.inbox)
	select {
	case <-p.closeCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func registerLifecycle(lc fx.Lifecycle, p *Producer) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			p.Start()
			return nil
		},
		OnStop: p.Close,
	})
}

var Module = fx.Options(
	fx.Provide(NewProducer),
	fx.Invoke(registerLifecycle),
)
