package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.uber.org/zap"
)

// Handler processes one payload. A returned error rejects the payload: it is
// logged and counted, never redelivered.
type Handler[T any] func(ctx context.Context, payload *T) error

// Stats counts the payloads a Pipeline has processed.
type Stats struct {
	Handled  int64
	Rejected int64
}

// Pipeline carries typed payloads from producers to a single handler over an
// in-process watermill topic. Send returns once the handler is done with the
// payload, so a producer never runs ahead of the handler.
type Pipeline[T any] struct {
	pubSub  *gochannel.GoChannel
	topic   string
	handler Handler[T]
	logger  *zap.Logger

	handled  atomic.Int64
	rejected atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

func NewPipeline[T any](topic string, handler Handler[T], logger *zap.Logger) *Pipeline[T] {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, NewZapLogger(logger))

	return &Pipeline[T]{
		pubSub:  pubSub,
		topic:   topic,
		handler: handler,
		logger:  logger.With(zap.String("topic", topic)),
		done:    make(chan struct{}),
	}
}

// Start subscribes the handler. Payloads sent before Start are dropped.
func (p *Pipeline[T]) Start(ctx context.Context) error {
	ctx, p.cancel = context.WithCancel(ctx)

	msgs, err := p.pubSub.Subscribe(ctx, p.topic)
	if err != nil {
		p.cancel()
		close(p.done)

		return fmt.Errorf("subscribe %s: %w", p.topic, err)
	}

	go p.run(ctx, msgs)

	return nil
}

// Send hands payload to the handler and waits until it has been processed.
// A rejected payload is not an error for the sender; see Stats.
func (p *Pipeline[T]) Send(ctx context.Context, payload *T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.SetContext(ctx)

	return p.pubSub.Publish(p.topic, msg)
}

func (p *Pipeline[T]) Stats() Stats {
	return Stats{
		Handled:  p.handled.Load(),
		Rejected: p.rejected.Load(),
	}
}

// Close stops the handler, waits for the in-flight payload and releases the topic.
func (p *Pipeline[T]) Close() error {
	if p.cancel != nil {
		p.cancel()
		<-p.done
	}

	return p.pubSub.Close()
}

func (p *Pipeline[T]) run(ctx context.Context, msgs <-chan *message.Message) {
	defer close(p.done)

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-msgs:
			if !ok {
				return
			}

			p.process(ctx, msg)
			msg.Ack()
		}
	}
}

func (p *Pipeline[T]) process(ctx context.Context, msg *message.Message) {
	p.handled.Add(1)

	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		p.reject(msg, fmt.Errorf("decode payload: %w", err))

		return
	}

	if err := p.handler(ctx, &payload); err != nil {
		p.reject(msg, err)
	}
}

func (p *Pipeline[T]) reject(msg *message.Message, err error) {
	p.rejected.Add(1)
	p.logger.Warn("payload rejected", zap.String("uuid", msg.UUID), zap.Error(err))
}
