// Package messaging implements EventBus (component C5, spec.md §2) over
// RabbitMQ, with a Redis-backed dedupe fence for duplicate deliveries of
// the literal same broker message id (spec.md §5: safe to lose on
// restart, gates no invariant — unlike CreationGuard).
package messaging

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
	pkgredis "github.com/topcoder-platform/topcoder-x-processor/pkg/redis"
)

// Bus is the amqp091-go-backed EventBus.
type Bus struct {
	url       string
	exchange  string
	prefetch  int
	dedupeTTL time.Duration

	conn *amqp.Connection
	ch   *amqp.Channel

	mu           sync.Mutex
	lastDelivery time.Time
}

// NewBus dials RabbitMQ and declares the topic exchange.
func NewBus(url, exchange string, prefetch int) (*Bus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, domainerrors.ExternalAPI("dial rabbitmq", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, domainerrors.ExternalAPI("open rabbitmq channel", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, domainerrors.ExternalAPI("declare rabbitmq exchange", err)
	}
	if prefetch <= 0 {
		prefetch = 10
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, domainerrors.ExternalAPI("set rabbitmq qos", err)
	}
	return &Bus{url: url, exchange: exchange, prefetch: prefetch, dedupeTTL: 10 * time.Minute, conn: conn, ch: ch}, nil
}

// Close releases the channel and connection.
func (b *Bus) Close() {
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

// Publish implements ports.EventBus: publish envelope on the topic's
// routing key against the bus exchange.
func (b *Bus) Publish(ctx context.Context, topic string, envelope []byte) error {
	err := b.ch.PublishWithContext(ctx, b.exchange, topic, false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        envelope,
		Timestamp:   time.Now(),
	})
	if err != nil {
		return domainerrors.ExternalAPI("publish to "+topic, err)
	}
	return nil
}

// Subscribe implements ports.EventBus: declare a durable queue bound to
// topic, consume, and deliver each message body to handler. The Dispatcher
// handler owns retry/backoff itself (ports.Handler), so every delivery is
// acked once handler returns, whether it succeeded, rescheduled, or
// dropped terminally — the broker never redelivers on our behalf.
func (b *Bus) Subscribe(ctx context.Context, topic string, handler ports.Handler) error {
	queueName := b.exchange + "." + topic
	q, err := b.ch.QueueDeclare(queueName, true, false, false, false, nil)
	if err != nil {
		return domainerrors.ExternalAPI("declare queue for "+topic, err)
	}
	if err := b.ch.QueueBind(q.Name, topic, b.exchange, false, nil); err != nil {
		return domainerrors.ExternalAPI("bind queue for "+topic, err)
	}

	deliveries, err := b.ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return domainerrors.ExternalAPI("consume "+topic, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				b.handleDelivery(ctx, d, handler)
			}
		}
	}()
	return nil
}

func (b *Bus) handleDelivery(ctx context.Context, d amqp.Delivery, handler ports.Handler) {
	msgID := d.MessageId
	if msgID == "" {
		sum := sha256.Sum256(d.Body)
		msgID = "hash:" + hex.EncodeToString(sum[:])
	}

	if b.alreadyDelivered(ctx, msgID) {
		logger.Info(ctx, "duplicate bus delivery ignored", zap.String("message_id", msgID))
		_ = d.Ack(false)
		return
	}

	if err := handler(ctx, d.Body); err != nil {
		logger.Error(ctx, "handler returned an error after its own retry/notify handling", zap.String("message_id", msgID), zap.Error(err))
	}
	_ = d.Ack(false)

	b.mu.Lock()
	b.lastDelivery = time.Now()
	b.mu.Unlock()
}

// IsConnected reports whether the underlying amqp connection is still open,
// for the admin status surface (SPEC_FULL.md §4.8).
func (b *Bus) IsConnected() bool {
	return b.conn != nil && !b.conn.IsClosed()
}

// LastDeliveryAt returns the time the most recent non-duplicate delivery was
// handled and acked, or the zero Value if none has been; duplicates that are
// acked without handling do not update it.
func (b *Bus) LastDeliveryAt() time.Time {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastDelivery
}

// alreadyDelivered reports whether msgID was seen within the dedupe
// window, marking it seen as a side effect. Redis is best-effort: a
// connection error degrades to "not a duplicate", never to blocking
// delivery (the dedupe here is an optimization, not a correctness gate).
func (b *Bus) alreadyDelivered(ctx context.Context, msgID string) bool {
	first, err := pkgredis.SetNX(ctx, "bus:dedupe:"+msgID, 1, b.dedupeTTL)
	if err != nil {
		return false
	}
	return !first
}

var _ ports.EventBus = (*Bus)(nil)
