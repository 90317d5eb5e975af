package ports

import "context"

// Handler processes the raw body of one bus message (the outer envelope,
// whose payload is an entities.IssueEvent or entities.PaymentEvent); the
// Dispatcher implementation decodes both the envelope and the inner event.
// The Dispatcher implementation of Handler owns rescheduling: on a
// Kind.Retryable() failure it hands the raw payload to RetryService itself
// before returning, so the bus only ever needs to ack or log — it never
// requeues at the broker level (spec.md §5's backoff is an explicit
// republish-after-delay, not broker redelivery).
type Handler func(ctx context.Context, rawPayload []byte) error

// EventBus is the message-bus client (component C5 in spec.md §2):
// subscribe to topics, deliver each message body unparsed to Handler;
// produce for reschedule/notification. It is an external
// collaborator per spec.md §1 — this interface is the contract the core
// consumes, not a commitment to a specific broker.
type EventBus interface {
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Publish(ctx context.Context, topic string, envelope []byte) error
}
