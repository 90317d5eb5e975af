package ports

import "context"

// RetryService is component C6 (spec.md §5): reschedule a failed event by
// republishing it with an incremented retryCount after a backoff interval,
// or convert a ceiling-exceeded failure into a terminal notification.
type RetryService interface {
	Reschedule(ctx context.Context, topic string, rawPayload []byte, cause error) error
}
