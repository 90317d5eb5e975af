// Package retry implements RetryService (component C6, spec.md §5): take
// the original inner event payload, strip any inlined `project`, increment
// `retryCount`, and re-publish to the same topic after RETRY_INTERVAL. Once
// a per-event ceiling is exceeded, convert the failure into a user
// notification and drop the event.
package retry

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/topcoder-platform/topcoder-x-processor/internal/config"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
)

// Service is the RetryService implementation.
type Service struct {
	bus      ports.EventBus
	notifier ports.Notifier
	cfg      config.RetryConfig
}

// NewService builds a Service publishing reschedules over bus and
// terminal-failure notifications through notifier.
func NewService(bus ports.EventBus, notifier ports.Notifier, cfg config.RetryConfig) *Service {
	return &Service{bus: bus, notifier: notifier, cfg: cfg}
}

// envelopeFields is the subset of the inner event payload shape every
// event kind carries, enough to bump retryCount and drop `project` without
// needing to know the full concrete type (spec.md §6: "Flags carried
// across retries: retryCount, paymentSuccessful, createCopilotPayments").
type envelopeFields struct {
	RetryCount int `json:"retryCount"`
}

// Reschedule increments the payload's retryCount and republishes it to topic
// after the configured RETRY_INTERVAL, unless the ceiling has been reached,
// in which case it notifies and returns nil (the event is considered
// handled — dropped, not retried further).
func (s *Service) Reschedule(ctx context.Context, topic string, rawPayload []byte, cause error) error {
	var fields envelopeFields
	if err := json.Unmarshal(rawPayload, &fields); err != nil {
		logger.Error(ctx, "retry payload is not valid JSON, dropping", zap.Error(err))
		return nil
	}

	if fields.RetryCount >= s.cfg.MaxRetries {
		logger.Warn(ctx, "retry ceiling reached, notifying and dropping event",
			zap.String("topic", topic), zap.Int("retry_count", fields.RetryCount))
		return s.notifyTerminal(ctx, topic, cause)
	}

	next, err := bumpRetryCount(rawPayload, fields.RetryCount+1)
	if err != nil {
		logger.Error(ctx, "failed to bump retryCount, dropping", zap.Error(err))
		return nil
	}

	select {
	case <-time.After(s.cfg.Interval):
	case <-ctx.Done():
		return ctx.Err()
	}

	if err := s.bus.Publish(ctx, topic, next); err != nil {
		logger.Error(ctx, "failed to republish retried event", zap.String("topic", topic), zap.Error(err))
		return err
	}
	return nil
}

// bumpRetryCount rewrites only the retryCount field and strips any inlined
// `project` key, preserving everything else in the payload untouched.
func bumpRetryCount(rawPayload []byte, retryCount int) ([]byte, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal(rawPayload, &generic); err != nil {
		return nil, err
	}
	generic["retryCount"] = retryCount
	delete(generic, "project")
	return json.Marshal(generic)
}

func (s *Service) notifyTerminal(ctx context.Context, topic string, cause error) error {
	if s.notifier == nil {
		return nil
	}
	detail := "unknown error"
	if cause != nil {
		detail = cause.Error()
	}
	return s.notifier.Notify(ctx, ports.Notification{
		ServiceID: "topcoder-x-processor",
		Type:      "email",
		Subject:   "topcoder-x: event processing failed permanently",
		Body:      "An event on topic " + topic + " exhausted its retry ceiling: " + detail,
		Version:   "1.0",
	})
}

var _ ports.RetryService = (*Service)(nil)
