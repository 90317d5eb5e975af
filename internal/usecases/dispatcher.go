// Package usecases implements the event-processing core: the Dispatcher and
// the Issue/Payment state machines (components C8, C9, C10 in spec.md §2).
package usecases

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	domainerrors "github.com/topcoder-platform/topcoder-x-processor/internal/domain/errors"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/pkg/logger"
)

// Dispatcher demultiplexes parsed bus payloads onto the Issue/Payment state
// machines by event kind (component C10, spec.md §4.1).
type Dispatcher struct {
	issues   *IssueStateMachine
	payments *PaymentStateMachine
	retry    ports.RetryService
}

// NewDispatcher builds a Dispatcher.
func NewDispatcher(issues *IssueStateMachine, payments *PaymentStateMachine, retry ports.RetryService) *Dispatcher {
	return &Dispatcher{issues: issues, payments: payments, retry: retry}
}

type kindPeek struct {
	Event entities.EventKind `json:"event"`
}

// HandlerFor returns a ports.Handler bound to topic, for use with
// EventBus.Subscribe. Unknown events are dropped, not failed (spec.md §4.1).
// On a Retryable failure the Dispatcher reschedules the event itself via
// RetryService before returning, so the bus never needs to requeue.
func (d *Dispatcher) HandlerFor(topic string) ports.Handler {
	return func(ctx context.Context, rawPayload []byte) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "dispatcher panic recovered", zap.Any("panic", r))
				err = domainerrors.Fatal("panic in dispatcher", nil)
			}
		}()

		var envelope entities.Envelope
		if err := json.Unmarshal(rawPayload, &envelope); err != nil {
			logger.Error(ctx, "invalid outer envelope, dropping", zap.Error(err))
			return nil
		}

		ctx = logger.WithCorrelationID(ctx, envelope.Originator+":"+envelope.Timestamp.String())

		inner := []byte(envelope.Payload.Value)
		var peek kindPeek
		if err := json.Unmarshal(inner, &peek); err != nil {
			logger.Error(ctx, "invalid inner payload, dropping", zap.Error(err))
			return nil
		}

		var handleErr error
		switch {
		case peek.Event.IsIssueEvent():
			handleErr = d.dispatchIssue(ctx, inner)
		case peek.Event.IsPaymentEvent():
			handleErr = d.dispatchPayment(ctx, inner)
		default:
			logger.Warn(ctx, "unknown event kind, dropping", zap.String("event", string(peek.Event)))
			return nil
		}

		if handleErr == nil {
			return nil
		}
		if domainerrors.KindOf(handleErr).Retryable() {
			return d.retry.Reschedule(ctx, topic, inner, handleErr)
		}
		logger.Error(ctx, "event failed terminally", zap.Error(handleErr))
		return handleErr
	}
}

func (d *Dispatcher) dispatchIssue(ctx context.Context, rawInner []byte) error {
	var ev entities.IssueEvent
	if err := json.Unmarshal(rawInner, &ev); err != nil {
		return domainerrors.Validation("malformed issue event: " + err.Error())
	}

	switch ev.Event {
	case entities.EventIssueCreated:
		return d.issues.Create(ctx, &ev, false)
	case entities.EventIssueUpdated:
		return d.issues.Update(ctx, &ev)
	case entities.EventIssueClosed:
		return d.issues.Close(ctx, &ev)
	case entities.EventIssueAssigned:
		return d.issues.Assign(ctx, &ev, false)
	case entities.EventIssueUnassigned:
		return d.issues.Unassign(ctx, &ev)
	case entities.EventIssueLabelUpdated:
		return d.issues.LabelUpdated(ctx, &ev)
	case entities.EventIssueRecreated:
		return d.issues.Recreate(ctx, &ev)
	case entities.EventCommentCreated, entities.EventCommentUpdated:
		return d.issues.Comment(ctx, &ev)
	default:
		return nil
	}
}

func (d *Dispatcher) dispatchPayment(ctx context.Context, rawInner []byte) error {
	var ev entities.PaymentEvent
	if err := json.Unmarshal(rawInner, &ev); err != nil {
		return domainerrors.Validation("malformed payment event: " + err.Error())
	}

	switch ev.Event {
	case entities.EventPaymentAdd:
		return d.payments.Add(ctx, &ev)
	case entities.EventPaymentUpdate:
		return d.payments.Update(ctx, &ev)
	case entities.EventPaymentDelete:
		return d.payments.Delete(ctx, &ev)
	case entities.EventPaymentCheckUpdate:
		return d.payments.CheckUpdates(ctx, &ev)
	default:
		return nil
	}
}
