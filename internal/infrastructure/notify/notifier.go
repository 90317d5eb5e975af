// Package notify implements ports.Notifier by publishing the outbound
// notification envelope shape from spec.md §6 onto the configured
// notification topic.
package notify

import (
	"encoding/json"
	"time"

	"context"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
)

const originator = "topcoder-x-processor"

// Notifier publishes notifications over an EventBus.
type Notifier struct {
	bus   ports.EventBus
	topic string
}

// NewNotifier builds a Notifier publishing to topic.
func NewNotifier(bus ports.EventBus, topic string) *Notifier {
	return &Notifier{bus: bus, topic: topic}
}

type recipient struct {
	UserID int64 `json:"userId"`
}

type notificationData struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type notificationDetails struct {
	From               string            `json:"from"`
	Recipients         []recipient       `json:"recipients"`
	CC                 []recipient       `json:"cc"`
	Data               notificationData  `json:"data"`
	SendgridTemplateID string            `json:"sendgridTemplateId,omitempty"`
	Version            string            `json:"version"`
}

type notificationEntry struct {
	ServiceID string              `json:"serviceId"`
	Type      string              `json:"type"`
	Details   notificationDetails `json:"details"`
}

type notificationPayload struct {
	Notifications []notificationEntry `json:"notifications"`
}

// Notify implements ports.Notifier: wraps n into the {notifications:[...]}
// payload shape, then wraps that in the standard outer envelope before
// publishing.
func (nt *Notifier) Notify(ctx context.Context, n ports.Notification) error {
	recipients := make([]recipient, 0, len(n.RecipientUserIDs))
	for _, id := range n.RecipientUserIDs {
		recipients = append(recipients, recipient{UserID: id})
	}
	cc := make([]recipient, 0, len(n.CC))
	for _, id := range n.CC {
		cc = append(cc, recipient{UserID: id})
	}

	payload := notificationPayload{
		Notifications: []notificationEntry{{
			ServiceID: n.ServiceID,
			Type:      n.Type,
			Details: notificationDetails{
				From:               n.From,
				Recipients:         recipients,
				CC:                 cc,
				Data:               notificationData{Subject: n.Subject, Body: n.Body},
				SendgridTemplateID: n.SendgridTemplateID,
				Version:            n.Version,
			},
		}},
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	envelope := entities.Envelope{
		Topic:      nt.topic,
		Originator: originator,
		Timestamp:  time.Now(),
		MimeType:   "application/json",
		Payload:    entities.EnvelopePayload{Value: string(raw)},
	}
	envelopeBytes, err := json.Marshal(envelope)
	if err != nil {
		return err
	}

	return nt.bus.Publish(ctx, nt.topic, envelopeBytes)
}

var _ ports.Notifier = (*Notifier)(nil)
