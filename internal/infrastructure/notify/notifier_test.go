package notify_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/entities"
	"github.com/topcoder-platform/topcoder-x-processor/internal/domain/ports"
	"github.com/topcoder-platform/topcoder-x-processor/internal/infrastructure/notify"
)

type capturingBus struct {
	topic   string
	payload []byte
}

func (b *capturingBus) Subscribe(ctx context.Context, topic string, handler ports.Handler) error {
	return nil
}

func (b *capturingBus) Publish(ctx context.Context, topic string, envelope []byte) error {
	b.topic = topic
	b.payload = envelope
	return nil
}

func TestNotifier_Notify_PublishesWrappedEnvelope(t *testing.T) {
	bus := &capturingBus{}
	n := notify.NewNotifier(bus, "notifications")

	err := n.Notify(context.Background(), ports.Notification{
		ServiceID:        "topcoder-x-processor",
		Type:             "email",
		RecipientUserIDs: []int64{7},
		Subject:          "subject",
		Body:             "body",
		Version:          "1.0",
	})

	assert.NoError(t, err)
	assert.Equal(t, "notifications", bus.topic)

	var env entities.Envelope
	assert.NoError(t, json.Unmarshal(bus.payload, &env))
	assert.Equal(t, "notifications", env.Topic)
	assert.Contains(t, env.Payload.Value, `"subject":"subject"`)
	assert.Contains(t, env.Payload.Value, `"userId":7`)
}
