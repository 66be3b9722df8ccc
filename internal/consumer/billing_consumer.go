package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/runnerstay/booking-service/internal/service"
)

// BillingConsumer feeds queued billing webhooks into the subscription
// service, the same contract the HTTP webhook endpoint uses.
type BillingConsumer struct {
	subs service.SubscriptionService
}

func NewBillingConsumer(subs service.SubscriptionService) *BillingConsumer {
	return &BillingConsumer{subs: subs}
}

func (c *BillingConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			c.handleMessage(msg)
		}
		log.Println("[BillingConsumer] channel closed, stopping consumer")
	}()
}

func (c *BillingConsumer) handleMessage(msg amqp.Delivery) {
	var event service.WebhookEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[BillingConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	err := c.subs.HandleEvent(context.Background(), event, msg.Body)
	switch {
	case err == nil:
		log.Printf("[BillingConsumer] applied %s for subscription %s", event.Kind, event.SubscriptionID)
		msg.Ack(false)
	case errors.Is(err, service.ErrEventReplay):
		// Redelivery of an already-applied event is fine, just ack it.
		msg.Ack(false)
	case errors.Is(err, service.ErrUnknownEventKind):
		log.Printf("[BillingConsumer] dropping unknown event kind %q", event.Kind)
		msg.Nack(false, false)
	default:
		log.Printf("[BillingConsumer] failed to apply %s: %v", event.Kind, err)
		msg.Nack(false, true) // requeue
	}
}
