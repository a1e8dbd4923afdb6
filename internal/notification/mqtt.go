package notification

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publisher is the part of the MQTT client the dispatcher uses.
type Publisher interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// MQTTDispatcher hands messages to an outbound mail worker over a broker topic.
type MQTTDispatcher struct {
	publisher Publisher
	topic     string
}

func NewMQTTDispatcher(publisher Publisher, topic string) *MQTTDispatcher {
	return &MQTTDispatcher{publisher: publisher, topic: topic}
}

func (d *MQTTDispatcher) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode notification: %w", err)
	}
	// QoS 1 so a broker restart does not drop the message
	if err := d.publisher.Publish(ctx, d.topic, 1, false, payload); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}
