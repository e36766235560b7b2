package audit

import (
	"context"
	"encoding/json"

	"proofgate/internal/platform/kafka/producer"
)

// KafkaSink delivers audit events to a Kafka topic, keyed by actor so all
// events for one principal land on the same partition.
type KafkaSink struct {
	producer *producer.Producer
	topic    string
}

// NewKafkaSink wraps a producer as an audit sink.
func NewKafkaSink(p *producer.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: p, topic: topic}
}

func (s *KafkaSink) Deliver(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.producer.Produce(ctx, &producer.Message{
		Topic: s.topic,
		Key:   []byte(event.Actor.String()),
		Value: payload,
		Headers: map[string]string{
			"action": string(event.Action),
		},
	})
}

var _ Sink = (*KafkaSink)(nil)
