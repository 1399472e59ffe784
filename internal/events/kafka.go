package events

import (
	"context"

	"github.com/go-faster/errors"
	kafka "github.com/segmentio/kafka-go"
)

var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher writes order events to a kafka topic, keyed by order ID so
// events for the same order land on one partition in order.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher creates a publisher for the given brokers and topic.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.Hash{},
		},
	}
}

// Publish writes the event.
func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: ev.Encode(),
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(ev.Type)},
		},
	})
	if err != nil {
		return errors.Wrap(err, "write event")
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
