package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes events to a topic keyed by ride id, so one ride's
// events stay ordered within a partition
type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

// NewKafkaPublisher creates a publisher for the given brokers and topic
func NewKafkaPublisher(brokers []string, topic string, timeout time.Duration) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.Hash{}})
	return &KafkaPublisher{writer: w, timeout: timeout}
}

// Publish implements Publisher
func (k *KafkaPublisher) Publish(ctx context.Context, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		b, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("failed to encode event %s: %w", e.Type, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(e.RideID.String()),
			Value: b,
			Time:  e.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(e.Type)},
			},
		})
	}

	if k.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, k.timeout)
		defer cancel()
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write %d events to kafka: %w", len(msgs), err)
	}
	return nil
}

// Close flushes and closes the writer
func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
