// Package notify – Kafka publisher
//
// KafkaPublisher is the production Publisher: match notifications are
// published to a Kafka topic keyed by match id, and a downstream consumer
// owns the actual email/push delivery. The writer is configured for
// low-latency fire-and-forget publishing (async, leader ack only).
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher publishes match notifications to a Kafka topic.
type KafkaPublisher struct {
	writer *kafka.Writer
}

// NewKafkaPublisher constructs a publisher for the given broker and topic.
func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(broker),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			Async:        true,
		},
	}
}

// Publish serializes the notification and writes it to the topic. Messages
// for the same match land on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, n MatchNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.MatchID),
		Value: data,
		Time:  time.Now(),
		Headers: []kafka.Header{
			{Key: "headline", Value: []byte(n.Headline())},
		},
	})
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
