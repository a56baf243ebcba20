package producer

import (
	"context"

	"github.com/yusuke-yano-01/Timelog/internal/messaging/kafka"

	kafkago "github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafkago.Writer the relay needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

func publishEvent(ctx context.Context, writer MessageWriter, event kafka.OutboxEvent) error {
	msg := kafkago.Message{
		Topic: event.Topic,
		Key:   []byte(event.AggregateID),
		Value: event.Payload,
		Headers: []kafkago.Header{
			{Key: kafka.HeaderOutboxID, Value: []byte(event.ID)},
			{Key: kafka.HeaderEventType, Value: []byte(event.EventType)},
			{Key: kafka.HeaderAggregateType, Value: []byte(event.AggregateType)},
			{Key: kafka.HeaderRequestID, Value: []byte(event.RequestID)},
		},
	}

	return writer.WriteMessages(ctx, msg)
}
