package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// DefaultKafkaTopic receives rep events.
const DefaultKafkaTopic = "formsense.reps"

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaRecorder writes each event as a JSON message keyed by session, so a
// session's reps stay ordered within one partition.
type KafkaRecorder struct {
	w messageWriter
}

// NewKafkaRecorder writes through w.
func NewKafkaRecorder(w messageWriter) *KafkaRecorder {
	return &KafkaRecorder{w: w}
}

// NewKafkaWriter returns a hash-balanced writer for topic.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
	}
}

// Record implements Recorder.
func (r *KafkaRecorder) Record(ctx context.Context, e RepEvent) error {
	payload, err := e.Payload()
	if err != nil {
		return fmt.Errorf("encode rep event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(e.SessionID),
		Value: payload,
		Time:  e.Time,
		Headers: []kafka.Header{
			{Key: "exercise", Value: []byte(e.Exercise)},
		},
	}
	if err := r.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}
