package events

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"

	"rollcall/pkg/config"
)

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
func (NopPublisher) Close() error                         { return nil }

// KafkaPublisher writes events keyed by enrollment number, so every change
// to one student lands on the same partition in order.
type KafkaPublisher struct {
	writer   *kafka.Writer
	encoding string
}

func NewKafkaPublisher(brokers []string, topic, encoding string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
		},
		encoding: encoding,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	value, err := Encode(ev, p.encoding)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.EnrollmentNo),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(ev.Type)},
			{Key: "encoding", Value: []byte(p.encoding)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// New returns a Kafka publisher when events are enabled, otherwise a no-op.
func New(cfg config.EventsConfig) Publisher {
	if !cfg.Enabled {
		return NopPublisher{}
	}
	log.Printf("[Events] Publishing to topic %s via %v (%s)", cfg.Topic, cfg.Brokers, cfg.Encoding)
	return NewKafkaPublisher(cfg.Brokers, cfg.Topic, cfg.Encoding)
}
