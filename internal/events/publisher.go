package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/example/rolo/internal/models"
)

// Publisher emits ride lifecycle events.
type Publisher interface {
	PublishRideEvent(ctx context.Context, e models.RideEvent) error
	Close() error
}

// KafkaPublisher writes ride events keyed by ride id so each ride stays on one partition.
type KafkaPublisher struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.Hash{},
	}
	return &KafkaPublisher{writer: w, timeout: 2 * time.Second}
}

func (k *KafkaPublisher) PublishRideEvent(ctx context.Context, e models.RideEvent) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	b, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(e.RideID), Value: b, Time: e.At})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

type NopPublisher struct{}

func (NopPublisher) PublishRideEvent(context.Context, models.RideEvent) error { return nil }
func (NopPublisher) Close() error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []models.RideEvent
}

func (r *Recorder) PublishRideEvent(ctx context.Context, e models.RideEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) Close() error { return nil }

func (r *Recorder) Events() []models.RideEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.RideEvent(nil), r.events...)
}

// Decode parses a ride event message value.
func Decode(b []byte) (models.RideEvent, error) {
	var e models.RideEvent
	err := json.Unmarshal(b, &e)
	return e, err
}
