package events

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// IngestEvent is emitted once per completed ingestion attempt.
type IngestEvent struct {
	Slug          string    `json:"slug"`
	Source        string    `json:"source"`
	Status        string    `json:"status"` // "ok" or "error"
	Error         string    `json:"error,omitempty"`
	TokenEstimate int       `json:"tokenEstimate,omitempty"`
	Uploaded      bool      `json:"uploaded"`
	DurationMs    int64     `json:"durationMs"`
	Timestamp     time.Time `json:"timestamp"`
}

type Producer interface {
	SendIngestEvent(ctx context.Context, event IngestEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) Producer {
	return &kafkaProducer{
		writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

func (p *kafkaProducer) SendIngestEvent(ctx context.Context, event IngestEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.Slug),
		Value: payload,
		Time:  time.Now(),
	})
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

// Emit sends the event in the background so producing never delays the
// response to the user.
func Emit(producer Producer, logger *log.Logger, event IngestEvent) {
	if producer == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := producer.SendIngestEvent(ctx, event); err != nil && logger != nil {
			logger.Printf("send ingest event: %v", err)
		}
	}()
}
