package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/segmentio/kafka-go"
)

type Producer struct {
	writer *kafka.Writer
}

// RecordingEvent — событие жизненного цикла задания записи
type RecordingEvent struct {
	VideoID       string    `json:"video_id"`
	Status        string    `json:"status"` // "started", "completed", "failed"
	URL           string    `json:"url,omitempty"`
	FileSizeBytes int64     `json:"file_size_bytes,omitempty"`
	Duration      int       `json:"duration_seconds"`
	ErrorMsg      string    `json:"error_message,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Создать новый producer
func NewProducer() (*Producer, error) {
	brokers := os.Getenv("KAFKA_BROKERS")
	if brokers == "" {
		brokers = "kafka:29092"
	}

	log.Printf("🔗 Connecting to Kafka brokers: %s", brokers)

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers),
		Topic:                  "recording.events",
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireOne,
		Async:                  false,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}

	return &Producer{writer: writer}, nil
}

// Отправить событие о задании записи
func (p *Producer) SendRecordingEvent(ctx context.Context, event RecordingEvent) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	if event.VideoID == "" {
		return fmt.Errorf("video_id is required")
	}
	if event.Status == "" {
		return fmt.Errorf("status is required")
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.VideoID), // Партиционирование по VideoID
		Value: eventBytes,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "status", Value: []byte(event.Status)},
			{Key: "source", Value: []byte("page-recorder")},
		},
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to write to kafka: %w", err)
	}

	log.Printf("✅ Recording event sent: video=%s, status=%s", event.VideoID, event.Status)
	return nil
}

// Закрыть producer
func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
