// Package events publishes validation outcomes to Kafka for downstream
// consumers.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/locusaudit/merchant-validation/internal/config"
	"github.com/locusaudit/merchant-validation/internal/validation"
)

// ValidatedEvent is the payload published for every validated batch item.
type ValidatedEvent struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	JobID        string    `json:"job_id"`
	MerchantName string    `json:"merchant_name"`
	Status       string    `json:"status"`
	RiskScore    int       `json:"risk_score"`
	RiskLevel    string    `json:"risk_level"`
	Timestamp    time.Time `json:"timestamp"`
}

// Publisher writes validation events to a Kafka topic. Publish faults are the
// caller's to log; the publisher never blocks a validation outcome.
type Publisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewPublisher creates a publisher for the configured topic.
func NewPublisher(cfg config.KafkaConfig, logger *slog.Logger) *Publisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
	}
	return &Publisher{writer: writer, logger: logger}
}

// PublishValidated announces the outcome of one validated batch item. The
// job identifier keys the message so a job's events stay ordered.
func (p *Publisher) PublishValidated(ctx context.Context, jobID string, req validation.Request, result *validation.Result) error {
	event := ValidatedEvent{
		EventID:      uuid.New().String(),
		EventType:    "merchant.validated",
		JobID:        jobID,
		MerchantName: req.MerchantName,
		Status:       string(result.Status),
		RiskScore:    result.RiskAssessment.Score,
		RiskLevel:    string(result.RiskAssessment.Level),
		Timestamp:    result.Timestamp,
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode validation event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(jobID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish validation event: %w", err)
	}

	p.logger.Debug("validation event published",
		slog.String("job_id", jobID),
		slog.String("merchant_name", req.MerchantName))
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
