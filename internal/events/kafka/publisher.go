package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/renderdesk/renderdesk/internal/core/domain"
	"github.com/renderdesk/renderdesk/internal/core/ports"
	kafkago "github.com/segmentio/kafka-go"
)

// Publisher emits credit ledger entries to a Kafka topic for downstream
// analytics. Callers treat publish failures as non-fatal; the ledger row in
// PostgreSQL remains the source of truth.
type Publisher struct {
	writer *kafkago.Writer
}

// NewPublisher creates a publisher writing to topic on the given brokers.
func NewPublisher(brokers []string, topic string) *Publisher {
	return &Publisher{
		writer: &kafkago.Writer{
			Addr:                   kafkago.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafkago.LeastBytes{},
			AllowAutoTopicCreation: true,
			WriteTimeout:           5 * time.Second,
		},
	}
}

var _ ports.UsageEventPublisher = (*Publisher)(nil)

type creditEntryEvent struct {
	EntryID   string         `json:"entryId"`
	UserID    string         `json:"userId"`
	ProjectID *string        `json:"projectId,omitempty"`
	EntryType string         `json:"entryType"`
	Amount    int64          `json:"amount"`
	Detail    map[string]any `json:"detail,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// PublishCreditEntry sends one ledger entry, keyed by user for per-user
// ordering within a partition.
func (p *Publisher) PublishCreditEntry(ctx context.Context, entry domain.CreditEntry) error {
	payload, err := json.Marshal(creditEntryEvent{
		EntryID:   entry.EntryID,
		UserID:    entry.UserID,
		ProjectID: entry.ProjectID,
		EntryType: string(entry.EntryType),
		Amount:    entry.Amount,
		Detail:    entry.Detail,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal credit entry event: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(entry.UserID),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("failed to publish credit entry %s: %w", entry.EntryID, err)
	}
	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
