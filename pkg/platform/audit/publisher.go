package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Publisher forwards audit events to an external stream.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// KafkaPublisher produces compliance events to a Kafka topic, keyed by user
// so one user's trail stays ordered within a partition.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerLinger(0),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(struct {
		Category  EventCategory `json:"category"`
		Timestamp string        `json:"timestamp"`
		UserID    string        `json:"user_id"`
		FundCode  string        `json:"fund_code,omitempty"`
		Action    string        `json:"action"`
		Decision  string        `json:"decision,omitempty"`
		Reason    string        `json:"reason,omitempty"`
		RequestID string        `json:"request_id,omitempty"`
		ActorID   string        `json:"actor_id,omitempty"`
		ClientIP  string        `json:"client_ip,omitempty"`
		UserAgent string        `json:"user_agent,omitempty"`
		Device    string        `json:"device,omitempty"`
	}{
		Category:  event.Category,
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		UserID:    event.UserID.String(),
		FundCode:  event.FundCode.String(),
		Action:    event.Action,
		Decision:  event.Decision,
		Reason:    event.Reason,
		RequestID: event.RequestID,
		ActorID:   event.ActorID,
		ClientIP:  event.ClientIP,
		UserAgent: event.UserAgent,
		Device:    event.Device,
	})
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.UserID.String()),
		Value: payload,
	}
	return p.client.ProduceSync(ctx, record).FirstErr()
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}
