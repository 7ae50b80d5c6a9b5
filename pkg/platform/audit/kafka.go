package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// DefaultTopic is where allocation audit events land.
const DefaultTopic = "legatum.audit"

// kafkaPayload is the wire shape published to the audit topic. Field names are
// part of the consumer contract; do not rename.
type kafkaPayload struct {
	Timestamp     string `json:"timestamp"`
	Action        string `json:"action"`
	AssetID       string `json:"asset_id,omitempty"`
	BeneficiaryID string `json:"beneficiary_id,omitempty"`
	AllocationID  string `json:"allocation_id,omitempty"`
	Percentage    string `json:"percentage,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
}

// Kafka publishes audit events to a Kafka topic, keyed by asset so events for
// one asset stay ordered within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to the given brokers. Topic falls back to
// DefaultTopic when empty.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if topic == "" {
		topic = DefaultTopic
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Kafka{client: client, topic: topic}, nil
}

// Emit publishes one event synchronously. Callers treat failures as
// best-effort; the allocation itself has already committed.
func (k *Kafka) Emit(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		Action:     event.Action,
		Percentage: event.Percentage,
		Reason:     event.Reason,
		RequestID:  event.RequestID,
	}
	if !event.AssetID.IsNil() {
		payload.AssetID = event.AssetID.String()
	}
	if !event.BeneficiaryID.IsNil() {
		payload.BeneficiaryID = event.BeneficiaryID.String()
	}
	if !event.AllocationID.IsNil() {
		payload.AllocationID = event.AllocationID.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	record := &kgo.Record{
		Topic: k.topic,
		Key:   []byte(payload.AssetID),
		Value: value,
	}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

func (k *Kafka) Close() error {
	k.client.Close()
	return nil
}
