// Package kafka provides an audit sink producing events to a Kafka topic,
// typically wired as a best-effort mirror next to the durable store so
// downstream consumers (SIEM, analytics) see the same activity stream.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"finbooks/internal/audit"
	"finbooks/pkg/platform/sentinel"
)

// Sink produces audit events to a single topic, keyed by actor so one
// principal's activity stays ordered within a partition.
type Sink struct {
	client *kgo.Client
	topic  string
}

// New creates a Kafka sink. The caller owns broker configuration.
func New(brokers []string, topic string) (*Sink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Sink{client: client, topic: topic}, nil
}

// InsertBatch produces the batch synchronously and reports the first error.
// Authorization rejections map to sentinel.ErrUnauthorized.
func (s *Sink) InsertBatch(ctx context.Context, events []audit.Event) error {
	if len(events) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(events))
	for _, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("marshal audit event: %w", err)
		}
		records = append(records, &kgo.Record{
			Topic: s.topic,
			Key:   []byte(e.ActorID),
			Value: payload,
		})
	}

	if err := s.client.ProduceSync(ctx, records...).FirstErr(); err != nil {
		return classify(err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (s *Sink) Close() {
	s.client.Close()
}

func classify(err error) error {
	var kafkaErr *kerr.Error
	if errors.As(err, &kafkaErr) {
		switch kafkaErr.Code {
		case kerr.TopicAuthorizationFailed.Code,
			kerr.ClusterAuthorizationFailed.Code,
			kerr.SaslAuthenticationFailed.Code:
			return fmt.Errorf("%w: %s", sentinel.ErrUnauthorized, kafkaErr.Message)
		}
	}
	return err
}
