package repository

import (
	"context"

	"github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/models"
	domrepo "github.com/sentayhu19/brent-oil-change-point-analysis/internal/domain/repository"
	pkgkafka "github.com/sentayhu19/brent-oil-change-point-analysis/pkg/kafka"
)

// KafkaPublisher fans completed analysis results out to Kafka so
// downstream consumers can react to newly detected breaks.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher creates a Kafka-backed result publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishResult(ctx context.Context, res *models.AnalysisResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(res.RunID), res)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher discards results; used when Kafka is disabled.
type NopPublisher struct{}

func (NopPublisher) PublishResult(ctx context.Context, res *models.AnalysisResult) error { return nil }
func (NopPublisher) Close() error                                                        { return nil }

var _ domrepo.Publisher = NopPublisher{}
