package feed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/pkg/config"
	"github.com/shubham-shewale/stock-quotes/pkg/models"
)

// NewWriter builds an async batching writer for the quote topic
func NewWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{}, // same ticker, same partition
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		Async:        true,
	}
}

// KafkaPublisher mirrors emitted quotes to a topic, keyed by ticker.
// Failures are logged and never reach HTTP clients.
type KafkaPublisher struct {
	logger *zap.Logger
	writer KafkaWriter
}

func NewKafkaPublisher(logger *zap.Logger, writer KafkaWriter) *KafkaPublisher {
	return &KafkaPublisher{logger: logger, writer: writer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, q models.Quote) {
	payload, err := json.Marshal(q)
	if err != nil {
		p.logger.Error("JSON Marshal Error", zap.Error(err))
		return
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(q.Ticker),
		Value: payload,
		Time:  q.Instant,
	})
	if err != nil {
		p.logger.Error("Kafka Write Error", zap.String("ticker", q.Ticker), zap.Error(err))
		return
	}
	p.logger.Debug("Mirrored quote", zap.String("ticker", q.Ticker), zap.Stringer("price", q.Price))
}

// Close flushes buffered messages
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
