package feed

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

var ErrNoBrokers = errors.New("no kafka brokers configured")

type TopicCreator struct {
	logger        *zap.Logger
	dialer        KafkaDialer
	partitions    int
	retryInterval time.Duration
	retries       int
}

func NewTopicCreator(logger *zap.Logger, dialer KafkaDialer) *TopicCreator {
	return &TopicCreator{
		logger:        logger,
		dialer:        dialer,
		partitions:    4,
		retryInterval: 200 * time.Millisecond,
		retries:       5,
	}
}

// WithRetry overrides how long Ensure waits for partitions to appear
func (tc *TopicCreator) WithRetry(interval time.Duration, retries int) *TopicCreator {
	tc.retryInterval = interval
	tc.retries = retries
	return tc
}

// Ensure creates topic through the cluster controller if needed and waits
// until its partitions are readable.
func (tc *TopicCreator) Ensure(ctx context.Context, brokers []string, topic string) error {
	if len(brokers) == 0 {
		return ErrNoBrokers
	}

	var conn KafkaConn
	var err error
	for _, addr := range brokers {
		conn, err = tc.dialer.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("dial brokers: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("get controller: %w", err)
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := tc.dialer.DialContext(ctx, "tcp", controllerAddr)
	if err != nil {
		return fmt.Errorf("dial controller %s: %w", controllerAddr, err)
	}
	defer controllerConn.Close()

	err = controllerConn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     tc.partitions,
		ReplicationFactor: 1,
	})
	if err != nil {
		// most often "already exists"
		tc.logger.Info("Topic creation finished", zap.String("topic", topic), zap.Error(err))
	} else {
		tc.logger.Info("Topic creation request sent", zap.String("topic", topic))
	}

	return tc.waitForTopic(ctx, conn, topic)
}

func (tc *TopicCreator) waitForTopic(ctx context.Context, conn KafkaConn, topic string) error {
	for i := 0; i < tc.retries; i++ {
		partitions, err := conn.ReadPartitions(topic)
		if err == nil && len(partitions) > 0 {
			tc.logger.Info("Topic is ready", zap.String("topic", topic), zap.Int("partitions", len(partitions)))
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(tc.retryInterval):
		}
	}
	return fmt.Errorf("topic %s not ready after %d attempts", topic, tc.retries)
}
