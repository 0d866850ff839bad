package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/feed"
	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/generator"
	"github.com/shubham-shewale/stock-quotes/cmd/quotes/internal/handler"
	"github.com/shubham-shewale/stock-quotes/pkg/config"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := config.NewLogger(cfg.Logger)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	store, err := generator.NewStore(generator.DefaultQuotes())
	if err != nil {
		logger.Fatal("Failed to seed quote store", zap.Error(err))
	}

	opts := []generator.Option{generator.WithSymmetricWalk(cfg.Quotes.SymmetricWalk)}
	if cfg.Quotes.SymmetricWalk {
		logger.Warn("Symmetric walk enabled, prices may fall")
	}

	// Optional mirror of every emitted quote to Kafka
	var publisher *feed.KafkaPublisher
	if cfg.Kafka.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		tc := feed.NewTopicCreator(logger, &feed.RealKafkaDialer{Dialer: kafka.DefaultDialer})
		if err := tc.Ensure(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic); err != nil {
			logger.Warn("Kafka topic not confirmed, mirroring anyway", zap.Error(err))
		}
		cancel()

		publisher = feed.NewKafkaPublisher(logger, feed.NewWriter(cfg.Kafka))
		opts = append(opts, generator.WithPublisher(publisher))
		logger.Info("Mirroring quotes to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	gen := generator.NewQuoteGenerator(logger, store, generator.NewRealRand(time.Now().UnixNano()), generator.RealClock{}, opts...)
	h := handler.New(logger, gen, cfg.Quotes)

	// Cancelled before Shutdown so open streams end instead of holding it up
	baseCtx, cancelStreams := context.WithCancel(context.Background())

	srv := &http.Server{
		Addr:              cfg.App.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		logger.Info("Server Started", zap.String("port", cfg.App.Port), zap.Duration("period", cfg.Quotes.Period))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP Error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info("Shutdown signal received")

	cancelStreams()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", zap.Error(err))
	}

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("Error closing Kafka writer", zap.Error(err))
		} else {
			logger.Info("Kafka writer closed cleanly")
		}
	}

	logger.Info("Shutdown Complete")
}
