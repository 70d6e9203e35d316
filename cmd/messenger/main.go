package main

import (
	"context"

	"agendazap/internal/messenger"
	"agendazap/pkg/app"
	"agendazap/pkg/config"
	"agendazap/pkg/kafka"
	kafka_config "agendazap/pkg/kafka/config"
	kafka_middleware "agendazap/pkg/kafka/middleware"
)

const ServiceName = "messenger"

func main() {
	cfg := config.Load(ServiceName)
	kafkaCfg := kafka_config.Load()

	cfg.Log.Info("Starting Messenger service")

	provider := messenger.NewZAPIProvider(cfg)
	outboundHandler := messenger.NewOutboundHandler(provider, cfg)

	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.OutboundTopic, cfg.OutboundGroupID, cfg.OutboundDLQTopic, outboundHandler.Handle)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka consumer", "error", err)
	}
	consumer.Use(kafka_middleware.LoggingConsumerMiddleware())
	consumer.Use(kafka_middleware.MetricsConsumerMiddleware())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan struct{})
	go func() {
		defer close(stop)
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			cfg.Log.Error("Outbound consumer stopped", "error", err)
		}
	}()

	// Health-only HTTP surface; delivery happens via Kafka.
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(nil)
	serverApp.Run(stop)

	cancel()
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
}
