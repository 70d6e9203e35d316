package main

import (
	"context"

	"agendazap/internal/calendar"
	cataloghandler "agendazap/internal/catalog/handler"
	catalogrepo "agendazap/internal/catalog/repository"
	catalogservice "agendazap/internal/catalog/service"
	"agendazap/internal/notifier"
	professionalshandler "agendazap/internal/professionals/handler"
	professionalsrepo "agendazap/internal/professionals/repository"
	professionalsservice "agendazap/internal/professionals/service"
	"agendazap/internal/professionals/validator"
	schedulinghandler "agendazap/internal/scheduling/handler"
	schedulingrepo "agendazap/internal/scheduling/repository"
	schedulingservice "agendazap/internal/scheduling/service"
	usersrepo "agendazap/internal/users/repository"
	"agendazap/pkg/app"
	"agendazap/pkg/config"
	"agendazap/pkg/kafka"
	kafka_config "agendazap/pkg/kafka/config"
	kafka_middleware "agendazap/pkg/kafka/middleware"
)

const ServiceName = "scheduler"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	kafkaCfg := kafka_config.Load()

	cfg.Log.Info("Starting Scheduler service")

	producer, err := kafka.NewProducer(kafkaCfg, cfg.OutboundTopic, cfg.OutboundDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}
	producer.Use(kafka_middleware.LoggingProducerMiddleware())
	producer.Use(kafka_middleware.MetricsProducerMiddleware())
	defer producer.Close()

	sink := notifier.NewKafkaSink(producer, ServiceName)
	engine, professionalService, catalogService := initServices(cfg, sink)

	inboundHandler := schedulinghandler.NewInboundHandler(engine, cfg)
	consumer, err := kafka.NewConsumer(kafkaCfg, cfg.InboundTopic, cfg.InboundGroupID, cfg.InboundDLQTopic, inboundHandler.Handle)
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
			cfg.Log.Error("Inbound consumer stopped", "error", err)
		}
	}()

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(cfg.Client.Mongo,
		professionalshandler.NewProfessionalHandler(professionalService, cfg.Log),
		cataloghandler.NewServiceHandler(catalogService),
	)
	serverApp.Run(stop)

	cancel()
	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close Kafka consumer", "error", err)
	}
}

func initServices(cfg *config.Config, sink notifier.Sink) (schedulingservice.SchedulingService, professionalsservice.ProfessionalService, catalogservice.CatalogService) {
	states := schedulingrepo.NewMongoStateRepository(cfg)
	appointments := schedulingrepo.NewMongoAppointmentRepository(cfg)
	locks := schedulingrepo.NewMongoLockRepository(cfg)
	users := usersrepo.NewMongoUserRepository(cfg)
	services := catalogrepo.NewMongoServiceRepository(cfg)
	professionals := professionalsrepo.NewMongoProfessionalRepository(cfg)
	gateway := calendar.NewGoogleGateway(cfg)

	engine := schedulingservice.NewSchedulingService(
		states,
		appointments,
		locks,
		users,
		services,
		professionals,
		gateway,
		sink,
		cfg,
	)

	professionalService := professionalsservice.NewProfessionalService(
		professionals,
		appointments,
		users,
		gateway,
		gateway,
		sink,
		validator.NewProfessionalValidator(cfg.Log),
		cfg,
	)

	cfg.Log.Info("Scheduler service initialized", "database", cfg.MongoDatabaseName)
	return engine, professionalService, catalogservice.NewCatalogService(services)
}
