package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "agendazap"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort = "8080"

	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBusinessDayStart    = "08:00"
	DefaultBusinessDayEnd      = "18:00"
	DefaultSlotStep            = 1 * time.Hour
	DefaultMaxListRows         = 10 // WhatsApp caps selectable list rows
	DefaultConversationLockTTL = 10 * time.Second
	DefaultDefaultTimezone     = "America/Sao_Paulo"
	DefaultCancellationKeyword = "cancelar"

	DefaultGatewayTimeout        = 15 * time.Second
	DefaultGoogleTokenURL        = "https://oauth2.googleapis.com/token"
	DefaultGoogleCalendarBaseURL = "https://www.googleapis.com/calendar/v3"

	DefaultZAPIBaseURL = "https://api.z-api.io"

	DefaultInboundTopic     = "whatsapp.inbound"
	DefaultInboundDLQTopic  = "whatsapp.inbound.dlq"
	DefaultOutboundTopic    = "whatsapp.outbound"
	DefaultOutboundDLQTopic = "whatsapp.outbound.dlq"
)
