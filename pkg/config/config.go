package config

import (
	"agendazap/pkg/client"
	"agendazap/pkg/logger"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Booking flow knobs.
	BusinessDayStart    string // HH:MM, start of the availability window
	BusinessDayEnd      string // HH:MM, end of the availability window
	SlotStep            time.Duration
	MaxListRows         int // channel cap on selectable rows
	ConversationLockTTL time.Duration
	DefaultTimezone     string
	CancellationKeyword string

	// External calendar (Google-style REST API).
	GatewayTimeout        time.Duration
	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURI     string
	GoogleTokenURL        string
	GoogleCalendarBaseURL string

	// WhatsApp delivery provider (Z-API wire shape).
	ZAPIBaseURL     string
	ZAPIInstanceID  string
	ZAPIToken       string
	ZAPIClientToken string

	// Kafka topics.
	InboundTopic     string
	InboundGroupID   string
	InboundDLQTopic  string
	OutboundTopic    string
	OutboundGroupID  string
	OutboundDLQTopic string

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		BusinessDayStart:    getEnvStr(EnvBusinessDayStart, DefaultBusinessDayStart),
		BusinessDayEnd:      getEnvStr(EnvBusinessDayEnd, DefaultBusinessDayEnd),
		SlotStep:            getEnvDuration(EnvSlotStep, DefaultSlotStep),
		MaxListRows:         getEnvNum(EnvMaxListRows, DefaultMaxListRows),
		ConversationLockTTL: getEnvDuration(EnvConversationLockTTL, DefaultConversationLockTTL),
		DefaultTimezone:     getEnvStr(EnvDefaultTimezone, DefaultDefaultTimezone),
		CancellationKeyword: getEnvStr(EnvCancellationKeyword, DefaultCancellationKeyword),

		GatewayTimeout:        getEnvDuration(EnvGatewayTimeout, DefaultGatewayTimeout),
		GoogleClientID:        getEnvStr(EnvGoogleClientID, ""),
		GoogleClientSecret:    getEnvStr(EnvGoogleClientSecret, ""),
		GoogleRedirectURI:     getEnvStr(EnvGoogleRedirectURI, ""),
		GoogleTokenURL:        getEnvStr(EnvGoogleTokenURL, DefaultGoogleTokenURL),
		GoogleCalendarBaseURL: getEnvStr(EnvGoogleCalendarBaseURL, DefaultGoogleCalendarBaseURL),

		ZAPIBaseURL:     getEnvStr(EnvZAPIBaseURL, DefaultZAPIBaseURL),
		ZAPIInstanceID:  getEnvStr(EnvZAPIInstanceID, ""),
		ZAPIToken:       getEnvStr(EnvZAPIToken, ""),
		ZAPIClientToken: getEnvStr(EnvZAPIClientToken, ""),

		InboundTopic:     getEnvStr(EnvInboundTopic, DefaultInboundTopic),
		InboundGroupID:   getEnvStr(EnvInboundGroupID, serviceName),
		InboundDLQTopic:  getEnvStr(EnvInboundDLQTopic, DefaultInboundDLQTopic),
		OutboundTopic:    getEnvStr(EnvOutboundTopic, DefaultOutboundTopic),
		OutboundGroupID:  getEnvStr(EnvOutboundGroupID, serviceName),
		OutboundDLQTopic: getEnvStr(EnvOutboundDLQTopic, DefaultOutboundDLQTopic),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	timeRegex := regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
	if !timeRegex.MatchString(cfg.BusinessDayStart) {
		errors = append(errors, fmt.Sprintf("BusinessDayStart must be in HH:MM format (00:00-23:59), got: %s", cfg.BusinessDayStart))
	}
	if !timeRegex.MatchString(cfg.BusinessDayEnd) {
		errors = append(errors, fmt.Sprintf("BusinessDayEnd must be in HH:MM format (00:00-23:59), got: %s", cfg.BusinessDayEnd))
	}
	if cfg.BusinessDayEnd <= cfg.BusinessDayStart {
		errors = append(errors, fmt.Sprintf("BusinessDayEnd (%s) must be after BusinessDayStart (%s)", cfg.BusinessDayEnd, cfg.BusinessDayStart))
	}

	if cfg.MongoURI == "" {
		errors = append(errors, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errors = append(errors, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errors = append(errors, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errors = append(errors, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errors = append(errors, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.ReadTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.SlotStep <= 0 {
		errors = append(errors, fmt.Sprintf("SlotStep must be positive, got: %s", cfg.SlotStep))
	}
	if cfg.MaxListRows <= 0 {
		errors = append(errors, fmt.Sprintf("MaxListRows must be positive, got: %d", cfg.MaxListRows))
	}
	if cfg.ConversationLockTTL <= 0 {
		errors = append(errors, fmt.Sprintf("ConversationLockTTL must be positive, got: %s", cfg.ConversationLockTTL))
	}
	if _, err := time.LoadLocation(cfg.DefaultTimezone); err != nil {
		errors = append(errors, fmt.Sprintf("DefaultTimezone must be a valid IANA zone, got: %s", cfg.DefaultTimezone))
	}
	if strings.TrimSpace(cfg.CancellationKeyword) == "" {
		errors = append(errors, "CancellationKeyword must not be empty")
	}
	if cfg.GatewayTimeout <= 0 {
		errors = append(errors, fmt.Sprintf("GatewayTimeout must be positive, got: %s", cfg.GatewayTimeout))
	}

	if cfg.InboundTopic == "" {
		errors = append(errors, "InboundTopic cannot be empty")
	}
	if cfg.OutboundTopic == "" {
		errors = append(errors, "OutboundTopic cannot be empty")
	}

	if len(errors) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, err := range errors {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, err)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"business_day_start", cfg.BusinessDayStart,
		"business_day_end", cfg.BusinessDayEnd,
		"slot_step", cfg.SlotStep,
		"max_list_rows", cfg.MaxListRows,
		"conversation_lock_ttl", cfg.ConversationLockTTL,
		"default_timezone", cfg.DefaultTimezone,
		"cancellation_keyword", cfg.CancellationKeyword,
		"gateway_timeout", cfg.GatewayTimeout,
		"google_client_set", cfg.GoogleClientID != "",
		"zapi_instance_set", cfg.ZAPIInstanceID != "",
		"inbound_topic", cfg.InboundTopic,
		"outbound_topic", cfg.OutboundTopic,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
