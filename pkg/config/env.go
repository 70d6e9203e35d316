package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBusinessDayStart    = "BUSINESS_DAY_START"
	EnvBusinessDayEnd      = "BUSINESS_DAY_END"
	EnvSlotStep            = "SLOT_STEP"
	EnvMaxListRows         = "MAX_LIST_ROWS"
	EnvConversationLockTTL = "CONVERSATION_LOCK_TTL"
	EnvDefaultTimezone     = "DEFAULT_TIMEZONE"
	EnvCancellationKeyword = "CANCELLATION_KEYWORD"

	EnvGatewayTimeout        = "CALENDAR_GATEWAY_TIMEOUT"
	EnvGoogleClientID        = "GOOGLE_CLIENT_ID"
	EnvGoogleClientSecret    = "GOOGLE_CLIENT_SECRET"
	EnvGoogleRedirectURI     = "GOOGLE_REDIRECT_URI"
	EnvGoogleTokenURL        = "GOOGLE_TOKEN_URL"
	EnvGoogleCalendarBaseURL = "GOOGLE_CALENDAR_BASE_URL"

	EnvZAPIBaseURL     = "ZAPI_BASE_URL"
	EnvZAPIInstanceID  = "ZAPI_INSTANCE_ID"
	EnvZAPIToken       = "ZAPI_TOKEN"
	EnvZAPIClientToken = "ZAPI_CLIENT_TOKEN"

	EnvInboundTopic     = "KAFKA_INBOUND_TOPIC"
	EnvInboundGroupID   = "KAFKA_INBOUND_GROUP_ID"
	EnvInboundDLQTopic  = "KAFKA_INBOUND_DLQ_TOPIC"
	EnvOutboundTopic    = "KAFKA_OUTBOUND_TOPIC"
	EnvOutboundGroupID  = "KAFKA_OUTBOUND_GROUP_ID"
	EnvOutboundDLQTopic = "KAFKA_OUTBOUND_DLQ_TOPIC"
)
