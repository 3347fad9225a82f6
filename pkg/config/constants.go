package config

const (
	EnvPrefix = "LITERARYHAVEN"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"
)

const (
	EnvAppEnv       = "LITERARYHAVEN_APP_ENV"
	EnvPort         = "LITERARYHAVEN_APP_PORT"
	EnvLogLevel     = "LITERARYHAVEN_LOG_LEVEL"
	EnvLogWarnStack = "LITERARYHAVEN_LOG_WARN_STACK"

	EnvDBDSN    = "LITERARYHAVEN_DB_DSN"
	EnvDBDriver = "LITERARYHAVEN_DB_DRIVER"
	EnvDBHost   = "LITERARYHAVEN_DB_HOST"
	EnvDBUser   = "LITERARYHAVEN_DB_USER"
	EnvDBName   = "LITERARYHAVEN_DB_NAME"

	EnvRedisURL = "LITERARYHAVEN_REDIS_URL"

	EnvJWTSecret  = "LITERARYHAVEN_JWT_SECRET"
	EnvJWTIssuer  = "LITERARYHAVEN_JWT_ISSUER"
	EnvJWTExpMins = "LITERARYHAVEN_JWT_EXPIRATION_MINUTES"

	EnvCartStorageTTL            = "LITERARYHAVEN_CART_STORAGE_TTL"
	EnvCartFreeShippingThreshold = "LITERARYHAVEN_CART_FREE_SHIPPING_THRESHOLD"
	EnvCartFlatShippingFee       = "LITERARYHAVEN_CART_FLAT_SHIPPING_FEE"

	EnvReconcileGrace = "LITERARYHAVEN_RECONCILE_GRACE"

	EnvGCPProjectID       = "LITERARYHAVEN_GCP_PROJECT_ID"
	EnvPubSubOrdersTopic  = "LITERARYHAVEN_PUBSUB_ORDERS_TOPIC"
	EnvOutboxPollInterval = "LITERARYHAVEN_OUTBOX_PUBLISH_POLL_MS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
