package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Cart         CartConfig
	Checkout     CheckoutConfig
	Reconcile    ReconcileConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Cart.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LITERARYHAVEN_APP_ENV" required:"true"`
	Port         string `envconfig:"LITERARYHAVEN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LITERARYHAVEN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LITERARYHAVEN_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"LITERARYHAVEN_LOG_FORMAT" default:"json"`
	// CORSOrigins lists the storefront origins allowed to call the API with credentials.
	CORSOrigins []string `envconfig:"LITERARYHAVEN_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"LITERARYHAVEN_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"LITERARYHAVEN_DB_DSN"`
	Driver string `envconfig:"LITERARYHAVEN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LITERARYHAVEN_DB_HOST"`
	LegacyPort     int    `envconfig:"LITERARYHAVEN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LITERARYHAVEN_DB_USER"`
	LegacyPassword string `envconfig:"LITERARYHAVEN_DB_PASSWORD"`
	LegacyName     string `envconfig:"LITERARYHAVEN_DB_NAME"`
	LegacySSLMode  string `envconfig:"LITERARYHAVEN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LITERARYHAVEN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LITERARYHAVEN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LITERARYHAVEN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LITERARYHAVEN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"LITERARYHAVEN_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"LITERARYHAVEN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LITERARYHAVEN_REDIS_ADDR"`
	Password     string        `envconfig:"LITERARYHAVEN_REDIS_PASSWORD"`
	DB           int           `envconfig:"LITERARYHAVEN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LITERARYHAVEN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LITERARYHAVEN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LITERARYHAVEN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LITERARYHAVEN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LITERARYHAVEN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies the optional shopper identity token. Tokens are minted
// by the account service; this API only parses them.
type JWTConfig struct {
	Secret            string `envconfig:"LITERARYHAVEN_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"LITERARYHAVEN_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"LITERARYHAVEN_JWT_EXPIRATION_MINUTES" default:"60"`
	// Leeway absorbs clock skew between the account service and the API.
	Leeway time.Duration `envconfig:"LITERARYHAVEN_JWT_LEEWAY" default:"30s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"LITERARYHAVEN_AUTO_MIGRATE" default:"false"`
}

// CartConfig controls cart persistence and the pricing policy applied to it.
type CartConfig struct {
	StorageTTL            time.Duration `envconfig:"LITERARYHAVEN_CART_STORAGE_TTL" default:"720h"`
	IdleTTL               time.Duration `envconfig:"LITERARYHAVEN_CART_IDLE_TTL" default:"30m"`
	FreeShippingThreshold string        `envconfig:"LITERARYHAVEN_CART_FREE_SHIPPING_THRESHOLD" default:"35.00"`
	FlatShippingFee       string        `envconfig:"LITERARYHAVEN_CART_FLAT_SHIPPING_FEE" default:"4.99"`
	SessionCookie         string        `envconfig:"LITERARYHAVEN_CART_SESSION_COOKIE" default:"lh_cart_session"`
}

// Threshold returns the parsed free-shipping threshold. Load has already
// rejected values that do not parse.
func (c CartConfig) Threshold() decimal.Decimal {
	d, _ := parseAmount(c.FreeShippingThreshold)
	return d
}

// ShippingFee returns the parsed flat shipping fee.
func (c CartConfig) ShippingFee() decimal.Decimal {
	d, _ := parseAmount(c.FlatShippingFee)
	return d
}

func parseAmount(raw string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.TrimSpace(raw))
}

func (c CartConfig) validate() error {
	for env, raw := range map[string]string{
		EnvCartFreeShippingThreshold: c.FreeShippingThreshold,
		EnvCartFlatShippingFee:       c.FlatShippingFee,
	} {
		d, err := parseAmount(raw)
		if err != nil {
			return fmt.Errorf("%s must be a decimal amount: %w", env, err)
		}
		if d.IsNegative() {
			return fmt.Errorf("%s must not be negative", env)
		}
	}
	return nil
}

type CheckoutConfig struct {
	InFlightTTL       time.Duration `envconfig:"LITERARYHAVEN_CHECKOUT_INFLIGHT_TTL" default:"30s"`
	OrderNumberPrefix string        `envconfig:"LITERARYHAVEN_CHECKOUT_ORDER_NUMBER_PREFIX" default:"LH"`

	RateLimitWindow   time.Duration `envconfig:"LITERARYHAVEN_CHECKOUT_RATE_LIMIT_WINDOW" default:"10m"`
	RateLimitPerIP    int           `envconfig:"LITERARYHAVEN_CHECKOUT_RATE_LIMIT_PER_IP" default:"20"`
	RateLimitPerEmail int           `envconfig:"LITERARYHAVEN_CHECKOUT_RATE_LIMIT_PER_EMAIL" default:"5"`
}

// ReconcileConfig drives the job that voids order headers left without line items.
type ReconcileConfig struct {
	Grace    time.Duration `envconfig:"LITERARYHAVEN_RECONCILE_GRACE" default:"15m"`
	Interval time.Duration `envconfig:"LITERARYHAVEN_RECONCILE_INTERVAL" default:"5m"`
	// JobTimeout bounds a single job run inside a cycle.
	JobTimeout time.Duration `envconfig:"LITERARYHAVEN_RECONCILE_JOB_TIMEOUT" default:"2m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"LITERARYHAVEN_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"LITERARYHAVEN_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"LITERARYHAVEN_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"LITERARYHAVEN_PUBSUB_ORDERS_TOPIC" default:"lh-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"LITERARYHAVEN_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"LITERARYHAVEN_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"LITERARYHAVEN_OUTBOX_MAX_ATTEMPTS" default:"10"`
	// RetentionDays is how long published rows are kept before the cron worker deletes them.
	RetentionDays int `envconfig:"LITERARYHAVEN_OUTBOX_RETENTION_DAYS" default:"30"`
	// DLQRetentionDays keeps dead letters longer so they can be investigated.
	DLQRetentionDays int `envconfig:"LITERARYHAVEN_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required when %s=%s", EnvDBDSN, EnvDBDriver, DBDriverSQLite)
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
