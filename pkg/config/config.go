package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	HTTP         HTTPConfig
	DB           DBConfig
	Redis        RedisConfig
	Session      SessionConfig
	FeatureFlags FeatureFlagsConfig
	Commerce     CommerceConfig
	Merchant     MerchantConfig
	Checkout     CheckoutConfig
	Sendgrid     SendgridConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Throttle     ThrottleConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DBDriverSQLite
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"STOREFRONT_APP_ENV" required:"true"`
	Port         string `envconfig:"STOREFRONT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOREFRONT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOREFRONT_LOG_WARN_STACK" default:"false"`

	// WorkerMetricsAddr is where background workers expose /metrics. Empty disables it.
	WorkerMetricsAddr string `envconfig:"STOREFRONT_WORKER_METRICS_ADDR" default:":9102"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOREFRONT_SERVICE_KIND" default:"api"`
}

type HTTPConfig struct {
	CORSOrigins     []string      `envconfig:"STOREFRONT_CORS_ORIGINS" default:"http://localhost:3000"`
	ReadTimeout     time.Duration `envconfig:"STOREFRONT_HTTP_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"STOREFRONT_HTTP_WRITE_TIMEOUT" default:"30s"`
	IdleTimeout     time.Duration `envconfig:"STOREFRONT_HTTP_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
	// SessionIdleTTL evicts in-memory carts and checkout flows nobody has touched.
	SessionIdleTTL time.Duration `envconfig:"STOREFRONT_SESSION_IDLE_TTL" default:"30m"`
	SweepInterval  time.Duration `envconfig:"STOREFRONT_SESSION_SWEEP_INTERVAL" default:"5m"`
}

type DBConfig struct {
	DSN        string `envconfig:"STOREFRONT_DB_DSN"`
	Driver     string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`
	SQLitePath string `envconfig:"STOREFRONT_DB_SQLITE_PATH" default:"storefront.db"`

	LegacyHost     string `envconfig:"STOREFRONT_DB_HOST"`
	LegacyPort     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"STOREFRONT_DB_USER"`
	LegacyPassword string `envconfig:"STOREFRONT_DB_PASSWORD"`
	LegacyName     string `envconfig:"STOREFRONT_DB_NAME"`
	LegacySSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"STOREFRONT_DB_SLOW_QUERY" default:"250ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOREFRONT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"STOREFRONT_REDIS_ADDR"`
	Password     string        `envconfig:"STOREFRONT_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOREFRONT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOREFRONT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOREFRONT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOREFRONT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOREFRONT_REDIS_WRITE_TIMEOUT" default:"5s"`
	SessionTTL   time.Duration `envconfig:"STOREFRONT_REDIS_SESSION_TTL" default:"720h"`
}

type SessionConfig struct {
	Secret   string        `envconfig:"STOREFRONT_SESSION_SECRET" required:"true"`
	Issuer   string        `envconfig:"STOREFRONT_SESSION_ISSUER" default:"storefront"`
	TokenTTL time.Duration `envconfig:"STOREFRONT_SESSION_TOKEN_TTL" default:"720h"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool `envconfig:"STOREFRONT_USE_SQLITE" default:"false"`
	AutoMigrate   bool `envconfig:"STOREFRONT_AUTO_MIGRATE" default:"false"`
	OrderArchive  bool `envconfig:"STOREFRONT_ORDER_ARCHIVE" default:"true"`
	InvoiceEmails bool `envconfig:"STOREFRONT_INVOICE_EMAILS" default:"true"`
}

type CommerceConfig struct {
	BaseURL string        `envconfig:"STOREFRONT_COMMERCE_BASE_URL" default:"http://localhost:5148"`
	Timeout time.Duration `envconfig:"STOREFRONT_COMMERCE_TIMEOUT" default:"10s"`
}

type MerchantConfig struct {
	Name    string `envconfig:"STOREFRONT_MERCHANT_NAME" default:"Heritage Heaven"`
	Address string `envconfig:"STOREFRONT_MERCHANT_ADDRESS" default:"6A Moratuwa"`
	Contact string `envconfig:"STOREFRONT_MERCHANT_CONTACT" default:"0778899556"`
}

type CheckoutConfig struct {
	DefaultCurrency string        `envconfig:"STOREFRONT_DEFAULT_CURRENCY" default:"USD"`
	DispatchTimeout time.Duration `envconfig:"STOREFRONT_DISPATCH_TIMEOUT" default:"10s"`
}

type SendgridConfig struct {
	APIKey      string  `envconfig:"STOREFRONT_SENDGRID_API_KEY"`
	DefaultFrom string  `envconfig:"STOREFRONT_SENDGRID_FROM_EMAIL" default:"no-reply@heritageheaven.lk"`
	FromName    string  `envconfig:"STOREFRONT_SENDGRID_FROM_NAME" default:"Heritage Heaven"`
	TemplateID  string  `envconfig:"STOREFRONT_SENDGRID_TEMPLATE_ID"`
	RatePerSec  float64 `envconfig:"STOREFRONT_SENDGRID_RATE_PER_SEC" default:"5"`
	Burst       int     `envconfig:"STOREFRONT_SENDGRID_BURST" default:"10"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOREFRONT_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"STOREFRONT_PUBSUB_ORDERS_TOPIC" default:"storefront-order-events"`
	// CreateTopics creates missing topics at startup. Meant for the emulator; production
	// topics are provisioned ahead of time.
	CreateTopics bool `envconfig:"STOREFRONT_PUBSUB_CREATE_TOPICS" default:"false"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOREFRONT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOREFRONT_OUTBOX_MAX_ATTEMPTS" default:"10"`

	// Retention applies to rows the cron worker prunes.
	RetentionDays    int           `envconfig:"STOREFRONT_OUTBOX_RETENTION_DAYS" default:"30"`
	DLQRetentionDays int           `envconfig:"STOREFRONT_OUTBOX_DLQ_RETENTION_DAYS" default:"90"`
	PruneInterval    time.Duration `envconfig:"STOREFRONT_OUTBOX_PRUNE_INTERVAL" default:"6h"`
}

// ThrottleConfig bounds credential attempts against the login and register endpoints.
type ThrottleConfig struct {
	Window             time.Duration `envconfig:"STOREFRONT_THROTTLE_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"STOREFRONT_THROTTLE_LOGIN_IP_LIMIT" default:"30"`
	LoginIdentityLimit int           `envconfig:"STOREFRONT_THROTTLE_LOGIN_IDENTITY_LIMIT" default:"10"`
	RegisterIPLimit    int           `envconfig:"STOREFRONT_THROTTLE_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"STOREFRONT_THROTTLE_REGISTER_EMAIL_LIMIT" default:"5"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
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
