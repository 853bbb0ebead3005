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
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Eventing      EventingConfig
	Pricing       PricingConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Artwork       ArtworkConfig
	PubSub        PubSubConfig
	BigQuery      BigQueryConfig
	Stripe        StripeConfig
	Square        SquareConfig
	Sendgrid      SendgridConfig
	Maps          MapsConfig
	Outbox        OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PRINTWORKS_APP_ENV" required:"true"`
	Port         string `envconfig:"PRINTWORKS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PRINTWORKS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PRINTWORKS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"PRINTWORKS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"PRINTWORKS_DB_DSN"`
	Driver string `envconfig:"PRINTWORKS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PRINTWORKS_DB_HOST"`
	LegacyPort     int    `envconfig:"PRINTWORKS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PRINTWORKS_DB_USER"`
	LegacyPassword string `envconfig:"PRINTWORKS_DB_PASSWORD"`
	LegacyName     string `envconfig:"PRINTWORKS_DB_NAME"`
	LegacySSLMode  string `envconfig:"PRINTWORKS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PRINTWORKS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PRINTWORKS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PRINTWORKS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PRINTWORKS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PRINTWORKS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PRINTWORKS_REDIS_ADDR"`
	Password     string        `envconfig:"PRINTWORKS_REDIS_PASSWORD"`
	DB           int           `envconfig:"PRINTWORKS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PRINTWORKS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PRINTWORKS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PRINTWORKS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PRINTWORKS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PRINTWORKS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"PRINTWORKS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"PRINTWORKS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"PRINTWORKS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"PRINTWORKS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"PRINTWORKS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"PRINTWORKS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"PRINTWORKS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"PRINTWORKS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"PRINTWORKS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"PRINTWORKS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite     bool   `envconfig:"PRINTWORKS_USE_SQLITE" default:"false"`
	AutoMigrate   bool   `envconfig:"PRINTWORKS_AUTO_MIGRATE" default:"false"`
	GCSAccessMode string `envconfig:"PRINTWORKS_GCS_ACCESS_MODE" default:"public"`
	AllowACH      bool   `envconfig:"PRINTWORKS_FEATURE_ALLOW_ACH" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"PRINTWORKS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// PricingConfig carries storefront-wide pricing knobs. Tier benefit tables
// live in the database; only the ambient rates are configured here.
type PricingConfig struct {
	TaxRate      string `envconfig:"PRINTWORKS_PRICING_TAX_RATE" default:"0.0725"`
	CurrencyCode string `envconfig:"PRINTWORKS_PRICING_CURRENCY" default:"USD"`
}

// TaxRateDecimal returns the configured tax rate as a decimal fraction.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (p PricingConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return fmt.Errorf("invalid tax rate %q: %w", p.TaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("tax rate %q out of range [0,1)", p.TaxRate)
	}
	return nil
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PRINTWORKS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"PRINTWORKS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PRINTWORKS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName        string        `envconfig:"PRINTWORKS_GCS_BUCKET_NAME" required:"true"`
	UploadURLExpiry   time.Duration `envconfig:"PRINTWORKS_GCS_UPLOAD_URL_EXPIRY" required:"true"`
	DownloadURLExpiry time.Duration `envconfig:"PRINTWORKS_GCS_DOWNLOAD_URL_EXPIRY" required:"true"`
}

// ArtworkConfig constrains customer artwork uploads for proofing.
type ArtworkConfig struct {
	MaxUploadMB    int `envconfig:"PRINTWORKS_ARTWORK_MAX_UPLOAD_MB" default:"200"`
	MinDPI         int `envconfig:"PRINTWORKS_ARTWORK_MIN_DPI" default:"300"`
	MaxRevisions   int `envconfig:"PRINTWORKS_ARTWORK_MAX_REVISIONS" default:"3"`
	PreviewMaxEdge int `envconfig:"PRINTWORKS_ARTWORK_PREVIEW_MAX_EDGE" default:"1600"`
}

type PubSubConfig struct {
	ArtworkTopic             string `envconfig:"PRINTWORKS_PUBSUB_ARTWORK_TOPIC" required:"true"`
	ArtworkSubscription      string `envconfig:"PRINTWORKS_PUBSUB_ARTWORK_SUBSCRIPTION" required:"true"`
	OrdersTopic              string `envconfig:"PRINTWORKS_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription       string `envconfig:"PRINTWORKS_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
	BillingTopic             string `envconfig:"PRINTWORKS_PUBSUB_BILLING_TOPIC" required:"true"`
	BillingSubscription      string `envconfig:"PRINTWORKS_PUBSUB_BILLING_SUBSCRIPTION" required:"true"`
	NotificationTopic        string `envconfig:"PRINTWORKS_PUBSUB_NOTIFICATION_TOPIC" default:"pw-notification-events"`
	NotificationSubscription string `envconfig:"PRINTWORKS_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
	AnalyticsTopic           string `envconfig:"PRINTWORKS_PUBSUB_ANALYTICS_TOPIC" required:"true"`
	AnalyticsSubscription    string `envconfig:"PRINTWORKS_PUBSUB_ANALYTICS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset               string `envconfig:"PRINTWORKS_BIGQUERY_DATASET" default:"printworks"`
	StorefrontEventsTable string `envconfig:"PRINTWORKS_BIGQUERY_STOREFRONT_TABLE" default:"storefront_events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PRINTWORKS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PRINTWORKS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PRINTWORKS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey string `envconfig:"PRINTWORKS_STRIPE_API_KEY"`
	Secret string `envconfig:"PRINTWORKS_STRIPE_SECRET"`
	Env    string `envconfig:"PRINTWORKS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken   string `envconfig:"PRINTWORKS_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"PRINTWORKS_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"PRINTWORKS_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"PRINTWORKS_SQUARE_WEBHOOK_SECRET"`
}

// Environment returns the configured Square environment name.
func (s SquareConfig) Environment() string {
	return strings.TrimSpace(s.Env)
}

// IsProduction reports whether the Square client should target production.
func (s SquareConfig) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(s.Env), "production")
}

type SendgridConfig struct {
	APIKey      string `envconfig:"PRINTWORKS_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"PRINTWORKS_SENDGRID_FROM_EMAIL"`
}

// MapsConfig holds the Google Places credentials for shipping address
// guidance. Address lookup endpoints return a dependency error when the
// key is unset.
type MapsConfig struct {
	APIKey string `envconfig:"PRINTWORKS_MAPS_API_KEY"`
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
