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
	DB           DBConfig
	Redis        RedisConfig
	Paystack     PaystackConfig
	Commission   CommissionConfig
	Withdrawal   WithdrawalConfig
	Downloads    DownloadsConfig
	Cron         CronConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Commission.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"DIGIMART_APP_ENV" required:"true"`
	Port         string `envconfig:"DIGIMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DIGIMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DIGIMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"DIGIMART_DB_DSN"`
	Driver string `envconfig:"DIGIMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"DIGIMART_DB_HOST"`
	LegacyPort     int    `envconfig:"DIGIMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"DIGIMART_DB_USER"`
	LegacyPassword string `envconfig:"DIGIMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"DIGIMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"DIGIMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DIGIMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DIGIMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DIGIMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DIGIMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DIGIMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DIGIMART_REDIS_ADDR"`
	Password     string        `envconfig:"DIGIMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"DIGIMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DIGIMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DIGIMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DIGIMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DIGIMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DIGIMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// PaystackConfig carries the gateway credentials. SecretKey doubles as the
// webhook HMAC key, matching Paystack's signing scheme.
type PaystackConfig struct {
	SecretKey      string        `envconfig:"DIGIMART_PAYSTACK_SECRET_KEY" required:"true"`
	BaseURL        string        `envconfig:"DIGIMART_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL    string        `envconfig:"DIGIMART_PAYSTACK_CALLBACK_URL"`
	RequestTimeout time.Duration `envconfig:"DIGIMART_PAYSTACK_REQUEST_TIMEOUT" default:"15s"`
	IdempotencyTTL time.Duration `envconfig:"DIGIMART_PAYSTACK_WEBHOOK_IDEMPOTENCY_TTL" default:"168h"`
}

// CommissionConfig is the single home for every settlement percentage. The
// rates are fractions in [0,1]; referral shares are applied per the settlement
// rules (product share against the computed commission, subscription share
// against the full charge amount).
type CommissionConfig struct {
	DefaultRate               decimal.Decimal `envconfig:"DIGIMART_COMMISSION_DEFAULT_RATE" default:"0.20"`
	ProductReferralShare      decimal.Decimal `envconfig:"DIGIMART_COMMISSION_PRODUCT_REFERRAL_SHARE" default:"0.10"`
	SubscriptionReferralShare decimal.Decimal `envconfig:"DIGIMART_COMMISSION_SUBSCRIPTION_REFERRAL_SHARE" default:"0.25"`
}

func (c CommissionConfig) validate() error {
	for name, rate := range map[string]decimal.Decimal{
		"default rate":                c.DefaultRate,
		"product referral share":      c.ProductReferralShare,
		"subscription referral share": c.SubscriptionReferralShare,
	} {
		if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("commission %s must be within [0,1], got %s", name, rate)
		}
	}
	return nil
}

type WithdrawalConfig struct {
	ProcessingFee decimal.Decimal `envconfig:"DIGIMART_WITHDRAWAL_PROCESSING_FEE" default:"50"`
}

type DownloadsConfig struct {
	LinkTTL time.Duration `envconfig:"DIGIMART_DOWNLOAD_LINK_TTL" default:"1h"`
	// GuestGrantTTL bounds how long a guest purchase stays downloadable.
	// Account-holder grants never expire.
	GuestGrantTTL time.Duration `envconfig:"DIGIMART_DOWNLOAD_GUEST_GRANT_TTL" default:"720h"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DIGIMART_CRON_INTERVAL" default:"1h"`
	LockTTL  time.Duration `envconfig:"DIGIMART_CRON_LOCK_TTL" default:"2h"`
}

// RateLimitConfig throttles the payment initialize endpoint, the only surface
// an anonymous caller can hit with a body.
type RateLimitConfig struct {
	InitializeWindow     time.Duration `envconfig:"DIGIMART_RATELIMIT_INITIALIZE_WINDOW" default:"1m"`
	InitializeIPLimit    int           `envconfig:"DIGIMART_RATELIMIT_INITIALIZE_IP_LIMIT" default:"30"`
	InitializeEmailLimit int           `envconfig:"DIGIMART_RATELIMIT_INITIALIZE_EMAIL_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"DIGIMART_AUTO_MIGRATE" default:"false"`
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
