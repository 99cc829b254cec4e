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
	DB           DBConfig
	Redis        RedisConfig
	Quotation    QuotationConfig
	Editor       EditorConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		cfg.DB.Driver = DriverSQLite
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Quotation.validate(); err != nil {
		return nil, err
	}
	if cfg.FeatureFlags.NeedsRedis() && cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		return nil, fmt.Errorf("%s is required unless both memory sessions and the search cache toggle are set", EnvRedisURL)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"QUOTEBUILDER_APP_ENV" required:"true"`
	Port         string `envconfig:"QUOTEBUILDER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"QUOTEBUILDER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"QUOTEBUILDER_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"QUOTEBUILDER_LOG_FORMAT" default:"json"`
	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins     []string      `envconfig:"QUOTEBUILDER_CORS_ORIGINS" default:"http://localhost:3000"`
	ShutdownTimeout time.Duration `envconfig:"QUOTEBUILDER_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"QUOTEBUILDER_DB_DSN"`
	Driver string `envconfig:"QUOTEBUILDER_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"QUOTEBUILDER_DB_HOST"`
	LegacyPort     int    `envconfig:"QUOTEBUILDER_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"QUOTEBUILDER_DB_USER"`
	LegacyPassword string `envconfig:"QUOTEBUILDER_DB_PASSWORD"`
	LegacyName     string `envconfig:"QUOTEBUILDER_DB_NAME"`
	LegacySSLMode  string `envconfig:"QUOTEBUILDER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"QUOTEBUILDER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"QUOTEBUILDER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"QUOTEBUILDER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"QUOTEBUILDER_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	PingTimeout     time.Duration `envconfig:"QUOTEBUILDER_DB_PING_TIMEOUT" default:"5s"`
	SlowQuery       time.Duration `envconfig:"QUOTEBUILDER_DB_SLOW_QUERY" default:"500ms"`
}

// IsSQLite reports whether the configured driver is sqlite.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(db.Driver, DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"QUOTEBUILDER_REDIS_URL"`
	Address      string        `envconfig:"QUOTEBUILDER_REDIS_ADDR"`
	Password     string        `envconfig:"QUOTEBUILDER_REDIS_PASSWORD"`
	DB           int           `envconfig:"QUOTEBUILDER_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"QUOTEBUILDER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"QUOTEBUILDER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"QUOTEBUILDER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"QUOTEBUILDER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"QUOTEBUILDER_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// QuotationConfig holds the defaults applied to freshly created quotations.
type QuotationConfig struct {
	Currency     string `envconfig:"QUOTEBUILDER_QUOTATION_CURRENCY" default:"THB"`
	ValidityDays int    `envconfig:"QUOTEBUILDER_QUOTATION_VALIDITY_DAYS" default:"30"`
	NumberPrefix string `envconfig:"QUOTEBUILDER_QUOTATION_NUMBER_PREFIX" default:"QT"`
	Locale       string `envconfig:"QUOTEBUILDER_QUOTATION_LOCALE" default:"th-TH"`
	DefaultTerms string `envconfig:"QUOTEBUILDER_QUOTATION_DEFAULT_TERMS"`
}

func (q QuotationConfig) validate() error {
	if q.ValidityDays < 0 {
		return fmt.Errorf("%s must not be negative", EnvQuotationValidityDays)
	}
	if strings.TrimSpace(q.Currency) == "" {
		return fmt.Errorf("%s is required", EnvQuotationCurrency)
	}
	return nil
}

type EditorConfig struct {
	SessionTTL     time.Duration `envconfig:"QUOTEBUILDER_EDITOR_SESSION_TTL" default:"12h"`
	SearchDebounce time.Duration `envconfig:"QUOTEBUILDER_EDITOR_SEARCH_DEBOUNCE" default:"300ms"`
	SearchCacheTTL time.Duration `envconfig:"QUOTEBUILDER_EDITOR_SEARCH_CACHE_TTL" default:"30s"`
	SearchLimit    int           `envconfig:"QUOTEBUILDER_EDITOR_SEARCH_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite          bool `envconfig:"QUOTEBUILDER_USE_SQLITE" default:"false"`
	AutoMigrate        bool `envconfig:"QUOTEBUILDER_AUTO_MIGRATE" default:"false"`
	MemorySessions     bool `envconfig:"QUOTEBUILDER_MEMORY_SESSIONS" default:"false"`
	DisableSearchCache bool `envconfig:"QUOTEBUILDER_DISABLE_SEARCH_CACHE" default:"false"`
}

// NeedsRedis reports whether any enabled component keeps state in redis.
func (f FeatureFlagsConfig) NeedsRedis() bool {
	return !f.MemorySessions || !f.DisableSearchCache
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = DefaultSQLiteDSN
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
