package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "pos"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Remote       RemoteConfig
	Promo        PromoConfig
	Tickets      TicketsConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Promo.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"POS_APP_ENV" default:"dev"`
	Port         string `envconfig:"POS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"POS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"POS_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"POS_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	Driver string `envconfig:"POS_DB_DRIVER" default:"sqlite"`
	DSN    string `envconfig:"POS_DB_DSN" default:"pos.db"`

	MaxOpenConns    int           `envconfig:"POS_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"POS_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"POS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"POS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (db DBConfig) validate() error {
	switch db.Driver {
	case DriverSQLite, DriverPostgres:
	default:
		return fmt.Errorf("database driver must be %q or %q", DriverSQLite, DriverPostgres)
	}
	if db.DSN == "" {
		return fmt.Errorf("database DSN is required")
	}
	return nil
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type RedisConfig struct {
	URL          string        `envconfig:"POS_REDIS_URL" required:"true"`
	PoolSize     int           `envconfig:"POS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"POS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"POS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"POS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"POS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type RemoteConfig struct {
	BaseURL string        `envconfig:"POS_REMOTE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"POS_REMOTE_TIMEOUT" default:"10s"`
}

type PromoConfig struct {
	Day             string        `envconfig:"POS_PROMO_DAY" default:"Thursday"`
	RecheckInterval time.Duration `envconfig:"POS_PROMO_RECHECK_INTERVAL" default:"1h"`
}

func (p PromoConfig) validate() error {
	if _, err := p.Weekday(); err != nil {
		return err
	}
	return nil
}

// Weekday parses the configured promotion day.
func (p PromoConfig) Weekday() (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), p.Day) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid promo day %q", p.Day)
}

type TicketsConfig struct {
	Expiry        time.Duration `envconfig:"POS_TICKET_EXPIRY" default:"2h"`
	SweepInterval time.Duration `envconfig:"POS_TICKET_SWEEP_INTERVAL" default:"1s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"POS_AUTO_MIGRATE" default:"true"`
}
