package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Push         PushConfig
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
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NAMITO_APP_ENV" required:"true"`
	Port         string `envconfig:"NAMITO_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"NAMITO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NAMITO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"NAMITO_DB_DSN"`

	Host     string `envconfig:"NAMITO_DB_HOST"`
	Port     int    `envconfig:"NAMITO_DB_PORT" default:"5432"`
	User     string `envconfig:"NAMITO_DB_USER"`
	Password string `envconfig:"NAMITO_DB_PASSWORD"`
	Name     string `envconfig:"NAMITO_DB_NAME"`
	SSLMode  string `envconfig:"NAMITO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NAMITO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NAMITO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NAMITO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NAMITO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// ensureDSN assembles a DSN from discrete fields when one was not provided.
func (d *DBConfig) ensureDSN() error {
	if d.DSN != "" {
		return nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return fmt.Errorf("either NAMITO_DB_DSN or NAMITO_DB_HOST/USER/NAME must be set")
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.Name,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	d.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL          string        `envconfig:"NAMITO_REDIS_URL"`
	Address      string        `envconfig:"NAMITO_REDIS_ADDR"`
	Password     string        `envconfig:"NAMITO_REDIS_PASSWORD"`
	DB           int           `envconfig:"NAMITO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NAMITO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NAMITO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NAMITO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NAMITO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NAMITO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type PushConfig struct {
	Enabled bool   `envconfig:"NAMITO_PUSH_ENABLED" default:"false"`
	DryRun  bool   `envconfig:"NAMITO_PUSH_DRY_RUN" default:"true"`
	AppName string `envconfig:"NAMITO_PUSH_APP_NAME" default:"namito"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NAMITO_AUTO_MIGRATE" default:"false"`
}
