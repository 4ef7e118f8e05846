package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP      HTTP
		Log       Log
		App       App
		Signing   Signing
		Cache     Cache
		UploadsDB UploadsDB
		Kafka     Kafka
		Watcher   Watcher
		Admin     Admin
		Metrics   Metrics
	}

	HTTP struct {
		Port            string        `env:"HTTP_PORT" envDefault:"8080"`
		UsePreforkMode  bool          `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
		ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"5s"`
		WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL" envDefault:"info"`
	}

	App struct {
		// публичный адрес блога, участвует в подписи
		URL           string        `env:"APP_URL,required,notEmpty"`
		UploadsPrefix string        `env:"APP_UPLOADS_PREFIX" envDefault:"/uploads"`
		ContentPath   string        `env:"APP_CONTENT_PATH" envDefault:"./content"`
		StaticMaxAge  time.Duration `env:"APP_STATIC_MAX_AGE" envDefault:"0s"`
	}

	Signing struct {
		Secret string `env:"IMAGE_SIGNING_SECRET,required,notEmpty"`
	}

	Cache struct {
		// по умолчанию {content}/images/cache
		Dir        string        `env:"CACHE_DIR"`
		CPUTimeout time.Duration `env:"CACHE_CPU_TIMEOUT" envDefault:"8s"` // обработка одного изображения
	}

	UploadsDB struct {
		Driver  string `env:"UPLOADS_DB_DRIVER" envDefault:"sqlite"`
		URL     string `env:"UPLOADS_DB_URL,required"`
		PoolMax int    `env:"UPLOADS_DB_POOL_MAX" envDefault:"4"`
		LRUSize int    `env:"UPLOADS_DB_LRU_SIZE" envDefault:"1024"`
	}

	Kafka struct {
		Enabled         bool          `env:"KAFKA_ENABLED" envDefault:"false"`
		Brokers         []string      `env:"KAFKA_BROKERS"`
		GroupID         string        `env:"KAFKA_GROUP_ID" envDefault:"image-cache"`
		Topic           string        `env:"KAFKA_TOPIC" envDefault:"uploads.deleted"`
		CommitTimeout   time.Duration `env:"KAFKA_COMMIT_TIMEOUT" envDefault:"2s"`
		ProcessTimeout  time.Duration `env:"KAFKA_PROCESS_TIMEOUT" envDefault:"10s"`
		ShutdownTimeout time.Duration `env:"KAFKA_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	}

	Watcher struct {
		Enabled bool `env:"WATCHER_ENABLED" envDefault:"false"`
	}

	Admin struct {
		Token string `env:"ADMIN_TOKEN"`
	}

	Metrics struct {
		Enabled bool `env:"METRICS_ENABLED" envDefault:"true"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.UploadsDB.Driver {
	case DriverPostgres, DriverSQLite:
	default:
		return fmt.Errorf("unknown UPLOADS_DB_DRIVER %q", c.UploadsDB.Driver)
	}

	// подпись строится от origin, путь в APP_URL разошелся бы с проверкой
	u, err := url.Parse(c.App.URL)
	if err != nil {
		return fmt.Errorf("invalid APP_URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("APP_URL %q must be an absolute origin", c.App.URL)
	}
	if strings.Trim(u.Path, "/") != "" || u.RawQuery != "" || u.Fragment != "" {
		return fmt.Errorf("APP_URL %q must not have a path, query or fragment", c.App.URL)
	}

	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}

	return nil
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)
