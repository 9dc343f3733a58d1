// config предоставляет структуру конфигурации hn-digest
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverNone     = "none"
)

// Форматы отчёта.
const (
	FormatJSON  = "json"
	FormatHTML  = "html"
	FormatTable = "table"
)

// Config — корневая конфигурация.
// Приоритет источников:
//  1. явный путь, переданный в Load (флаг --config);
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
type Config struct {
	Env      string         `yaml:"env"     env:"ENV"        env-default:"local"`
	DB       DBConfig       `yaml:"db"`
	Fetcher  FetcherConfig  `yaml:"fetcher"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Cache    CacheConfig    `yaml:"cache"`
	Report   ReportConfig   `yaml:"report"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// DBConfig — настройки хранилища.
type DBConfig struct {
	// Driver — postgres, sqlite или none (без кэша и сохранения).
	Driver string `yaml:"driver" env:"DB_DRIVER" env-default:"sqlite"`
	// URL — DSN PostgreSQL, обязателен для driver=postgres.
	URL string `yaml:"url" env:"DATABASE_URL"`
	// Path — файл SQLite, используется для driver=sqlite.
	Path string `yaml:"path" env:"DB_PATH" env-default:"data/hn-digest.db"`
}

// FetcherConfig — параметры загрузки страниц выдачи.
type FetcherConfig struct {
	BaseURL        string        `yaml:"base_url"        env:"FETCH_BASE_URL"        env-default:"https://news.ycombinator.com/front"`
	UserAgent      string        `yaml:"user_agent"      env:"FETCH_USER_AGENT"      env-default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"`
	MaxAttempts    int           `yaml:"max_attempts"    env:"FETCH_MAX_ATTEMPTS"    env-default:"8"`
	BackoffFactor  float64       `yaml:"backoff_factor"  env:"FETCH_BACKOFF_FACTOR"  env-default:"2"`
	MaxDelay       time.Duration `yaml:"max_delay"       env:"FETCH_MAX_DELAY"       env-default:"60s"`
	AttemptTimeout time.Duration `yaml:"attempt_timeout" env:"FETCH_ATTEMPT_TIMEOUT" env-default:"30s"`
	// PageLimit — сколько записей максимум берём со страницы.
	PageLimit int `yaml:"page_limit" env:"FETCH_PAGE_LIMIT" env-default:"30"`
}

// PipelineConfig — параметры параллельной обработки дней.
type PipelineConfig struct {
	// Workers — ширина пачки: сколько дней загружаются одновременно.
	Workers int `yaml:"workers" env:"PIPELINE_WORKERS" env-default:"10"`
}

// CacheConfig — политика повторной загрузки.
type CacheConfig struct {
	// EmptyTTL — сколько день с пустой выдачей считается актуальным.
	EmptyTTL time.Duration `yaml:"empty_ttl" env:"CACHE_EMPTY_TTL" env-default:"6h"`
}

// ReportConfig — куда и в каких форматах писать отчёт.
type ReportConfig struct {
	Dir     string   `yaml:"dir"     env:"REPORT_DIR"     env-default:"."`
	Formats []string `yaml:"formats" env:"REPORT_FORMATS" env-separator:"," env-default:"json,html"`
}

// ArchiveConfig — необязательная выгрузка отчётов в S3/MinIO.
// Пустой Endpoint отключает выгрузку.
type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"   env:"ARCHIVE_ENDPOINT"`
	AccessKey string `yaml:"access_key" env:"ARCHIVE_ACCESS_KEY"`
	SecretKey string `yaml:"secret_key" env:"ARCHIVE_SECRET_KEY"`
	Bucket    string `yaml:"bucket"     env:"ARCHIVE_BUCKET"     env-default:"reports"`
	Prefix    string `yaml:"prefix"     env:"ARCHIVE_PREFIX"     env-default:"hn-digest"`
}

// Enabled сообщает, настроена ли выгрузка.
func (a ArchiveConfig) Enabled() bool { return a.Endpoint != "" }

// MetricsConfig — выгрузка метрик прогона в textfile для node_exporter.
type MetricsConfig struct {
	Textfile string `yaml:"textfile" env:"METRICS_TEXTFILE"`
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %s", p)
		}
		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		return &cfg, nil
	}

	var (
		c   *Config
		err error
	)

	switch {
	case path != "":
		c, err = tryRead(path)
	case os.Getenv("CONFIG_PATH") != "":
		c, err = tryRead(os.Getenv("CONFIG_PATH"))
	default:
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			if err := cleanenv.ReadConfig("local.yaml", &cfg); err != nil {
				return nil, fmt.Errorf("failed to read local.yaml: %w", err)
			}
			c = &cfg
			break
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
		c = &cfg
	}
	if err != nil {
		return nil, err
	}

	if err := c.validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.URL == "" {
			return fmt.Errorf("db.url is required for driver %q", DriverPostgres)
		}
	case DriverSQLite:
		if c.DB.Path == "" {
			return fmt.Errorf("db.path is required for driver %q", DriverSQLite)
		}
	case DriverNone:
	default:
		return fmt.Errorf("db.driver must be one of postgres, sqlite, none: got %q", c.DB.Driver)
	}

	if c.Fetcher.BaseURL == "" {
		return fmt.Errorf("fetcher.base_url is required")
	}
	if c.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be >= 1")
	}
	if c.Fetcher.BackoffFactor < 1 {
		return fmt.Errorf("fetcher.backoff_factor must be >= 1")
	}
	if c.Fetcher.MaxDelay <= 0 {
		return fmt.Errorf("fetcher.max_delay must be > 0")
	}
	if c.Fetcher.AttemptTimeout <= 0 {
		return fmt.Errorf("fetcher.attempt_timeout must be > 0")
	}
	if c.Fetcher.PageLimit <= 0 {
		return fmt.Errorf("fetcher.page_limit must be > 0")
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("pipeline.workers must be > 0")
	}
	if c.Cache.EmptyTTL < 0 {
		return fmt.Errorf("cache.empty_ttl must be >= 0")
	}

	for _, f := range c.Report.Formats {
		if !slices.Contains([]string{FormatJSON, FormatHTML, FormatTable}, f) {
			return fmt.Errorf("report.formats: unknown format %q", f)
		}
	}

	if c.Archive.Enabled() && c.Archive.Bucket == "" {
		return fmt.Errorf("archive.bucket is required when archive.endpoint is set")
	}

	return nil
}
