// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Server, Corpus, Postgres, Kafka, Redis, Search, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Corpus source kinds.
const (
	SourceCSV      = "csv"
	SourcePostgres = "postgres"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Redis     RedisConfig     `yaml:"redis"`
	Search    SearchConfig    `yaml:"search"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
	// ReloadsPerMinute caps corpus reload requests per client; 0 disables
	// the limit.
	ReloadsPerMinute int `yaml:"reloadsPerMinute"`
}

// CorpusConfig selects where articles are read from and how many rows are
// loaded into a snapshot.
type CorpusConfig struct {
	Source string `yaml:"source"`
	Path   string `yaml:"path"`
	Table  string `yaml:"table"`
	Limit  int    `yaml:"limit"`
	// LoadRetries bounds how many times a transient source failure is retried
	// before the reload gives up.
	LoadRetries int `yaml:"loadRetries"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Enabled       bool        `yaml:"enabled"`
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	AnalyticsEvents string `yaml:"analyticsEvents"`
	CorpusReload    string `yaml:"corpusReload"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// SearchConfig controls result shaping and the query normalization used on
// the similarity path.
type SearchConfig struct {
	MaxResults   int    `yaml:"maxResults"`
	DefaultLimit int    `yaml:"defaultLimit"`
	DefaultOrder string `yaml:"defaultOrder"`
	// StemScoreQuery feeds the stemmed query to the TF-IDF scorer instead of
	// the raw query text.
	StemScoreQuery bool `yaml:"stemScoreQuery"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TracingConfig controls span logging.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// AnalyticsConfig controls the standalone analytics service.
type AnalyticsConfig struct {
	// Persist writes periodic aggregate snapshots to Postgres.
	Persist          bool          `yaml:"persist"`
	SnapshotInterval time.Duration `yaml:"snapshotInterval"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration without reading any file or
// environment variable.
func Default() *Config {
	return defaultConfig()
}

// Validate rejects configurations the services cannot start with.
func (c *Config) Validate() error {
	switch c.Corpus.Source {
	case SourceCSV:
		if c.Corpus.Path == "" {
			return fmt.Errorf("corpus.path is required for the %q source", SourceCSV)
		}
	case SourcePostgres:
		if c.Corpus.Table == "" {
			return fmt.Errorf("corpus.table is required for the %q source", SourcePostgres)
		}
	default:
		return fmt.Errorf("unknown corpus source %q", c.Corpus.Source)
	}
	switch c.Search.DefaultOrder {
	case "position", "score":
	default:
		return fmt.Errorf("unknown search.defaultOrder %q", c.Search.DefaultOrder)
	}
	if c.Analytics.Persist && c.Analytics.SnapshotInterval <= 0 {
		return fmt.Errorf("analytics.snapshotInterval must be positive when persist is enabled")
	}
	if c.Search.MaxResults < 0 || c.Search.DefaultLimit < 0 {
		return fmt.Errorf("search limits must not be negative")
	}
	return nil
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:             8080,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			ShutdownTimeout:  15 * time.Second,
			ReloadsPerMinute: 6,
		},
		Corpus: CorpusConfig{
			Source:      SourceCSV,
			Path:        "dataset/data.csv",
			Table:       "articles",
			Limit:       500,
			LoadRetries: 3,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "articles",
			User:            "articles",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Kafka: KafkaConfig{
			Enabled:       false,
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "article-retrieval",
			Topics: KafkaTopics{
				AnalyticsEvents: "analytics-events",
				CorpusReload:    "corpus-reload",
			},
		},
		Redis: RedisConfig{
			Enabled:  false,
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Search: SearchConfig{
			MaxResults:     500,
			DefaultLimit:   0,
			DefaultOrder:   "position",
			StemScoreQuery: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Analytics: AnalyticsConfig{
			SnapshotInterval: time.Minute,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("SP_CORPUS_SOURCE"); v != "" {
		cfg.Corpus.Source = v
	}
	if v := os.Getenv("SP_CORPUS_PATH"); v != "" {
		cfg.Corpus.Path = v
	}
	if v := os.Getenv("SP_CORPUS_TABLE"); v != "" {
		cfg.Corpus.Table = v
	}
	if v := os.Getenv("SP_CORPUS_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			cfg.Corpus.Limit = limit
		}
	}
	if v := os.Getenv("SP_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("SP_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("SP_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("SP_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("SP_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("SP_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("SP_KAFKA_ENABLED"); v != "" {
		cfg.Kafka.Enabled = parseBool(v, cfg.Kafka.Enabled)
	}
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_REDIS_ENABLED"); v != "" {
		cfg.Redis.Enabled = parseBool(v, cfg.Redis.Enabled)
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_SEARCH_STEM_SCORE_QUERY"); v != "" {
		cfg.Search.StemScoreQuery = parseBool(v, cfg.Search.StemScoreQuery)
	}
	if v := os.Getenv("SP_SEARCH_DEFAULT_ORDER"); v != "" {
		cfg.Search.DefaultOrder = v
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SP_ANALYTICS_PERSIST"); v != "" {
		cfg.Analytics.Persist = parseBool(v, cfg.Analytics.Persist)
	}
	if v := os.Getenv("SP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
