// Package config loads daemon settings from KITTYCORE_* environment
// variables and dev-chain genesis balances from TOML.
package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"kittycore/internal/blob"
	"kittycore/internal/core"
	"kittycore/pkg/domain"
)

// Service metrics and tracing backends.
const (
	MetricsPrometheus = "prometheus"
	MetricsExpvar     = "expvar"
	TracerOTel        = "otel"
	TracerJSON        = "json"
)

// Config is the full daemon configuration.
type Config struct {
	HTTPAddr    string   `env:"KITTYCORE_HTTP_ADDR" envDefault:":8080"`
	CORSOrigins []string `env:"KITTYCORE_CORS_ORIGINS" envSeparator:","`

	LogLevel  string `env:"KITTYCORE_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"KITTYCORE_LOG_FORMAT" envDefault:"json"`

	StorageDriver string `env:"KITTYCORE_STORAGE_DRIVER" envDefault:"sqlite"`
	SQLitePath    string `env:"KITTYCORE_SQLITE_PATH" envDefault:"kittycore.db"`
	PostgresDSN   string `env:"KITTYCORE_POSTGRES_DSN"`

	BlobDriver      string `env:"KITTYCORE_BLOB_DRIVER" envDefault:"fs"`
	BlobFSRoot      string `env:"KITTYCORE_BLOB_FS_ROOT" envDefault:"./blobdata"`
	S3Bucket        string `env:"KITTYCORE_BLOB_S3_BUCKET"`
	S3Region        string `env:"KITTYCORE_BLOB_S3_REGION" envDefault:"us-east-1"`
	S3Endpoint      string `env:"KITTYCORE_BLOB_S3_ENDPOINT"`
	S3PathStyle     bool   `env:"KITTYCORE_BLOB_S3_PATH_STYLE"`
	S3AccessKeyID   string `env:"AWS_ACCESS_KEY_ID"`
	S3SecretKey     string `env:"AWS_SECRET_ACCESS_KEY"`
	S3SessionToken  string `env:"AWS_SESSION_TOKEN"`
	JournalDisabled bool   `env:"KITTYCORE_JOURNAL_DISABLED"`

	JWTSecret string        `env:"KITTYCORE_JWT_SECRET"`
	TokenTTL  time.Duration `env:"KITTYCORE_TOKEN_TTL" envDefault:"24h"`

	BlockTime          time.Duration `env:"KITTYCORE_BLOCK_TIME" envDefault:"6s"`
	ExistentialDeposit string        `env:"KITTYCORE_EXISTENTIAL_DEPOSIT" envDefault:"1"`
	RandomSeed         string        `env:"KITTYCORE_RANDOM_SEED"`
	GenesisFile        string        `env:"KITTYCORE_GENESIS_FILE"`

	Metrics      string `env:"KITTYCORE_METRICS" envDefault:"prometheus"`
	Tracer       string `env:"KITTYCORE_TRACER" envDefault:"otel"`
	OTelEnabled  bool   `env:"KITTYCORE_OTEL_ENABLED"`
	OTelEndpoint string `env:"KITTYCORE_OTEL_ENDPOINT"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints that tags cannot express.
func (c Config) Validate() error {
	switch core.StorageDriver(c.StorageDriver) {
	case core.StorageMemory, core.StorageSQLite:
	case core.StoragePostgres:
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("KITTYCORE_POSTGRES_DSN is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unknown KITTYCORE_STORAGE_DRIVER %q", c.StorageDriver)
	}
	switch blob.Driver(c.BlobDriver) {
	case blob.DriverFilesystem, blob.DriverMemory:
	case blob.DriverS3:
		if strings.TrimSpace(c.S3Bucket) == "" {
			return fmt.Errorf("KITTYCORE_BLOB_S3_BUCKET is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown KITTYCORE_BLOB_DRIVER %q", c.BlobDriver)
	}
	switch c.Metrics {
	case MetricsPrometheus, MetricsExpvar:
	default:
		return fmt.Errorf("unknown KITTYCORE_METRICS %q", c.Metrics)
	}
	switch c.Tracer {
	case TracerOTel, TracerJSON:
	default:
		return fmt.Errorf("unknown KITTYCORE_TRACER %q", c.Tracer)
	}
	if c.BlockTime <= 0 {
		return fmt.Errorf("KITTYCORE_BLOCK_TIME must be positive")
	}
	if _, err := c.Existential(); err != nil {
		return err
	}
	if _, _, err := c.Seed(); err != nil {
		return err
	}
	return nil
}

// StorageConfig maps the storage fields onto core.StorageConfig.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.StorageDriver),
		SQLitePath:  c.SQLitePath,
		PostgresDSN: c.PostgresDSN,
	}
}

// BlobConfig maps the blob fields onto blob.Config.
func (c Config) BlobConfig() blob.Config {
	return blob.Config{
		Driver: blob.Driver(c.BlobDriver),
		FSRoot: c.BlobFSRoot,
		S3: blob.S3Config{
			Region:          c.S3Region,
			Bucket:          c.S3Bucket,
			Endpoint:        c.S3Endpoint,
			AccessKeyID:     c.S3AccessKeyID,
			SecretAccessKey: c.S3SecretKey,
			SessionToken:    c.S3SessionToken,
			PathStyle:       c.S3PathStyle,
		},
	}
}

// Existential parses the existential deposit.
func (c Config) Existential() (domain.Balance, error) {
	b, err := domain.ParseBalance(c.ExistentialDeposit)
	if err != nil {
		return domain.Balance{}, fmt.Errorf("KITTYCORE_EXISTENTIAL_DEPOSIT: %w", err)
	}
	if b.IsNegative() {
		return domain.Balance{}, fmt.Errorf("KITTYCORE_EXISTENTIAL_DEPOSIT must not be negative")
	}
	return b, nil
}

// Seed decodes the optional hex randomness seed. ok is false when unset.
func (c Config) Seed() (seed domain.Hash, ok bool, err error) {
	raw := strings.TrimSpace(c.RandomSeed)
	if raw == "" {
		return domain.Hash{}, false, nil
	}
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return domain.Hash{}, false, fmt.Errorf("KITTYCORE_RANDOM_SEED: %w", err)
	}
	if len(decoded) != len(seed) {
		return domain.Hash{}, false, fmt.Errorf("KITTYCORE_RANDOM_SEED must be %d bytes", len(seed))
	}
	copy(seed[:], decoded)
	return seed, true, nil
}
