package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the default configuration file name.
const FileName = "razao.yaml"

// Config represents the top-level razao.yaml configuration.
type Config struct {
	CompanyID string        `yaml:"company_id"`
	Storage   StorageConfig `yaml:"storage"`
	Cache     CacheConfig   `yaml:"cache"`
	Ledger    LedgerConfig  `yaml:"ledger"`
	Log       LogConfig     `yaml:"log"`
}

// StorageConfig selects the data-access backend.
type StorageConfig struct {
	Driver   string `yaml:"driver"` // memory, postgres, mysql or sqlite
	DSN      string `yaml:"dsn,omitempty"`
	Fixtures string `yaml:"fixtures,omitempty"` // YAML seed file for the memory driver
}

// CacheConfig controls the derivation cache. An empty address disables it.
type CacheConfig struct {
	RedisAddr string        `yaml:"redis_addr,omitempty"`
	TTL       time.Duration `yaml:"ttl"`
}

// LedgerConfig controls derivation and loading.
type LedgerConfig struct {
	Strict               bool `yaml:"strict"`
	InstallmentBatchSize int  `yaml:"installment_batch_size"`
}

// LogConfig controls the shared logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or text
}

// Load reads a razao.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg := Default("")
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(companyID string) *Config {
	return &Config{
		CompanyID: companyID,
		Storage: StorageConfig{
			Driver: "memory",
		},
		Cache: CacheConfig{
			TTL: 10 * time.Minute,
		},
		Ledger: LedgerConfig{
			InstallmentBatchSize: 50,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Environment variables that override file settings.
const (
	EnvCompanyID     = "RAZAO_COMPANY_ID"
	EnvStorageDriver = "RAZAO_STORAGE_DRIVER"
	EnvDSN           = "RAZAO_DSN"
	EnvRedisAddr     = "RAZAO_REDIS_ADDR"
	EnvStrict        = "RAZAO_STRICT"
	EnvLogLevel      = "RAZAO_LOG_LEVEL"
)

// LoadEnvFile loads variables from a .env file into the process environment
// without overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides cfg with the RAZAO_* variables that are set.
func ApplyEnv(cfg *Config) error {
	setString(&cfg.CompanyID, EnvCompanyID)
	setString(&cfg.Storage.Driver, EnvStorageDriver)
	setString(&cfg.Storage.DSN, EnvDSN)
	setString(&cfg.Cache.RedisAddr, EnvRedisAddr)
	setString(&cfg.Log.Level, EnvLogLevel)

	if v := strings.TrimSpace(os.Getenv(EnvStrict)); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvStrict, err)
		}
		cfg.Ledger.Strict = strict
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}
