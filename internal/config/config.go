// Package config loads the mintaged service configuration from MINTAGE_*
// environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/mintage"
	"github.com/xraph/mintage/types"
)

// StoreMemory is the only backend the standalone binary opens itself.
const StoreMemory = "memory"

// Config is the service configuration.
type Config struct {
	HTTPAddr        string        `env:"MINTAGE_HTTP_ADDR" envDefault:":8080"`
	LogLevel        string        `env:"MINTAGE_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"MINTAGE_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Store string `env:"MINTAGE_STORE" envDefault:"memory"`

	ContractAccount  string        `env:"MINTAGE_CONTRACT_ACCOUNT" envDefault:"mintage.near"`
	StorageBytePrice string        `env:"MINTAGE_STORAGE_BYTE_PRICE" envDefault:"10000000000000000000"`
	RestrictMint     bool          `env:"MINTAGE_RESTRICT_MINT"`
	ReceiverTimeout  time.Duration `env:"MINTAGE_RECEIVER_TIMEOUT" envDefault:"10s"`

	JWTSecret string `env:"MINTAGE_JWT_SECRET"`

	KafkaBrokers []string `env:"MINTAGE_KAFKA_BROKERS" envSeparator:","`
	KafkaTopic   string   `env:"MINTAGE_KAFKA_TOPIC" envDefault:"mintage.events"`

	RedisURL    string `env:"MINTAGE_REDIS_URL"`
	RedisStream string `env:"MINTAGE_REDIS_STREAM" envDefault:"mintage:events"`
	RedisMaxLen int64  `env:"MINTAGE_REDIS_MAXLEN"`

	OTelEnabled  bool   `env:"MINTAGE_OTEL_ENABLED"`
	OTelEndpoint string `env:"MINTAGE_OTEL_ENDPOINT"`
	ServiceName  string `env:"MINTAGE_SERVICE_NAME" envDefault:"mintaged"`
}

// Load parses the environment and validates the result.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks values env parsing cannot.
func (c Config) Validate() error {
	var errs mintage.MultiError
	if !strings.EqualFold(c.Store, StoreMemory) {
		errs.Add(mintage.ValidationError{
			Field:   "MINTAGE_STORE",
			Message: fmt.Sprintf("unsupported store %q: only %q is opened by mintaged", c.Store, StoreMemory),
		})
	}
	if _, err := types.ParseAccountID(c.ContractAccount); err != nil {
		errs.Add(mintage.ValidationError{Field: "MINTAGE_CONTRACT_ACCOUNT", Message: err.Error()})
	}
	if _, err := types.ParseAmount(c.StorageBytePrice); err != nil {
		errs.Add(mintage.ValidationError{Field: "MINTAGE_STORAGE_BYTE_PRICE", Message: err.Error()})
	}
	if c.OTelEnabled && c.OTelEndpoint == "" {
		errs.Add(mintage.ValidationError{Field: "MINTAGE_OTEL_ENDPOINT", Message: "required when tracing is enabled"})
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// RegistryOptions translates the registry settings into mintage options.
func (c Config) RegistryOptions() ([]mintage.Option, error) {
	account, err := types.ParseAccountID(c.ContractAccount)
	if err != nil {
		return nil, fmt.Errorf("contract account: %w", err)
	}
	price, err := types.ParseAmount(c.StorageBytePrice)
	if err != nil {
		return nil, fmt.Errorf("storage byte price: %w", err)
	}
	opts := []mintage.Option{
		mintage.WithContractAccount(account),
		mintage.WithStorageBytePrice(price),
		mintage.WithReceiverTimeout(c.ReceiverTimeout),
	}
	if c.RestrictMint {
		opts = append(opts, mintage.WithRestrictedMint())
	}
	return opts, nil
}

// Level maps LogLevel to a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
