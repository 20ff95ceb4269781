/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/suparena/contentgate/editlock/ddb"
	"github.com/suparena/contentgate/editlock/redislock"
	"github.com/suparena/contentgate/errors"
)

// Lock backends selectable with LOCK_BACKEND.
const (
	LockBackendMemory   = "memory"
	LockBackendRedis    = "redis"
	LockBackendDynamoDB = "dynamodb"
)

// Config is the server configuration read from the environment.
type Config struct {
	HTTP  HTTPConfig
	Lock  LockConfig
	Redis redislock.Config
	DDB   ddb.Config

	ModelsFile          string `env:"MODELS_FILE" env-default:"models.yaml"`
	AbilitiesFile       string `env:"ABILITIES_FILE" env-default:"abilities.yaml"`
	BulkLockConcurrency int    `env:"BULK_LOCK_CONCURRENCY" env-default:"8"`
	LogLevel            string `env:"LOG_LEVEL" env-default:"info"`
	Telemetry           bool   `env:"TELEMETRY_ENABLED" env-default:"true"`
}

// HTTPConfig configures the listener.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"15s"`
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// LockConfig configures the edit lock manager.
type LockConfig struct {
	Backend string        `env:"LOCK_BACKEND" env-default:"memory"`
	TTL     time.Duration `env:"LOCK_TTL" env-default:"30s"`
	// Retention keeps released locks so a superseded holder sees a mismatch.
	// Zero uses the TTL.
	Retention time.Duration `env:"LOCK_RETENTION" env-default:"0s"`
}

// Load reads the .env files in files, or .env when none is given, and then
// the environment. Missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot.
func (c *Config) Validate() error {
	switch c.Lock.Backend {
	case LockBackendMemory:
	case LockBackendRedis:
		if c.Redis.URL == "" && c.Redis.Addr == "" {
			return errors.NewValidationError("REDIS_URL", "REDIS_URL or REDIS_ADDR is required for the redis lock backend")
		}
	case LockBackendDynamoDB:
		if c.DDB.Table == "" {
			return errors.NewValidationError("AWS_DDB_LOCK_TABLE", "required for the dynamodb lock backend")
		}
	default:
		return errors.NewValidationError("LOCK_BACKEND", fmt.Sprintf("unknown lock backend %q", c.Lock.Backend))
	}
	if c.Lock.TTL <= 0 {
		return errors.NewValidationError("LOCK_TTL", "must be positive")
	}
	if c.Lock.Retention < 0 {
		return errors.NewValidationError("LOCK_RETENTION", "must not be negative")
	}
	if c.BulkLockConcurrency < 1 {
		return errors.NewValidationError("BULK_LOCK_CONCURRENCY", "must be at least 1")
	}
	return nil
}
