package config

import (
	"chatapp-client/internal/models"
	"chatapp-client/internal/snowflake"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const (
	SourceMock  = "mock"
	SourceRedis = "redis"
)

func defaults() models.ConfigFile {
	return models.ConfigFile{
		Address:          "127.0.0.1",
		Port:             "3000",
		LogLevel:         "info",
		SelfContained:    true,
		MessageSource:    SourceMock,
		UserID:           "me",
		MockFailureRate:  0.05,
		MockMinLatencyMs: 100,
		MockMaxLatencyMs: 300,
	}
}

// Read decodes the config file on top of the defaults, then applies a .env file if
// there is one and any CHATAPP_* environment variables.
func Read(path string) (models.ConfigFile, error) {
	cfg := defaults()

	bytes, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, err
	}
	if err == nil {
		err = json.Unmarshal(bytes, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("couldn't parse config file [%s]: %w", path, err)
		}
	}

	// missing .env is normal outside development
	_ = godotenv.Load()

	err = applyEnv(&cfg)
	if err != nil {
		return cfg, err
	}

	return cfg, Validate(cfg)
}

func applyEnv(cfg *models.ConfigFile) error {
	setString := func(key string, target *string) {
		if value := os.Getenv(key); value != "" {
			*target = value
		}
	}

	setString("CHATAPP_ADDRESS", &cfg.Address)
	setString("CHATAPP_PORT", &cfg.Port)
	setString("CHATAPP_LOG_LEVEL", &cfg.LogLevel)
	setString("CHATAPP_JWT_SECRET", &cfg.JwtSecret)
	setString("CHATAPP_SQLITE_PATH", &cfg.SqlitePath)
	setString("CHATAPP_DB_USER", &cfg.DbUser)
	setString("CHATAPP_DB_PASSWORD", &cfg.DbPassword)
	setString("CHATAPP_DB_ADDRESS", &cfg.DbAddress)
	setString("CHATAPP_DB_PORT", &cfg.DbPort)
	setString("CHATAPP_DB_DATABASE", &cfg.DbDatabase)
	setString("CHATAPP_REDIS_ADDRESS", &cfg.RedisAddress)
	setString("CHATAPP_MESSAGE_SOURCE", &cfg.MessageSource)
	setString("CHATAPP_SEED_FILE", &cfg.SeedFile)
	setString("CHATAPP_USER_ID", &cfg.UserID)

	if value := os.Getenv("CHATAPP_SELF_CONTAINED"); value != "" {
		parsed, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("CHATAPP_SELF_CONTAINED: %w", err)
		}
		cfg.SelfContained = parsed
	}
	if value := os.Getenv("CHATAPP_MOCK_FAILURE_RATE"); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("CHATAPP_MOCK_FAILURE_RATE: %w", err)
		}
		cfg.MockFailureRate = parsed
	}
	if value := os.Getenv("CHATAPP_MOCK_INCOMING_INTERVAL_MS"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("CHATAPP_MOCK_INCOMING_INTERVAL_MS: %w", err)
		}
		cfg.MockIncomingIntervalMs = parsed
	}

	return nil
}

func Validate(cfg models.ConfigFile) error {
	if cfg.Port == "" {
		return fmt.Errorf("port is not set")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("user ID is not set")
	}
	if cfg.SnowflakeWorkerID < 0 || cfg.SnowflakeWorkerID > snowflake.MaxWorkerID {
		return fmt.Errorf("snowflake worker ID must be between 0 and %d", snowflake.MaxWorkerID)
	}
	if cfg.MockFailureRate < 0 || cfg.MockFailureRate > 1 {
		return fmt.Errorf("mock failure rate must be between 0 and 1")
	}
	if cfg.MockMinLatencyMs < 0 || cfg.MockMaxLatencyMs < cfg.MockMinLatencyMs {
		return fmt.Errorf("mock latency range [%d, %d] is invalid", cfg.MockMinLatencyMs, cfg.MockMaxLatencyMs)
	}
	if cfg.MockIncomingIntervalMs < 0 {
		return fmt.Errorf("mock incoming interval can't be negative")
	}

	switch cfg.MessageSource {
	case SourceMock:
	case SourceRedis:
		if cfg.RedisAddress == "" {
			return fmt.Errorf("redis message source needs a redis address")
		}
		if cfg.SeedFile == "" {
			return fmt.Errorf("redis message source needs a seed file")
		}
	default:
		return fmt.Errorf("unknown message source [%s]", cfg.MessageSource)
	}

	if !cfg.SelfContained {
		if cfg.DbAddress == "" || cfg.DbDatabase == "" {
			return fmt.Errorf("database address and name are needed when not self contained")
		}
		if cfg.RedisAddress == "" {
			return fmt.Errorf("redis address is needed when not self contained")
		}
	}

	return nil
}
