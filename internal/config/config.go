package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/skillloop/skillloop-backend/internal/logger"
	"github.com/skillloop/skillloop-backend/internal/utils"
)

// Config carries the process configuration. Values come from an optional YAML
// file (CONFIG_PATH) with environment variables taking precedence.
type Config struct {
	Server struct {
		Port    string `yaml:"port"`
		LogMode string `yaml:"log_mode"`
	} `yaml:"server"`

	Postgres struct {
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"postgres"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	Auth struct {
		JWTSecretKey    string `yaml:"jwt_secret_key"`
		AccessTokenTTL  int    `yaml:"access_token_ttl"`
		RefreshTokenTTL int    `yaml:"refresh_token_ttl"`
	} `yaml:"auth"`

	Engine struct {
		Alpha               float64 `yaml:"alpha"`
		Gamma               float64 `yaml:"gamma"`
		Epsilon             float64 `yaml:"epsilon"`
		StruggleThreshold   float64 `yaml:"struggle_threshold"`
		ClassifierBaseURL   string  `yaml:"classifier_base_url"`
		ClassifierTimeoutMS int     `yaml:"classifier_timeout_ms"`
	} `yaml:"engine"`
}

func Load(log *logger.Logger) (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_PATH")
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		if log != nil {
			log.Info("Loaded config file", "path", path)
		}
	}

	cfg.Server.Port = utils.GetEnv("PORT", fallback(cfg.Server.Port, "8080"), log)
	cfg.Server.LogMode = utils.GetEnv("LOG_MODE", fallback(cfg.Server.LogMode, "development"), log)

	cfg.Postgres.Host = utils.GetEnv("POSTGRES_HOST", fallback(cfg.Postgres.Host, "localhost"), log)
	cfg.Postgres.Port = utils.GetEnv("POSTGRES_PORT", fallback(cfg.Postgres.Port, "5432"), log)
	cfg.Postgres.User = utils.GetEnv("POSTGRES_USER", fallback(cfg.Postgres.User, "postgres"), log)
	cfg.Postgres.Password = utils.GetEnv("POSTGRES_PASSWORD", cfg.Postgres.Password, log)
	cfg.Postgres.Name = utils.GetEnv("POSTGRES_NAME", fallback(cfg.Postgres.Name, "skillloop"), log)

	cfg.Redis.Addr = utils.GetEnv("REDIS_ADDR", cfg.Redis.Addr, log)

	cfg.Auth.JWTSecretKey = utils.GetEnv("JWT_SECRET_KEY", fallback(cfg.Auth.JWTSecretKey, "defaultsecret"), log)
	cfg.Auth.AccessTokenTTL = utils.GetEnvAsInt("ACCESS_TOKEN_TTL", fallbackInt(cfg.Auth.AccessTokenTTL, 3600), log)
	cfg.Auth.RefreshTokenTTL = utils.GetEnvAsInt("REFRESH_TOKEN_TTL", fallbackInt(cfg.Auth.RefreshTokenTTL, 86400), log)

	cfg.Engine.Alpha = utils.GetEnvAsFloat("ENGINE_ALPHA", fallbackFloat(cfg.Engine.Alpha, 0.1), log)
	cfg.Engine.Gamma = utils.GetEnvAsFloat("ENGINE_GAMMA", fallbackFloat(cfg.Engine.Gamma, 0.9), log)
	cfg.Engine.Epsilon = utils.GetEnvAsFloat("ENGINE_EPSILON", fallbackFloat(cfg.Engine.Epsilon, 0.1), log)
	cfg.Engine.StruggleThreshold = utils.GetEnvAsFloat("ENGINE_STRUGGLE_THRESHOLD", fallbackFloat(cfg.Engine.StruggleThreshold, 0.70), log)
	cfg.Engine.ClassifierBaseURL = utils.GetEnv("CLASSIFIER_BASE_URL", cfg.Engine.ClassifierBaseURL, log)
	cfg.Engine.ClassifierTimeoutMS = utils.GetEnvAsInt("CLASSIFIER_TIMEOUT_MS", fallbackInt(cfg.Engine.ClassifierTimeoutMS, 3000), log)

	return cfg, nil
}

func (c *Config) AccessTTL() time.Duration {
	return time.Duration(c.Auth.AccessTokenTTL) * time.Second
}

func (c *Config) RefreshTTL() time.Duration {
	return time.Duration(c.Auth.RefreshTokenTTL) * time.Second
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func fallbackInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func fallbackFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
