package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerAddr         string        `mapstructure:"SERVER_ADDR"`
	DatabaseURL        string        `mapstructure:"DB_URI"`
	RedisAddr          string        `mapstructure:"REDIS_ADDR"`
	SecretKey          string        `mapstructure:"SECRET_KEY"`
	Algorithm          string        `mapstructure:"ALGORITHM"`
	AccessTokenMinutes int           `mapstructure:"ACCESS_TOKEN_EXPIRE_MINUTES"`
	BcryptCost         int           `mapstructure:"BCRYPT_COST"`
	RevealLoginFailure bool          `mapstructure:"AUTH_REVEAL_LOGIN_FAILURE"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL"`
	LogLevel           string        `mapstructure:"LOG_LEVEL"`
	LogFormat          string        `mapstructure:"LOG_FORMAT"`
	CORSAllowedOrigins []string      `mapstructure:"CORS_ALLOWED_ORIGINS"`
	ShutdownTimeout    time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`
}

// AccessTokenExpiry is the fixed lifetime of issued access tokens.
func (c *Config) AccessTokenExpiry() time.Duration {
	return time.Duration(c.AccessTokenMinutes) * time.Minute
}

var defaults = map[string]any{
	"SERVER_ADDR":                 ":8080",
	"DB_URI":                      "",
	"REDIS_ADDR":                  "",
	"SECRET_KEY":                  "",
	"ALGORITHM":                   "HS256",
	"ACCESS_TOKEN_EXPIRE_MINUTES": 30,
	"BCRYPT_COST":                 12,
	"AUTH_REVEAL_LOGIN_FAILURE":   false,
	"CACHE_TTL":                   "5m",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"CORS_ALLOWED_ORIGINS":        "*",
	"SHUTDOWN_TIMEOUT":            "10s",
}

// Load reads configuration from a .env file (if present), the environment and
// an optional YAML file named by CONFIG_FILE. Environment wins over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
	}
	return load(viper.New())
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config read error: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config unmarshal error: %w", err)
	}
	cfg.CORSAllowedOrigins = splitList(cfg.CORSAllowedOrigins)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validate(c *Config) error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("SECRET_KEY must be set")
	}
	if c.AccessTokenMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if strings.TrimSpace(c.Algorithm) == "" {
		return errors.New("ALGORITHM must not be empty")
	}
	if strings.TrimSpace(c.ServerAddr) == "" {
		return errors.New("SERVER_ADDR must not be empty")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}
	return nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(in []string) []string {
	var out []string
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
