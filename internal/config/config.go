// internal/config/config.go
package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the service.
type Config struct {
	LogLevel       string   `mapstructure:"LOG_LEVEL"`
	HTTPAddr       string   `mapstructure:"HTTP_ADDR"`
	DBURL          string   `mapstructure:"DB_URL"`
	JWTSecret      string   `mapstructure:"JWT_SECRET"`
	TokenCipherKey string   `mapstructure:"TOKEN_CIPHER_KEY"`
	AllowedOrigins []string `mapstructure:"ALLOWED_ORIGINS"`
	GithubAPIURL   string   `mapstructure:"GITHUB_API_URL"`
	AIGatewayURL   string   `mapstructure:"AI_GATEWAY_URL"`
	AIGatewayKey   string   `mapstructure:"AI_GATEWAY_KEY"`
	RedisAddr      string   `mapstructure:"REDIS_ADDR"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	// Set default values
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("GITHUB_API_URL", "https://api.github.com")
	viper.SetDefault("AI_GATEWAY_URL", "https://ai.gateway.lovable.dev")
	viper.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:5173", "http://localhost:3000"})

	// Load from .env file if it exists
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	_ = viper.ReadInConfig() // Ignore error if file not found

	// Bind environment variables
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate required fields
	if cfg.DBURL == "" {
		return nil, errors.New("DB_URL is a required configuration field")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is a required configuration field")
	}
	if cfg.TokenCipherKey == "" {
		return nil, errors.New("TOKEN_CIPHER_KEY is a required configuration field")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, errors.New("ALLOWED_ORIGINS must contain at least one origin")
	}

	return &cfg, nil
}
