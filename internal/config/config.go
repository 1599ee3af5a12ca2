package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName            string
	AppEnv             string
	AppPort            string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	OpenAIAPIKey       string
	OpenAIModel        string
	OpenAIMaxTokens    int
	OpenAITemperature  float32
	PromptPath         string
	AssignmentCacheTTL time.Duration
	GradeRateLimit     int
	GradeRateWindow    time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("RUBRICA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Rubrica API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 4096)
	v.SetDefault("openai.temperature", 0.2)
	v.SetDefault("prompt.path", "prompts/grading.md")
	v.SetDefault("assignment.cache_ttl", "5m")
	v.SetDefault("grade.rate_limit", 10)
	v.SetDefault("grade.rate_window", "1m")

	ttlString := v.GetString("assignment.cache_ttl")
	if ttlString == "" {
		ttlString = "5m"
	}

	ttl, err := time.ParseDuration(ttlString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid assignment cache ttl: %w", err)
	}

	windowString := v.GetString("grade.rate_window")
	if windowString == "" {
		windowString = "1m"
	}

	window, err := time.ParseDuration(windowString)
	if err != nil {
		return Config{}, fmt.Errorf("invalid grade rate window: %w", err)
	}

	cfg := Config{
		AppName:            v.GetString("app.name"),
		AppEnv:             v.GetString("app.env"),
		AppPort:            v.GetString("app.port"),
		DatabaseURL:        v.GetString("database.url"),
		RedisURL:           v.GetString("redis.url"),
		JWTSecret:          v.GetString("jwt.secret"),
		OpenAIAPIKey:       v.GetString("openai_api_key"),
		OpenAIModel:        v.GetString("openai.model"),
		OpenAIMaxTokens:    v.GetInt("openai.max_tokens"),
		OpenAITemperature:  float32(v.GetFloat64("openai.temperature")),
		PromptPath:         v.GetString("prompt.path"),
		AssignmentCacheTTL: ttl,
		GradeRateLimit:     v.GetInt("grade.rate_limit"),
		GradeRateWindow:    window,
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	// No check on the OpenAI key: the grading endpoint reports a missing
	// credential per request so the rest of the API stays up.

	if cfg.OpenAIMaxTokens <= 0 {
		cfg.OpenAIMaxTokens = 4096
	}

	if cfg.GradeRateLimit <= 0 {
		cfg.GradeRateLimit = 10
	}

	return cfg, nil
}
