package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server:    ServerConfig{Host: "0.0.0.0", Port: 8080},
		DB:        DBConfig{Host: "localhost", Port: 5432, User: "devpad", Password: "secret", Name: "devpad", SSLMode: "disable", MaxConns: 25},
		Redis:     RedisConfig{Host: "localhost", Port: 6379},
		NATS:      NATSConfig{URL: "nats://localhost:4222"},
		JWT:       JWTConfig{AccessSecret: "access-secret-32-chars-long!!!!!", RefreshSecret: "refresh-secret-32-chars-long!!!!", AccessExpiry: 15 * time.Minute, RefreshExpiry: 168 * time.Hour},
		Assistant: AssistantConfig{ProviderURL: "https://api.example.com/v1", Model: "gpt-4o-mini", ContextBudgetTokens: 4000, MaxTokensPerRequest: 4096, RequestTimeout: 60 * time.Second},
		RateLimit: RateLimitConfig{AuthMaxPerMinute: 20},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.AccessSecret = "short"
	cfg.JWT.RefreshSecret = "short"
	cfg.DB.Password = ""
	cfg.Server.Port = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_ACCESS_SECRET")
	assert.Contains(t, err.Error(), "JWT_REFRESH_SECRET")
	assert.Contains(t, err.Error(), "DB_PASSWORD")
	assert.Contains(t, err.Error(), "SERVER_PORT")
}

func TestValidate_SecretsMustDiffer(t *testing.T) {
	cfg := validConfig()
	cfg.JWT.RefreshSecret = cfg.JWT.AccessSecret

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must differ")
}

func TestValidate_AssistantBudgets(t *testing.T) {
	cfg := validConfig()
	cfg.Assistant.ContextBudgetTokens = 0
	cfg.Assistant.MaxTokensPerRequest = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ASSISTANT_CONTEXT_BUDGET_TOKENS")
	assert.Contains(t, err.Error(), "ASSISTANT_MAX_TOKENS_PER_REQUEST")
}

func TestValidate_EmptyProviderURLIsWarningOnly(t *testing.T) {
	cfg := validConfig()
	cfg.Assistant.ProviderURL = ""
	assert.NoError(t, cfg.Validate())
}

func TestSplitAndTrim(t *testing.T) {
	assert.Nil(t, splitAndTrim(""))
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, splitAndTrim("http://a.com, http://b.com"))
	assert.Equal(t, []string{"*"}, splitAndTrim(" * "))
}
