package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Validate checks Config for production-critical problems.
// It collects all errors into a single joined error.
func (c *Config) Validate() error {
	var errs []string

	// JWT secrets
	if len(c.JWT.AccessSecret) < 32 {
		errs = append(errs, "JWT_ACCESS_SECRET must be at least 32 characters")
	}
	if len(c.JWT.RefreshSecret) < 32 {
		errs = append(errs, "JWT_REFRESH_SECRET must be at least 32 characters")
	}
	if c.JWT.AccessSecret != "" && c.JWT.RefreshSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, "JWT_ACCESS_SECRET and JWT_REFRESH_SECRET must differ")
	}

	// DB password
	if c.DB.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Port ranges
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("SERVER_PORT must be 1–65535, got %d", c.Server.Port))
	}
	if c.DB.Port < 1 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Sprintf("DB_PORT must be 1–65535, got %d", c.DB.Port))
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Sprintf("REDIS_PORT must be 1–65535, got %d", c.Redis.Port))
	}

	// Assistant budgets
	if c.Assistant.ContextBudgetTokens < 1 {
		errs = append(errs, fmt.Sprintf("ASSISTANT_CONTEXT_BUDGET_TOKENS must be positive, got %d", c.Assistant.ContextBudgetTokens))
	}
	if c.Assistant.MaxTokensPerRequest < 1 {
		errs = append(errs, fmt.Sprintf("ASSISTANT_MAX_TOKENS_PER_REQUEST must be positive, got %d", c.Assistant.MaxTokensPerRequest))
	}
	if c.Assistant.RequestTimeout <= 0 {
		errs = append(errs, "ASSISTANT_REQUEST_TIMEOUT must be positive")
	}

	// Provider URL: warn only — the assistant endpoint returns 503 without it
	if c.Assistant.ProviderURL == "" {
		slog.Warn("ASSISTANT_PROVIDER_URL is empty — AI assistant calls will fail")
	}

	if len(errs) > 0 {
		return errors.New("config validation failed:\n  " + strings.Join(errs, "\n  "))
	}
	return nil
}
