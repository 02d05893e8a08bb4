package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

// ValidateConfig checks the configuration against the current environment.
func ValidateConfig(cfg *Config) error {
	return validateFor(cfg, GetEnvironment())
}

func validateFor(cfg *Config, env Environment) error {
	var errs ValidationErrors
	add := func(field, msg string) {
		errs = append(errs, ValidationError{Field: field, Message: msg})
	}

	if cfg.Server.Port == "" {
		add("server.port", "must be set")
	}

	switch cfg.Database.Driver {
	case "postgres":
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			add("database", "host and name are required for postgres")
		}
	case "sqlite":
		if cfg.Database.Path == "" {
			add("database.path", "is required for sqlite")
		}
	default:
		add("database.driver", fmt.Sprintf("unsupported driver %q", cfg.Database.Driver))
	}

	switch cfg.Storage.Backend {
	case "local":
		if cfg.Storage.MediaDir == "" {
			add("storage.media_dir", "is required for the local backend")
		}
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			add("storage.s3_bucket", "is required for the s3 backend")
		}
	default:
		add("storage.backend", fmt.Sprintf("unsupported backend %q", cfg.Storage.Backend))
	}

	if cfg.API.PageSize <= 0 {
		add("api.page_size", "must be positive")
	}
	if cfg.API.MaxPageSize < cfg.API.PageSize {
		add("api.max_page_size", "must not be smaller than api.page_size")
	}
	if cfg.API.MaxBodyBytes < 0 {
		add("api.max_body_bytes", "must not be negative")
	}
	if cfg.Auth.TokenTTL <= 0 {
		add("auth.token_ttl", "must be positive")
	}
	if cfg.Auth.JWTSecret == "" {
		add("auth.jwt_secret", "must be set")
	}

	switch env {
	case Production:
		if cfg.Auth.JWTSecret == DefaultJWTSecret {
			add("auth.jwt_secret", "default secret is not allowed in production")
		}
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			add("database.password", "db_password secret is required in production")
		}
	case CI:
		if cfg.Database.Driver == "postgres" && cfg.Database.Password == "" {
			add("database.password", "DB_PASSWORD is required in CI")
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
