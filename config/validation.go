package config

import (
	"errors"
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

// ValidateConfig checks the configuration and reports every problem at once.
func ValidateConfig(cfg *Config) error {
	var problems []ValidationError

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DBHost == "" {
			problems = append(problems, ValidationError{"db_host", "is required for postgres"})
		}
		if cfg.DBName == "" {
			problems = append(problems, ValidationError{"db_name", "is required for postgres"})
		}
		if cfg.DBUser == "" {
			problems = append(problems, ValidationError{"db_user", "is required for postgres"})
		}
	case "sqlite":
		if cfg.DBPath == "" {
			problems = append(problems, ValidationError{"db_path", "is required for sqlite"})
		}
	default:
		problems = append(problems, ValidationError{"db_driver", fmt.Sprintf("unsupported driver %q", cfg.DBDriver)})
	}

	if cfg.ServerPort == "" {
		problems = append(problems, ValidationError{"server_port", "is required"})
	}
	if cfg.JWTSecret == "" {
		problems = append(problems, ValidationError{"jwt_secret", "is required"})
	}
	if cfg.TokenTTL <= 0 {
		problems = append(problems, ValidationError{"token_ttl", "must be positive"})
	}
	if cfg.RecipeRateLimit <= 0 || cfg.RecipeRateWindow <= 0 {
		problems = append(problems, ValidationError{"recipe_rate_limit", "limit and window must be positive"})
	}

	if cfg.Environment == Production {
		if cfg.JWTSecret == DevJWTSecret {
			problems = append(problems, ValidationError{"jwt_secret", "the development secret cannot be used in production"})
		}
		if cfg.DBDriver != "postgres" {
			problems = append(problems, ValidationError{"db_driver", "production requires postgres"})
		}
		if cfg.DBPassword == "" {
			problems = append(problems, ValidationError{"db_password", "is required in production"})
		}
	}

	if len(problems) == 0 {
		return nil
	}

	errs := make([]error, 0, len(problems))
	lines := make([]string, 0, len(problems))
	for _, p := range problems {
		errs = append(errs, p)
		lines = append(lines, p.Error())
	}
	return fmt.Errorf("%s: %w", strings.Join(lines, "; "), errors.Join(errs...))
}
