package config

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"healthwatch/internal/model"
)

// ValidationError represents a single validation error with user-friendly message.
type ValidationError struct {
	Field   string      // Field path (e.g., "server.addr")
	Tag     string      // Validation tag that failed (e.g., "required", "url")
	Value   interface{} // Actual value that failed validation
	Message string      // User-friendly error message
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Message
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []*ValidationError

// Error implements the error interface.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("config validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s: %s\n", err.Field, err.Message))
	}
	return sb.String()
}

var validate = validator.New()

// Validate validates the configuration and returns user-friendly error messages.
func Validate(cfg *Config) error {
	var validationErrors ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		if fieldErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range fieldErrors {
				validationErrors = append(validationErrors, &ValidationError{
					Field:   formatFieldName(fe.Namespace()),
					Tag:     fe.Tag(),
					Value:   fe.Value(),
					Message: translateError(fe),
				})
			}
		}
	}

	validationErrors = append(validationErrors, validateThresholds(cfg)...)
	validationErrors = append(validationErrors, validateIntervals(cfg)...)
	validationErrors = append(validationErrors, validateServices(cfg)...)
	validationErrors = append(validationErrors, validateTimezoneConfig(cfg)...)

	if len(validationErrors) > 0 {
		return validationErrors
	}

	return nil
}

// validateThresholds checks that every threshold names a known metric and is non-negative.
func validateThresholds(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	names := cfg.Thresholds.Names()
	sort.Strings(names)
	for _, name := range names {
		limit := cfg.Thresholds[name]
		field := "thresholds." + name
		if !model.IsKnownMetric(name) {
			errors = append(errors, &ValidationError{
				Field:   field,
				Tag:     "known_metric",
				Value:   name,
				Message: fmt.Sprintf("unknown metric %q", name),
			})
			continue
		}
		if limit < 0 {
			errors = append(errors, &ValidationError{
				Field:   field,
				Tag:     "gte",
				Value:   limit,
				Message: fmt.Sprintf("threshold must be non-negative, got %.2f", limit),
			})
		}
	}

	return errors
}

// validateIntervals checks the scheduler cadences.
func validateIntervals(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	intervals := []struct {
		name  string
		value time.Duration
	}{
		{"scheduler.health_check_interval", cfg.Scheduler.HealthCheckInterval},
		{"scheduler.metrics_interval", cfg.Scheduler.MetricsInterval},
		{"scheduler.error_backoff", cfg.Scheduler.ErrorBackoff},
	}

	for _, iv := range intervals {
		if iv.value <= 0 {
			errors = append(errors, &ValidationError{
				Field:   iv.name,
				Tag:     "positive_duration",
				Value:   iv.value,
				Message: fmt.Sprintf("interval must be positive, got %s", iv.value),
			})
		}
	}

	return errors
}

// validateServices checks the service registry: unique names and a usable target per kind.
func validateServices(cfg *Config) ValidationErrors {
	var errors ValidationErrors
	seen := make(map[string]bool)

	for i, svc := range cfg.HealthCheck.Services {
		field := fmt.Sprintf("health_check.services[%d]", i)
		if svc.Name == "" {
			errors = append(errors, &ValidationError{
				Field:   field + ".name",
				Tag:     "required",
				Message: "this field is required",
			})
			continue
		}
		if seen[svc.Name] {
			errors = append(errors, &ValidationError{
				Field:   field + ".name",
				Tag:     "unique",
				Value:   svc.Name,
				Message: fmt.Sprintf("duplicate service name %q", svc.Name),
			})
		}
		seen[svc.Name] = true

		switch svc.Kind.Normalize() {
		case model.ServiceKindHTTP:
			u, err := url.Parse(svc.Target)
			if err != nil || u.Scheme == "" || u.Host == "" {
				errors = append(errors, &ValidationError{
					Field:   field + ".target",
					Tag:     "url",
					Value:   svc.Target,
					Message: fmt.Sprintf("invalid URL format: %v", svc.Target),
				})
			}
		case model.ServiceKindTCP:
			if _, _, err := net.SplitHostPort(svc.Target); err != nil {
				errors = append(errors, &ValidationError{
					Field:   field + ".target",
					Tag:     "hostport",
					Value:   svc.Target,
					Message: fmt.Sprintf("invalid host:port: %v", svc.Target),
				})
			}
		case model.ServiceKindMock:
		default:
			errors = append(errors, &ValidationError{
				Field:   field + ".kind",
				Tag:     "oneof",
				Value:   svc.Kind,
				Message: "value must be one of: http tcp mock",
			})
		}
	}

	return errors
}

// validateTimezoneConfig validates the report timezone configuration.
func validateTimezoneConfig(cfg *Config) ValidationErrors {
	var errors ValidationErrors

	if cfg.Report.Timezone != "" {
		if _, err := time.LoadLocation(cfg.Report.Timezone); err != nil {
			errors = append(errors, &ValidationError{
				Field:   "report.timezone",
				Tag:     "timezone",
				Value:   cfg.Report.Timezone,
				Message: fmt.Sprintf("invalid timezone: %s", cfg.Report.Timezone),
			})
		}
	}

	return errors
}

// formatFieldName converts the validator field namespace to a user-friendly format.
// Example: "Config.Server.Addr" -> "server.addr"
func formatFieldName(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}

	for i, part := range parts {
		parts[i] = strings.ToLower(part)
	}

	return strings.Join(parts, ".")
}

// translateError converts a validator.FieldError to a user-friendly message.
func translateError(fe validator.FieldError) string {
	field := formatFieldName(fe.Namespace())

	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "url":
		return fmt.Sprintf("invalid URL format: %v", fe.Value())
	case "gte":
		return fmt.Sprintf("value must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("value must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("value must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("validation failed on '%s' tag for field '%s'", fe.Tag(), field)
	}
}
