package appconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ValidationError wraps a ValidationResult as an error, exposing all
// accumulated issues in a single actionable message.
type ValidationError struct {
	Result ValidationResult
}

func (e *ValidationError) Error() string {
	if len(e.Result.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Result.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Result.Errors[0])
	}
	var b strings.Builder
	b.WriteString("configuration validation failed:")
	for _, err := range e.Result.Errors {
		b.WriteString("\n  - ")
		b.WriteString(err.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error {
	return errors.Join(e.Result.Errors...)
}

// ValidationResult captures validation errors and warnings.
type ValidationResult struct {
	Errors   []error
	Warnings []string
}

// HasErrors reports whether validation errors exist.
func (r ValidationResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// HasWarnings reports whether validation warnings exist.
func (r ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

var (
	allowedLogLevels  = []string{"debug", "info", "warn", "error"}
	allowedLogFormats = []string{"text", "json"}
)

// ValidateConfig validates configuration values and returns all issues found.
func ValidateConfig(cfg Config) ValidationResult {
	var result ValidationResult

	if cfg.Qdrant.MonitoringIntervalSeconds < 1 {
		result.Errors = append(result.Errors, fmt.Errorf(
			"qdrant.monitoring-interval-seconds must be >= 1, got: %d", cfg.Qdrant.MonitoringIntervalSeconds))
	}
	if cfg.Qdrant.HTTPTimeoutSeconds < 1 {
		result.Errors = append(result.Errors, fmt.Errorf(
			"qdrant.http-timeout-seconds must be >= 1, got: %d", cfg.Qdrant.HTTPTimeoutSeconds))
	}
	if cfg.Qdrant.ExecTimeoutSeconds < 1 {
		result.Errors = append(result.Errors, fmt.Errorf(
			"qdrant.exec-timeout-seconds must be >= 1, got: %d", cfg.Qdrant.ExecTimeoutSeconds))
	}
	if cfg.Qdrant.RecoveryMaxWaitSeconds < 1 {
		result.Errors = append(result.Errors, fmt.Errorf(
			"qdrant.recovery-max-wait-seconds must be >= 1, got: %d", cfg.Qdrant.RecoveryMaxWaitSeconds))
	}
	if cfg.Qdrant.MaxConcurrentProbes < 0 {
		result.Errors = append(result.Errors, fmt.Errorf(
			"qdrant.max-concurrent-probes must be >= 0, got: %d", cfg.Qdrant.MaxConcurrentProbes))
	}

	if cfg.Qdrant.Discovery.Enabled {
		if strings.TrimSpace(cfg.Qdrant.Discovery.Namespace) == "" {
			result.Errors = append(result.Errors, errors.New(
				"qdrant.discovery.namespace is required when discovery is enabled"))
		}
		if strings.TrimSpace(cfg.Qdrant.Discovery.LabelSelector) == "" {
			result.Errors = append(result.Errors, errors.New(
				"qdrant.discovery.label-selector is required when discovery is enabled"))
		}
		if cfg.Qdrant.Discovery.ContainerPort <= 0 {
			result.Errors = append(result.Errors, errors.New(
				"qdrant.discovery.container-port must be > 0 when discovery is enabled"))
		}
	} else if len(cfg.Qdrant.Nodes) == 0 {
		result.Errors = append(result.Errors, errors.New(
			"at least one qdrant.nodes entry is required when discovery is disabled"))
	}

	for i, n := range cfg.Qdrant.Nodes {
		if strings.TrimSpace(n.Host) == "" {
			result.Errors = append(result.Errors, fmt.Errorf("qdrant.nodes[%d].host must not be empty", i))
		}
		if n.Port <= 0 {
			result.Errors = append(result.Errors, fmt.Errorf("qdrant.nodes[%d].port must be > 0", i))
		}
	}

	if cfg.Logging.Level != "" && !slices.Contains(allowedLogLevels, cfg.Logging.Level) {
		result.Errors = append(result.Errors, fmt.Errorf(
			"invalid logging.level %q: allowed values are %v", cfg.Logging.Level, allowedLogLevels))
	}
	if cfg.Logging.Format != "" && !slices.Contains(allowedLogFormats, cfg.Logging.Format) {
		result.Errors = append(result.Errors, fmt.Errorf(
			"invalid logging.format %q: allowed values are %v", cfg.Logging.Format, allowedLogFormats))
	}

	if cfg.Qdrant.MonitoringIntervalSeconds > 0 && cfg.Qdrant.MonitoringIntervalSeconds < 1 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("qdrant.monitoring-interval-seconds=%d may cause excessive API load",
				cfg.Qdrant.MonitoringIntervalSeconds))
	}
	if cfg.Qdrant.S3.EndpointUrl != "" && (cfg.Qdrant.S3.AccessKey == "" || cfg.Qdrant.S3.SecretKey == "") {
		result.Warnings = append(result.Warnings,
			"qdrant.s3.endpoint-url is set but access-key/secret-key are incomplete; snapshot presigning will be disabled")
	}

	return result
}
