// Package appconfig holds the Vigilante configuration schema and defaults.
package appconfig

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMonitoringIntervalSeconds = 30
	DefaultHTTPTimeoutSeconds        = 5
	DefaultEnableAutoRecovery        = true
	DefaultMaxConcurrentProbes       = 0 // 0 means "one per node"
	DefaultExecTimeoutSeconds        = 30
	DefaultRecoveryMaxWaitSeconds    = 300
	DefaultMaxIdleConnsPerHost       = 10
	DefaultIdleConnTimeoutSeconds    = 120
	DefaultLogLevel                 = "info"
	DefaultLogFormat                = "text"
	DefaultS3Region                  = "default"
	DefaultS3Service                 = "s3"
	DefaultS3SignatureVersion        = "AWS4-HMAC-SHA256"
	DefaultS3PresignExpirySeconds    = 900
)

// Config holds the full configuration schema for vigilante.
type Config struct {
	Qdrant  QdrantConfig  `mapstructure:"qdrant" yaml:"qdrant" json:"qdrant"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging" json:"logging"`
	HTTP    HTTPConfig    `mapstructure:"http" yaml:"http" json:"http"`
}

// QdrantConfig describes the monitored cluster and its discovery/timeout knobs.
type QdrantConfig struct {
	MonitoringIntervalSeconds int          `mapstructure:"monitoring-interval-seconds" yaml:"monitoring-interval-seconds" json:"monitoring_interval_seconds"`
	HTTPTimeoutSeconds        int          `mapstructure:"http-timeout-seconds" yaml:"http-timeout-seconds" json:"http_timeout_seconds"`
	EnableAutoRecovery        bool         `mapstructure:"enable-auto-recovery" yaml:"enable-auto-recovery" json:"enable_auto_recovery"`
	ApiKey                    string       `mapstructure:"api-key" yaml:"api-key" json:"api_key,omitempty"`
	MaxConcurrentProbes       int          `mapstructure:"max-concurrent-probes" yaml:"max-concurrent-probes" json:"max_concurrent_probes"`
	ExecTimeoutSeconds        int          `mapstructure:"exec-timeout-seconds" yaml:"exec-timeout-seconds" json:"exec_timeout_seconds"`
	RecoveryMaxWaitSeconds    int          `mapstructure:"recovery-max-wait-seconds" yaml:"recovery-max-wait-seconds" json:"recovery_max_wait_seconds"`
	Discovery                DiscoveryConfig `mapstructure:"discovery" yaml:"discovery" json:"discovery"`
	Nodes                     []NodeConfig `mapstructure:"nodes" yaml:"nodes" json:"nodes"`
	S3                        S3Config     `mapstructure:"s3" yaml:"s3" json:"s3"`
}

// DiscoveryConfig selects Static vs Discovered node-registry mode (spec.md §4.1).
type DiscoveryConfig struct {
	Enabled       bool   `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Namespace     string `mapstructure:"namespace" yaml:"namespace" json:"namespace"`
	LabelSelector string `mapstructure:"label-selector" yaml:"label-selector" json:"label_selector"`
	ContainerPort int32  `mapstructure:"container-port" yaml:"container-port" json:"container_port"`
	Scheme        string `mapstructure:"scheme" yaml:"scheme" json:"scheme"`
}

// NodeConfig describes one statically-configured seed node.
type NodeConfig struct {
	Host      string `mapstructure:"host" yaml:"host" json:"host"`
	Port      int    `mapstructure:"port" yaml:"port" json:"port"`
	Namespace string `mapstructure:"namespace" yaml:"namespace" json:"namespace,omitempty"`
	PodName   string `mapstructure:"pod-name" yaml:"pod-name" json:"pod_name,omitempty"`
}

// S3Config describes the S3-compatible object store used for snapshot presigning.
type S3Config struct {
	EndpointUrl          string `mapstructure:"endpoint-url" yaml:"endpoint-url" json:"endpoint_url,omitempty"`
	AccessKey            string `mapstructure:"access-key" yaml:"access-key" json:"access_key,omitempty"`
	SecretKey            string `mapstructure:"secret-key" yaml:"secret-key" json:"secret_key,omitempty"`
	Region               string `mapstructure:"region" yaml:"region" json:"region"`
	Bucket               string `mapstructure:"bucket" yaml:"bucket" json:"bucket,omitempty"`
	PresignExpirySeconds int    `mapstructure:"presign-expiry-seconds" yaml:"presign-expiry-seconds" json:"presign_expiry_seconds"`
}

// LoggingConfig controls log output settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	File   string `mapstructure:"file" yaml:"file" json:"file"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// HTTPConfig controls the REST façade listener address and the
// connection pool of the outbound Qdrant HTTP client.
type HTTPConfig struct {
	ListenAddr         string `mapstructure:"listen-addr" yaml:"listen-addr" json:"listen_addr"`
	MaxIdleConnsPerHost int   `mapstructure:"max-idle-conns-per-host" yaml:"max-idle-conns-per-host" json:"max_idle_conns_per_host"`
	IdleConnTimeoutSeconds int `mapstructure:"idle-conn-timeout-seconds" yaml:"idle-conn-timeout-seconds" json:"idle_conn_timeout_seconds"`
}

// DefaultConfig returns a config with all default values applied.
func DefaultConfig() Config {
	return Config{
		Qdrant: QdrantConfig{
			MonitoringIntervalSeconds: DefaultMonitoringIntervalSeconds,
			HTTPTimeoutSeconds:        DefaultHTTPTimeoutSeconds,
			EnableAutoRecovery:        DefaultEnableAutoRecovery,
			MaxConcurrentProbes:       DefaultMaxConcurrentProbes,
			ExecTimeoutSeconds:        DefaultExecTimeoutSeconds,
			RecoveryMaxWaitSeconds:    DefaultRecoveryMaxWaitSeconds,
			Discovery: DiscoveryConfig{
				Enabled:       false,
				ContainerPort: 6333,
				Scheme:        "http",
			},
			S3: S3Config{
				Region:               DefaultS3Region,
				PresignExpirySeconds: DefaultS3PresignExpirySeconds,
			},
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		HTTP: HTTPConfig{
			ListenAddr:             ":8080",
			MaxIdleConnsPerHost:    DefaultMaxIdleConnsPerHost,
			IdleConnTimeoutSeconds: DefaultIdleConnTimeoutSeconds,
		},
	}
}

// String renders the configuration as YAML, redacting secrets.
func (c Config) String() string {
	redacted := c
	if redacted.Qdrant.ApiKey != "" {
		redacted.Qdrant.ApiKey = "***"
	}
	if redacted.Qdrant.S3.SecretKey != "" {
		redacted.Qdrant.S3.SecretKey = "***"
	}
	if redacted.Qdrant.S3.AccessKey != "" {
		redacted.Qdrant.S3.AccessKey = "***"
	}

	data, err := yaml.Marshal(redacted)
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}

	return strings.TrimSpace(string(data))
}
