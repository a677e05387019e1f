package appconfig

import (
	"strings"
	"testing"
)

func TestConfigStringIncludesSections(t *testing.T) {
	cfg := DefaultConfig()
	output := cfg.String()

	for _, section := range []string{"qdrant:", "logging:", "http:"} {
		if !strings.Contains(output, section) {
			t.Fatalf("expected output to include %q, got:\n%s", section, output)
		}
	}
}

func TestConfigStringRedactsSecrets(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Qdrant.ApiKey = "super-secret-key"
	cfg.Qdrant.S3.AccessKey = "AKIAEXAMPLE"
	cfg.Qdrant.S3.SecretKey = "wJalrXUtnFEMI"

	output := cfg.String()

	for _, secret := range []string{"super-secret-key", "AKIAEXAMPLE", "wJalrXUtnFEMI"} {
		if strings.Contains(output, secret) {
			t.Fatalf("expected secret %q to be redacted, got:\n%s", secret, output)
		}
	}
	if !strings.Contains(output, "***") {
		t.Fatalf("expected redaction marker in output:\n%s", output)
	}
}

func TestConfigStringEmptySecretsNotRedacted(t *testing.T) {
	cfg := DefaultConfig()
	output := cfg.String()
	if strings.Contains(output, "***") {
		t.Fatalf("unexpected redaction marker with no secrets set:\n%s", output)
	}
}

func TestDefaultConfigMatchesDefaultConstants(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Qdrant.MonitoringIntervalSeconds != DefaultMonitoringIntervalSeconds {
		t.Errorf("monitoring interval = %d, want %d", cfg.Qdrant.MonitoringIntervalSeconds, DefaultMonitoringIntervalSeconds)
	}
	if cfg.Qdrant.HTTPTimeoutSeconds != DefaultHTTPTimeoutSeconds {
		t.Errorf("http timeout = %d, want %d", cfg.Qdrant.HTTPTimeoutSeconds, DefaultHTTPTimeoutSeconds)
	}
	if cfg.Qdrant.EnableAutoRecovery != DefaultEnableAutoRecovery {
		t.Errorf("enable auto recovery = %v, want %v", cfg.Qdrant.EnableAutoRecovery, DefaultEnableAutoRecovery)
	}
	if cfg.Qdrant.S3.Region != DefaultS3Region {
		t.Errorf("s3 region = %q, want %q", cfg.Qdrant.S3.Region, DefaultS3Region)
	}
	if cfg.Logging.Level != DefaultLogLevel {
		t.Errorf("log level = %q, want %q", cfg.Logging.Level, DefaultLogLevel)
	}
	if cfg.HTTP.MaxIdleConnsPerHost != DefaultMaxIdleConnsPerHost {
		t.Errorf("max idle conns = %d, want %d", cfg.HTTP.MaxIdleConnsPerHost, DefaultMaxIdleConnsPerHost)
	}
}
