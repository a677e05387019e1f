package appconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// LoadOptions controls configuration loading behavior.
type LoadOptions struct {
	ConfigFile  string
	ConfigFiles []string
	Flags       *pflag.FlagSet
}

// LoadResult contains the merged configuration and validation output.
type LoadResult struct {
	Config         Config
	Validation     ValidationResult
	ConfigFileUsed string
}

// LoadConfig loads configuration from defaults, file, env, and flags, in
// that order of increasing precedence, then applies the spec's literal
// (non-prefixed) environment overrides on top.
func LoadConfig(opts LoadOptions) (LoadResult, error) {
	v := viper.New()
	setDefaults(v)
	configureEnv(v)

	if opts.Flags != nil {
		if err := BindFlags(v, opts.Flags); err != nil {
			return LoadResult{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	configPath, err := resolveConfigFile(opts)
	if err != nil {
		return LoadResult{}, err
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return LoadResult{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return LoadResult{}, fmt.Errorf("unmarshal config: %w", err)
	}

	applyLiteralEnvOverrides(&cfg)

	validation := ValidateConfig(cfg)
	result := LoadResult{
		Config:         cfg,
		Validation:     validation,
		ConfigFileUsed: v.ConfigFileUsed(),
	}

	if validation.HasErrors() {
		return result, &ValidationError{Result: validation}
	}

	return result, nil
}

// BindFlags binds supported CLI flags to viper keys.
func BindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"namespace":    "qdrant.discovery.namespace",
		"log-level":    "logging.level",
		"log-file":     "logging.file",
		"listen-addr":  "http.listen-addr",
		"api-key":      "qdrant.api-key",
	}

	for flag, key := range bindings {
		if flags.Lookup(flag) == nil {
			continue
		}
		if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("bind flag %q: %w", flag, err)
		}
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("qdrant.monitoring-interval-seconds", d.Qdrant.MonitoringIntervalSeconds)
	v.SetDefault("qdrant.http-timeout-seconds", d.Qdrant.HTTPTimeoutSeconds)
	v.SetDefault("qdrant.enable-auto-recovery", d.Qdrant.EnableAutoRecovery)
	v.SetDefault("qdrant.max-concurrent-probes", d.Qdrant.MaxConcurrentProbes)
	v.SetDefault("qdrant.exec-timeout-seconds", d.Qdrant.ExecTimeoutSeconds)
	v.SetDefault("qdrant.recovery-max-wait-seconds", d.Qdrant.RecoveryMaxWaitSeconds)
	v.SetDefault("qdrant.discovery.enabled", d.Qdrant.Discovery.Enabled)
	v.SetDefault("qdrant.discovery.container-port", d.Qdrant.Discovery.ContainerPort)
	v.SetDefault("qdrant.discovery.scheme", d.Qdrant.Discovery.Scheme)
	v.SetDefault("qdrant.s3.region", d.Qdrant.S3.Region)
	v.SetDefault("qdrant.s3.presign-expiry-seconds", d.Qdrant.S3.PresignExpirySeconds)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("http.listen-addr", d.HTTP.ListenAddr)
	v.SetDefault("http.max-idle-conns-per-host", d.HTTP.MaxIdleConnsPerHost)
	v.SetDefault("http.idle-conn-timeout-seconds", d.HTTP.IdleConnTimeoutSeconds)
}

func configureEnv(v *viper.Viper) {
	replacer := strings.NewReplacer(".", "_", "-", "_")
	v.SetEnvKeyReplacer(replacer)
	v.SetEnvPrefix("VIGILANTE")
	v.AutomaticEnv()
}

// applyLiteralEnvOverrides applies the spec's non-prefixed override
// variables (QDRANT_NODES, S3__EndpointUrl, S3__AccessKey, S3__SecretKey,
// S3__Bucket), which take precedence over everything loaded through viper.
func applyLiteralEnvOverrides(cfg *Config) {
	if raw := os.Getenv("QDRANT_NODES"); raw != "" {
		if nodes, err := parseNodesEnv(raw); err == nil {
			cfg.Qdrant.Nodes = nodes
		}
	}
	if v := os.Getenv("S3__EndpointUrl"); v != "" {
		cfg.Qdrant.S3.EndpointUrl = v
	}
	if v := os.Getenv("S3__AccessKey"); v != "" {
		cfg.Qdrant.S3.AccessKey = v
	}
	if v := os.Getenv("S3__SecretKey"); v != "" {
		cfg.Qdrant.S3.SecretKey = v
	}
	if v := os.Getenv("S3__Bucket"); v != "" {
		cfg.Qdrant.S3.Bucket = v
	}
}

// parseNodesEnv parses a comma-separated "host:port,host:port" list.
func parseNodesEnv(raw string) ([]NodeConfig, error) {
	var nodes []NodeConfig
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		host, portStr, err := splitHostPort(entry)
		if err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("invalid port in QDRANT_NODES entry %q: %w", entry, err)
		}
		nodes = append(nodes, NodeConfig{Host: host, Port: port})
	}
	if len(nodes) == 0 {
		return nil, errors.New("QDRANT_NODES produced no entries")
	}
	return nodes, nil
}

func splitHostPort(entry string) (string, string, error) {
	idx := strings.LastIndex(entry, ":")
	if idx <= 0 || idx == len(entry)-1 {
		return "", "", fmt.Errorf("expected host:port, got %q", entry)
	}
	return entry[:idx], entry[idx+1:], nil
}

func resolveConfigFile(opts LoadOptions) (string, error) {
	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("config file not found: %s", opts.ConfigFile)
			}
			return "", fmt.Errorf("config file error: %w", err)
		}
		return opts.ConfigFile, nil
	}

	candidates := opts.ConfigFiles
	if len(candidates) == 0 {
		candidates = defaultConfigFiles()
	}

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		info, err := os.Stat(candidate)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("config file error: %w", err)
		}
		if info.IsDir() {
			continue
		}
		return candidate, nil
	}

	return "", nil
}

func defaultConfigFiles() []string {
	files := []string{"./vigilante.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		files = append(files, filepath.Join(home, ".config", "vigilante", "config.yaml"))
	}
	files = append(files, "/etc/vigilante/config.yaml")
	return files
}
