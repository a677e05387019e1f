// Package commands provides the CLI command implementations for vigilante.
package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aer-io/vigilante/internal/logger"
	"github.com/aer-io/vigilante/pkg/appconfig"
)

// version information set by build flags
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// SetVersionInfo sets the version information for the CLI.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	buildDate = d
}

// RootOptions holds the global options for all commands.
type RootOptions struct {
	ConfigFile string
	Kubeconfig string
	Namespace  string
	LogLevel   string
	LogFile    string
	ListenAddr string
	ApiKey     string

	Config appconfig.Config

	Context    context.Context
	CancelFunc context.CancelFunc
}

// GlobalOptions is the singleton instance for root options.
var GlobalOptions = &RootOptions{}

// NewRootCmd creates the root cobra command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "vigilante",
		Short: "Control-plane guardian for a clustered Qdrant deployment",
		Long: `vigilante - Qdrant Cluster Coordinator

Monitors a clustered Qdrant deployment over its node HTTP APIs, keeps a
merged view of cluster health, collections, and snapshots, and exposes
a REST API for driving repair operations: shard replication/moves,
collection deletion, snapshot lifecycle, and pod/stateful-set actions.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return initializeGlobals(cmd)
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			cleanup()
		},
	}

	addGlobalFlags(rootCmd)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func addGlobalFlags(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()

	flags.StringVar(&GlobalOptions.ConfigFile, "config", "",
		"config file (default: ./vigilante.yaml, ~/.config/vigilante/config.yaml, /etc/vigilante/config.yaml)")
	flags.StringVar(&GlobalOptions.Kubeconfig, "kubeconfig", "",
		"path to kubeconfig file (default: $KUBECONFIG or ~/.kube/config)")
	flags.StringVar(&GlobalOptions.Namespace, "namespace", "",
		"namespace to search for Qdrant pods in discovery mode")
	flags.StringVar(&GlobalOptions.LogLevel, "log-level", "",
		"log level: debug, info, warn, error (default: info)")
	flags.StringVar(&GlobalOptions.LogFile, "log-file", "",
		"log file path (default: stderr)")
	flags.StringVar(&GlobalOptions.ListenAddr, "listen-addr", "",
		"address the REST API listens on (default: :8080)")
	flags.StringVar(&GlobalOptions.ApiKey, "api-key", "",
		"Qdrant API key, if the cluster requires one")
}

// initializeGlobals initializes global options from flags, env, and config file.
func initializeGlobals(cmd *cobra.Command) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	GlobalOptions.Context = ctx
	GlobalOptions.CancelFunc = cancel

	loadOpts := appconfig.LoadOptions{
		ConfigFile: GlobalOptions.ConfigFile,
		Flags:      buildFlagSet(cmd),
	}

	result, err := appconfig.LoadConfig(loadOpts)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	GlobalOptions.Config = result.Config

	if err := initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if result.ConfigFileUsed != "" {
		logger.Debug("loaded configuration", "file", result.ConfigFileUsed)
	}
	for _, w := range result.Validation.Warnings {
		logger.Warn("configuration warning", "warning", w)
	}

	return nil
}

// buildFlagSet creates a pflag.FlagSet from cobra command flags for config binding.
func buildFlagSet(cmd *cobra.Command) *pflag.FlagSet {
	flags := pflag.NewFlagSet("config", pflag.ContinueOnError)

	addIfExists := func(name string) {
		if flags.Lookup(name) != nil {
			return
		}
		if localFlag := cmd.Flags().Lookup(name); localFlag != nil {
			flags.AddFlag(localFlag)
		} else if inheritedFlag := cmd.InheritedFlags().Lookup(name); inheritedFlag != nil {
			flags.AddFlag(inheritedFlag)
		}
	}

	addIfExists("namespace")
	addIfExists("log-level")
	addIfExists("log-file")
	addIfExists("listen-addr")
	addIfExists("api-key")

	return flags
}

// initLogger initializes the logger based on configuration.
func initLogger() error {
	cfg := GlobalOptions.Config.Logging

	level := logger.LevelInfo
	switch cfg.Level {
	case "debug":
		level = logger.LevelDebug
	case "warn":
		level = logger.LevelWarn
	case "error":
		level = logger.LevelError
	}

	var output io.Writer = os.Stderr
	if cfg.File != "" {
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.File, err)
		}
		output = f
	}

	format := logger.FormatText
	if cfg.Format == "json" {
		format = logger.FormatJSON
	}

	log := logger.New(logger.Config{Level: level, Format: format, Output: output})
	logger.SetDefault(log)

	return nil
}

// cleanup performs any necessary cleanup before exit.
func cleanup() {
	if GlobalOptions.CancelFunc != nil {
		GlobalOptions.CancelFunc()
	}
}

// newVersionCmd creates the version subcommand. It skips the parent's
// config-loading PersistentPreRunE: printing a version string should
// never fail because the cluster config is incomplete.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit, and build date information",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "vigilante version %s\n", version)
			_, _ = fmt.Fprintf(out, "  commit:     %s\n", commit)
			_, _ = fmt.Fprintf(out, "  build date: %s\n", buildDate)
		},
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
