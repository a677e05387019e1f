package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/aer-io/vigilante/internal/logger"
	"github.com/aer-io/vigilante/pkg/appconfig"
	"github.com/aer-io/vigilante/pkg/executor"
	"github.com/aer-io/vigilante/pkg/httpapi"
	"github.com/aer-io/vigilante/pkg/monitor"
	"github.com/aer-io/vigilante/pkg/objectstore"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the cluster coordinator: monitor loop plus REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(GlobalOptions.Context, GlobalOptions.Config)
		},
	}
}

func runServe(ctx context.Context, qc appconfig.Config) error {
	orch, err := orchestrator.NewClient(ctx, orchestrator.ClientConfig{
		Kubeconfig: GlobalOptions.Kubeconfig,
	})
	if err != nil && qc.Qdrant.Discovery.Enabled {
		return fmt.Errorf("connect to kubernetes: %w", err)
	}
	var orchestratorClient orchestrator.Orchestrator
	if err == nil {
		orchestratorClient = orch
	} else {
		logger.Warn("kubernetes connectivity unavailable; disk-fallback and discovery operations will fail", "error", err)
	}

	registerer := prometheus.DefaultRegisterer
	qdrant := qdrantclient.NewClient(qdrantclient.Config{
		Timeout:             time.Duration(qc.Qdrant.HTTPTimeoutSeconds) * time.Second,
		MaxIdleConnsPerHost: qc.HTTP.MaxIdleConnsPerHost,
		IdleConnTimeout:     time.Duration(qc.HTTP.IdleConnTimeoutSeconds) * time.Second,
		ApiKey:              qc.Qdrant.ApiKey,
	}, registerer)

	objectstoreClient, err := objectstore.NewClient(ctx, objectstore.Config{
		EndpointUrl: qc.Qdrant.S3.EndpointUrl,
		AccessKey:   qc.Qdrant.S3.AccessKey,
		SecretKey:   qc.Qdrant.S3.SecretKey,
		Region:      qc.Qdrant.S3.Region,
	})
	if err != nil {
		logger.Warn("object store disabled", "error", err)
	}

	var presigner monitor.Presigner
	if objectstoreClient != nil {
		presigner = objectstoreClient
	}

	registry := monitor.NewRegistry(qc.Qdrant, orchestratorClient)
	prober := monitor.NewProber(qdrant, orchestratorClient, qc.Qdrant.MaxConcurrentProbes)
	mon := monitor.New(registry, prober, presigner, monitor.Config{
		Interval:            time.Duration(qc.Qdrant.MonitoringIntervalSeconds) * time.Second,
		HTTPTimeout:         time.Duration(qc.Qdrant.HTTPTimeoutSeconds) * time.Second,
		MaxConcurrentProbes: qc.Qdrant.MaxConcurrentProbes,
		ObjectStoreBucket:   qc.Qdrant.S3.Bucket,
		PresignExpiry:       time.Duration(qc.Qdrant.S3.PresignExpirySeconds) * time.Second,
	}, logger.GetDefault().Logger)

	exec := executor.New(qdrant, orchestratorClient, objectstoreClient, mon, executor.Config{
		ExecTimeout:     time.Duration(qc.Qdrant.ExecTimeoutSeconds) * time.Second,
		RecoveryMaxWait: time.Duration(qc.Qdrant.RecoveryMaxWaitSeconds) * time.Second,
	})

	mon.Start(ctx)
	defer mon.Stop()

	server := httpapi.NewServer(mon, exec)
	listenAddr := qc.HTTP.ListenAddr
	if GlobalOptions.ListenAddr != "" {
		listenAddr = GlobalOptions.ListenAddr
	}
	httpServer := httpapi.NewHTTPServer(listenAddr, server.Handler())

	logger.Info("vigilante starting", "listen_addr", listenAddr, "discovery_enabled", qc.Qdrant.Discovery.Enabled)

	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpapi.ShutdownWithContext(shutdownCtx, httpServer)
	case err := <-serveErr:
		return err
	}
}
