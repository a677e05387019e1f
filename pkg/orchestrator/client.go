package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
)

// ClientConfig selects how the Kubernetes REST config is resolved.
type ClientConfig struct {
	// Kubeconfig path. If empty, uses standard resolution:
	// in-cluster config, then KUBECONFIG, then ~/.kube/config.
	Kubeconfig string

	// Context name to use from kubeconfig. If empty, uses current context.
	Context string
}

// Client wraps a client-go clientset implementing the Orchestrator
// capability interface. Every constructor takes its dependencies
// explicitly; there is no package-level default instance to read from.
type Client struct {
	clientset kubernetes.Interface
	config    *rest.Config
}

// NewClient builds a Client from the given configuration, validating
// connectivity against the API server before returning.
func NewClient(ctx context.Context, cfg ClientConfig) (*Client, error) {
	restConfig, err := buildConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build kubernetes config: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("create kubernetes clientset: %w", err)
	}

	client := &Client{clientset: clientset, config: restConfig}

	if _, err := clientset.Discovery().ServerVersion(); err != nil {
		return nil, fmt.Errorf("validate kubernetes connectivity: %w", err)
	}

	return client, nil
}

// NewClientFromInterface wraps a pre-built clientset, for tests that
// substitute k8s.io/client-go/kubernetes/fake.
func NewClientFromInterface(clientset kubernetes.Interface, config *rest.Config) *Client {
	return &Client{clientset: clientset, config: config}
}

func buildConfig(cfg ClientConfig) (*rest.Config, error) {
	if cfg.Kubeconfig == "" {
		if config, err := rest.InClusterConfig(); err == nil {
			return config, nil
		}
	}

	kubeconfigPath := cfg.Kubeconfig
	if kubeconfigPath == "" {
		kubeconfigPath = os.Getenv("KUBECONFIG")
	}
	if kubeconfigPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get user home directory: %w", err)
		}
		kubeconfigPath = filepath.Join(home, ".kube", "config")
	}

	if _, err := os.Stat(kubeconfigPath); err != nil {
		return nil, fmt.Errorf("kubeconfig file not found: %s: %w", kubeconfigPath, err)
	}

	loadingRules := &clientcmd.ClientConfigLoadingRules{ExplicitPath: kubeconfigPath}
	overrides := &clientcmd.ConfigOverrides{}
	if cfg.Context != "" {
		overrides.CurrentContext = cfg.Context
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides)
	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("load kubeconfig from %s: %w", kubeconfigPath, err)
	}

	return restConfig, nil
}
