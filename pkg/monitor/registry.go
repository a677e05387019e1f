// Package monitor drives the periodic refresh cycle: registry refresh,
// node probing, and publishing a new cluster.ClusterModel.
package monitor

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aer-io/vigilante/pkg/appconfig"
	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
)

// Registry provides the current ordered list of node descriptors. Two
// modes, selected by configuration: Static (fixed seed list) or
// Discovered (orchestrator label-selector query).
type Registry struct {
	discovery appconfig.DiscoveryConfig
	nodes     []appconfig.NodeConfig
	orch      orchestrator.Orchestrator

	mu       sync.Mutex
	previous []cluster.NodeDescriptor
}

// NewRegistry builds a Registry from configuration. orch may be nil
// when Discovery is disabled.
func NewRegistry(cfg appconfig.QdrantConfig, orch orchestrator.Orchestrator) *Registry {
	return &Registry{
		discovery: cfg.Discovery,
		nodes:     cfg.Nodes,
		orch:      orch,
	}
}

// Refresh returns the current descriptor list. On a transient discovery
// failure, it returns the previous list plus a warning rather than an
// empty registry.
func (r *Registry) Refresh(ctx context.Context) ([]cluster.NodeDescriptor, []string) {
	if !r.discovery.Enabled {
		return staticDescriptors(r.nodes), nil
	}

	descriptors, err := r.discoverDescriptors(ctx)
	if err != nil {
		r.mu.Lock()
		previous := r.previous
		r.mu.Unlock()
		return previous, []string{fmt.Sprintf("node discovery failed, using previous registry: %v", err)}
	}

	r.mu.Lock()
	r.previous = descriptors
	r.mu.Unlock()

	return descriptors, nil
}

func staticDescriptors(nodes []appconfig.NodeConfig) []cluster.NodeDescriptor {
	descriptors := make([]cluster.NodeDescriptor, 0, len(nodes))
	for _, n := range nodes {
		peerId := n.Host
		if n.PodName != "" {
			peerId = n.PodName
		}
		descriptors = append(descriptors, cluster.NodeDescriptor{
			PeerId:       peerId,
			Host:         n.Host,
			Port:         n.Port,
			Scheme:       "http",
			PodName:      n.PodName,
			PodNamespace: n.Namespace,
		})
	}
	return descriptors
}

func (r *Registry) discoverDescriptors(ctx context.Context) ([]cluster.NodeDescriptor, error) {
	pods, err := r.orch.ListPods(ctx, r.discovery.Namespace, r.discovery.LabelSelector)
	if err != nil {
		return nil, fmt.Errorf("list pods: %w", err)
	}

	scheme := r.discovery.Scheme
	if scheme == "" {
		scheme = "http"
	}

	descriptors := make([]cluster.NodeDescriptor, 0, len(pods))
	for _, pod := range pods {
		if pod.Phase != "Running" {
			continue
		}
		if pod.IP == "" {
			continue
		}
		descriptors = append(descriptors, cluster.NodeDescriptor{
			PeerId:          pod.Name,
			Host:            pod.IP,
			Port:            int(r.discovery.ContainerPort),
			Scheme:          scheme,
			PodName:         pod.Name,
			PodNamespace:    pod.Namespace,
			StatefulSetName: pod.StatefulSetName,
			Labels:          pod.Labels,
		})
	}

	sort.Slice(descriptors, func(i, j int) bool { return descriptors[i].PeerId < descriptors[j].PeerId })
	return descriptors, nil
}
