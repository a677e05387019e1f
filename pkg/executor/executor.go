// Package executor implements the Operation Executor: the single entry
// point for every mutating, multi-node command (shard replication,
// collection deletion, snapshot lifecycle, pod/stateful-set actions).
// Every operation returns a cluster.OperationResult with per-target
// aggregation; none of them hold state across calls.
package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/objectstore"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

// ModelProvider is the read side of the Monitor Loop the executor needs
// to resolve a peerId or nodeUrl to a live node descriptor. Kept as a
// narrow interface so tests substitute a static model instead of a
// running Monitor.
type ModelProvider interface {
	GetLatest() *cluster.ClusterModel
}

// Config tunes operation timeouts.
type Config struct {
	ExecTimeout         time.Duration
	RecoveryMaxWait     time.Duration
	StorageRoot         string
}

const defaultStorageRoot = "/qdrant/storage"

// Executor wires the capability clients an operation needs: the
// database HTTP client, the orchestrator, and (optionally) an
// object-store client for snapshot mirroring.
type Executor struct {
	qdrant      *qdrantclient.Client
	orch        orchestrator.Orchestrator
	objectstore *objectstore.Client
	model       ModelProvider
	cfg         Config
}

// New builds an Executor. objectstoreClient may be nil (mirroring
// disabled); the capability-interface boundary at orchestrator.Orchestrator
// means tests can substitute *orchestrator.Fake for orch.
func New(qdrant *qdrantclient.Client, orch orchestrator.Orchestrator, objectstoreClient *objectstore.Client, model ModelProvider, cfg Config) *Executor {
	if cfg.StorageRoot == "" {
		cfg.StorageRoot = defaultStorageRoot
	}
	if cfg.ExecTimeout <= 0 {
		cfg.ExecTimeout = 30 * time.Second
	}
	if cfg.RecoveryMaxWait <= 0 {
		cfg.RecoveryMaxWait = 5 * time.Minute
	}
	return &Executor{qdrant: qdrant, orch: orch, objectstore: objectstoreClient, model: model, cfg: cfg}
}

// nodeByPeerId finds a NodeView by peerId in the current model.
func (e *Executor) nodeByPeerId(peerId string) (cluster.NodeView, bool) {
	for _, n := range e.model.GetLatest().Nodes {
		if n.Descriptor.PeerId == peerId {
			return n, true
		}
	}
	return cluster.NodeView{}, false
}

// anyReachableNode returns a usable node to issue a cluster-scoped call
// against, preferring the current leader.
func (e *Executor) anyReachableNode() (cluster.NodeView, bool) {
	model := e.model.GetLatest()
	if model.LeaderPeerId != "" {
		if n, ok := e.nodeByPeerId(model.LeaderPeerId); ok && n.Reachable {
			return n, true
		}
	}
	for _, n := range model.Nodes {
		if n.Reachable {
			return n, true
		}
	}
	return cluster.NodeView{}, false
}

// reachableNodes returns every currently-reachable node.
func (e *Executor) reachableNodes() []cluster.NodeView {
	model := e.model.GetLatest()
	var nodes []cluster.NodeView
	for _, n := range model.Nodes {
		if n.Reachable {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// newResult builds an OperationResult, deriving Success from whether
// every target succeeded. When any target failed, the message reports
// the succeeded/total fraction (e.g. "2/3 nodes succeeded") so a partial
// failure is unambiguous about how many targets actually worked; a full
// success reports "operation succeeded".
func newResult(results map[string]cluster.TargetResult) *cluster.OperationResult {
	success := len(results) > 0
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			success = false
		}
	}

	message := "operation succeeded"
	if !success {
		message = fmt.Sprintf("%d/%d nodes succeeded", succeeded, len(results))
	}

	return &cluster.OperationResult{Success: success, Message: message, Results: results}
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
