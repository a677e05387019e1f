package executor

import (
	"context"
	"fmt"
	"strings"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

// DeletionMode selects whether a delete goes through the database API
// or directly removes files on pod disk.
type DeletionMode string

const (
	DeletionApi  DeletionMode = "Api"
	DeletionDisk DeletionMode = "Disk"
)

// DeletionScope selects whether a delete targets one node/pod or fans
// out across the whole cluster.
type DeletionScope string

const (
	ScopeCluster    DeletionScope = "Cluster"
	ScopeSingleNode DeletionScope = "SingleNode"
)

// PodRef identifies a single pod for single-node disk operations.
type PodRef struct {
	Namespace string
	PodName   string
	Container string
}

// DeleteCollectionRequest is the input to DeleteCollection.
type DeleteCollectionRequest struct {
	CollectionName string
	Mode           DeletionMode
	Scope          DeletionScope
	NodeUrl        string // required for Api/SingleNode
	Pod            PodRef // required for Disk/SingleNode
}

// DeleteCollection deletes a collection via the database API or
// directly on pod disk, per spec §4.7's policy table.
func (e *Executor) DeleteCollection(ctx context.Context, req DeleteCollectionRequest) (*cluster.OperationResult, error) {
	if req.CollectionName == "" {
		return nil, cluster.InvalidArgumentf("collectionName is required")
	}
	if err := validateCollectionName(req.CollectionName); err != nil {
		return nil, err
	}
	if req.Scope == "" {
		req.Scope = ScopeCluster
	}

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	switch {
	case req.Mode == DeletionApi && req.Scope == ScopeCluster:
		return e.deleteCollectionApiCluster(ctx, req.CollectionName)
	case req.Mode == DeletionApi && req.Scope == ScopeSingleNode:
		return e.deleteCollectionApiSingleNode(ctx, req.CollectionName, req.NodeUrl)
	case req.Mode == DeletionDisk && req.Scope == ScopeSingleNode:
		return e.deleteCollectionDiskSingleNode(ctx, req.CollectionName, req.Pod)
	case req.Mode == DeletionDisk && req.Scope == ScopeCluster:
		return e.deleteCollectionDiskCluster(ctx, req.CollectionName)
	default:
		return nil, cluster.InvalidArgumentf("unsupported mode/scope combination: %s/%s", req.Mode, req.Scope)
	}
}

func (e *Executor) deleteCollectionApiCluster(ctx context.Context, collection string) (*cluster.OperationResult, error) {
	node, ok := e.anyReachableNode()
	if !ok {
		return nil, cluster.NewOpError(cluster.Unreachable, "no reachable node to delete collection against", nil)
	}
	resp, err := e.qdrant.DeleteCollection(ctx, node.Descriptor.Address(), collection)
	results := map[string]cluster.TargetResult{node.Descriptor.PeerId: classifyDeleteResult(resp, err)}
	return newResult(results), nil
}

func (e *Executor) deleteCollectionApiSingleNode(ctx context.Context, collection, nodeUrl string) (*cluster.OperationResult, error) {
	if nodeUrl == "" {
		return nil, cluster.InvalidArgumentf("nodeUrl is required for Api/SingleNode delete")
	}
	resp, err := e.qdrant.DeleteCollection(ctx, nodeUrl, collection)
	results := map[string]cluster.TargetResult{nodeUrl: classifyDeleteResult(resp, err)}
	return newResult(results), nil
}

// classifyDeleteResult treats a 404 as success: the delete is idempotent.
func classifyDeleteResult(resp *qdrantclient.Response, err error) cluster.TargetResult {
	if err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	if resp.StatusCode == 404 || resp.StatusCode < 300 {
		return cluster.TargetResult{Success: true}
	}
	return cluster.TargetResult{Success: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
}

func (e *Executor) deleteCollectionDiskSingleNode(ctx context.Context, collection string, pod PodRef) (*cluster.OperationResult, error) {
	if pod.PodName == "" {
		return nil, cluster.InvalidArgumentf("pod is required for Disk/SingleNode delete")
	}
	result := e.execDeleteCollectionDir(ctx, pod, collection)
	return newResult(map[string]cluster.TargetResult{pod.Namespace + "/" + pod.PodName: result}), nil
}

func (e *Executor) deleteCollectionDiskCluster(ctx context.Context, collection string) (*cluster.OperationResult, error) {
	model := e.model.GetLatest()
	if len(model.Nodes) == 0 {
		return nil, cluster.NewOpError(cluster.Unreachable, "no known pods to delete collection directory on", nil)
	}

	results := make(map[string]cluster.TargetResult, len(model.Nodes))
	for _, n := range model.Nodes {
		if n.Descriptor.PodName == "" {
			continue
		}
		pod := PodRef{Namespace: n.Descriptor.PodNamespace, PodName: n.Descriptor.PodName}
		results[pod.Namespace+"/"+pod.PodName] = e.execDeleteCollectionDir(ctx, pod, collection)
	}
	return newResult(results), nil
}

// execDeleteCollectionDir removes a collection's storage directory
// inside a pod, refusing if the pod is not Running or the collection
// name looks like a path-traversal attempt.
func (e *Executor) execDeleteCollectionDir(ctx context.Context, pod PodRef, collection string) cluster.TargetResult {
	podState, err := e.orch.GetPod(ctx, pod.Namespace, pod.PodName)
	if err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	if podState.Phase != "Running" {
		return cluster.TargetResult{Success: false, Error: fmt.Sprintf("pod %s/%s is not Running (phase=%s)", pod.Namespace, pod.PodName, podState.Phase)}
	}

	path := e.cfg.StorageRoot + "/collections/" + collection
	stream, err := e.orch.Exec(ctx, orchestrator.ExecRequest{
		Namespace: pod.Namespace,
		PodName:   pod.PodName,
		Container: pod.Container,
		Command:   []string{"rm", "-rf", path},
	})
	if err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	if err := stream.Wait(); err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	return cluster.TargetResult{Success: true}
}

// validateCollectionName rejects names containing path separators or
// parent-directory references, since collection names flow directly
// into exec'd filesystem paths.
func validateCollectionName(name string) *cluster.OpError {
	if strings.ContainsAny(name, "/\\") || strings.Contains(name, "..") {
		return cluster.InvalidArgumentf("collection name %q is not a valid identifier", name)
	}
	return nil
}
