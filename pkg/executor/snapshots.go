package executor

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

// SnapshotScope selects whether a snapshot operation targets one node
// or fans out across every reachable node.
type SnapshotScope string

const (
	SnapshotScopeCluster    SnapshotScope = "Cluster"
	SnapshotScopeSingleNode SnapshotScope = "SingleNode"
)

// CreateSnapshotRequest requests asynchronous snapshot creation.
type CreateSnapshotRequest struct {
	CollectionName string
	Scope          SnapshotScope
	NodeUrl        string // required for SingleNode
}

// CreateSnapshot triggers snapshot creation. A node returning
// "accepted" counts as success; the snapshot itself appears
// asynchronously and is picked up by the next Snapshot Aggregator tick.
func (e *Executor) CreateSnapshot(ctx context.Context, req CreateSnapshotRequest) (*cluster.OperationResult, error) {
	if req.CollectionName == "" {
		return nil, cluster.InvalidArgumentf("collectionName is required")
	}

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	targets := map[string]string{}
	switch req.Scope {
	case SnapshotScopeSingleNode:
		if req.NodeUrl == "" {
			return nil, cluster.InvalidArgumentf("nodeUrl is required for SingleNode scope")
		}
		targets[req.NodeUrl] = req.NodeUrl
	case SnapshotScopeCluster, "":
		for _, n := range e.reachableNodes() {
			targets[n.Descriptor.PeerId] = n.Descriptor.Address()
		}
		if len(targets) == 0 {
			return nil, cluster.NewOpError(cluster.Unreachable, "no reachable nodes to create snapshot on", nil)
		}
	default:
		return nil, cluster.InvalidArgumentf("unsupported scope %q", req.Scope)
	}

	results := make(map[string]cluster.TargetResult, len(targets))
	for key, baseURL := range targets {
		resp, err := e.qdrant.CreateSnapshot(ctx, baseURL, req.CollectionName)
		if err != nil {
			results[key] = cluster.TargetResult{Success: false, Error: err.Error()}
			continue
		}
		if resp.StatusCode >= 300 && !qdrantclient.IsAccepted(resp) {
			results[key] = cluster.TargetResult{Success: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
			continue
		}
		results[key] = cluster.TargetResult{Success: true}
	}

	return newResult(results), nil
}

// DeleteSnapshotRequest identifies a snapshot to remove, either through
// the database API or directly from pod disk.
type DeleteSnapshotRequest struct {
	CollectionName string
	SnapshotName   string
	Source         cluster.SnapshotSource
	NodeUrl        string // required when Source == Api
	Pod            PodRef // required when Source == Disk
}

// DeleteSnapshot removes a named snapshot via the matching source.
func (e *Executor) DeleteSnapshot(ctx context.Context, req DeleteSnapshotRequest) (*cluster.OperationResult, error) {
	if req.CollectionName == "" || req.SnapshotName == "" {
		return nil, cluster.InvalidArgumentf("collectionName and snapshotName are required")
	}

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	if req.Source == cluster.SourceDisk {
		if req.Pod.PodName == "" {
			return nil, cluster.InvalidArgumentf("pod is required to delete a disk snapshot")
		}
		path := e.cfg.StorageRoot + "/collections/" + req.CollectionName + "/snapshots/" + req.SnapshotName
		result := e.execRemoveFile(ctx, req.Pod, path)
		return newResult(map[string]cluster.TargetResult{req.Pod.Namespace + "/" + req.Pod.PodName: result}), nil
	}

	baseURL := req.NodeUrl
	if baseURL == "" {
		node, ok := e.anyReachableNode()
		if !ok {
			return nil, cluster.NewOpError(cluster.Unreachable, "no reachable node to delete snapshot against", nil)
		}
		baseURL = node.Descriptor.Address()
	}

	resp, err := e.qdrant.DeleteSnapshot(ctx, baseURL, req.CollectionName, req.SnapshotName)
	results := map[string]cluster.TargetResult{baseURL: classifyDeleteResult(resp, err)}
	return newResult(results), nil
}

// RecoverFromSnapshotRequest requests recovery from a named existing
// snapshot, optionally waiting for the collection to reappear.
type RecoverFromSnapshotRequest struct {
	CollectionName string
	SnapshotName   string
	NodeUrl        string
	Wait           bool
}

// RecoverFromSnapshot requests recovery and, when Wait is set, polls
// CollectionExists up to the configured recovery deadline.
func (e *Executor) RecoverFromSnapshot(ctx context.Context, req RecoverFromSnapshotRequest) (*cluster.OperationResult, error) {
	if req.CollectionName == "" || req.SnapshotName == "" {
		return nil, cluster.InvalidArgumentf("collectionName and snapshotName are required")
	}

	baseURL := req.NodeUrl
	if baseURL == "" {
		node, ok := e.anyReachableNode()
		if !ok {
			return nil, cluster.NewOpError(cluster.Unreachable, "no reachable node to recover snapshot on", nil)
		}
		baseURL = node.Descriptor.Address()
	}

	callCtx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	resp, err := e.qdrant.RecoverFromSnapshot(callCtx, baseURL, req.CollectionName, req.SnapshotName)
	cancel()
	if err != nil {
		return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: err.Error()}}), nil
	}
	if resp.StatusCode >= 300 && !qdrantclient.IsAccepted(resp) {
		return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}}), nil
	}

	if req.Wait {
		if err := e.waitForCollection(ctx, baseURL, req.CollectionName); err != nil {
			return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: err.Error()}}), nil
		}
	}

	return newResult(map[string]cluster.TargetResult{baseURL: {Success: true}}), nil
}

// RecoverFromURLRequest requests recovery from a snapshot reachable by
// URL (e.g. a presigned object-store link).
type RecoverFromURLRequest struct {
	CollectionName string
	SnapshotURL    string
	Checksum       string
	NodeUrl        string
	Wait           bool
}

// RecoverFromURL requests recovery from a remote URL, optionally
// waiting for the collection to reappear.
func (e *Executor) RecoverFromURL(ctx context.Context, req RecoverFromURLRequest) (*cluster.OperationResult, error) {
	if req.CollectionName == "" || req.SnapshotURL == "" {
		return nil, cluster.InvalidArgumentf("collectionName and snapshotURL are required")
	}

	baseURL := req.NodeUrl
	if baseURL == "" {
		node, ok := e.anyReachableNode()
		if !ok {
			return nil, cluster.NewOpError(cluster.Unreachable, "no reachable node to recover snapshot on", nil)
		}
		baseURL = node.Descriptor.Address()
	}

	callCtx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	resp, err := e.qdrant.RecoverFromURL(callCtx, baseURL, req.CollectionName, req.SnapshotURL, req.Checksum)
	cancel()
	if err != nil {
		return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: err.Error()}}), nil
	}
	if resp.StatusCode >= 300 && !qdrantclient.IsAccepted(resp) {
		return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: fmt.Sprintf("unexpected status %d", resp.StatusCode)}}), nil
	}

	if req.Wait {
		if err := e.waitForCollection(ctx, baseURL, req.CollectionName); err != nil {
			return newResult(map[string]cluster.TargetResult{baseURL: {Success: false, Error: err.Error()}}), nil
		}
	}

	return newResult(map[string]cluster.TargetResult{baseURL: {Success: true}}), nil
}

// waitForCollection polls CollectionExists until it reports true or the
// configured recovery deadline elapses (spec's T_recovery_max).
func (e *Executor) waitForCollection(ctx context.Context, baseURL, collection string) error {
	deadline := time.Now().Add(e.cfg.RecoveryMaxWait)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		exists, err := e.qdrant.CollectionExists(ctx, baseURL, collection)
		if err == nil && exists {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("collection %s did not reappear within %s", collection, e.cfg.RecoveryMaxWait)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// DownloadSnapshot streams a snapshot byte-exact to w, trying the
// database API first and falling back to an exec-based file copy from
// pod disk when the API call fails (spec §4.7 "Disk fallback"). When the
// API path is used, onContentLength is called with the upstream
// Content-Length before any bytes are written, so callers can set their
// own response header; the disk fallback has no known length upfront
// and never calls it.
func (e *Executor) DownloadSnapshot(ctx context.Context, collection, snapshotName, nodeUrl string, pod PodRef, w io.Writer, onContentLength func(int64)) error {
	if nodeUrl != "" {
		stream, err := e.qdrant.DownloadSnapshot(ctx, nodeUrl, collection, snapshotName)
		if err == nil {
			defer stream.Body.Close()
			if onContentLength != nil && stream.ContentLength > 0 {
				onContentLength(stream.ContentLength)
			}
			_, copyErr := io.Copy(w, stream.Body)
			return copyErr
		}
	}

	if pod.PodName == "" {
		return cluster.NewOpError(cluster.NotFound, fmt.Sprintf("snapshot %s/%s not reachable via API and no pod given for disk fallback", collection, snapshotName), nil)
	}

	path := e.cfg.StorageRoot + "/collections/" + collection + "/snapshots/" + snapshotName
	stream, err := e.orch.Exec(ctx, orchestrator.ExecRequest{
		Namespace: pod.Namespace,
		PodName:   pod.PodName,
		Container: pod.Container,
		Command:   []string{"cat", path},
	})
	if err != nil {
		return fmt.Errorf("disk fallback exec: %w", err)
	}

	if _, err := io.Copy(w, stream.Stdout); err != nil {
		return fmt.Errorf("disk fallback stream: %w", err)
	}
	return stream.Wait()
}

// execRemoveFile removes a single file inside a pod, refusing if the
// pod is not Running.
func (e *Executor) execRemoveFile(ctx context.Context, pod PodRef, path string) cluster.TargetResult {
	podState, err := e.orch.GetPod(ctx, pod.Namespace, pod.PodName)
	if err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	if podState.Phase != "Running" {
		return cluster.TargetResult{Success: false, Error: fmt.Sprintf("pod %s/%s is not Running (phase=%s)", pod.Namespace, pod.PodName, podState.Phase)}
	}

	stream, err := e.orch.Exec(ctx, orchestrator.ExecRequest{
		Namespace: pod.Namespace,
		PodName:   pod.PodName,
		Container: pod.Container,
		Command:   []string{"rm", "-f", path},
	})
	if err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	if err := stream.Wait(); err != nil {
		return cluster.TargetResult{Success: false, Error: err.Error()}
	}
	return cluster.TargetResult{Success: true}
}
