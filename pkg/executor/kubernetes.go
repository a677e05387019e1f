package executor

import (
	"context"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
)

// DeletePod deletes a single pod, letting the orchestrator recreate it
// (the stateful-set controller owns replacement, not Vigilante).
func (e *Executor) DeletePod(ctx context.Context, namespace, podName string) (*cluster.OperationResult, error) {
	if namespace == "" || podName == "" {
		return nil, cluster.InvalidArgumentf("namespace and podName are required")
	}

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	key := namespace + "/" + podName
	if err := e.orch.DeletePod(ctx, namespace, podName); err != nil {
		return newResult(map[string]cluster.TargetResult{key: {Success: false, Error: err.Error()}}), nil
	}
	return newResult(map[string]cluster.TargetResult{key: {Success: true}}), nil
}

// ManageStatefulSetRequest requests a rollout restart or a replica
// count change on a stateful set.
type ManageStatefulSetRequest struct {
	Namespace string
	Name      string
	Op        orchestrator.StatefulSetOp
	Replicas  int32 // only used for Op == Scale
}

// ManageStatefulSet restarts or scales a stateful set.
func (e *Executor) ManageStatefulSet(ctx context.Context, req ManageStatefulSetRequest) (*cluster.OperationResult, error) {
	if req.Namespace == "" || req.Name == "" {
		return nil, cluster.InvalidArgumentf("namespace and name are required")
	}
	if req.Op == orchestrator.Scale && req.Replicas < 0 {
		return nil, cluster.InvalidArgumentf("replicas must be >= 0")
	}

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	key := req.Namespace + "/" + req.Name
	if err := e.orch.ManageStatefulSet(ctx, req.Namespace, req.Name, req.Op, req.Replicas); err != nil {
		return newResult(map[string]cluster.TargetResult{key: {Success: false, Error: err.Error()}}), nil
	}
	return newResult(map[string]cluster.TargetResult{key: {Success: true}}), nil
}
