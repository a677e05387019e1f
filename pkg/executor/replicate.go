package executor

import (
	"context"
	"strconv"

	"github.com/aer-io/vigilante/pkg/cluster"
)

// ReplicateShardsRequest requests a replicate or move of one or more
// shards of a collection between two raft peers.
type ReplicateShardsRequest struct {
	CollectionName string
	SourcePeerId   string
	TargetPeerId   string
	ShardIds       []cluster.ShardId
	IsMove         bool
}

// ReplicateOrMoveShards issues a replicate-or-move call per shardId and
// aggregates the outcomes. Per-shard failures do not abort remaining
// shards (spec §4.7).
func (e *Executor) ReplicateOrMoveShards(ctx context.Context, req ReplicateShardsRequest) (*cluster.OperationResult, error) {
	if req.SourcePeerId == "" || req.TargetPeerId == "" {
		return nil, cluster.InvalidArgumentf("sourcePeerId and targetPeerId are required")
	}
	if req.SourcePeerId == req.TargetPeerId {
		return nil, cluster.InvalidArgumentf("target peer must differ from source peer")
	}
	if len(req.ShardIds) == 0 {
		return nil, cluster.InvalidArgumentf("shardIds must be non-empty")
	}

	fromId, err := strconv.ParseInt(req.SourcePeerId, 10, 64)
	if err != nil {
		return nil, cluster.InvalidArgumentf("sourcePeerId %q is not a valid raft peer id", req.SourcePeerId)
	}
	toId, err := strconv.ParseInt(req.TargetPeerId, 10, 64)
	if err != nil {
		return nil, cluster.InvalidArgumentf("targetPeerId %q is not a valid raft peer id", req.TargetPeerId)
	}

	node, ok := e.anyReachableNode()
	if !ok {
		return nil, cluster.NewOpError(cluster.Unreachable, "no reachable node to issue shard transfer against", nil)
	}
	baseURL := node.Descriptor.Address()

	ctx, cancel := withTimeout(ctx, e.cfg.ExecTimeout)
	defer cancel()

	results := make(map[string]cluster.TargetResult, len(req.ShardIds))
	for _, shardId := range req.ShardIds {
		key := strconv.FormatUint(uint64(shardId), 10)
		resp, err := e.qdrant.ReplicateOrMoveShard(ctx, baseURL, req.CollectionName, shardId, fromId, toId, req.IsMove)
		if err != nil {
			results[key] = cluster.TargetResult{Success: false, Error: err.Error()}
			continue
		}
		if resp.StatusCode >= 400 {
			results[key] = cluster.TargetResult{Success: false, Error: "unexpected status " + strconv.Itoa(resp.StatusCode)}
			continue
		}
		results[key] = cluster.TargetResult{Success: true}
	}

	return newResult(results), nil
}
