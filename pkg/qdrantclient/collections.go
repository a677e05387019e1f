package qdrantclient

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aer-io/vigilante/pkg/cluster"
)

type listCollectionsResponse struct {
	Result struct {
		Collections []struct {
			Name string `json:"name"`
		} `json:"collections"`
	} `json:"result"`
}

// ListCollections returns the names of collections known to a node.
func (c *Client) ListCollections(ctx context.Context, baseURL string) ([]string, error) {
	resp, err := c.do(ctx, "GET", baseURL+"/collections", nil, "collections")
	if err != nil {
		return nil, err
	}
	if !isSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("unexpected status %d from /collections", resp.StatusCode)
	}

	var decoded listCollectionsResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode /collections response: %w", err)
	}

	names := make([]string, 0, len(decoded.Result.Collections))
	for _, col := range decoded.Result.Collections {
		names = append(names, col.Name)
	}
	return names, nil
}

type collectionClusterResponse struct {
	Result struct {
		LocalShards []struct {
			ShardId uint32 `json:"shard_id"`
			State   string `json:"state"`
		} `json:"local_shards"`
		RemoteShards []struct {
			ShardId uint32 `json:"shard_id"`
			State   string `json:"state"`
		} `json:"remote_shards"`
		ShardTransfers []struct {
			ShardId uint32 `json:"shard_id"`
			To      int64  `json:"to"`
			Sync    bool   `json:"sync"`
		} `json:"shard_transfers"`
	} `json:"result"`
}

// GetCollectionClusterInfo fetches per-node shard topology for one
// collection. A "collection not found" 4xx response is treated by the
// caller as an empty CollectionReport, per spec classification rules.
func (c *Client) GetCollectionClusterInfo(ctx context.Context, baseURL, collection string) (cluster.CollectionReport, bool, error) {
	resp, err := c.do(ctx, "GET", baseURL+"/collections/"+collection+"/cluster", nil, "collection_cluster")
	if err != nil {
		return cluster.CollectionReport{}, false, err
	}

	if resp.StatusCode == 404 || (resp.StatusCode >= 400 && resp.StatusCode < 500 && isCollectionNotFound(resp.Body)) {
		return cluster.CollectionReport{}, false, nil
	}
	if !isSuccessStatus(resp.StatusCode) {
		return cluster.CollectionReport{}, false, fmt.Errorf("unexpected status %d from collection cluster info", resp.StatusCode)
	}

	var decoded collectionClusterResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return cluster.CollectionReport{}, false, fmt.Errorf("decode collection cluster response: %w", err)
	}

	report := cluster.CollectionReport{
		Name:        collection,
		ShardStates: make(map[cluster.ShardId]cluster.ShardState),
	}

	for _, shard := range decoded.Result.LocalShards {
		id := cluster.ShardId(shard.ShardId)
		report.Shards = append(report.Shards, id)
		report.ShardStates[id] = mapShardState(shard.State)
	}
	for _, shard := range decoded.Result.RemoteShards {
		id := cluster.ShardId(shard.ShardId)
		if _, known := report.ShardStates[id]; !known {
			report.Shards = append(report.Shards, id)
			report.ShardStates[id] = mapShardState(shard.State)
		}
	}
	for _, transfer := range decoded.Result.ShardTransfers {
		report.OutgoingTransfers = append(report.OutgoingTransfers, cluster.OutgoingTransfer{
			ShardId: cluster.ShardId(transfer.ShardId),
			To:      fmt.Sprintf("%d", transfer.To),
			IsSync:  transfer.Sync,
		})
	}

	return report, true, nil
}

func mapShardState(raw string) cluster.ShardState {
	switch strings.ToLower(raw) {
	case "active":
		return cluster.ShardActive
	case "initializing":
		return cluster.ShardInitializing
	case "dead":
		return cluster.ShardDead
	case "listener":
		return cluster.ShardListener
	case "partialsnapshot", "partial_snapshot":
		return cluster.ShardPartialSnapshot
	case "partial":
		return cluster.ShardPartial
	case "resharding":
		return cluster.ShardResharding
	default:
		return cluster.ShardDead
	}
}

func isCollectionNotFound(body []byte) bool {
	return strings.Contains(strings.ToLower(string(body)), "doesn't exist") ||
		strings.Contains(strings.ToLower(string(body)), "not found")
}

// DeleteCollection issues a DELETE for the named collection. A 404 is
// treated as success by the caller (idempotent delete).
func (c *Client) DeleteCollection(ctx context.Context, baseURL, collection string) (*Response, error) {
	return c.do(ctx, "DELETE", baseURL+"/collections/"+collection, nil, "delete_collection")
}
