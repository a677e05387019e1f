package qdrantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
)

type listSnapshotsResponse struct {
	Result []struct {
		Name        string  `json:"name"`
		CreationTime string `json:"creation_time"`
		Size        int64   `json:"size"`
		Checksum    string  `json:"checksum"`
	} `json:"result"`
}

// ListSnapshots returns the API-reported snapshots for a collection on
// one node.
func (c *Client) ListSnapshots(ctx context.Context, baseURL, collection string) ([]cluster.SnapshotEntry, error) {
	resp, err := c.do(ctx, "GET", baseURL+"/collections/"+collection+"/snapshots", nil, "list_snapshots")
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == 404 || isCollectionNotFound(resp.Body) {
		return nil, nil
	}
	if !isSuccessStatus(resp.StatusCode) {
		return nil, fmt.Errorf("unexpected status %d listing snapshots for %s", resp.StatusCode, collection)
	}

	var decoded listSnapshotsResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return nil, fmt.Errorf("decode snapshots response: %w", err)
	}

	entries := make([]cluster.SnapshotEntry, 0, len(decoded.Result))
	for _, s := range decoded.Result {
		createdAt, _ := time.Parse(time.RFC3339, s.CreationTime)
		entries = append(entries, cluster.SnapshotEntry{
			CollectionName: collection,
			SnapshotName:   s.Name,
			SizeBytes:      s.Size,
			CreatedAt:      createdAt,
			Checksum:       s.Checksum,
			Source:         cluster.SourceApi,
		})
	}
	return entries, nil
}

// CreateSnapshot triggers asynchronous snapshot creation for a
// collection. A 2xx response with status "accepted" counts as success.
func (c *Client) CreateSnapshot(ctx context.Context, baseURL, collection string) (*Response, error) {
	return c.do(ctx, "POST", baseURL+"/collections/"+collection+"/snapshots", nil, "create_snapshot")
}

// DeleteSnapshot removes a named snapshot from a collection.
func (c *Client) DeleteSnapshot(ctx context.Context, baseURL, collection, snapshotName string) (*Response, error) {
	url := baseURL + "/collections/" + collection + "/snapshots/" + snapshotName
	return c.do(ctx, "DELETE", url, nil, "delete_snapshot")
}

type recoverRequest struct {
	Location string `json:"location,omitempty"`
	Priority string `json:"priority,omitempty"`
	Checksum string `json:"checksum,omitempty"`
}

// RecoverFromSnapshot requests recovery of a collection from a named
// existing snapshot.
func (c *Client) RecoverFromSnapshot(ctx context.Context, baseURL, collection, snapshotName string) (*Response, error) {
	url := baseURL + "/collections/" + collection + "/snapshots/" + snapshotName + "/recover"
	return c.do(ctx, "PUT", url, nil, "recover_snapshot")
}

// RecoverFromURL requests recovery of a collection from a snapshot
// reachable by URL (e.g. a presigned object-store link), optionally
// verified by checksum.
func (c *Client) RecoverFromURL(ctx context.Context, baseURL, collection, snapshotURL, checksum string) (*Response, error) {
	body, err := json.Marshal(recoverRequest{Location: snapshotURL, Checksum: checksum})
	if err != nil {
		return nil, fmt.Errorf("marshal recover request: %w", err)
	}
	url := baseURL + "/collections/" + collection + "/snapshots/recover"
	return c.do(ctx, "PUT", url, bytes.NewReader(body), "recover_snapshot_url")
}

// CollectionExists checks whether a collection is currently visible on
// the node, used by the executor's waitForResult poll.
func (c *Client) CollectionExists(ctx context.Context, baseURL, collection string) (bool, error) {
	resp, err := c.do(ctx, "GET", baseURL+"/collections/"+collection, nil, "collection_exists")
	if err != nil {
		return false, err
	}
	if resp.StatusCode == 404 {
		return false, nil
	}
	return isSuccessStatus(resp.StatusCode), nil
}

// DownloadStream is a byte-exact streaming snapshot download: the
// response body is returned unread so the caller can re-stream it
// without buffering the whole snapshot in memory.
type DownloadStream struct {
	Body          io.ReadCloser
	ContentLength int64
}

// DownloadSnapshot performs a streaming GET for a snapshot file. The
// caller is responsible for closing Body.
func (c *Client) DownloadSnapshot(ctx context.Context, baseURL, collection, snapshotName string) (DownloadStream, error) {
	url := baseURL + "/collections/" + collection + "/snapshots/" + snapshotName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return DownloadStream{}, fmt.Errorf("build download request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record("download_snapshot", "error")
		return DownloadStream{}, err
	}
	if resp.StatusCode != http.StatusOK {
		c.record("download_snapshot", outcomeFor(resp.StatusCode))
		resp.Body.Close()
		return DownloadStream{}, fmt.Errorf("unexpected status %d downloading snapshot %s", resp.StatusCode, snapshotName)
	}

	c.record("download_snapshot", "success")
	return DownloadStream{Body: resp.Body, ContentLength: resp.ContentLength}, nil
}

type replicateRequest struct {
	MoveShard *shardTransferSpec `json:"move_shard,omitempty"`
	ReplicateShard *shardTransferSpec `json:"replicate_shard,omitempty"`
}

type shardTransferSpec struct {
	ShardId uint32 `json:"shard_id"`
	FromPeerId int64 `json:"from_peer_id"`
	ToPeerId   int64 `json:"to_peer_id"`
}

// ReplicateOrMoveShard issues a single shard replicate/move request
// against the database cluster endpoint.
func (c *Client) ReplicateOrMoveShard(ctx context.Context, baseURL, collection string, shardId cluster.ShardId, fromPeerId, toPeerId int64, isMove bool) (*Response, error) {
	spec := &shardTransferSpec{ShardId: uint32(shardId), FromPeerId: fromPeerId, ToPeerId: toPeerId}
	req := replicateRequest{}
	if isMove {
		req.MoveShard = spec
	} else {
		req.ReplicateShard = spec
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal shard transfer request: %w", err)
	}

	url := baseURL + "/collections/" + collection + "/cluster"
	return c.do(ctx, "POST", url, bytes.NewReader(payload), "replicate_shard")
}
