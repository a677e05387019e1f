package qdrantclient

import (
	"context"
	"encoding/json"
	"fmt"
)

// ClusterInfo is the decoded response from a node's /cluster endpoint.
type ClusterInfo struct {
	PeerId string
	Leader string
	Peers  map[string]string // peerId -> uri
}

type clusterResponse struct {
	Result struct {
		PeerId int64 `json:"peer_id"`
		Peers  map[string]struct {
			Uri string `json:"uri"`
		} `json:"peers"`
		RaftInfo struct {
			Leader *int64 `json:"leader"`
		} `json:"raft_info"`
	} `json:"result"`
}

// GetClusterInfo calls the node's /cluster endpoint. Reachability is
// determined solely by this call succeeding: a non-2xx or transport
// error here means the node is unreachable for monitoring purposes.
func (c *Client) GetClusterInfo(ctx context.Context, baseURL string) (ClusterInfo, error) {
	resp, err := c.do(ctx, "GET", baseURL+"/cluster", nil, "cluster")
	if err != nil {
		return ClusterInfo{}, err
	}
	if !isSuccessStatus(resp.StatusCode) {
		return ClusterInfo{}, fmt.Errorf("unexpected status %d from /cluster", resp.StatusCode)
	}

	var decoded clusterResponse
	if err := json.Unmarshal(resp.Body, &decoded); err != nil {
		return ClusterInfo{}, fmt.Errorf("decode /cluster response: %w", err)
	}

	info := ClusterInfo{
		PeerId: fmt.Sprintf("%d", decoded.Result.PeerId),
		Peers:  make(map[string]string, len(decoded.Result.Peers)),
	}
	for peerId, peer := range decoded.Result.Peers {
		info.Peers[peerId] = peer.Uri
	}
	if decoded.Result.RaftInfo.Leader != nil {
		info.Leader = fmt.Sprintf("%d", *decoded.Result.RaftInfo.Leader)
	}

	return info, nil
}
