// Package cluster holds the merged view of a Qdrant cluster: node
// descriptors, per-node samples, and the aggregated model built from them.
package cluster

import (
	"strconv"
	"time"
)

// ShardId identifies a shard within a collection.
type ShardId uint32

// ShardState is the lifecycle label of a shard replica.
type ShardState string

const (
	ShardActive          ShardState = "Active"
	ShardInitializing    ShardState = "Initializing"
	ShardDead            ShardState = "Dead"
	ShardListener        ShardState = "Listener"
	ShardPartialSnapshot ShardState = "PartialSnapshot"
	ShardPartial         ShardState = "Partial"
	ShardResharding      ShardState = "Resharding"
)

// Status is the aggregated cluster health status.
type Status string

const (
	StatusHealthy     Status = "Healthy"
	StatusDegraded    Status = "Degraded"
	StatusUnavailable Status = "Unavailable"
)

// SnapshotSource identifies where a snapshot entry was observed.
type SnapshotSource string

const (
	SourceApi  SnapshotSource = "Api"
	SourceDisk SnapshotSource = "Disk"
)

// NodeDescriptor identifies one cluster member and how to reach it.
// Constructed fresh each registry refresh; peerId is the sole stable key.
type NodeDescriptor struct {
	PeerId          string
	Host            string
	Port            int
	Scheme          string
	PodName         string
	PodNamespace    string
	StatefulSetName string
	Labels          map[string]string
}

// Address returns the base URL used to reach this node's HTTP API.
func (d NodeDescriptor) Address() string {
	scheme := d.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + d.Host + ":" + strconv.Itoa(d.Port)
}

// OutgoingTransfer describes an in-flight shard transfer reported by a node.
type OutgoingTransfer struct {
	ShardId ShardId
	To      string
	IsSync  bool
}

// CollectionReport is one node's view of one collection.
type CollectionReport struct {
	Name              string
	SizeBytes         int64
	Shards            []ShardId
	ShardStates       map[ShardId]ShardState
	OutgoingTransfers []OutgoingTransfer
}

// SnapshotEntry describes one snapshot observed either via the database API
// or by listing files on disk.
type SnapshotEntry struct {
	CollectionName string
	SnapshotName   string
	SizeBytes      int64
	CreatedAt      time.Time
	Source         SnapshotSource
	PeerId         string
	NodeUrl        string
	PodName        string
	PodNamespace   string
	Checksum       string
	DownloadURL    string
}

// NodeSample is one observation of a node at a point in time. Owned
// transiently by the prober; discarded once folded into a ClusterModel.
type NodeSample struct {
	Descriptor    NodeDescriptor
	ObservedAt    time.Time
	Reachable     bool
	IsLeader      bool
	LeaderPeerId  string
	ShortError    string
	FullError     string
	RttMs         int64
	Collections   []CollectionReport
	DiskSnapshots []SnapshotEntry
	ApiSnapshots  []SnapshotEntry
}

// NodeView is the per-node projection carried in a ClusterModel.
type NodeView struct {
	Descriptor   NodeDescriptor
	Reachable    bool
	IsLeader     bool
	ShortError   string
	RttMs        int64
	CollectionCt int
}

// CollectionView is the aggregated, per-collection view across all nodes.
type CollectionView struct {
	Name           string
	TotalSizeBytes int64
	Nodes          map[string][]CollectionReport
	Issues         []string
}

// ClusterModel is the singleton, atomically-refreshed cluster view.
// Writes are owned exclusively by the Monitor Loop; readers get an
// immutable snapshot published by pointer swap, taking only a read lock
// to copy the pointer.
type ClusterModel struct {
	Generation       uint64
	Status           Status
	Nodes            []NodeView
	LeaderPeerId     string
	Collections      []CollectionView
	Snapshots        []SnapshotEntry
	Issues           []string
	Warnings         []string
	LastRefresh      time.Time
	HealthyNodes     int
	TotalNodes       int
	HealthPercentage float64
}

// OperationResult is the outcome of an Operation Executor call. Never
// mutated after it is returned to the caller.
type OperationResult struct {
	Success bool
	Message string
	Results map[string]TargetResult
}

// TargetResult is the per-target outcome inside an OperationResult.
type TargetResult struct {
	Success bool
	Error   string
}
