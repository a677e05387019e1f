package executor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

// staticModel is a ModelProvider fixture for executor tests.
type staticModel struct {
	model *cluster.ClusterModel
}

func (s staticModel) GetLatest() *cluster.ClusterModel { return s.model }

func newAcceptedServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete && strings.Contains(r.URL.Path, "404me") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "accepted", "result": true})
	}))
}

// buildModelForServer constructs a model whose single node's descriptor points
// at srv, bypassing URL parsing by overriding Address via host:port.
func buildModelForServer(srv *httptest.Server, peerId, podName, podNamespace string) *cluster.ClusterModel {
	hostport := strings.TrimPrefix(srv.URL, "http://")
	parts := strings.Split(hostport, ":")
	host := parts[0]
	port := 0
	if len(parts) == 2 {
		for _, r := range parts[1] {
			if r < '0' || r > '9' {
				break
			}
			port = port*10 + int(r-'0')
		}
	}
	return &cluster.ClusterModel{
		LeaderPeerId: peerId,
		Nodes: []cluster.NodeView{
			{
				Descriptor: cluster.NodeDescriptor{PeerId: peerId, Host: host, Port: port, Scheme: "http", PodName: podName, PodNamespace: podNamespace},
				Reachable:  true,
			},
		},
	}
}

func TestReplicateOrMoveShards_ValidatesInput(t *testing.T) {
	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	_, err := e.ReplicateOrMoveShards(context.Background(), ReplicateShardsRequest{
		CollectionName: "docs", SourcePeerId: "1", TargetPeerId: "1", ShardIds: []cluster.ShardId{0},
	})
	if err == nil {
		t.Fatal("expected error when source == target")
	}

	_, err = e.ReplicateOrMoveShards(context.Background(), ReplicateShardsRequest{
		CollectionName: "docs", SourcePeerId: "1", TargetPeerId: "2",
	})
	if err == nil {
		t.Fatal("expected error for empty shardIds")
	}
}

func TestReplicateOrMoveShards_AggregatesPerShard(t *testing.T) {
	srv := newAcceptedServer(t)
	defer srv.Close()

	model := buildModelForServer(srv, "1", "", "")
	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: model}, Config{})

	result, err := e.ReplicateOrMoveShards(context.Background(), ReplicateShardsRequest{
		CollectionName: "docs", SourcePeerId: "1", TargetPeerId: "2", ShardIds: []cluster.ShardId{0, 1, 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Results) != 3 {
		t.Fatalf("expected 3 per-shard results, got %d", len(result.Results))
	}
}

func TestDeleteCollection_ApiCluster_404IsSuccess(t *testing.T) {
	srv := newAcceptedServer(t)
	defer srv.Close()

	model := buildModelForServer(srv, "1", "", "")
	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: model}, Config{})

	result, err := e.DeleteCollection(context.Background(), DeleteCollectionRequest{
		CollectionName: "404me", Mode: DeletionApi, Scope: ScopeCluster,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected 404 to be treated as success, got %+v", result)
	}
}

func TestDeleteCollection_RejectsPathTraversal(t *testing.T) {
	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	_, err := e.DeleteCollection(context.Background(), DeleteCollectionRequest{
		CollectionName: "../etc", Mode: DeletionDisk, Scope: ScopeSingleNode, Pod: PodRef{Namespace: "db", PodName: "qdrant-0"},
	})
	if err == nil {
		t.Fatal("expected path-traversal collection name to be rejected")
	}
}

func TestDeleteCollection_DiskSingleNode_RefusesNonRunningPod(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.AddPod(orchestrator.Pod{Namespace: "db", Name: "qdrant-0", Phase: "Pending"})

	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), fake, nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	result, err := e.DeleteCollection(context.Background(), DeleteCollectionRequest{
		CollectionName: "docs", Mode: DeletionDisk, Scope: ScopeSingleNode,
		Pod: PodRef{Namespace: "db", PodName: "qdrant-0"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Success {
		t.Fatal("expected failure for a non-Running pod")
	}
}

func TestDeleteCollection_DiskSingleNode_Succeeds(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.AddPod(orchestrator.Pod{Namespace: "db", Name: "qdrant-0", Phase: "Running"})

	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), fake, nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	result, err := e.DeleteCollection(context.Background(), DeleteCollectionRequest{
		CollectionName: "docs", Mode: DeletionDisk, Scope: ScopeSingleNode,
		Pod: PodRef{Namespace: "db", PodName: "qdrant-0"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
}

func TestDeletePod(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.AddPod(orchestrator.Pod{Namespace: "db", Name: "qdrant-0", Phase: "Running"})

	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), fake, nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	result, err := e.DeletePod(context.Background(), "db", "qdrant-0")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(fake.DeletedPods) != 1 {
		t.Fatalf("expected fake to record the deletion, got %v", fake.DeletedPods)
	}
}

func TestManageStatefulSet_RejectsNegativeReplicas(t *testing.T) {
	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	_, err := e.ManageStatefulSet(context.Background(), ManageStatefulSetRequest{
		Namespace: "db", Name: "qdrant", Op: orchestrator.Scale, Replicas: -1,
	})
	if err == nil {
		t.Fatal("expected negative replicas to be rejected")
	}
}

func TestCreateSnapshot_ClusterScopeFansOutToAllReachable(t *testing.T) {
	srvA := newAcceptedServer(t)
	defer srvA.Close()
	srvB := newAcceptedServer(t)
	defer srvB.Close()

	modelA := buildModelForServer(srvA, "1", "", "")
	modelB := buildModelForServer(srvB, "2", "", "")
	model := &cluster.ClusterModel{Nodes: append(modelA.Nodes, modelB.Nodes...)}

	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orchestrator.NewFake(), nil, staticModel{model: model}, Config{})

	result, err := e.CreateSnapshot(context.Background(), CreateSnapshotRequest{CollectionName: "docs", Scope: SnapshotScopeCluster})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Results) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(result.Results))
	}
	if !result.Success {
		t.Fatalf("expected overall success, got %+v", result)
	}
}

func TestDownloadSnapshot_FallsBackToDiskOnApiFailure(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.ExecFunc = func(ctx context.Context, req orchestrator.ExecRequest) (orchestrator.ExecStream, error) {
		return orchestrator.ExecStream{
			Stdout: strings.NewReader("snapshot-bytes"),
			Stderr: strings.NewReader(""),
			Wait:   func() error { return nil },
		}, nil
	}

	e := New(qdrantclient.NewClient(qdrantclient.Config{Timeout: 200 * time.Millisecond}, nil), fake, nil, staticModel{model: &cluster.ClusterModel{}}, Config{})

	var buf strings.Builder
	err := e.DownloadSnapshot(context.Background(), "docs", "snap-1", "http://127.0.0.1:1", PodRef{Namespace: "db", PodName: "qdrant-0"}, &buf, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.String() != "snapshot-bytes" {
		t.Fatalf("expected byte-exact disk fallback content, got %q", buf.String())
	}
}
