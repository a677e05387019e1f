package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/executor"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

type staticModel struct {
	model *cluster.ClusterModel
}

func (s staticModel) GetLatest() *cluster.ClusterModel { return s.model }

func newTestServer(t *testing.T, model *cluster.ClusterModel, orch orchestrator.Orchestrator) *Server {
	t.Helper()
	if orch == nil {
		orch = orchestrator.NewFake()
	}
	sm := staticModel{model: model}
	exec := executor.New(qdrantclient.NewClient(qdrantclient.Config{Timeout: time.Second}, nil), orch, nil, sm, executor.Config{})
	return NewServer(sm, exec)
}

func doRequest(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleClusterStatus(t *testing.T) {
	model := &cluster.ClusterModel{Status: cluster.StatusHealthy, Generation: 7}
	s := newTestServer(t, model, nil)

	rec := doRequest(t, s, http.MethodGet, "/api/v1/cluster/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got cluster.ClusterModel
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Generation != 7 || got.Status != cluster.StatusHealthy {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, &cluster.ClusterModel{}, nil)
	rec := doRequest(t, s, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	s := newTestServer(t, &cluster.ClusterModel{}, nil)
	rec := doRequest(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHandleReplicateShards_ValidationError(t *testing.T) {
	s := newTestServer(t, &cluster.ClusterModel{}, nil)
	rec := doRequest(t, s, http.MethodPost, "/api/v1/cluster/replicate-shards", map[string]any{
		"collectionName": "docs", "sourcePeerId": "1", "targetPeerId": "1", "shardIds": []int{0},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeleteCollection_AcceptsNumericAndStringMode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	host := strings.TrimPrefix(srv.URL, "http://")
	parts := strings.Split(host, ":")
	port := 0
	for _, r := range parts[1] {
		port = port*10 + int(r-'0')
	}
	model := &cluster.ClusterModel{
		Nodes: []cluster.NodeView{{
			Descriptor: cluster.NodeDescriptor{PeerId: "1", Host: parts[0], Port: port, Scheme: "http"},
			Reachable:  true,
		}},
	}
	s := newTestServer(t, model, nil)

	// string form
	rec := doRequest(t, s, http.MethodDelete, "/api/v1/collections", map[string]any{
		"collectionName": "docs", "deletionType": "Api", "scope": "Cluster",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("string mode: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// numeric form
	rec = doRequest(t, s, http.MethodDelete, "/api/v1/collections", map[string]any{
		"collectionName": "docs", "deletionType": 0, "scope": "Cluster",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("numeric mode: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeleteCollection_RejectsPathTraversal(t *testing.T) {
	s := newTestServer(t, &cluster.ClusterModel{}, nil)
	rec := doRequest(t, s, http.MethodDelete, "/api/v1/collections", map[string]any{
		"collectionName": "../etc", "deletionType": "Disk", "scope": "SingleNode",
		"pod": map[string]string{"namespace": "db", "podName": "qdrant-0"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleManageStatefulSet_AcceptsNumericOp(t *testing.T) {
	fake := orchestrator.NewFake()
	s := newTestServer(t, &cluster.ClusterModel{}, fake)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/kubernetes/manage-statefulset", map[string]any{
		"namespace": "db", "name": "qdrant", "op": 1, "replicas": 3,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestHandleDeletePod(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.AddPod(orchestrator.Pod{Namespace: "db", Name: "qdrant-0", Phase: "Running"})
	s := newTestServer(t, &cluster.ClusterModel{}, fake)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/kubernetes/delete-pod", map[string]any{
		"namespace": "db", "podName": "qdrant-0",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(fake.DeletedPods) != 1 {
		t.Fatalf("expected pod deletion recorded, got %v", fake.DeletedPods)
	}
}

func TestHandleDownloadSnapshot_DiskFallback(t *testing.T) {
	fake := orchestrator.NewFake()
	fake.ExecFunc = func(ctx context.Context, req orchestrator.ExecRequest) (orchestrator.ExecStream, error) {
		return orchestrator.ExecStream{
			Stdout: strings.NewReader("snapshot-bytes"),
			Stderr: strings.NewReader(""),
			Wait:   func() error { return nil },
		}, nil
	}
	s := newTestServer(t, &cluster.ClusterModel{}, fake)

	rec := doRequest(t, s, http.MethodPost, "/api/v1/snapshots/download", map[string]any{
		"collectionName": "docs", "snapshotName": "snap-1",
		"pod": map[string]string{"namespace": "db", "podName": "qdrant-0"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != "snapshot-bytes" {
		t.Fatalf("expected byte-exact body, got %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/octet-stream" {
		t.Fatalf("expected octet-stream content type, got %q", ct)
	}
}
