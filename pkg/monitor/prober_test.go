package monitor

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

func newTestQdrantServer(t *testing.T, peerId, leaderId int64, collections []string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/cluster", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{
				"peer_id": peerId,
				"peers":   map[string]any{},
				"raft_info": map[string]any{
					"leader": leaderId,
				},
			},
		})
	})

	mux.HandleFunc("/collections", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections" {
			return
		}
		cols := make([]map[string]string, 0, len(collections))
		for _, c := range collections {
			cols = append(cols, map[string]string{"name": c})
		}
		json.NewEncoder(w).Encode(map[string]any{
			"result": map[string]any{"collections": cols},
		})
	})

	for _, c := range collections {
		c := c
		mux.HandleFunc("/collections/"+c+"/cluster", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"result": map[string]any{
					"local_shards": []map[string]any{
						{"shard_id": 0, "state": "Active"},
					},
				},
			})
		})
		mux.HandleFunc("/collections/"+c+"/snapshots", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"result": []map[string]any{
					{"name": "snap-1", "creation_time": time.Now().Format(time.RFC3339), "size": 100},
				},
			})
		})
	}

	return httptest.NewServer(mux)
}

func descriptorFor(t *testing.T, srv *httptest.Server, peerId string) cluster.NodeDescriptor {
	t.Helper()
	u := strings.TrimPrefix(srv.URL, "http://")
	host, portStr, err := net.SplitHostPort(u)
	if err != nil {
		t.Fatal(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatal(err)
	}
	return cluster.NodeDescriptor{PeerId: peerId, Host: host, Port: port, Scheme: "http"}
}

func TestProber_ProbeOne_Reachable(t *testing.T) {
	srv := newTestQdrantServer(t, 1, 1, []string{"docs"})
	defer srv.Close()

	client := qdrantclient.NewClient(qdrantclient.Config{Timeout: 5 * time.Second}, nil)
	descriptor := descriptorFor(t, srv, "node-1")

	prober := NewProber(client, nil, 0)
	sample := prober.probeOne(context.Background(), descriptor)

	if !sample.Reachable {
		t.Fatalf("expected reachable sample, got error %q", sample.FullError)
	}
	if !sample.IsLeader {
		t.Error("expected node to see itself as leader")
	}
	if len(sample.Collections) != 1 || sample.Collections[0].Name != "docs" {
		t.Errorf("unexpected collections: %+v", sample.Collections)
	}
	if len(sample.ApiSnapshots) != 1 {
		t.Errorf("expected 1 api snapshot, got %d", len(sample.ApiSnapshots))
	}
	if sample.ApiSnapshots[0].PeerId != "node-1" {
		t.Errorf("expected snapshot tagged with peerId, got %q", sample.ApiSnapshots[0].PeerId)
	}
}

func TestProber_ProbeOne_Unreachable(t *testing.T) {
	client := qdrantclient.NewClient(qdrantclient.Config{Timeout: 200 * time.Millisecond}, nil)
	descriptor := cluster.NodeDescriptor{PeerId: "ghost", Host: "127.0.0.1", Port: 1, Scheme: "http"}

	prober := NewProber(client, nil, 0)
	sample := prober.probeOne(context.Background(), descriptor)

	if sample.Reachable {
		t.Fatal("expected unreachable sample")
	}
	if sample.ShortError == "" {
		t.Error("expected a short error to be populated")
	}
}

func TestProber_DiskSnapshots_BestEffort(t *testing.T) {
	srv := newTestQdrantServer(t, 1, 1, []string{"docs"})
	defer srv.Close()

	fake := orchestrator.NewFake()
	fake.ExecFunc = func(ctx context.Context, req orchestrator.ExecRequest) (orchestrator.ExecStream, error) {
		return orchestrator.ExecStream{
			Stdout: strings.NewReader("snap-1\t100\t1700000000.0\nsnap-2\t200\t1700000100.0\n"),
			Stderr: strings.NewReader(""),
			Wait:   func() error { return nil },
		}, nil
	}

	client := qdrantclient.NewClient(qdrantclient.Config{Timeout: 5 * time.Second}, nil)
	descriptor := descriptorFor(t, srv, "node-1")
	descriptor.PodName = "qdrant-0"
	descriptor.PodNamespace = "db"

	prober := NewProber(client, fake, 0)
	sample := prober.probeOne(context.Background(), descriptor)

	if !sample.Reachable {
		t.Fatalf("expected reachable sample, got %q", sample.FullError)
	}
	if len(sample.DiskSnapshots) != 2 {
		t.Fatalf("expected 2 disk snapshots, got %d", len(sample.DiskSnapshots))
	}
	if sample.DiskSnapshots[0].Source != cluster.SourceDisk {
		t.Errorf("expected Disk source, got %q", sample.DiskSnapshots[0].Source)
	}
}

func TestProber_ProbeAll_OrderPreserved(t *testing.T) {
	srvA := newTestQdrantServer(t, 1, 1, nil)
	defer srvA.Close()
	srvB := newTestQdrantServer(t, 2, 1, nil)
	defer srvB.Close()

	client := qdrantclient.NewClient(qdrantclient.Config{Timeout: 5 * time.Second}, nil)
	descriptors := []cluster.NodeDescriptor{
		descriptorFor(t, srvA, "a"),
		descriptorFor(t, srvB, "b"),
	}

	prober := NewProber(client, nil, 0)
	samples := prober.ProbeAll(context.Background(), descriptors)

	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	if samples[0].Descriptor.PeerId != "a" || samples[1].Descriptor.PeerId != "b" {
		t.Errorf("expected input order preserved, got %q then %q", samples[0].Descriptor.PeerId, samples[1].Descriptor.PeerId)
	}
}
