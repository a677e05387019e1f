package monitor

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/aer-io/vigilante/pkg/cluster"
	"github.com/aer-io/vigilante/pkg/orchestrator"
	"github.com/aer-io/vigilante/pkg/qdrantclient"
)

// shortErrorMaxLen bounds NodeSample.ShortError so an aggregated issue
// list stays readable even when the underlying error is long.
const shortErrorMaxLen = 120

// snapshotsDirFor is the on-disk snapshot directory layout, mirrored
// from the collection storage root.
func snapshotsDirFor(collection string) string {
	return "/qdrant/storage/collections/" + collection + "/snapshots"
}

// Prober issues the per-node probe calls against the Qdrant HTTP API.
// A probe never returns an error to its caller: every failure path is
// folded into the resulting NodeSample.
type Prober struct {
	client         *qdrantclient.Client
	orch           orchestrator.Orchestrator
	maxConcurrency int
}

// NewProber builds a Prober. maxConcurrency bounds how many nodes
// ProbeAll probes at once and, within one node, how many collections are
// fetched at once; maxConcurrency <= 0 means no bound (one probe per node).
// orch may be nil: disk-snapshot listing is then skipped entirely and
// NodeSample.DiskSnapshots stays empty, which the Snapshot Aggregator
// treats the same as "nothing found on disk this tick".
func NewProber(client *qdrantclient.Client, orch orchestrator.Orchestrator, maxConcurrency int) *Prober {
	return &Prober{client: client, orch: orch, maxConcurrency: maxConcurrency}
}

// ProbeAll probes every descriptor concurrently and returns one sample
// per descriptor, in input order.
func (p *Prober) ProbeAll(ctx context.Context, descriptors []cluster.NodeDescriptor) []cluster.NodeSample {
	samples := make([]cluster.NodeSample, len(descriptors))

	group, gctx := errgroup.WithContext(ctx)
	if p.maxConcurrency > 0 {
		group.SetLimit(p.maxConcurrency)
	}
	for i, descriptor := range descriptors {
		i, descriptor := i, descriptor
		group.Go(func() error {
			samples[i] = p.probeOne(gctx, descriptor)
			return nil
		})
	}
	// errgroup's Go never returns an error here (probeOne cannot fail the
	// group), so Wait only blocks until every goroutine finishes.
	_ = group.Wait()

	return samples
}

func (p *Prober) probeOne(ctx context.Context, descriptor cluster.NodeDescriptor) cluster.NodeSample {
	sample := cluster.NodeSample{
		Descriptor: descriptor,
		ObservedAt: time.Now(),
	}

	baseURL := descriptor.Address()
	start := time.Now()

	clusterInfo, err := p.client.GetClusterInfo(ctx, baseURL)
	if err != nil {
		sample.Reachable = false
		sample.FullError = err.Error()
		sample.ShortError = truncateError(err.Error())
		return sample
	}

	sample.Reachable = true
	sample.RttMs = time.Since(start).Milliseconds()
	sample.LeaderPeerId = clusterInfo.Leader
	sample.IsLeader = clusterInfo.Leader != "" && clusterInfo.Leader == clusterInfo.PeerId

	collections, err := p.client.ListCollections(ctx, baseURL)
	if err != nil {
		sample.ShortError = truncateError("listing collections: " + err.Error())
		sample.FullError = "listing collections: " + err.Error()
		return sample
	}

	group, gctx := errgroup.WithContext(ctx)
	if p.maxConcurrency > 0 {
		group.SetLimit(p.maxConcurrency)
	}

	reports := make([]cluster.CollectionReport, len(collections))
	diskSnaps := make([][]cluster.SnapshotEntry, len(collections))
	apiSnaps := make([][]cluster.SnapshotEntry, len(collections))
	collectionErrs := make([]string, len(collections))

	for i, name := range collections {
		i, name := i, name
		group.Go(func() error {
			report, found, err := p.client.GetCollectionClusterInfo(gctx, baseURL, name)
			if err != nil {
				collectionErrs[i] = name + ": " + err.Error()
				return nil
			}
			if found {
				reports[i] = report
			}

			snaps, err := p.client.ListSnapshots(gctx, baseURL, name)
			if err != nil {
				collectionErrs[i] = name + " snapshots: " + err.Error()
				return nil
			}
			apiSnaps[i] = tagSnapshots(snaps, descriptor)

			if p.orch != nil && descriptor.PodName != "" {
				diskSnaps[i] = p.listDiskSnapshots(gctx, descriptor, name)
			}
			return nil
		})
	}
	_ = group.Wait()

	var joinedErrs []string
	for i, name := range collections {
		if reports[i].Name == "" {
			reports[i].Name = name
		}
		sample.Collections = append(sample.Collections, reports[i])
		sample.ApiSnapshots = append(sample.ApiSnapshots, apiSnaps[i]...)
		sample.DiskSnapshots = append(sample.DiskSnapshots, diskSnaps[i]...)
		if collectionErrs[i] != "" {
			joinedErrs = append(joinedErrs, collectionErrs[i])
		}
	}

	if len(joinedErrs) > 0 {
		joined := strings.Join(joinedErrs, "; ")
		sample.FullError = joined
		sample.ShortError = truncateError(joined)
	}

	return sample
}

// listDiskSnapshots lists snapshot files directly on pod disk via exec,
// for correlation against the API-reported list in the Snapshot
// Aggregator (spec §4.6). Best-effort: any failure (pod gone, exec
// rejected, directory absent) yields an empty slice rather than an error.
func (p *Prober) listDiskSnapshots(ctx context.Context, descriptor cluster.NodeDescriptor, collection string) []cluster.SnapshotEntry {
	dir := snapshotsDirFor(collection)
	stream, err := p.orch.Exec(ctx, orchestrator.ExecRequest{
		Namespace: descriptor.PodNamespace,
		PodName:   descriptor.PodName,
		Command:   []string{"find", dir, "-maxdepth", "1", "-type", "f", "-printf", "%f\\t%s\\t%T@\\n"},
	})
	if err != nil {
		return nil
	}

	go io.Copy(io.Discard, stream.Stderr)

	var entries []cluster.SnapshotEntry
	scanner := bufio.NewScanner(stream.Stdout)
	for scanner.Scan() {
		fields := strings.Split(scanner.Text(), "\t")
		if len(fields) != 3 {
			continue
		}
		size, _ := strconv.ParseInt(fields[1], 10, 64)
		epoch, _ := strconv.ParseFloat(fields[2], 64)
		entries = append(entries, cluster.SnapshotEntry{
			CollectionName: collection,
			SnapshotName:   fields[0],
			SizeBytes:      size,
			CreatedAt:      time.Unix(int64(epoch), 0),
			Source:         cluster.SourceDisk,
			PeerId:         descriptor.PeerId,
			NodeUrl:        descriptor.Address(),
			PodName:        descriptor.PodName,
			PodNamespace:   descriptor.PodNamespace,
		})
	}
	_ = stream.Wait()

	return entries
}

func tagSnapshots(snaps []cluster.SnapshotEntry, descriptor cluster.NodeDescriptor) []cluster.SnapshotEntry {
	tagged := make([]cluster.SnapshotEntry, len(snaps))
	for i, s := range snaps {
		s.PeerId = descriptor.PeerId
		s.NodeUrl = descriptor.Address()
		s.PodName = descriptor.PodName
		s.PodNamespace = descriptor.PodNamespace
		tagged[i] = s
	}
	return tagged
}

func truncateError(msg string) string {
	if len(msg) <= shortErrorMaxLen {
		return msg
	}
	return msg[:shortErrorMaxLen-1] + "…"
}
