package cluster

import (
	"fmt"
	"sort"
)

// AggregateCollections folds per-node collection reports into one
// CollectionView per collection name, keyed by peerId (never podName:
// podNames may be "unknown" or collide across namespaces).
func AggregateCollections(samples []NodeSample) []CollectionView {
	byName := make(map[string]*CollectionView)
	var names []string

	for _, s := range samples {
		for _, report := range s.Collections {
			view, ok := byName[report.Name]
			if !ok {
				view = &CollectionView{
					Name:  report.Name,
					Nodes: make(map[string][]CollectionReport),
				}
				byName[report.Name] = view
				names = append(names, report.Name)
			}
			view.Nodes[s.Descriptor.PeerId] = append(view.Nodes[s.Descriptor.PeerId], report)
		}
	}

	sort.Strings(names)

	views := make([]CollectionView, 0, len(names))
	for _, name := range names {
		view := byName[name]
		view.TotalSizeBytes = collectionTotalSize(view)
		view.Issues = collectionIssues(name, samples, view)
		views = append(views, *view)
	}
	return views
}

// collectionTotalSize sums the reported SizeBytes of every per-node
// report in the view. Reports carry no per-shard sizes, so a shard
// replicated to several peers is counted once per peer that holds it —
// see Open Question in DESIGN.md.
func collectionTotalSize(view *CollectionView) int64 {
	var total int64
	peerIds := sortedKeys(view.Nodes)
	for _, peerId := range peerIds {
		for _, report := range view.Nodes[peerId] {
			total += report.SizeBytes
		}
	}
	return total
}

func collectionIssues(name string, samples []NodeSample, view *CollectionView) []string {
	var issues []string

	reachablePeers := make(map[string]bool)
	for _, s := range samples {
		if s.Reachable {
			reachablePeers[s.Descriptor.PeerId] = true
		}
	}

	peerIds := sortedKeys(view.Nodes)

	// Non-Active shard states.
	for _, peerId := range peerIds {
		for _, report := range view.Nodes[peerId] {
			shardIds := make([]ShardId, 0, len(report.ShardStates))
			for id := range report.ShardStates {
				shardIds = append(shardIds, id)
			}
			sort.Slice(shardIds, func(i, j int) bool { return shardIds[i] < shardIds[j] })
			for _, id := range shardIds {
				if state := report.ShardStates[id]; state != ShardActive {
					issues = append(issues, formatPeerIssue(name, id, state, peerId))
				}
			}
		}
	}

	// Shard-set disagreement across reachable replicas.
	var referenceSet map[ShardId]bool
	mismatch := false
	for _, peerId := range peerIds {
		if !reachablePeers[peerId] {
			continue
		}
		for _, report := range view.Nodes[peerId] {
			set := make(map[ShardId]bool, len(report.Shards))
			for _, id := range report.Shards {
				set[id] = true
			}
			if referenceSet == nil {
				referenceSet = set
				continue
			}
			if !sameShardSet(referenceSet, set) {
				mismatch = true
			}
		}
	}
	if mismatch {
		issues = append(issues, fmt.Sprintf("collection %s: shard set mismatch", name))
	}

	// Reachable node missing a collection that ≥1 other node reports.
	for _, s := range samples {
		if !s.Reachable {
			continue
		}
		if hasCollection(s.Collections, name) {
			continue
		}
		issues = append(issues, fmt.Sprintf("collection %s: missing on peer %s", name, s.Descriptor.PeerId))
	}

	return issues
}

func hasCollection(reports []CollectionReport, name string) bool {
	for _, r := range reports {
		if r.Name == name {
			return true
		}
	}
	return false
}

func sameShardSet(a, b map[ShardId]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if !b[id] {
			return false
		}
	}
	return true
}

func sortedKeys(m map[string][]CollectionReport) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
