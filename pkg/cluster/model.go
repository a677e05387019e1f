package cluster

import (
	"fmt"
	"sort"
	"time"
)

// BuildModel folds a set of per-node samples into a fresh ClusterModel.
// Pure function: no I/O, no shared state. The previous generation number
// is passed in so the caller can bump it on every publish.
func BuildModel(samples []NodeSample, prevGeneration uint64) *ClusterModel {
	deduped := dedupeByPeerId(samples)

	model := &ClusterModel{
		Generation:  prevGeneration + 1,
		LastRefresh: time.Now(),
	}

	model.Nodes, model.HealthyNodes, model.TotalNodes = buildNodeViews(deduped)
	model.HealthPercentage = healthPercentage(model.HealthyNodes, model.TotalNodes)

	leaderPeerId, leaderWarning := evaluateLeader(deduped)
	model.LeaderPeerId = leaderPeerId
	if leaderWarning != "" {
		model.Warnings = append(model.Warnings, leaderWarning)
	}

	model.Collections = AggregateCollections(deduped)
	for _, cv := range model.Collections {
		model.Issues = append(model.Issues, cv.Issues...)
	}

	model.Snapshots = AggregateSnapshots(deduped)

	model.Status = evaluateStatus(deduped, model)

	return model
}

// dedupeByPeerId keeps the most recent sample per peerId, discarding older
// duplicates. Unreachable samples are kept: a peer reporting unreachable
// is still a known cluster member.
func dedupeByPeerId(samples []NodeSample) []NodeSample {
	latest := make(map[string]NodeSample, len(samples))
	order := make([]string, 0, len(samples))
	for _, s := range samples {
		peerId := s.Descriptor.PeerId
		if _, seen := latest[peerId]; !seen {
			order = append(order, peerId)
		}
		if existing, ok := latest[peerId]; !ok || s.ObservedAt.After(existing.ObservedAt) {
			latest[peerId] = s
		}
	}

	sort.Strings(order)
	result := make([]NodeSample, 0, len(order))
	for _, peerId := range order {
		result = append(result, latest[peerId])
	}
	return result
}

func buildNodeViews(samples []NodeSample) (views []NodeView, healthy int, total int) {
	views = make([]NodeView, 0, len(samples))
	for _, s := range samples {
		if s.Reachable {
			healthy++
		}
		views = append(views, NodeView{
			Descriptor:   s.Descriptor,
			Reachable:    s.Reachable,
			IsLeader:     s.IsLeader,
			ShortError:   s.ShortError,
			RttMs:        s.RttMs,
			CollectionCt: len(s.Collections),
		})
	}
	return views, healthy, len(samples)
}

func healthPercentage(healthy, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(healthy) / float64(total) * 100
}

// evaluateLeader determines the leader by majority vote among reachable
// nodes. A tie or disagreement yields no leader and a warning.
func evaluateLeader(samples []NodeSample) (peerId string, warning string) {
	votes := make(map[string]int)
	reachableCount := 0
	for _, s := range samples {
		if !s.Reachable {
			continue
		}
		reachableCount++
		if s.LeaderPeerId != "" {
			votes[s.LeaderPeerId]++
		}
	}

	if reachableCount == 0 {
		return "", ""
	}

	var best string
	var bestVotes int
	tied := false
	for peer, count := range votes {
		switch {
		case count > bestVotes:
			best, bestVotes, tied = peer, count, false
		case count == bestVotes && count > 0:
			tied = true
		}
	}

	if best == "" || tied || bestVotes*2 <= reachableCount {
		return "", "Leader disagreement"
	}

	return best, ""
}

func evaluateStatus(samples []NodeSample, model *ClusterModel) Status {
	if model.TotalNodes == 0 || model.HealthyNodes == 0 {
		return StatusUnavailable
	}

	allReachable := model.HealthyNodes == model.TotalNodes
	singleLeader := model.LeaderPeerId != ""
	shardSetsAgree := collectionsAgreeAcrossReachable(samples)

	if allReachable && singleLeader && shardSetsAgree {
		return StatusHealthy
	}

	return StatusDegraded
}

// collectionsAgreeAcrossReachable reports whether every collection
// presents an identical shard set across all reachable replicas.
func collectionsAgreeAcrossReachable(samples []NodeSample) bool {
	shardSets := make(map[string]map[ShardId]bool)
	for _, s := range samples {
		if !s.Reachable {
			continue
		}
		for _, report := range s.Collections {
			set, ok := shardSets[report.Name]
			if !ok {
				set = make(map[ShardId]bool, len(report.Shards))
				for _, id := range report.Shards {
					set[id] = true
				}
				shardSets[report.Name] = set
				continue
			}
			if len(set) != len(report.Shards) {
				return false
			}
			for _, id := range report.Shards {
				if !set[id] {
					return false
				}
			}
		}
	}
	return true
}

func formatPeerIssue(collection string, shardId ShardId, state ShardState, peerId string) string {
	return fmt.Sprintf("collection %s: shard %d is %s on peer %s", collection, shardId, state, peerId)
}
