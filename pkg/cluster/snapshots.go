package cluster

import "sort"

// snapshotKey uniquely identifies a snapshot entry across sources.
type snapshotKey struct {
	collection string
	peerId     string
	name       string
}

// AggregateSnapshots unions API-reported and on-disk snapshots by
// (collectionName, peerId, snapshotName). When both sources report the
// same entry, API metadata wins (authoritative size/createdAt) and the
// entry is tagged Api; disk-only entries are tagged Disk. Snapshot-name
// collisions across peers are allowed — grouping is by collectionName
// only, then enumerated per peer.
func AggregateSnapshots(samples []NodeSample) []SnapshotEntry {
	byKey := make(map[snapshotKey]SnapshotEntry)
	var order []snapshotKey

	addAll := func(entries []SnapshotEntry) {
		for _, e := range entries {
			key := snapshotKey{collection: e.CollectionName, peerId: e.PeerId, name: e.SnapshotName}
			if _, ok := byKey[key]; !ok {
				order = append(order, key)
			}
			byKey[key] = e
		}
	}

	// Disk entries first, API entries second: on conflict the API entry
	// (authoritative size/createdAt) overwrites the disk one.
	addAll(diskEntries(samples))
	addAll(apiEntries(samples))

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if a.collection != b.collection {
			return a.collection < b.collection
		}
		if a.peerId != b.peerId {
			return a.peerId < b.peerId
		}
		return a.name < b.name
	})

	result := make([]SnapshotEntry, 0, len(order))
	for _, key := range order {
		result = append(result, byKey[key])
	}
	return result
}

func apiEntries(samples []NodeSample) []SnapshotEntry {
	var entries []SnapshotEntry
	for _, s := range samples {
		for _, e := range s.ApiSnapshots {
			e.Source = SourceApi
			entries = append(entries, e)
		}
	}
	return entries
}

func diskEntries(samples []NodeSample) []SnapshotEntry {
	var entries []SnapshotEntry
	for _, s := range samples {
		for _, e := range s.DiskSnapshots {
			e.Source = SourceDisk
			entries = append(entries, e)
		}
	}
	return entries
}
