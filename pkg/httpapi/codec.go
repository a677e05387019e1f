package httpapi

import (
	"encoding/json"
	"fmt"

	"github.com/aer-io/vigilante/pkg/executor"
	"github.com/aer-io/vigilante/pkg/orchestrator"
)

// deletionType mirrors executor.DeletionMode on the wire, accepting
// either the string form ("Api"/"Disk") or Qdrant's historical numeric
// enum (0=Api, 1=Disk).
type deletionType executor.DeletionMode

func (d *deletionType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Api", "Disk":
			*d = deletionType(s)
			return nil
		}
		return fmt.Errorf("invalid deletionType %q", s)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("deletionType must be a string or number: %w", err)
	}
	switch n {
	case 0:
		*d = deletionType(executor.DeletionApi)
	case 1:
		*d = deletionType(executor.DeletionDisk)
	default:
		return fmt.Errorf("invalid deletionType %d", n)
	}
	return nil
}

// deletionScope mirrors executor.DeletionScope / executor.SnapshotScope
// on the wire as a string, accepting both "Cluster"/"SingleNode".
type deletionScope string

func (s *deletionScope) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("scope must be a string: %w", err)
	}
	switch v {
	case "Cluster", "SingleNode":
		*s = deletionScope(v)
		return nil
	default:
		return fmt.Errorf("invalid scope %q", v)
	}
}

// statefulSetOp mirrors orchestrator.StatefulSetOp on the wire, accepting
// either the string form ("Rollout"/"Scale") or the numeric enum
// (0=Rollout, 1=Scale).
type statefulSetOp orchestrator.StatefulSetOp

func (o *statefulSetOp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		switch s {
		case "Rollout":
			*o = statefulSetOp(orchestrator.Rollout)
		case "Scale":
			*o = statefulSetOp(orchestrator.Scale)
		default:
			return fmt.Errorf("invalid statefulSetOperationType %q", s)
		}
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("statefulSetOperationType must be a string or number: %w", err)
	}
	switch n {
	case int(orchestrator.Rollout):
		*o = statefulSetOp(orchestrator.Rollout)
	case int(orchestrator.Scale):
		*o = statefulSetOp(orchestrator.Scale)
	default:
		return fmt.Errorf("invalid statefulSetOperationType %d", n)
	}
	return nil
}

// snapshotSource mirrors cluster.SnapshotSource on the wire, accepting
// either the string form or the numeric enum (0=Api, 1=Disk).
type snapshotSource string

func (s *snapshotSource) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err == nil {
		switch v {
		case "Api", "Disk":
			*s = snapshotSource(v)
			return nil
		}
		return fmt.Errorf("invalid snapshot source %q", v)
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("snapshot source must be a string or number: %w", err)
	}
	switch n {
	case 0:
		*s = snapshotSource("Api")
	case 1:
		*s = snapshotSource("Disk")
	default:
		return fmt.Errorf("invalid snapshot source %d", n)
	}
	return nil
}
