// Package orchestrator abstracts the container-orchestrator operations
// Vigilante needs: pod discovery, exec streaming, and stateful-set patching.
// Concrete implementations sit behind the Orchestrator interface so the
// executor and monitor packages can be tested against an in-memory fake.
package orchestrator

import (
	"context"
	"io"
)

// Pod is the subset of pod state Vigilante cares about.
type Pod struct {
	Name            string
	Namespace       string
	IP              string
	Phase           string
	StatefulSetName string
	Labels          map[string]string
}

// ExecRequest describes a command to run inside a running pod container.
type ExecRequest struct {
	Namespace string
	PodName   string
	Container string
	Command   []string
	Stdin     io.Reader
}

// ExecStream is the result of a streaming exec call. Stdout/Stderr are
// live readers; the caller must read them to completion (or cancel the
// context) before Wait returns a terminal error, so byte-exact streaming
// (e.g. snapshot download-via-exec) never buffers the whole payload.
type ExecStream struct {
	Stdout io.Reader
	Stderr io.Reader
	Wait   func() error
}

// StatefulSetOp selects the kind of stateful-set management operation.
type StatefulSetOp int

const (
	Rollout StatefulSetOp = iota
	Scale
)

// Orchestrator is the capability interface required by the executor and
// the discovery-mode node registry. Required RBAC: pods
// (list/get/watch/delete), pods/exec (create/get/watch), pods/log
// (get/list), events (list/get/watch), statefulsets
// (get/list/patch/update).
type Orchestrator interface {
	ListPods(ctx context.Context, namespace, labelSelector string) ([]Pod, error)
	GetPod(ctx context.Context, namespace, name string) (Pod, error)
	DeletePod(ctx context.Context, namespace, name string) error
	Exec(ctx context.Context, req ExecRequest) (ExecStream, error)
	ManageStatefulSet(ctx context.Context, namespace, name string, op StatefulSetOp, replicas int32) error
}
