package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory Orchestrator used by tests in this repository
// and in pkg/executor, substituting for a real cluster the way the
// capability-interface boundary intends.
type Fake struct {
	mu   sync.Mutex
	Pods map[string]Pod // keyed by "namespace/name"

	ExecFunc func(ctx context.Context, req ExecRequest) (ExecStream, error)

	DeletedPods    []string
	ManagedActions []ManagedAction
}

// ManagedAction records one ManageStatefulSet call for assertions.
type ManagedAction struct {
	Namespace string
	Name      string
	Op        StatefulSetOp
	Replicas  int32
}

// NewFake returns an empty Fake orchestrator.
func NewFake() *Fake {
	return &Fake{Pods: make(map[string]Pod)}
}

func podKey(namespace, name string) string {
	return namespace + "/" + name
}

// AddPod registers a pod the fake will serve from ListPods/GetPod.
func (f *Fake) AddPod(pod Pod) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Pods[podKey(pod.Namespace, pod.Name)] = pod
}

func (f *Fake) ListPods(_ context.Context, namespace, labelSelector string) ([]Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []Pod
	for _, pod := range f.Pods {
		if pod.Namespace != namespace {
			continue
		}
		if !matchesSelector(pod.Labels, labelSelector) {
			continue
		}
		result = append(result, pod)
	}
	return result, nil
}

func (f *Fake) GetPod(_ context.Context, namespace, name string) (Pod, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	pod, ok := f.Pods[podKey(namespace, name)]
	if !ok {
		return Pod{}, fmt.Errorf("pod %s/%s not found", namespace, name)
	}
	return pod, nil
}

func (f *Fake) DeletePod(_ context.Context, namespace, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := podKey(namespace, name)
	if _, ok := f.Pods[key]; !ok {
		return fmt.Errorf("pod %s/%s not found", namespace, name)
	}
	delete(f.Pods, key)
	f.DeletedPods = append(f.DeletedPods, key)
	return nil
}

func (f *Fake) Exec(ctx context.Context, req ExecRequest) (ExecStream, error) {
	if f.ExecFunc != nil {
		return f.ExecFunc(ctx, req)
	}
	return ExecStream{
		Stdout: strings.NewReader(""),
		Stderr: strings.NewReader(""),
		Wait:   func() error { return nil },
	}, nil
}

func (f *Fake) ManageStatefulSet(_ context.Context, namespace, name string, op StatefulSetOp, replicas int32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ManagedActions = append(f.ManagedActions, ManagedAction{Namespace: namespace, Name: name, Op: op, Replicas: replicas})
	return nil
}

// matchesSelector implements exact "key=value,key2=value2" matching,
// sufficient for the label selectors the node registry constructs.
func matchesSelector(labels map[string]string, selector string) bool {
	if selector == "" {
		return true
	}
	for _, pair := range strings.Split(selector, ",") {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 {
			return false
		}
		if labels[kv[0]] != kv[1] {
			return false
		}
	}
	return true
}
