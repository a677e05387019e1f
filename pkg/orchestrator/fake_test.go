package orchestrator

import (
	"context"
	"testing"
)

var _ Orchestrator = (*Fake)(nil)

func TestFake_ListPodsFiltersByNamespaceAndSelector(t *testing.T) {
	fake := NewFake()
	fake.AddPod(Pod{Name: "qdrant-0", Namespace: "db", Labels: map[string]string{"app": "qdrant"}})
	fake.AddPod(Pod{Name: "qdrant-1", Namespace: "db", Labels: map[string]string{"app": "qdrant"}})
	fake.AddPod(Pod{Name: "other-0", Namespace: "db", Labels: map[string]string{"app": "other"}})
	fake.AddPod(Pod{Name: "qdrant-0", Namespace: "other-ns", Labels: map[string]string{"app": "qdrant"}})

	pods, err := fake.ListPods(context.Background(), "db", "app=qdrant")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pods) != 2 {
		t.Fatalf("expected 2 pods, got %d", len(pods))
	}
}

func TestFake_DeletePodRemovesAndRecords(t *testing.T) {
	fake := NewFake()
	fake.AddPod(Pod{Name: "qdrant-0", Namespace: "db"})

	if err := fake.DeletePod(context.Background(), "db", "qdrant-0"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := fake.GetPod(context.Background(), "db", "qdrant-0"); err == nil {
		t.Fatal("expected pod to be gone after delete")
	}
	if len(fake.DeletedPods) != 1 {
		t.Fatalf("expected 1 recorded deletion, got %d", len(fake.DeletedPods))
	}
}

func TestFake_ManageStatefulSetRecordsAction(t *testing.T) {
	fake := NewFake()
	if err := fake.ManageStatefulSet(context.Background(), "db", "qdrant", Scale, 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.ManagedActions) != 1 || fake.ManagedActions[0].Replicas != 3 {
		t.Fatalf("expected recorded scale action, got %v", fake.ManagedActions)
	}
}
