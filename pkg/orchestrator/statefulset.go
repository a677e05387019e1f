package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
)

const restartedAtAnnotation = "vigilante.aer.io/restartedAt"

// ManageStatefulSet dispatches to Rollout (annotate the pod template to
// trigger a rolling restart) or Scale (patch .spec.replicas via the
// least-privilege scale subresource).
func (c *Client) ManageStatefulSet(ctx context.Context, namespace, name string, op StatefulSetOp, replicas int32) error {
	switch op {
	case Rollout:
		return c.rolloutRestart(ctx, namespace, name)
	case Scale:
		return c.scale(ctx, namespace, name, replicas)
	default:
		return fmt.Errorf("unknown statefulset operation: %v", op)
	}
}

func (c *Client) rolloutRestart(ctx context.Context, namespace, name string) error {
	patch := map[string]any{
		"spec": map[string]any{
			"template": map[string]any{
				"metadata": map[string]any{
					"annotations": map[string]string{
						restartedAtAnnotation: time.Now().UTC().Format(time.RFC3339),
					},
				},
			},
		},
	}
	payload, err := json.Marshal(patch)
	if err != nil {
		return fmt.Errorf("marshal rollout patch: %w", err)
	}

	_, err = c.clientset.AppsV1().StatefulSets(namespace).Patch(
		ctx, name, types.StrategicMergePatchType, payload, metav1.PatchOptions{},
	)
	if err != nil {
		return fmt.Errorf("rollout statefulset %s/%s: %w", namespace, name, err)
	}
	return nil
}

func (c *Client) scale(ctx context.Context, namespace, name string, replicas int32) error {
	if replicas < 0 {
		return fmt.Errorf("replicas must be >= 0, got %d", replicas)
	}

	statefulSets := c.clientset.AppsV1().StatefulSets(namespace)

	current, err := statefulSets.GetScale(ctx, name, metav1.GetOptions{})
	if err != nil {
		return fmt.Errorf("get scale for statefulset %s/%s: %w", namespace, name, err)
	}

	current.Spec.Replicas = replicas

	if _, err := statefulSets.UpdateScale(ctx, name, current, metav1.UpdateOptions{}); err != nil {
		return fmt.Errorf("scale statefulset %s/%s to %d replicas: %w", namespace, name, replicas, err)
	}
	return nil
}
