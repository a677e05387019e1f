package orchestrator

import (
	"context"
	"fmt"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ListPods returns pods matching a label selector in a namespace,
// whatever their phase, with their owning StatefulSet name resolved via the
// owner-reference chain. Non-Running pods are excluded by the caller
// (the node registry), not here: this layer reports actual pod phase.
func (c *Client) ListPods(ctx context.Context, namespace, labelSelector string) ([]Pod, error) {
	podList, err := c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{
		LabelSelector: labelSelector,
	})
	if err != nil {
		return nil, fmt.Errorf("list pods in namespace %s: %w", namespace, err)
	}

	pods := make([]Pod, 0, len(podList.Items))
	for i := range podList.Items {
		pods = append(pods, c.toPod(ctx, &podList.Items[i]))
	}
	return pods, nil
}

// GetPod fetches a single pod by namespace and name.
func (c *Client) GetPod(ctx context.Context, namespace, name string) (Pod, error) {
	pod, err := c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	if err != nil {
		return Pod{}, fmt.Errorf("get pod %s/%s: %w", namespace, name, err)
	}
	return c.toPod(ctx, pod), nil
}

// DeletePod deletes a pod with no grace-period override; the owning
// stateful-set controller is responsible for recreating it.
func (c *Client) DeletePod(ctx context.Context, namespace, name string) error {
	err := c.clientset.CoreV1().Pods(namespace).Delete(ctx, name, metav1.DeleteOptions{})
	if err != nil {
		return fmt.Errorf("delete pod %s/%s: %w", namespace, name, err)
	}
	return nil
}

func (c *Client) toPod(ctx context.Context, pod *corev1.Pod) Pod {
	result := Pod{
		Name:      pod.Name,
		Namespace: pod.Namespace,
		IP:        pod.Status.PodIP,
		Phase:     string(pod.Status.Phase),
		Labels:    pod.Labels,
	}
	if name, ok := c.resolveStatefulSetOwner(ctx, pod); ok {
		result.StatefulSetName = name
	}
	return result
}

// resolveStatefulSetOwner walks the pod's controller owner reference,
// looking for a direct StatefulSet owner. Pods in a StatefulSet are
// owned directly by it (unlike Deployment pods, which go through a
// ReplicaSet), so a single-hop lookup is sufficient.
func (c *Client) resolveStatefulSetOwner(_ context.Context, pod *corev1.Pod) (string, bool) {
	for _, ref := range pod.OwnerReferences {
		if ref.Controller == nil || !*ref.Controller {
			continue
		}
		if ref.Kind == "StatefulSet" {
			return ref.Name, true
		}
	}
	return "", false
}
