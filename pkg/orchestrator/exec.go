package orchestrator

import (
	"context"
	"fmt"
	"io"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
)

// Exec streams a command's stdout/stderr from a running pod container.
// Unlike a buffered exec helper, this never holds the full output in
// memory: callers read Stdout/Stderr as the command produces output,
// which is required for byte-exact disk-fallback snapshot downloads.
func (c *Client) Exec(ctx context.Context, req ExecRequest) (ExecStream, error) {
	pod, err := c.clientset.CoreV1().Pods(req.Namespace).Get(ctx, req.PodName, metav1.GetOptions{})
	if err != nil {
		return ExecStream{}, fmt.Errorf("get pod %s/%s: %w", req.Namespace, req.PodName, err)
	}

	container := req.Container
	if container == "" {
		if len(pod.Spec.Containers) == 0 {
			return ExecStream{}, fmt.Errorf("pod %s/%s has no containers", req.Namespace, req.PodName)
		}
		container = pod.Spec.Containers[0].Name
	}

	execReq := c.clientset.CoreV1().RESTClient().
		Post().
		Resource("pods").
		Name(req.PodName).
		Namespace(req.Namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: container,
			Command:   req.Command,
			Stdin:     req.Stdin != nil,
			Stdout:    true,
			Stderr:    true,
			TTY:       false,
		}, scheme.ParameterCodec)

	executor, err := remotecommand.NewSPDYExecutor(c.config, "POST", execReq.URL())
	if err != nil {
		return ExecStream{}, fmt.Errorf("create executor: %w", err)
	}

	stdoutReader, stdoutWriter := io.Pipe()
	stderrReader, stderrWriter := io.Pipe()

	done := make(chan error, 1)
	go func() {
		streamErr := executor.StreamWithContext(ctx, remotecommand.StreamOptions{
			Stdin:  req.Stdin,
			Stdout: stdoutWriter,
			Stderr: stderrWriter,
		})
		stdoutWriter.CloseWithError(streamErr)
		stderrWriter.CloseWithError(streamErr)
		done <- streamErr
	}()

	return ExecStream{
		Stdout: stdoutReader,
		Stderr: stderrReader,
		Wait: func() error {
			if err := <-done; err != nil {
				return fmt.Errorf("exec in pod %s/%s: %w", req.Namespace, req.PodName, err)
			}
			return nil
		},
	}, nil
}
