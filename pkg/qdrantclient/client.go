// Package qdrantclient is a plain net/http client for the vector-database
// node API: cluster info, collection topology, and snapshot listing.
package qdrantclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Config tunes the shared HTTP transport. There is no process-global
// client: every caller constructs its own with the dependencies it
// needs, configured once at construction.
type Config struct {
	Timeout                time.Duration
	MaxIdleConnsPerHost    int
	IdleConnTimeout        time.Duration
	ApiKey                 string
}

// Client talks to one or more Qdrant node HTTP APIs.
type Client struct {
	httpClient *http.Client
	apiKey     string
	calls      *prometheus.CounterVec
}

// NewClient builds a Client with a tuned connection pool. Passing a nil
// registerer skips metrics registration (useful in tests).
func NewClient(cfg Config, registerer prometheus.Registerer) *Client {
	transport := &http.Transport{
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}

	calls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigilante_qdrant_requests_total",
		Help: "Outbound requests to Qdrant node APIs by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})
	if registerer != nil {
		registerer.MustRegister(calls)
	}

	return &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		apiKey:     cfg.ApiKey,
		calls:      calls,
	}
}

// Response is the outcome of one HTTP round trip against a node.
type Response struct {
	StatusCode int
	Body       []byte
}

func (c *Client) do(ctx context.Context, method, url string, body io.Reader, endpoint string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		c.record(endpoint, "error")
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("api-key", c.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.record(endpoint, "error")
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.record(endpoint, "error")
		return nil, fmt.Errorf("read response body: %w", err)
	}

	c.record(endpoint, outcomeFor(resp.StatusCode))
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}

func (c *Client) record(endpoint, outcome string) {
	if c.calls == nil {
		return
	}
	c.calls.WithLabelValues(endpoint, outcome).Inc()
}

func outcomeFor(status int) string {
	switch {
	case status >= 200 && status < 300:
		return "success"
	case status >= 400 && status < 500:
		return "client_error"
	default:
		return "server_error"
	}
}

// isSuccessStatus classifies a response per spec: 2xx with
// status="accepted" counts as success (async ops); 5xx and network
// errors are failures; 4xx are failures except where the caller treats
// a specific code as benign (e.g. 404 on idempotent delete).
func isSuccessStatus(status int) bool {
	return status >= 200 && status < 300
}

type apiEnvelope struct {
	Status json.RawMessage `json:"status"`
	Result json.RawMessage `json:"result"`
}

// IsAccepted reports whether a 2xx response body carries
// status="accepted" or status="ok", the database's marker for an
// async operation that has been queued.
func IsAccepted(resp *Response) bool {
	if resp == nil || !isSuccessStatus(resp.StatusCode) {
		return false
	}
	var env apiEnvelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return false
	}
	var status string
	if err := json.Unmarshal(env.Status, &status); err != nil {
		return false
	}
	return status == "accepted" || status == "ok"
}
