package qdrantclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		Timeout:             2 * time.Second,
		MaxIdleConnsPerHost:  10,
		IdleConnTimeout:      2 * time.Minute,
	}
}

func TestIsAcceptedTrueForAcceptedStatus(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"status":"accepted","result":true}`)}
	if !IsAccepted(resp) {
		t.Fatalf("expected accepted response to be recognized")
	}
}

func TestIsAcceptedTrueForOkStatus(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"status":"ok","result":{}}`)}
	if !IsAccepted(resp) {
		t.Fatalf("expected ok response to be recognized")
	}
}

func TestIsAcceptedFalseForErrorStatus(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`{"status":"error","result":null}`)}
	if IsAccepted(resp) {
		t.Fatalf("expected error status to not be accepted")
	}
}

func TestIsAcceptedFalseForNon2xx(t *testing.T) {
	resp := &Response{StatusCode: http.StatusInternalServerError, Body: []byte(`{"status":"accepted"}`)}
	if IsAccepted(resp) {
		t.Fatalf("expected 5xx response to never be accepted regardless of body")
	}
}

func TestIsAcceptedFalseForNilResponse(t *testing.T) {
	if IsAccepted(nil) {
		t.Fatalf("expected nil response to not be accepted")
	}
}

func TestIsAcceptedFalseForMalformedBody(t *testing.T) {
	resp := &Response{StatusCode: http.StatusOK, Body: []byte(`not json`)}
	if IsAccepted(resp) {
		t.Fatalf("expected malformed body to not be accepted")
	}
}

func TestClientDoSetsApiKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("api-key")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.ApiKey = "secret-token"
	client := NewClient(cfg, nil)

	resp, err := client.do(context.Background(), http.MethodGet, srv.URL+"/cluster", nil, "cluster")
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if gotKey != "secret-token" {
		t.Fatalf("expected api-key header to be set, got %q", gotKey)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestClientDoNetworkErrorReturnsError(t *testing.T) {
	client := NewClient(testConfig(), nil)
	_, err := client.do(context.Background(), http.MethodGet, "http://127.0.0.1:0/cluster", nil, "cluster")
	if err == nil {
		t.Fatalf("expected error connecting to an unroutable address")
	}
}

func TestOutcomeForClassifiesStatusCodes(t *testing.T) {
	cases := map[int]string{
		200: "success",
		201: "success",
		404: "client_error",
		499: "client_error",
		500: "server_error",
		503: "server_error",
	}
	for status, want := range cases {
		if got := outcomeFor(status); got != want {
			t.Errorf("outcomeFor(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestIsSuccessStatus(t *testing.T) {
	if !isSuccessStatus(200) || !isSuccessStatus(299) {
		t.Fatalf("expected 2xx range to be success")
	}
	if isSuccessStatus(300) || isSuccessStatus(199) || isSuccessStatus(404) {
		t.Fatalf("expected non-2xx to not be success")
	}
}
