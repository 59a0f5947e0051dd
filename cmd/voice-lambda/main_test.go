package main

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

func proxyEvent(method, path, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method: method,
				Path:   path,
			},
		},
	}
}

func TestHandleHealth(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	resp, err := handle(context.Background(), cfg, client, proxyEvent(http.MethodGet, "/health", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "ok" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleRejectsNonPost(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	resp, err := handle(context.Background(), cfg, client, proxyEvent(http.MethodGet, "/webhooks/vapi", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected status %d, got %d", http.StatusMethodNotAllowed, resp.StatusCode)
	}
}

func TestHandleRejectsUnknownPath(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	resp, err := handle(context.Background(), cfg, client, proxyEvent(http.MethodPost, "/webhooks/unknown", ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}
}

func TestHandleInvalidBase64Body(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.com", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := proxyEvent(http.MethodPost, "/webhooks/retell", "not-base64")
	evt.IsBase64Encoded = true

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest || resp.Body != "invalid body" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestHandleForwardsWebhook(t *testing.T) {
	type captured struct {
		method  string
		path    string
		query   string
		headers http.Header
		body    string
	}
	var got captured

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		got = captured{
			method:  r.Method,
			path:    r.URL.Path,
			query:   r.URL.RawQuery,
			headers: r.Header.Clone(),
			body:    string(body),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer upstream.Close()

	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}

	evt := proxyEvent(http.MethodPost, "/webhooks/vapi", `{"message":{"type":"status-update"}}`)
	evt.RawQueryString = "clinic_id=clinic-1"
	evt.Headers = map[string]string{
		"Content-Type":     "application/json",
		"X-Vapi-Signature": "sig-123",
	}

	resp, err := handle(context.Background(), cfg, client, evt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if resp.Body != `{"results":[]}` {
		t.Fatalf("unexpected body %q", resp.Body)
	}
	if got.method != http.MethodPost || got.path != "/webhooks/vapi" {
		t.Fatalf("unexpected upstream request %+v", got)
	}
	if got.query != "clinic_id=clinic-1" {
		t.Fatalf("query not forwarded: %q", got.query)
	}
	if got.headers.Get("X-Vapi-Signature") != "sig-123" {
		t.Fatalf("signature header not forwarded: %v", got.headers)
	}
	if got.body != `{"message":{"type":"status-update"}}` {
		t.Fatalf("body not forwarded: %q", got.body)
	}
}
