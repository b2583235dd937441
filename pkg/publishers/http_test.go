package publishers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHTTPPublisherPostsEvent(t *testing.T) {
	var got Event
	var header string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Api-Key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("unmarshal request body: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	pub := NewHTTPPublisher("hook", server.URL, map[string]string{"X-Api-Key": "secret"}, NopLogger{})
	evt := NewEvent("campus-news", "621", "1234", "news", ActionCreated)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got.RemoteID != "1234" || got.Action != ActionCreated {
		t.Fatalf("unexpected event delivered: %+v", got)
	}
	if header != "secret" {
		t.Fatalf("expected custom header to be sent, got %q", header)
	}
}

func TestHTTPPublisherErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	pub := NewHTTPPublisher("hook", server.URL, nil, NopLogger{})
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected error for 502 response")
	}
}

func TestHTTPPublisherFromConfigRequiresEndpoint(t *testing.T) {
	_, err := NewHTTPPublisherFromConfig(context.Background(), PublisherConfig{Name: "hook"}, NopLogger{})
	if err == nil {
		t.Fatalf("expected error for missing endpoint")
	}
}
