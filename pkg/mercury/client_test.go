package mercury

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ocmweb/mercury-sync/pkg/httpclient"
)

func newTestClient(t *testing.T, handler http.Handler) (*HTTPClient, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewHTTPClientWith(server.URL, httpclient.NewRestyClient(5*time.Second))
	return client, server
}

func TestItemListHitsFeedEndpoint(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[1234, 5678]`))
	}))

	ids, err := client.ItemList(context.Background(), "621")
	if err != nil {
		t.Fatalf("ItemList: %v", err)
	}
	if path != "/ajax/hg/621/list" {
		t.Fatalf("unexpected path %q", path)
	}
	if len(ids) != 2 || ids[0] != "1234" || ids[1] != "5678" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestItemListAcceptsStringIDs(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`["10", "20"]`))
	}))

	ids, err := client.ItemList(context.Background(), "7")
	if err != nil {
		t.Fatalf("ItemList: %v", err)
	}
	if len(ids) != 2 || ids[0] != "10" {
		t.Fatalf("unexpected ids %v", ids)
	}
}

func TestDeletedListDecodesTypeMap(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`{"100": "news", "200": "event"}`))
	}))

	deleted, err := client.DeletedList(context.Background())
	if err != nil {
		t.Fatalf("DeletedList: %v", err)
	}
	if path != "/deltracker/json" {
		t.Fatalf("unexpected path %q", path)
	}
	if deleted["100"] != "news" || deleted["200"] != "event" {
		t.Fatalf("unexpected map %v", deleted)
	}
}

func TestUpdatedListEncodesUnixStamp(t *testing.T) {
	var path string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.Write([]byte(`[42]`))
	}))

	since := time.Unix(1700000000, 0)
	if _, err := client.UpdatedList(context.Background(), since); err != nil {
		t.Fatalf("UpdatedList: %v", err)
	}
	if path != "/uptracker/json/1700000000" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestPullEndpointsPerKind(t *testing.T) {
	var paths []string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`payload`))
	}))

	ctx := context.Background()
	cases := []struct {
		kind   Kind
		option string
		want   string
	}{
		{KindItem, "", "/xml/55"},
		{KindFeed, "", "/xml/55"},
		{KindFile, "", "/hgfile/55"},
		{KindImage, "standard", "/hgimage/55/standard"},
	}
	for i, tc := range cases {
		if _, err := client.Pull(ctx, "55", tc.kind, tc.option); err != nil {
			t.Fatalf("Pull %s: %v", tc.kind, err)
		}
		if paths[i] != tc.want {
			t.Fatalf("kind %s: expected path %q, got %q", tc.kind, tc.want, paths[i])
		}
	}
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		want   Outcome
	}{
		{http.StatusNotFound, "x", OutcomeNotFound},
		{http.StatusForbidden, "x", OutcomeForbidden},
		{http.StatusTemporaryRedirect, "x", OutcomeUnpublished},
		{http.StatusServiceUnavailable, "x", OutcomeUpstreamUnavailable},
		{http.StatusOK, "", OutcomeEmptyResponse},
		{http.StatusInternalServerError, "x", OutcomeTransportError},
	}

	for _, tc := range cases {
		client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			w.Write([]byte(tc.body))
		}))

		_, err := client.Pull(context.Background(), "9", KindItem, "")
		if err == nil {
			t.Fatalf("status %d: expected error", tc.status)
		}
		if got := OutcomeOf(err); got != tc.want {
			t.Fatalf("status %d: expected outcome %s, got %s", tc.status, tc.want, got)
		}
	}
}

func TestTimeoutClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	client := NewHTTPClientWith(server.URL, httpclient.NewRestyClient(20*time.Millisecond))
	_, err := client.Pull(context.Background(), "9", KindItem, "")
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if got := OutcomeOf(err); got != OutcomeTimeout {
		t.Fatalf("expected timeout outcome, got %s", got)
	}

	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError in chain")
	}
	if fe.Kind != KindItem || fe.ID != "9" {
		t.Fatalf("unexpected fetch error context: %+v", fe)
	}
}
