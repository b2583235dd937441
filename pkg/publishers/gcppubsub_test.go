package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeSender struct {
	data    [][]byte
	attrs   []map[string]string
	stopped bool
	err     error
}

func (f *fakeSender) Send(_ context.Context, data []byte, attrs map[string]string) (string, error) {
	f.data = append(f.data, data)
	f.attrs = append(f.attrs, attrs)
	return "msg-1", f.err
}

func (f *fakeSender) Stop() { f.stopped = true }

func TestPubSubPublisherSendsJSONWithAttributes(t *testing.T) {
	fake := &fakeSender{}
	pub := NewPubSubPublisher("content", "content-sync", fake, NopLogger{})

	evt := NewEvent("campus-events", "640", "55", "event", ActionCreated)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.data) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.data))
	}
	var decoded Event
	if err := json.Unmarshal(fake.data[0], &decoded); err != nil {
		t.Fatalf("unmarshal message: %v", err)
	}
	if decoded.ImporterID != "campus-events" || decoded.FeedID != "640" {
		t.Fatalf("unexpected event in message: %+v", decoded)
	}
	if fake.attrs[0]["action"] != ActionCreated {
		t.Fatalf("unexpected action attribute %q", fake.attrs[0]["action"])
	}
}

func TestPubSubPublisherCloseStopsSender(t *testing.T) {
	fake := &fakeSender{}
	pub := NewPubSubPublisher("content", "content-sync", fake, NopLogger{})
	if err := pub.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !fake.stopped {
		t.Fatalf("expected sender to be stopped")
	}
}

func TestPubSubPublisherSendError(t *testing.T) {
	pub := NewPubSubPublisher("content", "content-sync", &fakeSender{err: errors.New("boom")}, NopLogger{})
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected send error")
	}
}

func TestPubSubFromConfigRequiresProjectAndTopic(t *testing.T) {
	_, err := NewPubSubPublisherFromConfig(context.Background(), PublisherConfig{Name: "p"}, NopLogger{})
	if err == nil {
		t.Fatalf("expected error for missing project and topic")
	}
}
