package publishers

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sns"
)

type fakeSNS struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSNS) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sns.PublishOutput{}, f.err
}

func TestSNSPublisherSetsAttributes(t *testing.T) {
	fake := &fakeSNS{}
	pub := NewSNSPublisher("topic", "arn:aws:sns:::content", fake, NopLogger{})

	evt := NewEvent("campus-news", "", "9", "news", ActionDeleted)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(fake.inputs))
	}
	attrs := fake.inputs[0].MessageAttributes
	if got := *attrs["action"].StringValue; got != ActionDeleted {
		t.Fatalf("unexpected action attribute %q", got)
	}
	if got := *attrs["content_type"].StringValue; got != "news" {
		t.Fatalf("unexpected content_type attribute %q", got)
	}
}

func TestSNSPublisherOmitsEmptyContentType(t *testing.T) {
	fake := &fakeSNS{}
	pub := NewSNSPublisher("topic", "arn:aws:sns:::content", fake, NopLogger{})

	if err := pub.Publish(context.Background(), Event{Action: ActionCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, ok := fake.inputs[0].MessageAttributes["content_type"]; ok {
		t.Fatalf("expected empty content_type attribute to be omitted")
	}
}

func TestSNSPublisherError(t *testing.T) {
	pub := NewSNSPublisher("topic", "arn", &fakeSNS{err: errors.New("boom")}, NopLogger{})
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected publish error")
	}
}
