package publishers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

type fakeSQS struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSQS) SendMessage(_ context.Context, params *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, params)
	return &sqs.SendMessageOutput{}, f.err
}

func TestSQSPublisherSendsJSON(t *testing.T) {
	fake := &fakeSQS{}
	pub := NewSQSPublisher("queue", "https://sqs/q", fake, NopLogger{})

	evt := NewEvent("campus-news", "621", "77", "event", ActionUpdated)
	if err := pub.Publish(context.Background(), evt); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if len(fake.inputs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(fake.inputs))
	}
	if got := *fake.inputs[0].QueueUrl; got != "https://sqs/q" {
		t.Fatalf("unexpected queue url %q", got)
	}
	var decoded Event
	if err := json.Unmarshal([]byte(*fake.inputs[0].MessageBody), &decoded); err != nil {
		t.Fatalf("unmarshal message body: %v", err)
	}
	if decoded.RemoteID != "77" || decoded.Action != ActionUpdated {
		t.Fatalf("unexpected event in message: %+v", decoded)
	}
}

func TestSQSPublisherSendError(t *testing.T) {
	pub := NewSQSPublisher("queue", "https://sqs/q", &fakeSQS{err: errors.New("boom")}, NopLogger{})
	if err := pub.Publish(context.Background(), Event{}); err == nil {
		t.Fatalf("expected send error")
	}
}
