package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// PubSubSender abstracts topic publishing so tests can substitute a fake.
type PubSubSender interface {
	Send(ctx context.Context, data []byte, attrs map[string]string) (string, error)
	Stop()
}

type topicSender struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

func (s *topicSender) Send(ctx context.Context, data []byte, attrs map[string]string) (string, error) {
	result := s.topic.Publish(ctx, &pubsub.Message{Data: data, Attributes: attrs})
	return result.Get(ctx)
}

func (s *topicSender) Stop() {
	s.topic.Stop()
	_ = s.client.Close()
}

// PubSubPublisher sends each event as a JSON message to a Google Cloud
// Pub/Sub topic.
type PubSubPublisher struct {
	name   string
	topic  string
	sender PubSubSender
	log    Logger
}

func NewPubSubPublisher(name, topic string, sender PubSubSender, log Logger) *PubSubPublisher {
	return &PubSubPublisher{name: name, topic: topic, sender: sender, log: log}
}

func NewPubSubPublisherFromConfig(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.ProjectID == "" || cfg.TopicID == "" {
		return nil, fmt.Errorf("pubsub publisher %s: project_id and topic_id are required", cfg.Name)
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := pubsub.NewClient(ctx, cfg.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}
	sender := &topicSender{client: client, topic: client.Topic(cfg.TopicID)}
	return NewPubSubPublisher(cfg.Name, cfg.TopicID, sender, log), nil
}

func (p *PubSubPublisher) Name() string { return p.name }

func (p *PubSubPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	id, err := p.sender.Send(ctx, body, map[string]string{
		"action":       evt.Action,
		"content_type": evt.ContentType,
	})
	if err != nil {
		return fmt.Errorf("publishing to topic %s: %w", p.topic, err)
	}
	p.log.Debugf("published %s %s to pubsub topic %s as %s", evt.Action, evt.RemoteID, p.topic, id)
	return nil
}

func (p *PubSubPublisher) Close() error {
	p.sender.Stop()
	return nil
}
