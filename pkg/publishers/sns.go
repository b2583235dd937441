package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSAPI is the subset of the SNS client used by this publisher.
type SNSAPI interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSPublisher broadcasts each event as a JSON message to an SNS topic.
// The action and content type ride along as message attributes so
// subscribers can filter without parsing the body.
type SNSPublisher struct {
	name     string
	topicARN string
	client   SNSAPI
	log      Logger
}

func NewSNSPublisher(name, topicARN string, client SNSAPI, log Logger) *SNSPublisher {
	return &SNSPublisher{name: name, topicARN: topicARN, client: client, log: log}
}

func NewSNSPublisherFromConfig(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.TopicARN == "" {
		return nil, fmt.Errorf("sns publisher %s: topic_arn is required", cfg.Name)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSNSPublisher(cfg.Name, cfg.TopicARN, sns.NewFromConfig(awsCfg), log), nil
}

func (p *SNSPublisher) Name() string { return p.name }

func (p *SNSPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	attrs := map[string]types.MessageAttributeValue{
		"action": {
			DataType:    aws.String("String"),
			StringValue: aws.String(evt.Action),
		},
	}
	// SNS rejects empty attribute values.
	if evt.ContentType != "" {
		attrs["content_type"] = types.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(evt.ContentType),
		}
	}
	_, err = p.client.Publish(ctx, &sns.PublishInput{
		TopicArn:          aws.String(p.topicARN),
		Message:           aws.String(string(body)),
		MessageAttributes: attrs,
	})
	if err != nil {
		return fmt.Errorf("publishing to topic %s: %w", p.topicARN, err)
	}
	p.log.Debugf("published %s %s to sns topic %s", evt.Action, evt.RemoteID, p.topicARN)
	return nil
}

func (p *SNSPublisher) Close() error { return nil }
