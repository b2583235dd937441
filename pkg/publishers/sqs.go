package publishers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSAPI is the subset of the SQS client used by this publisher.
// It exists so tests can substitute a fake.
type SQSAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SQSPublisher sends each event as a JSON message to an SQS queue.
type SQSPublisher struct {
	name     string
	queueURL string
	client   SQSAPI
	log      Logger
}

func NewSQSPublisher(name, queueURL string, client SQSAPI, log Logger) *SQSPublisher {
	return &SQSPublisher{name: name, queueURL: queueURL, client: client, log: log}
}

func NewSQSPublisherFromConfig(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("sqs publisher %s: queue_url is required", cfg.Name)
	}
	awsCfg, err := loadAWSConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return NewSQSPublisher(cfg.Name, cfg.QueueURL, sqs.NewFromConfig(awsCfg), log), nil
}

func (p *SQSPublisher) Name() string { return p.name }

func (p *SQSPublisher) Publish(ctx context.Context, evt Event) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sending to queue %s: %w", p.queueURL, err)
	}
	p.log.Debugf("published %s %s to sqs queue %s", evt.Action, evt.RemoteID, p.queueURL)
	return nil
}

func (p *SQSPublisher) Close() error { return nil }
