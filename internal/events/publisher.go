package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"go.uber.org/zap"

	"github.com/tokenforge/tokenforge-api/internal/logger"
)

// DeploymentEvent is published whenever a token deployment reaches a terminal state.
type DeploymentEvent struct {
	DeploymentID string    `json:"deployment_id"`
	UserID       string    `json:"user_id"`
	Network      string    `json:"network"`
	Status       string    `json:"status"`
	TokenAddress string    `json:"token_address,omitempty"`
	TxHash       string    `json:"tx_hash,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers deployment events to downstream consumers.
type Publisher interface {
	PublishDeploymentEvent(ctx context.Context, event DeploymentEvent) error
}

// SQSPublisher sends deployment events to an SQS queue.
type SQSPublisher struct {
	client   *sqs.Client
	queueURL string
}

// NewSQSPublisher creates a publisher bound to the given queue URL using the
// default AWS configuration chain.
func NewSQSPublisher(ctx context.Context, queueURL string) (*SQSPublisher, error) {
	if queueURL == "" {
		return nil, fmt.Errorf("SQS queue URL is required")
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &SQSPublisher{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
	}, nil
}

// PublishDeploymentEvent serializes the event and sends it to the queue.
func (p *SQSPublisher) PublishDeploymentEvent(ctx context.Context, event DeploymentEvent) error {
	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal deployment event: %w", err)
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(eventBytes)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"Status": {
				StringValue: aws.String(event.Status),
				DataType:    aws.String("String"),
			},
			"Network": {
				StringValue: aws.String(event.Network),
				DataType:    aws.String("String"),
			},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to send message to SQS: %w", err)
	}

	logger.Debug("Published deployment event",
		zap.String("deployment_id", event.DeploymentID),
		zap.String("status", event.Status),
	)
	return nil
}

// NoopPublisher drops events. Used when no queue is configured (local runs).
type NoopPublisher struct{}

func (NoopPublisher) PublishDeploymentEvent(ctx context.Context, event DeploymentEvent) error {
	logger.Debug("Deployment event publishing disabled, dropping event",
		zap.String("deployment_id", event.DeploymentID),
		zap.String("status", event.Status),
	)
	return nil
}
