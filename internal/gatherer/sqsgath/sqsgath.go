package sqsgath

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/programme-lv/grader/internal/gatherer/eventgath"
	"github.com/programme-lv/grader/internal/pipeline"
)

// SendMessageAPI is the part of *sqs.Client the gatherer needs.
type SendMessageAPI interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// New sends every pipeline event as one message to queueURL. Failures are logged.
func New(ctx context.Context, client SendMessageAPI, queueURL string, log *slog.Logger) pipeline.Gatherer {
	return eventgath.New(func(msg any) {
		b, err := json.Marshal(msg)
		if err != nil {
			log.Error("failed to marshal event", "err", err)
			return
		}
		_, err = client.SendMessage(ctx, &sqs.SendMessageInput{
			QueueUrl:    aws.String(queueURL),
			MessageBody: aws.String(string(b)),
		})
		if err != nil {
			log.Warn("failed to send event to SQS", "queue", queueURL, "err", err)
		}
	})
}

// NewFromEnv builds the SQS client from the default AWS credential chain.
func NewFromEnv(ctx context.Context, region string, queueURL string, log *slog.Logger) (pipeline.Gatherer, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}
	return New(ctx, sqs.NewFromConfig(cfg), queueURL, log), nil
}
