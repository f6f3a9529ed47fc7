package awssns

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Hint is shown when the SNS client cannot be established
const Hint = "Make sure AWS credentials are configured (aws configure)"

// API is the subset of the SNS client used by Publisher
type API interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	ListTopics(ctx context.Context, params *sns.ListTopicsInput, optFns ...func(*sns.Options)) (*sns.ListTopicsOutput, error)
}

// Publisher publishes messages to Amazon SNS topics
type Publisher struct {
	api API
}

// NewPublisher creates an SNS publisher for the configured region using the
// default AWS credential chain
func NewPublisher(ctx context.Context, cfg config.SNSConfig) (*Publisher, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	client := sns.NewFromConfig(awsCfg, func(o *sns.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return NewPublisherWithAPI(client), nil
}

// NewPublisherWithAPI wraps an existing SNS client
func NewPublisherWithAPI(api API) *Publisher {
	return &Publisher{api: api}
}

// Check lists topics to verify credentials and connectivity
func (p *Publisher) Check(ctx context.Context) error {
	if _, err := p.api.ListTopics(ctx, &sns.ListTopicsInput{}); err != nil {
		return publisher.NewError("sns list topics", classify(err), err)
	}
	return nil
}

// Publish sends msg to the topic ARN in msg.Topic and returns the SNS message id
func (p *Publisher) Publish(ctx context.Context, msg publisher.Message) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(msg.Topic),
		Message:  aws.String(string(msg.Body)),
	}
	if msg.Subject != "" {
		input.Subject = aws.String(msg.Subject)
	}

	out, err := p.api.Publish(ctx, input)
	if err != nil {
		return "", publisher.NewError("sns publish", classify(err), err)
	}
	return aws.ToString(out.MessageId), nil
}

// Close is a no-op; the SNS client holds no long-lived connection
func (p *Publisher) Close() error {
	return nil
}

func classify(err error) publisher.Kind {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AuthorizationError", "AccessDenied", "AccessDeniedException", "InvalidClientTokenId",
			"SignatureDoesNotMatch", "ExpiredToken", "UnrecognizedClientException", "InvalidSecurity":
			return publisher.KindAuth
		case "Throttled", "Throttling", "ThrottlingException", "KMSThrottling":
			return publisher.KindThrottled
		case "InvalidParameter", "InvalidParameterValue", "NotFound", "EndpointDisabled",
			"PlatformApplicationDisabled", "ValidationError":
			return publisher.KindRejected
		}
	}
	return publisher.ClassifyTransport(err)
}
