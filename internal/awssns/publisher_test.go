package awssns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

type fakeAPI struct {
	published  []*sns.PublishInput
	publishErr error
	listErr    error
}

func (f *fakeAPI) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.publishErr != nil {
		return nil, f.publishErr
	}
	f.published = append(f.published, params)
	return &sns.PublishOutput{MessageId: aws.String("8f1c2d3e-0000-4000-8000-000000000001")}, nil
}

func (f *fakeAPI) ListTopics(context.Context, *sns.ListTopicsInput, ...func(*sns.Options)) (*sns.ListTopicsOutput, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return &sns.ListTopicsOutput{}, nil
}

func TestPublish(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisherWithAPI(api)

	id, err := p.Publish(context.Background(), publisher.Message{
		Topic:   "arn:aws:sns:us-east-2:000000000000:iot-sensor-data",
		Key:     "sensor-001",
		Subject: "Sensor Data from sensor-001",
		Body:    []byte(`{"sensor_id":"sensor-001"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, "8f1c2d3e-0000-4000-8000-000000000001", id)

	require.Len(t, api.published, 1)
	in := api.published[0]
	assert.Equal(t, "arn:aws:sns:us-east-2:000000000000:iot-sensor-data", aws.ToString(in.TopicArn))
	assert.Equal(t, `{"sensor_id":"sensor-001"}`, aws.ToString(in.Message))
	assert.Equal(t, "Sensor Data from sensor-001", aws.ToString(in.Subject))
}

func TestPublishClassifiesErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want publisher.Kind
	}{
		{name: "auth", err: &smithy.GenericAPIError{Code: "AuthorizationError", Message: "not authorized"}, want: publisher.KindAuth},
		{name: "throttle", err: &smithy.GenericAPIError{Code: "Throttled", Message: "rate exceeded"}, want: publisher.KindThrottled},
		{name: "rejected", err: &smithy.GenericAPIError{Code: "NotFound", Message: "topic does not exist"}, want: publisher.KindRejected},
		{name: "deadline", err: context.DeadlineExceeded, want: publisher.KindTimeout},
		{name: "unknown", err: errors.New("boom"), want: publisher.KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPublisherWithAPI(&fakeAPI{publishErr: tc.err})
			_, err := p.Publish(context.Background(), publisher.Message{Topic: "arn", Body: []byte("{}")})
			require.Error(t, err)
			assert.Equal(t, tc.want, publisher.KindOf(err))
			assert.ErrorIs(t, err, tc.err)
		})
	}
}

func TestCheck(t *testing.T) {
	assert.NoError(t, NewPublisherWithAPI(&fakeAPI{}).Check(context.Background()))

	err := NewPublisherWithAPI(&fakeAPI{listErr: &smithy.GenericAPIError{Code: "InvalidClientTokenId"}}).Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, publisher.KindAuth, publisher.KindOf(err))
}
