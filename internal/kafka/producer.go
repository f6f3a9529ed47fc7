package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shopify/sarama"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Hint is shown when the Kafka producer cannot be established
const Hint = "Check KAFKA_BROKERS and that the topic exists"

// SubjectHeader carries the message subject
const SubjectHeader = "subject"

// metadataClient is the subset of sarama.Client used for the pre-flight check
type metadataClient interface {
	RefreshMetadata(topics ...string) error
	Partitions(topic string) ([]int32, error)
	Close() error
}

// Producer represents a synchronous Kafka producer
type Producer struct {
	topic    string
	client   metadataClient
	producer sarama.SyncProducer
}

// NewProducer creates a new Kafka producer for topic
func NewProducer(cfg config.KafkaConfig, topic string) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.ClientID = cfg.ClientID
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	// Failed sends are reported, never retried
	saramaConfig.Producer.Retry.Max = 0
	saramaConfig.Producer.Timeout = cfg.Timeout
	saramaConfig.Net.DialTimeout = cfg.Timeout
	saramaConfig.Net.ReadTimeout = cfg.Timeout
	saramaConfig.Net.WriteTimeout = cfg.Timeout
	saramaConfig.Metadata.Retry.Max = 1

	client, err := sarama.NewClient(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, publisher.NewError("kafka client", classify(err), err)
	}

	producer, err := sarama.NewSyncProducerFromClient(client)
	if err != nil {
		client.Close()
		return nil, publisher.NewError("kafka producer", classify(err), err)
	}

	return newProducer(topic, client, producer), nil
}

func newProducer(topic string, client metadataClient, producer sarama.SyncProducer) *Producer {
	return &Producer{
		topic:    topic,
		client:   client,
		producer: producer,
	}
}

// Check refreshes metadata for the target topic and verifies it has partitions
func (p *Producer) Check(_ context.Context) error {
	if err := p.client.RefreshMetadata(p.topic); err != nil {
		return publisher.NewError("kafka metadata", classify(err), err)
	}
	partitions, err := p.client.Partitions(p.topic)
	if err != nil {
		return publisher.NewError("kafka metadata", classify(err), err)
	}
	if len(partitions) == 0 {
		return publisher.NewError("kafka metadata", publisher.KindRejected, fmt.Errorf("topic %q has no partitions", p.topic))
	}
	return nil
}

// Publish sends msg and returns "topic/partition/offset" as its id.
// sarama's sync producer has no per-call context; ctx is checked up front.
func (p *Producer) Publish(ctx context.Context, msg publisher.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", publisher.NewError("kafka publish", publisher.ClassifyTransport(err), err)
	}

	topic := msg.Topic
	if topic == "" {
		topic = p.topic
	}
	pm := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(msg.Body),
	}
	if msg.Key != "" {
		pm.Key = sarama.StringEncoder(msg.Key)
	}
	if msg.Subject != "" {
		pm.Headers = []sarama.RecordHeader{{Key: []byte(SubjectHeader), Value: []byte(msg.Subject)}}
	}

	partition, offset, err := p.producer.SendMessage(pm)
	if err != nil {
		return "", publisher.NewError("kafka publish", classify(err), err)
	}
	return fmt.Sprintf("%s/%d/%d", topic, partition, offset), nil
}

// Close closes the producer and its client
func (p *Producer) Close() error {
	err := p.producer.Close()
	if cerr := p.client.Close(); cerr != nil && !errors.Is(cerr, sarama.ErrClosedClient) && err == nil {
		err = cerr
	}
	return err
}

func classify(err error) publisher.Kind {
	var kerr sarama.KError
	if errors.As(err, &kerr) {
		switch kerr {
		case sarama.ErrTopicAuthorizationFailed, sarama.ErrClusterAuthorizationFailed,
			sarama.ErrGroupAuthorizationFailed, sarama.ErrSASLAuthenticationFailed:
			return publisher.KindAuth
		case sarama.ErrRequestTimedOut:
			return publisher.KindTimeout
		case sarama.ErrMessageSizeTooLarge, sarama.ErrInvalidMessage, sarama.ErrUnknownTopicOrPartition,
			sarama.ErrInvalidTopic, sarama.ErrMessageSetSizeTooLarge:
			return publisher.KindRejected
		case sarama.ErrNotEnoughReplicas, sarama.ErrNotEnoughReplicasAfterAppend,
			sarama.ErrLeaderNotAvailable, sarama.ErrNotLeaderForPartition:
			return publisher.KindNetwork
		}
		return publisher.KindUnknown
	}
	switch {
	case errors.Is(err, sarama.ErrOutOfBrokers), errors.Is(err, sarama.ErrNotConnected),
		errors.Is(err, sarama.ErrClosedClient):
		return publisher.KindNetwork
	}
	return publisher.ClassifyTransport(err)
}
