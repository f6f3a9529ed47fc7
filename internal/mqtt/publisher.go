package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/google/uuid"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Hint is shown when the broker connection cannot be established
const Hint = "Check MQTT_BROKER and the broker credentials"

// client is the subset of paho.Client used by Publisher
type client interface {
	Connect() paho.Token
	IsConnected() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher publishes messages to an MQTT broker. MQTT 3.1.1 has no message
// headers, so the subject is not transmitted and the correlation id is
// generated locally.
type Publisher struct {
	client   client
	qos      byte
	retained bool
	timeout  time.Duration
	newID    func() string
}

// NewPublisher creates a publisher for the configured broker. The connection
// is opened by Check.
func NewPublisher(cfg config.MQTTConfig) *Publisher {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetAutoReconnect(false)

	return newPublisher(paho.NewClient(opts), cfg)
}

func newPublisher(c client, cfg config.MQTTConfig) *Publisher {
	return &Publisher{
		client:   c,
		qos:      byte(cfg.QoS),
		retained: cfg.Retained,
		timeout:  cfg.ConnectTimeout,
		newID:    uuid.NewString,
	}
}

// Check connects to the broker
func (p *Publisher) Check(ctx context.Context) error {
	if p.client.IsConnected() {
		return nil
	}
	if err := wait(ctx, p.client.Connect()); err != nil {
		return publisher.NewError("mqtt connect", classify(err), err)
	}
	return nil
}

// Publish sends msg.Body to msg.Topic and returns a generated correlation id
func (p *Publisher) Publish(ctx context.Context, msg publisher.Message) (string, error) {
	if !p.client.IsConnected() {
		return "", publisher.NewError("mqtt publish", publisher.KindNetwork, paho.ErrNotConnected)
	}
	if err := wait(ctx, p.client.Publish(msg.Topic, p.qos, p.retained, msg.Body)); err != nil {
		return "", publisher.NewError("mqtt publish", classify(err), err)
	}
	return p.newID(), nil
}

// Close disconnects from the broker
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
	return nil
}

func wait(ctx context.Context, token paho.Token) error {
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return fmt.Errorf("waiting for broker: %w", ctx.Err())
	}
}

func classify(err error) publisher.Kind {
	switch {
	case errors.Is(err, packets.ErrorRefusedNotAuthorised), errors.Is(err, packets.ErrorRefusedBadUsernameOrPassword),
		errors.Is(err, packets.ErrorRefusedIDRejected):
		return publisher.KindAuth
	case errors.Is(err, packets.ErrorRefusedServerUnavailable), errors.Is(err, paho.ErrNotConnected),
		errors.Is(err, packets.ErrorNetworkError):
		return publisher.KindNetwork
	case errors.Is(err, packets.ErrorRefusedBadProtocolVersion), errors.Is(err, packets.ErrorProtocolViolation):
		return publisher.KindRejected
	}
	return publisher.ClassifyTransport(err)
}
