package mqtt

import (
	"context"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/eclipse/paho.mqtt.golang/packets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	connected    bool
	connectErr   error
	publishToken paho.Token
	sent         []published
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token {
	if c.connectErr == nil {
		c.connected = true
	}
	return completedToken(c.connectErr)
}

func (c *fakeClient) IsConnected() bool { return c.connected }

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.sent = append(c.sent, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	if c.publishToken != nil {
		return c.publishToken
	}
	return completedToken(nil)
}

func (c *fakeClient) Disconnect(uint) {
	c.connected = false
	c.disconnected = true
}

func testConfig() config.MQTTConfig {
	return config.MQTTConfig{Broker: "tcp://localhost:1883", ClientID: "test", QoS: 1, ConnectTimeout: time.Second}
}

func TestPublish(t *testing.T) {
	fc := &fakeClient{}
	p := newPublisher(fc, testConfig())
	p.newID = func() string { return "corr-1" }

	require.NoError(t, p.Check(context.Background()))

	id, err := p.Publish(context.Background(), publisher.Message{Topic: "sensors/readings", Body: []byte(`{"sensor_id":"sensor-001"}`)})
	require.NoError(t, err)
	assert.Equal(t, "corr-1", id)

	require.Len(t, fc.sent, 1)
	assert.Equal(t, "sensors/readings", fc.sent[0].topic)
	assert.Equal(t, byte(1), fc.sent[0].qos)
	assert.False(t, fc.sent[0].retained)
	assert.Equal(t, `{"sensor_id":"sensor-001"}`, string(fc.sent[0].payload))

	require.NoError(t, p.Close())
	assert.True(t, fc.disconnected)
}

func TestCheckAuthFailure(t *testing.T) {
	p := newPublisher(&fakeClient{connectErr: packets.ErrorRefusedNotAuthorised}, testConfig())

	err := p.Check(context.Background())
	require.Error(t, err)
	assert.Equal(t, publisher.KindAuth, publisher.KindOf(err))
}

func TestPublishNotConnected(t *testing.T) {
	p := newPublisher(&fakeClient{}, testConfig())

	_, err := p.Publish(context.Background(), publisher.Message{Topic: "t", Body: []byte("{}")})
	assert.Equal(t, publisher.KindNetwork, publisher.KindOf(err))
}

func TestPublishTimeout(t *testing.T) {
	fc := &fakeClient{connected: true, publishToken: pendingToken()}
	p := newPublisher(fc, testConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Publish(ctx, publisher.Message{Topic: "t", Body: []byte("{}")})
	require.Error(t, err)
	assert.Equal(t, publisher.KindTimeout, publisher.KindOf(err))
}

func TestPublishBrokerError(t *testing.T) {
	fc := &fakeClient{connected: true, publishToken: completedToken(errors.New("broker said no"))}
	p := newPublisher(fc, testConfig())

	_, err := p.Publish(context.Background(), publisher.Message{Topic: "t", Body: []byte("{}")})
	assert.Equal(t, publisher.KindUnknown, publisher.KindOf(err))
}
