package redisstream

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/config"
	"github.com/kanna-karuppasamy/iot-sensor-simulator/internal/publisher"
)

// Hint is shown when Redis cannot be reached
const Hint = "Check REDIS_ADDR and REDIS_PASSWORD"

// Stream entry field names
const (
	FieldKey     = "key"
	FieldSubject = "subject"
	FieldMessage = "message"
)

type streamClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher appends messages to a Redis stream named after the topic
type Publisher struct {
	client streamClient
	maxLen int64
}

// NewPublisher creates a Redis stream publisher
func NewPublisher(cfg config.RedisConfig) *Publisher {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return newPublisher(client, cfg.MaxLen)
}

func newPublisher(client streamClient, maxLen int64) *Publisher {
	return &Publisher{client: client, maxLen: maxLen}
}

// Check pings the server
func (p *Publisher) Check(ctx context.Context) error {
	if err := p.client.Ping(ctx).Err(); err != nil {
		return publisher.NewError("redis ping", classify(err), err)
	}
	return nil
}

// Publish adds msg to the stream msg.Topic and returns the entry id
func (p *Publisher) Publish(ctx context.Context, msg publisher.Message) (string, error) {
	args := &redis.XAddArgs{
		Stream: msg.Topic,
		Values: map[string]interface{}{
			FieldKey:     msg.Key,
			FieldSubject: msg.Subject,
			FieldMessage: string(msg.Body),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", publisher.NewError("redis xadd", classify(err), err)
	}
	return id, nil
}

// Close closes the client
func (p *Publisher) Close() error {
	return p.client.Close()
}

func classify(err error) publisher.Kind {
	if errors.Is(err, redis.ErrClosed) {
		return publisher.KindNetwork
	}
	msg := err.Error()
	switch {
	case strings.HasPrefix(msg, "NOAUTH"), strings.HasPrefix(msg, "WRONGPASS"), strings.HasPrefix(msg, "NOPERM"):
		return publisher.KindAuth
	case strings.HasPrefix(msg, "WRONGTYPE"), strings.HasPrefix(msg, "OOM"), strings.HasPrefix(msg, "ERR"):
		return publisher.KindRejected
	case strings.HasPrefix(msg, "LOADING"), strings.HasPrefix(msg, "BUSY"), strings.HasPrefix(msg, "TRYAGAIN"):
		return publisher.KindThrottled
	}
	return publisher.ClassifyTransport(err)
}
