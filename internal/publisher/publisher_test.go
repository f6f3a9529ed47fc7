package publisher

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNetError struct{ timeout bool }

func (e fakeNetError) Error() string   { return "fake net error" }
func (e fakeNetError) Timeout() bool   { return e.timeout }
func (e fakeNetError) Temporary() bool { return false }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "classified", err: NewError("publish", KindAuth, errors.New("denied")), want: KindAuth},
		{name: "wrapped classified", err: fmt.Errorf("send: %w", NewError("publish", KindThrottled, errors.New("slow down"))), want: KindThrottled},
		{name: "deadline", err: fmt.Errorf("publish: %w", context.DeadlineExceeded), want: KindTimeout},
		{name: "net timeout", err: fakeNetError{timeout: true}, want: KindTimeout},
		{name: "net error", err: fakeNetError{}, want: KindNetwork},
		{name: "op error", err: &net.OpError{Op: "dial", Err: errors.New("refused")}, want: KindNetwork},
		{name: "other", err: errors.New("boom"), want: KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, KindOf(tc.err))
		})
	}
}

func TestNewErrorNil(t *testing.T) {
	assert.NoError(t, NewError("publish", KindUnknown, nil))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("cause")
	err := NewError("sns publish", KindNetwork, cause)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "sns publish: network: cause", err.Error())
}

func TestRetryable(t *testing.T) {
	assert.True(t, KindThrottled.Retryable())
	assert.True(t, KindNetwork.Retryable())
	assert.True(t, KindTimeout.Retryable())
	assert.False(t, KindAuth.Retryable())
	assert.False(t, KindRejected.Retryable())
	assert.False(t, KindUnknown.Retryable())
}

type plainPublisher struct{}

func (plainPublisher) Publish(context.Context, Message) (string, error) { return "id", nil }
func (plainPublisher) Close() error                                     { return nil }

type checkingPublisher struct {
	plainPublisher
	err error
}

func (c checkingPublisher) Check(context.Context) error { return c.err }

func TestPreflight(t *testing.T) {
	ctx := context.Background()

	assert.NoError(t, Preflight(ctx, "plain", "", plainPublisher{}))
	assert.NoError(t, Preflight(ctx, "ok", "", checkingPublisher{}))

	cause := errors.New("no credentials")
	err := Preflight(ctx, "sns", "configure credentials", checkingPublisher{err: cause})
	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, "sns", connErr.Backend)
	assert.Equal(t, "configure credentials", connErr.Hint)
	assert.ErrorIs(t, err, cause)
}
