package kafka

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wiki-search-engine/pkg/resilience"
)

type payload struct {
	Op   string `json:"op"`
	Page int    `json:"page_id"`
}

func TestEncodeAndDecode(t *testing.T) {
	msg, err := encodeEvent(Event{Key: "7", Value: payload{Op: "store", Page: 7}})
	require.NoError(t, err)
	assert.Equal(t, []byte("7"), msg.Key)
	assert.JSONEq(t, `{"op":"store","page_id":7}`, string(msg.Value))

	decoded, err := DecodeJSON[payload](msg.Value)
	require.NoError(t, err)
	assert.Equal(t, payload{Op: "store", Page: 7}, decoded)

	_, err = DecodeJSON[payload]([]byte("{"))
	assert.Error(t, err)

	_, err = encodeEvent(Event{Key: "bad", Value: make(chan int)})
	assert.Error(t, err)
}

func testConsumer(h MessageHandler) *Consumer {
	return &Consumer{
		handler: h,
		retry:   resilience.RetryConfig{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond},
		logger:  slog.Default(),
	}
}

func TestProcessRetriesThenSucceeds(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		if calls < 2 {
			return errors.New("store busy")
		}
		return nil
	})
	assert.True(t, c.process(context.Background(), kafka.Message{Key: []byte("1")}))
	assert.Equal(t, 2, calls)
}

func TestProcessSkipsPoisonMessage(t *testing.T) {
	calls := 0
	c := testConsumer(func(context.Context, []byte, []byte) error {
		calls++
		return errors.New("always fails")
	})
	assert.True(t, c.process(context.Background(), kafka.Message{}), "skipped messages are committed")
	assert.Equal(t, 3, calls)
}

func TestProcessStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := testConsumer(func(context.Context, []byte, []byte) error {
		cancel()
		return errors.New("interrupted")
	})
	assert.False(t, c.process(ctx, kafka.Message{}))
}
