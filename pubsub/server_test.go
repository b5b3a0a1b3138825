package pubsub

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
)

func TestServerBridgesPublishAndSubscribe(t *testing.T) {
	server := miniredis.RunT(t)

	inbound := make(chan string, 4)
	outbound := make(chan string, 4)

	s, err := New(context.Background(), "redis://"+server.Addr(), "upstream", "downstream", inbound, outbound)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	s.Start(ctx)

	// A raw client used only to drive the test: publish into the server's
	// subscribed channel, and listen on the channel the server publishes to.
	probe := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = probe.Close() })

	upstreamSub := probe.Subscribe(ctx, "upstream")
	t.Cleanup(func() { _ = upstreamSub.Close() })
	upstreamCh := upstreamSub.Channel()

	// Give the server's subscribe loop a moment to register before
	// publishing, otherwise the message can arrive before anyone listens.
	time.Sleep(50 * time.Millisecond)

	_, err = probe.Publish(ctx, "downstream", "hello from outside").Result()
	require.NoError(t, err)

	select {
	case msg := <-inbound:
		require.Equal(t, "hello from outside", msg)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for inbound message")
	}

	outbound <- "hello from engine"
	select {
	case msg := <-upstreamCh:
		require.Equal(t, "hello from engine", msg.Payload)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for outbound publish")
	}
}
