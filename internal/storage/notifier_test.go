package storage

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/voxel-storage/internal/vec"
)

func TestNotifierHandleMessage(t *testing.T) {
	n := &NATSNotifier{subject: "test", nodeID: "node-a"}
	var got []vec.Vec3
	handler := func(c vec.Vec3) { got = append(got, c) }

	encode := func(msg ChunkSavedMessage) []byte {
		data, err := json.Marshal(msg)
		require.NoError(t, err)
		return data
	}

	n.handleMessage(encode(ChunkSavedMessage{Key: "chunk:1:2:3", NodeID: "node-b"}), handler)
	n.handleMessage(encode(ChunkSavedMessage{Key: "chunk:4:5:6", NodeID: "node-a"}), handler)
	n.handleMessage(encode(ChunkSavedMessage{Key: "junk", NodeID: "node-b"}), handler)
	n.handleMessage([]byte("{"), handler)

	assert.Equal(t, []vec.Vec3{{X: 1, Y: 2, Z: 3}}, got, "свои и битые сообщения отбрасываются")
	stats := n.Stats()
	assert.Equal(t, int64(4), stats.Received)
	assert.Equal(t, int64(2), stats.Errors)
}

func waitWatchers(t *testing.T, n *NATSNotifier) {
	t.Helper()
	exited := make(chan struct{})
	go func() {
		n.watchers.Wait()
		close(exited)
	}()
	select {
	case <-exited:
	case <-time.After(time.Second):
		t.Fatal("горутина наблюдателя подписки не завершилась")
	}
}

func TestNotifierWatcherStopsOnClose(t *testing.T) {
	n := &NATSNotifier{subject: "test", done: make(chan struct{})}
	n.watch(context.Background())

	n.stopWatchers()
	waitWatchers(t, n)

	assert.ErrorIs(t, n.Subscribe(context.Background(), func(vec.Vec3) {}), ErrNotifierClosed)
}

func TestNotifierWatcherStopsOnCancel(t *testing.T) {
	n := &NATSNotifier{subject: "test", done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	n.watch(ctx)

	cancel()
	waitWatchers(t, n)
}

func natsURL() string {
	if url := os.Getenv("VOXEL_TEST_NATS"); url != "" {
		return url
	}
	return "nats://127.0.0.1:4222"
}

func TestNATSNotifierRoundTrip(t *testing.T) {
	subject := "voxel.test." + t.Name()
	a, err := NewNATSNotifier(natsURL(), subject, "")
	if err != nil {
		t.Skipf("NATS недоступен: %v", err)
	}
	defer a.Close()
	b, err := NewNATSNotifier(natsURL(), subject, "")
	require.NoError(t, err)
	defer b.Close()
	require.NotEqual(t, a.NodeID(), b.NodeID())

	received := make(chan vec.Vec3, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, b.Subscribe(ctx, func(c vec.Vec3) { received <- c }))
	require.NoError(t, b.conn.Flush())

	coord := vec.Vec3{X: -3, Z: 8}
	require.NoError(t, a.ChunkSaved(ctx, coord, "Compact"))

	select {
	case c := <-received:
		assert.Equal(t, coord, c)
	case <-time.After(2 * time.Second):
		t.Fatal("сообщение от другого узла не получено")
	}

	require.NoError(t, b.Close())
	waitWatchers(t, b)
	assert.NoError(t, b.Close(), "повторный Close не сливает соединение снова")
}
