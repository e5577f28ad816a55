package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/annel0/voxel-storage/internal/logging"
	"github.com/annel0/voxel-storage/internal/vec"
)

// ChunkNotifier сообщает другим узлам о сохранённых чанках
type ChunkNotifier interface {
	ChunkSaved(ctx context.Context, coord vec.Vec3, kind string) error
	Close() error
}

// ErrNotifierClosed возвращается Subscribe после Close
var ErrNotifierClosed = errors.New("storage: notifier closed")

// SavedHandler вызывается для чанков, сохранённых другими узлами
type SavedHandler func(coord vec.Vec3)

// ChunkSavedMessage - сообщение о сохранении чанка
type ChunkSavedMessage struct {
	Key       string    `json:"key"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
	NodeID    string    `json:"node_id"`
}

// NATSNotifier публикует ChunkSavedMessage в NATS и принимает чужие сообщения.
// Собственные сообщения узла отбрасываются по NodeID.
type NATSNotifier struct {
	conn    *nats.Conn
	subject string
	nodeID  string

	mu           sync.Mutex
	subscription *nats.Subscription

	// done закрывается в Close и останавливает наблюдателя ctx из Subscribe
	done      chan struct{}
	watchers  sync.WaitGroup
	closeOnce sync.Once
	closeErr  error

	publishedCount int64
	receivedCount  int64
	errorsCount    int64
}

// NotifierStats - счётчики NATSNotifier
type NotifierStats struct {
	Published int64
	Received  int64
	Errors    int64
}

// NewNATSNotifier подключается к NATS. nodeID пустой - генерируется UUID.
func NewNATSNotifier(url, subject, nodeID string) (*NATSNotifier, error) {
	if nodeID == "" {
		nodeID = uuid.NewString()
	}

	opts := []nats.Option{
		nats.MaxReconnects(10),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("NATS reconnected to %s", nc.ConnectedUrl())
		}),
	}
	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logging.Info("📨 Уведомления о чанках через NATS: %s (subject: %s, node: %s)", url, subject, nodeID)
	return &NATSNotifier{conn: conn, subject: subject, nodeID: nodeID, done: make(chan struct{})}, nil
}

// NodeID возвращает идентификатор узла
func (n *NATSNotifier) NodeID() string {
	return n.nodeID
}

func (n *NATSNotifier) ChunkSaved(ctx context.Context, coord vec.Vec3, kind string) error {
	if err := checkCtx(ctx); err != nil {
		return err
	}
	data, err := json.Marshal(ChunkSavedMessage{
		Key:       ChunkKey(coord),
		Kind:      kind,
		Timestamp: time.Now(),
		NodeID:    n.nodeID,
	})
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to marshal chunk message: %w", err)
	}
	if err := n.conn.Publish(n.subject, data); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		return fmt.Errorf("failed to publish chunk %v: %w", coord, err)
	}
	atomic.AddInt64(&n.publishedCount, 1)
	return nil
}

// Subscribe подписывает handler на сохранения других узлов; до отмены ctx или Close
func (n *NATSNotifier) Subscribe(ctx context.Context, handler SavedHandler) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	select {
	case <-n.done:
		return ErrNotifierClosed
	default:
	}
	if n.subscription != nil {
		return fmt.Errorf("already subscribed to %s", n.subject)
	}

	sub, err := n.conn.Subscribe(n.subject, func(msg *nats.Msg) {
		n.handleMessage(msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", n.subject, err)
	}
	n.subscription = sub
	n.watch(ctx)
	return nil
}

// watch отписывается при отмене ctx; горутина завершается и по Close
func (n *NATSNotifier) watch(ctx context.Context) {
	n.watchers.Add(1)
	go func() {
		defer n.watchers.Done()
		select {
		case <-ctx.Done():
			n.unsubscribe()
		case <-n.done:
		}
	}()
}

// stopWatchers закрывает done и ждёт наблюдателей
func (n *NATSNotifier) stopWatchers() {
	close(n.done)
	n.watchers.Wait()
}

// handleMessage разбирает сообщение и вызывает handler для чужих сохранений
func (n *NATSNotifier) handleMessage(data []byte, handler SavedHandler) {
	atomic.AddInt64(&n.receivedCount, 1)

	var msg ChunkSavedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Failed to unmarshal chunk message: %v", err)
		return
	}
	if msg.NodeID == n.nodeID {
		return
	}
	coord, err := ParseChunkKey(msg.Key)
	if err != nil {
		atomic.AddInt64(&n.errorsCount, 1)
		logging.Error("Bad chunk message from %s: %v", msg.NodeID, err)
		return
	}
	handler(coord)
}

func (n *NATSNotifier) unsubscribe() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subscription == nil {
		return
	}
	if err := n.subscription.Unsubscribe(); err != nil && n.conn.IsConnected() {
		logging.Error("Failed to unsubscribe from %s: %v", n.subject, err)
	}
	n.subscription = nil
}

// Stats возвращает счётчики сообщений
func (n *NATSNotifier) Stats() NotifierStats {
	return NotifierStats{
		Published: atomic.LoadInt64(&n.publishedCount),
		Received:  atomic.LoadInt64(&n.receivedCount),
		Errors:    atomic.LoadInt64(&n.errorsCount),
	}
}

// Close останавливает наблюдателя подписки, отписывается и сливает
// соединение. Повторные вызовы возвращают результат первого.
func (n *NATSNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.stopWatchers()
		n.unsubscribe()
		n.closeErr = n.conn.Drain()
	})
	return n.closeErr
}
