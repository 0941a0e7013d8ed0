package redis

import (
	"context"
	"sync"

	redislib "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/taskify/backend/gateway"
)

const defaultChannel = "taskify:tasks:changed"

// Notifier fans out task-table change events over a Redis pub/sub channel.
// Each replica publishes after a successful write and refreshes on receipt.
type Notifier struct {
	client  *redislib.Client
	channel string
	logger  *zap.Logger

	mu      sync.Mutex
	subs    map[int]func()
	nextSub int
	pubsub  *redislib.PubSub
	cancel  context.CancelFunc
}

// NewNotifier creates a notifier on the default channel.
func NewNotifier(client *redislib.Client, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{
		client:  client,
		channel: defaultChannel,
		logger:  logger,
		subs:    make(map[int]func()),
	}
}

// Publish announces a task-table change to every replica.
func (n *Notifier) Publish(ctx context.Context) error {
	return n.client.Publish(ctx, n.channel, "changed").Err()
}

// Subscribe registers onChange to run for every remote change event. The
// first subscriber starts the receive loop; the returned function removes the
// subscription.
func (n *Notifier) Subscribe(onChange func()) (func(), error) {
	if onChange == nil {
		return func() {}, nil
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if n.pubsub == nil {
		ctx, cancel := context.WithCancel(context.Background())
		pubsub := n.client.Subscribe(ctx, n.channel)
		// Force the subscription to be established before returning.
		if _, err := pubsub.Receive(ctx); err != nil {
			cancel()
			pubsub.Close()
			return nil, err
		}
		n.pubsub = pubsub
		n.cancel = cancel
		go n.loop(pubsub.Channel())
	}

	id := n.nextSub
	n.nextSub++
	n.subs[id] = onChange

	return func() {
		n.mu.Lock()
		delete(n.subs, id)
		n.mu.Unlock()
	}, nil
}

// Close tears down the pub/sub connection.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pubsub == nil {
		return nil
	}
	n.cancel()
	err := n.pubsub.Close()
	n.pubsub = nil
	return err
}

func (n *Notifier) loop(ch <-chan *redislib.Message) {
	for range ch {
		n.mu.Lock()
		fns := make([]func(), 0, len(n.subs))
		for _, fn := range n.subs {
			fns = append(fns, fn)
		}
		n.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
	n.logger.Debug("notifier receive loop stopped")
}

var _ gateway.Notifier = (*Notifier)(nil)
