package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// RelayChannelPrefix is the Redis Pub/Sub channel prefix; the topic is appended.
	RelayChannelPrefix = "cleersplit:events:"

	relayMinBackoff = time.Second
	relayMaxBackoff = 30 * time.Second
)

// errBusClosed stops the relay when its bus goes away.
var errBusClosed = errors.New("events: bus closed")

// RedisRelay mirrors a Bus onto Redis Pub/Sub so other instances (and
// out-of-process observers) see the same profile and session events.
// Events published locally are sent to Redis; events received from Redis with
// a foreign origin are delivered to the local bus.
type RedisRelay struct {
	client *redis.Client
	bus    *Bus
	logger *zap.Logger
}

func NewRedisRelay(client *redis.Client, bus *Bus, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, bus: bus, logger: logger}
}

// Run forwards in both directions until ctx is cancelled or the bus is
// closed.
func (r *RedisRelay) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.forward(ctx) })
	g.Go(func() error {
		r.receive(ctx)
		return nil
	})
	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, errBusClosed) {
		return nil
	}
	return err
}

func (r *RedisRelay) forward(ctx context.Context) error {
	sub := r.bus.Subscribe()
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-sub.C():
			if !ok {
				return errBusClosed
			}
			if !shouldForward(evt, r.bus.ID()) {
				continue
			}
			data, err := json.Marshal(evt)
			if err != nil {
				r.logger.Error("relay: marshal event", zap.Error(err))
				continue
			}
			if err := r.client.Publish(ctx, ChannelFor(evt.Topic), data).Err(); err != nil {
				r.logger.Warn("relay: publish failed",
					zap.String("type", evt.Type),
					zap.Error(err))
			}
		}
	}
}

func (r *RedisRelay) receive(ctx context.Context) {
	backoff := relayMinBackoff

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		func() {
			pubsub := r.client.PSubscribe(ctx, RelayChannelPrefix+"*")
			defer pubsub.Close()
			// ReceiveMessage does not watch ctx; closing the connection unblocks it.
			stop := context.AfterFunc(ctx, func() { _ = pubsub.Close() })
			defer stop()

			r.logger.Info("relay: redis subscriber started", zap.String("pattern", RelayChannelPrefix+"*"))

			for {
				msg, err := pubsub.ReceiveMessage(ctx)
				if err != nil {
					if ctx.Err() != nil {
						return
					}
					r.logger.Warn("relay: redis subscriber error",
						zap.Error(err),
						zap.Duration("backoff", backoff))
					select {
					case <-time.After(backoff):
					case <-ctx.Done():
					}
					backoff = nextBackoff(backoff)
					return
				}
				backoff = relayMinBackoff

				var evt Event
				if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
					r.logger.Warn("relay: unmarshal event", zap.Error(err))
					continue
				}
				if !shouldDeliver(evt, r.bus.ID()) {
					continue
				}
				r.bus.Deliver(evt)
			}
		}()
	}
}

// ChannelFor returns the Redis channel that carries events of topic.
func ChannelFor(topic string) string {
	return RelayChannelPrefix + topic
}

// only locally originated events leave the process
func shouldForward(evt Event, localID string) bool {
	return evt.Origin == localID
}

// our own events come back from Redis and must not be delivered twice
func shouldDeliver(evt Event, localID string) bool {
	return evt.Origin != "" && evt.Origin != localID
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > relayMaxBackoff {
		d = relayMaxBackoff
	}
	return d
}
