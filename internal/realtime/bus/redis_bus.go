package bus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/sundale/projectcoach-backend/internal/platform/logger"
)

const redisChannel = "projectcoach.engine_events"

// RedisBus fans engine events out across nodes via redis pub/sub.
type RedisBus struct {
	log    *logger.Logger
	client *redis.Client
	sub    *redis.PubSub
}

func NewRedisBus(log *logger.Logger, addr, password string, db int) (*RedisBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisBus{log: log.With("service", "RedisBus"), client: client}, nil
}

func (b *RedisBus) Publish(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, redisChannel, raw).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

func (b *RedisBus) StartForwarder(ctx context.Context, onEvent func(ev Event)) error {
	b.sub = b.client.Subscribe(ctx, redisChannel)
	if _, err := b.sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := b.sub.Channel()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					b.log.Warn("dropping undecodable event", "error", err)
					continue
				}
				onEvent(ev)
			}
		}
	}()
	return nil
}

func (b *RedisBus) Close() error {
	if b.sub != nil {
		_ = b.sub.Close()
	}
	return b.client.Close()
}
