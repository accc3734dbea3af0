package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/skillloop/skillloop-backend/internal/engine"
	"github.com/skillloop/skillloop-backend/internal/logger"
)

// ProfileUpdateMessage is the payload fanned out after each engine cycle.
// Consumers (SSE forwarders, dashboards) subscribe on the channel.
type ProfileUpdateMessage struct {
	UserID uuid.UUID           `json:"user_id"`
	Result engine.UpdateResult `json:"result"`
	SentAt time.Time           `json:"sent_at"`
}

type ProfileBus interface {
	PublishProfileUpdated(ctx context.Context, userID uuid.UUID, result engine.UpdateResult)
	StartForwarder(ctx context.Context, onMsg func(m ProfileUpdateMessage)) error
	Close() error
}

type profileBus struct {
	log     *logger.Logger
	rdb     *goredis.Client
	channel string
}

func NewProfileBus(log *logger.Logger, addr string) (ProfileBus, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(addr) == "" {
		return nil, fmt.Errorf("missing redis address")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &profileBus{
		log:     log.With("service", "RedisProfileBus"),
		rdb:     rdb,
		channel: "profile_updates",
	}, nil
}

// PublishProfileUpdated is fire-and-forget: a dropped notification only
// delays the consumer until the next cycle.
func (b *profileBus) PublishProfileUpdated(ctx context.Context, userID uuid.UUID, result engine.UpdateResult) {
	if b == nil || b.rdb == nil {
		return
	}
	raw, err := json.Marshal(ProfileUpdateMessage{
		UserID: userID,
		Result: result,
		SentAt: time.Now().UTC(),
	})
	if err != nil {
		b.log.Warn("Failed to marshal profile update", "error", err)
		return
	}
	if err := b.rdb.Publish(ctx, b.channel, raw).Err(); err != nil {
		b.log.Warn("Failed to publish profile update", "user_id", userID, "error", err)
	}
}

func (b *profileBus) StartForwarder(ctx context.Context, onMsg func(m ProfileUpdateMessage)) error {
	if b == nil || b.rdb == nil {
		return fmt.Errorf("redis profile bus not initialized")
	}
	if onMsg == nil {
		return fmt.Errorf("onMsg callback required")
	}

	sub := b.rdb.Subscribe(ctx, b.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var msg ProfileUpdateMessage
				if err := json.Unmarshal([]byte(m.Payload), &msg); err != nil {
					b.log.Warn("bad redis profile payload", "error", err)
					continue
				}
				onMsg(msg)
			}
		}
	}()

	return nil
}

func (b *profileBus) Close() error {
	if b == nil || b.rdb == nil {
		return nil
	}
	return b.rdb.Close()
}
