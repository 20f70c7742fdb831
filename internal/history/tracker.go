// Package history tracks per-sender interaction counts in Redis. The
// engagement scorer uses these to favor new senders and returning ones
// after a long absence.
package history

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lainlives/lainllm-go/internal/models"
)

const keyPrefix = "sender:"

// Tracker records when and how often each sender has messaged.
type Tracker struct {
	rdb *redis.Client
}

// NewTracker connects to Redis. Returns nil when addr is empty, which
// disables sender tracking entirely.
func NewTracker(addr, password string) *Tracker {
	if addr == "" {
		return nil
	}
	return &Tracker{
		rdb: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
	}
}

// Get returns the sender's interaction history. A sender never seen
// before yields a zero-count history, not an error.
func (t *Tracker) Get(ctx context.Context, senderID string) (*models.SenderHistory, error) {
	fields, err := t.rdb.HGetAll(ctx, keyPrefix+senderID).Result()
	if err != nil {
		return nil, fmt.Errorf("get sender history: %w", err)
	}

	history := &models.SenderHistory{}
	if v, ok := fields["count"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			history.MessageCount = n
		}
	}
	if v, ok := fields["last_seen"]; ok {
		if last, err := strconv.ParseInt(v, 10, 64); err == nil {
			history.SecondsSinceLast = int(time.Now().Unix() - last)
		}
	}
	return history, nil
}

// Touch increments the sender's message count and stamps last contact.
func (t *Tracker) Touch(ctx context.Context, senderID string) error {
	key := keyPrefix + senderID
	pipe := t.rdb.Pipeline()
	pipe.HIncrBy(ctx, key, "count", 1)
	pipe.HSet(ctx, key, "last_seen", time.Now().Unix())
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("touch sender history: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (t *Tracker) Close() error {
	return t.rdb.Close()
}

// Healthy reports whether Redis answers a ping.
func (t *Tracker) Healthy(ctx context.Context) bool {
	return t.rdb.Ping(ctx).Err() == nil
}
