package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const maxWatchRetries = 5

// ErrConcurrentUpdate is returned when MarkUsed keeps losing WATCH races.
var ErrConcurrentUpdate = errors.New("used destinations changed concurrently")

// UsedDestinationTracker stores each user's served destinations as a JSON array:
//
//	SET user:{username}:usedDestinations ["id1","id2"] EX {ttl}
//
// Every write resets the expiry.
type UsedDestinationTracker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewUsedDestinationTracker(client *redis.Client, ttl time.Duration) *UsedDestinationTracker {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &UsedDestinationTracker{client: client, ttl: ttl}
}

func (t *UsedDestinationTracker) Used(ctx context.Context, username string) (map[string]struct{}, error) {
	return t.read(ctx, t.client, t.key(username))
}

// MarkUsed adds destinationID under WATCH so concurrent requests for the same
// user do not overwrite each other.
func (t *UsedDestinationTracker) MarkUsed(ctx context.Context, username, destinationID string) error {
	key := t.key(username)
	txf := func(tx *redis.Tx) error {
		used, err := t.read(ctx, tx, key)
		if err != nil {
			return err
		}
		used[destinationID] = struct{}{}
		payload, err := encodeSet(used)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, t.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := t.client.Watch(ctx, txf, key)
		if err == nil {
			return nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return fmt.Errorf("mark destination used: %w", err)
	}
	return ErrConcurrentUpdate
}

func (t *UsedDestinationTracker) read(ctx context.Context, c redis.Cmdable, key string) (map[string]struct{}, error) {
	raw, err := c.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read used destinations: %w", err)
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode used destinations: %w", err)
	}
	used := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		used[id] = struct{}{}
	}
	return used, nil
}

func (t *UsedDestinationTracker) key(username string) string {
	return "user:" + username + ":usedDestinations"
}

func encodeSet(set map[string]struct{}) (string, error) {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
