package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// feedCap bounds the per-user notification backlog kept in Redis.
const feedCap = 100

// Feed is the per-user notification inbox backed by Redis: a capped list
// for catch-up reads plus a pub/sub channel for live delivery.
type Feed struct {
	client *redis.Client
}

func NewFeed(client *redis.Client) *Feed {
	return &Feed{client: client}
}

func feedKey(userID string) string {
	return fmt.Sprintf("hairops:user:%s:notifications", userID)
}

func channelKey(userID string) string {
	return fmt.Sprintf("hairops:user:%s:channel", userID)
}

// Push appends a notification to the user's inbox and publishes it to the
// live channel in one pipeline.
func (f *Feed) Push(ctx context.Context, userID string, msg *Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	pipe := f.client.Pipeline()
	pipe.LPush(ctx, feedKey(userID), data)
	pipe.LTrim(ctx, feedKey(userID), 0, feedCap-1)
	pipe.Publish(ctx, channelKey(userID), data)
	_, err = pipe.Exec(ctx)
	return err
}

// Recent returns the user's newest notifications, newest first.
func (f *Feed) Recent(ctx context.Context, userID string, limit int) ([]*Message, error) {
	if limit <= 0 || limit > feedCap {
		limit = feedCap
	}
	raw, err := f.client.LRange(ctx, feedKey(userID), 0, int64(limit-1)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	msgs := make([]*Message, 0, len(raw))
	for _, r := range raw {
		var m Message
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			continue
		}
		msgs = append(msgs, &m)
	}
	return msgs, nil
}

// Clear empties the user's inbox.
func (f *Feed) Clear(ctx context.Context, userID string) error {
	return f.client.Del(ctx, feedKey(userID)).Err()
}

// Subscribe returns a pub/sub subscription on the user's live channel.
// The caller owns closing it.
func (f *Feed) Subscribe(ctx context.Context, userID string) *redis.PubSub {
	return f.client.Subscribe(ctx, channelKey(userID))
}

// Ping checks the Redis backend is reachable.
func (f *Feed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}
