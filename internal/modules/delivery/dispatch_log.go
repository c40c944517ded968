// README: Dispatch log backed by Redis; remembers which orders were broadcast and to whom.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"bitebay/internal/types"
)

const (
	dispatchKeyPrefix  = "dispatch:order:%s:dispatched_at"
	broadcastKeyPrefix = "dispatch:order:%s:broadcast"
	notifiedKeyPrefix  = "dispatch:order:%s:notified"
	// Orders resolve well within a week.
	keyTTL = 7 * 24 * time.Hour
)

type DispatchLog interface {
	// TryMarkBroadcast returns true only for the first caller per order.
	TryMarkBroadcast(ctx context.Context, orderID types.ID) (bool, error)
	RecordDispatch(ctx context.Context, orderID types.ID, partnerIDs []types.ID) error
	Notified(ctx context.Context, orderID types.ID) ([]types.ID, error)
}

type RedisDispatchLog struct {
	redis *redis.Client
}

func NewRedisDispatchLog(client *redis.Client) *RedisDispatchLog {
	return &RedisDispatchLog{redis: client}
}

func (l *RedisDispatchLog) TryMarkBroadcast(ctx context.Context, orderID types.ID) (bool, error) {
	return l.redis.SetNX(ctx, broadcastKey(orderID), "1", keyTTL).Result()
}

// RecordDispatch records the dispatch timestamp and the set of notified partners.
func (l *RedisDispatchLog) RecordDispatch(ctx context.Context, orderID types.ID, partnerIDs []types.ID) error {
	pipe := l.redis.Pipeline()
	pipe.Set(ctx, dispatchedAtKey(orderID), time.Now().UTC().Format(time.RFC3339), keyTTL)
	if len(partnerIDs) > 0 {
		members := make([]interface{}, len(partnerIDs))
		for i, d := range partnerIDs {
			members[i] = string(d)
		}
		pipe.SAdd(ctx, notifiedKey(orderID), members...)
		pipe.Expire(ctx, notifiedKey(orderID), keyTTL)
	}
	_, err := pipe.Exec(ctx)
	return err
}

func (l *RedisDispatchLog) Notified(ctx context.Context, orderID types.ID) ([]types.ID, error) {
	members, err := l.redis.SMembers(ctx, notifiedKey(orderID)).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]types.ID, len(members))
	for i, m := range members {
		ids[i] = types.ID(m)
	}
	return ids, nil
}

func dispatchedAtKey(orderID types.ID) string {
	return fmt.Sprintf(dispatchKeyPrefix, string(orderID))
}

func broadcastKey(orderID types.ID) string {
	return fmt.Sprintf(broadcastKeyPrefix, string(orderID))
}

func notifiedKey(orderID types.ID) string {
	return fmt.Sprintf(notifiedKeyPrefix, string(orderID))
}
