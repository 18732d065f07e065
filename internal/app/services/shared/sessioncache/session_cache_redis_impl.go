package sessioncache

import (
	"context"
	"screening-service/internal/app/contracts"
	"screening-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

type sessionCacheRedis struct {
	client *redis.Client
}

func NewSessionCacheRedis(client *redis.Client) contracts.SessionCache {
	return &sessionCacheRedis{client: client}
}

func (c *sessionCacheRedis) Get(ctx context.Context, key string) (string, error) {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		return "", exceptions.ErrRedisGet(err, key)
	}
	return data, nil
}

func (c *sessionCacheRedis) Set(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return exceptions.ErrCannotMarshalJSON(err)
	}

	// Entries live for the session; rotation of the session key orphans
	// them and ClearByPrefix reaps stale generations on the next write.
	err = c.client.Set(ctx, key, jsonValue, 0).Err()
	if err != nil {
		return exceptions.ErrRedisSet(err)
	}
	return nil
}

func (c *sessionCacheRedis) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		return exceptions.ErrRedisDelete(err)
	}
	return nil
}

func (c *sessionCacheRedis) ClearByPrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, nextCursor, err := c.client.Scan(ctx, cursor, prefix+"*", 100).Result()
		if err != nil {
			return exceptions.ErrRedisScan(err)
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return exceptions.ErrRedisDelete(err)
			}
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	return nil
}

func (c *sessionCacheRedis) PushToList(ctx context.Context, key string, values ...interface{}) error {
	err := c.client.RPush(ctx, key, values...).Err()
	if err != nil {
		return exceptions.ErrRedisPushToList(err)
	}
	return nil
}

func (c *sessionCacheRedis) GetList(ctx context.Context, key string) ([]string, error) {
	values, err := c.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, exceptions.ErrRedisGetList(err)
	}
	return values, nil
}
