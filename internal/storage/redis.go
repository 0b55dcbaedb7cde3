package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	redisclient "github.com/hackgods/clinic-appointment-booking/internal/redis"
)

const snapshotLock = "snapshot"

// RedisBackend keeps each stream under clinic:snapshot:<stream>. Writes run
// in a MULTI/EXEC block under a Redis lock so concurrent savers serialize.
type RedisBackend struct {
	client *redis.Client
	locker redisclient.Locker
	prefix string
}

func NewRedisBackend(client *redis.Client, locker redisclient.Locker) *RedisBackend {
	return &RedisBackend{client: client, locker: locker, prefix: "clinic:snapshot:"}
}

func (b *RedisBackend) Name() string { return "redis" }

func (b *RedisBackend) key(stream Stream) string {
	return b.prefix + string(stream)
}

func (b *RedisBackend) Read(ctx context.Context, stream Stream) ([]byte, bool, error) {
	payload, err := b.client.Get(ctx, b.key(stream)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %s: %w", stream, err)
	}
	return payload, true, nil
}

func (b *RedisBackend) Write(ctx context.Context, docs []Document) error {
	write := func(ctx context.Context) error {
		_, err := b.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			for _, doc := range docs {
				pipe.Set(ctx, b.key(doc.Stream), doc.Payload, 0)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("exec: %w", err)
		}
		return nil
	}
	if b.locker == nil {
		return write(ctx)
	}
	return b.locker.WithLock(ctx, snapshotLock, write)
}
