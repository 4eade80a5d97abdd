package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/atlassian/gmetricd/internal/util"
	"github.com/atlassian/gmetricd/pkg/store"
)

// RedisClient is the subset of the Redis client used by RedisStore.
type RedisClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// RedisStore keeps the snapshot under a Redis key.
type RedisStore struct {
	Client RedisClient
	Key    string
	// BackOff controls the retries of Save. Nil disables retries.
	BackOff backoff.BackOff
	Logger  logrus.FieldLogger
}

// Load reads the snapshot. A missing key is no prior state.
func (rs *RedisStore) Load(ctx context.Context) (*store.Snapshot, error) {
	data, err := rs.Client.Get(ctx, rs.Key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return store.NewSnapshot(), nil
		}
		return nil, fmt.Errorf("error reading snapshot from redis: %v", err)
	}
	return Decode(data)
}

// Save writes snap under the key, retrying failed writes.
func (rs *RedisStore) Save(ctx context.Context, snap *store.Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	bo := rs.BackOff
	if bo == nil {
		bo = &backoff.StopBackOff{}
	}
	err = util.Retry(ctx, bo, func() error {
		return rs.Client.Set(ctx, rs.Key, data, 0).Err()
	}, func(err error, next time.Duration) {
		if rs.Logger != nil {
			rs.Logger.WithError(err).WithField("retry-in", next).Warn("Failed to save snapshot to redis")
		}
	})
	if err != nil {
		return fmt.Errorf("error writing snapshot to redis: %v", err)
	}
	return nil
}
