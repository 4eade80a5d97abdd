package persist

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/atlassian/gmetricd"
	"github.com/atlassian/gmetricd/internal/util"
	"github.com/atlassian/gmetricd/pkg/store"
)

const (
	// DefaultSaveInitialInterval is the delay before the first retry of a failed save.
	DefaultSaveInitialInterval = 100 * time.Millisecond
	// DefaultSaveMaxElapsedTime bounds the time spent retrying a failed save.
	DefaultSaveMaxElapsedTime = 5 * time.Second
	// DefaultSaveMaxRetries bounds the number of retries of a failed save.
	DefaultSaveMaxRetries = 5
)

// Store loads and saves snapshots of the metric store.
type Store interface {
	// Load returns the saved snapshot, or an empty one if there is no prior state.
	Load(ctx context.Context) (*store.Snapshot, error)
	// Save persists snap, replacing the previous snapshot.
	Save(ctx context.Context, snap *store.Snapshot) error
}

// NewFromViper returns the Store configured in v, Redis taking precedence over a file. It returns nil if
// neither is configured.
func NewFromViper(v *viper.Viper, logger logrus.FieldLogger) Store {
	v.SetDefault(gmetricd.ParamSnapshotRedisKey, gmetricd.DefaultSnapshotRedisKey)
	if addr := v.GetString(gmetricd.ParamSnapshotRedisAddr); addr != "" {
		logger.WithFields(logrus.Fields{
			"address": addr,
			"key":     v.GetString(gmetricd.ParamSnapshotRedisKey),
		}).Info("Using Redis snapshot store")
		return &RedisStore{
			Client: redis.NewClient(&redis.Options{
				Addr: addr,
			}),
			Key:     v.GetString(gmetricd.ParamSnapshotRedisKey),
			BackOff: util.NewExponentialBackOff(DefaultSaveInitialInterval, DefaultSaveMaxElapsedTime, DefaultSaveMaxRetries),
			Logger:  logger,
		}
	}
	if path := v.GetString(gmetricd.ParamSnapshotPath); path != "" {
		logger.WithField("path", path).Info("Using file snapshot store")
		return &FileStore{
			Path: path,
		}
	}
	return nil
}
