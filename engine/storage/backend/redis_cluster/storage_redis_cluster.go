package storagerediscluster

import (
	"time"

	rediscluster "github.com/chasex/redis-go-cluster"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/storage/backend/redis"
	"github.com/xiaonanln/chanworld/engine/storage/storage_common"
)

// OpenRedisCluster opens a redis cluster as storage backend
func OpenRedisCluster(startNodes []string) (storagecommon.Backend, error) {
	c, err := rediscluster.NewCluster(&rediscluster.Options{
		StartNodes:   startNodes,
		ConnTimeout:  10 * time.Second, // Connection timeout
		ReadTimeout:  60 * time.Second, // Read timeout
		WriteTimeout: 60 * time.Second, // Write timeout
		KeepAlive:    1,                // Maximum keep alive connecion in each node
		AliveTime:    10 * time.Minute, // Keep alive timeout
	})

	if err != nil {
		return nil, errors.Wrap(err, "connect redis cluster failed")
	}

	// the cluster client keeps no pool to close
	return storageredis.NewBackend(c, func() {}), nil
}
