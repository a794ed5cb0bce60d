package storageredis

import (
	"io"

	"github.com/garyburd/redigo/redis"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/storage/storage_common"
)

var (
	dataPacker = netutil.MessagePackMsgPacker{}
)

// Commander is the part of a redis connection used by the backend, satisfied by redis.Conn and the cluster client
type Commander interface {
	Do(cmd string, args ...interface{}) (interface{}, error)
}

type redisStorage struct {
	c     Commander
	close func()
}

// OpenRedis opens redis as storage backend
func OpenRedis(url string, dbindex int) (storagecommon.Backend, error) {
	c, err := redis.DialURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redis dail failed")
	}

	if _, err := c.Do("SELECT", dbindex); err != nil {
		c.Close()
		return nil, errors.Wrap(err, "redis select db failed")
	}

	return NewBackend(c, func() { c.Close() }), nil
}

// NewBackend creates a storage backend over any redis commander
func NewBackend(c Commander, close func()) storagecommon.Backend {
	return &redisStorage{
		c:     c,
		close: close,
	}
}

func documentKey(kind string, key string) string {
	return kind + "$" + key
}

func (es *redisStorage) List(kind string) ([]string, error) {
	keyMatch := kind + "$*"
	prefixLen := len(kind) + 1
	var keys []string
	cursor := interface{}("0")
	for {
		r, err := redis.Values(es.c.Do("SCAN", cursor, "MATCH", keyMatch, "COUNT", 10000))
		if err != nil {
			return nil, err
		}
		found, err := redis.Strings(r[1], nil)
		if err != nil {
			return nil, err
		}
		for _, k := range found {
			keys = append(keys, k[prefixLen:])
		}

		cursor = r[0]
		if isZeroCursor(cursor) {
			break
		}
	}
	return keys, nil
}

func isZeroCursor(c interface{}) bool {
	return string(c.([]byte)) == "0"
}

func (es *redisStorage) Write(kind string, key string, data map[string]interface{}) error {
	b, err := dataPacker.PackMsg(data, nil)
	if err != nil {
		return err
	}

	_, err = es.c.Do("SET", documentKey(kind, key), b)
	return err
}

func (es *redisStorage) Read(kind string, key string) (map[string]interface{}, error) {
	b, err := redis.Bytes(es.c.Do("GET", documentKey(kind, key)))
	if err == redis.ErrNil {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err = dataPacker.UnpackMsg(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (es *redisStorage) Exists(kind string, key string) (bool, error) {
	return redis.Bool(es.c.Do("EXISTS", documentKey(kind, key)))
}

func (es *redisStorage) Delete(kind string, key string) error {
	_, err := es.c.Do("DEL", documentKey(kind, key))
	return err
}

func (es *redisStorage) Close() {
	if es.close != nil {
		es.close()
	}
}

func (es *redisStorage) IsEOF(err error) bool {
	err = errors.Cause(err)
	return err == io.EOF || err == io.ErrUnexpectedEOF
}
