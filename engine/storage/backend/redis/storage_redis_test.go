package storageredis

import (
	"os"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/typeconv"
)

// needs a running redis, set CHANWORLD_TEST_REDIS=redis://localhost:6379
func TestRedisStorage(t *testing.T) {
	url := os.Getenv("CHANWORLD_TEST_REDIS")
	if url == "" {
		t.Skip("CHANWORLD_TEST_REDIS not set")
	}

	es, err := OpenRedis(url, 0)
	assert.Equal(t, nil, err)
	defer es.Close()

	es.Delete("character", "test42")
	data, err := es.Read("character", "test42")
	assert.Equal(t, nil, err)
	assert.T(t, data == nil)

	err = es.Write("character", "test42", map[string]interface{}{
		"name":  "alice",
		"level": 30,
	})
	assert.Equal(t, nil, err)

	data, err = es.Read("character", "test42")
	assert.Equal(t, nil, err)
	assert.Equal(t, "alice", data["name"])
	assert.Equal(t, int64(30), typeconv.Int(data["level"]))

	keys, err := es.List("character")
	assert.Equal(t, nil, err)
	assert.T(t, len(keys) > 0)

	exists, err := es.Exists("character", "test42")
	assert.Equal(t, nil, err)
	assert.T(t, exists)
	assert.Equal(t, nil, es.Delete("character", "test42"))
}
