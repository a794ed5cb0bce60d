package config

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

func init() {
	SetConfigFile("../../chanworld.ini.sample")
}

func TestLoad(t *testing.T) {
	config := Get()
	if config == nil {
		t.FailNow()
	}
	gwlog.Debugf("chanworld config: \n%s", DumpPretty(config))
	assert.Equal(t, "127.0.0.1", config.World.Ip)
	assert.Equal(t, 13000, config.World.Port)
	assert.Equal(t, 14000, config.Login.Port)
}

func TestReload(t *testing.T) {
	first := Get()
	config := Reload()
	assert.T(t, first != config, "reload should re-read the config")
	assert.Equal(t, first.World, config.World)
}

func TestGetChannel(t *testing.T) {
	ch1 := GetChannel(1)
	assert.T(t, ch1 != nil, "channel1 not found")
	assert.Equal(t, 14001, ch1.Port)
	assert.Equal(t, 14101, ch1.KCPPort)
	assert.Equal(t, 25001, ch1.HTTPPort)
	assert.Equal(t, "127.0.0.1", ch1.ExternalIp)
	assert.Equal(t, 10*time.Minute, ch1.SaveInterval)
	assert.Equal(t, 10*time.Second, ch1.HandoverAckTimeout)

	ch2 := GetChannel(2)
	assert.Equal(t, 14002, ch2.Port)
	assert.Equal(t, 0, ch2.KCPPort)
	assert.Equal(t, 1000, ch2.MaxPopulation)

	assert.T(t, GetChannel(3) == nil, "channel3 should not exist")
}

func TestGetChannelIDs(t *testing.T) {
	assert.Equal(t, []common.ChannelID{1, 2}, GetChannelIDs())
}

func TestGetStorage(t *testing.T) {
	cfg := GetStorage()
	assert.Equal(t, "filesystem", cfg.Type)
	assert.Equal(t, "_chanworld_storage", cfg.Directory)
}

func TestGetConfigDir(t *testing.T) {
	assert.Equal(t, "../../", GetConfigDir())
}
