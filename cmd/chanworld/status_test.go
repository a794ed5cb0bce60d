package main

import (
	"path/filepath"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
)

func TestChannelArg(t *testing.T) {
	assert.Equal(t, common.ChannelID(3), channelArg([]string{"./channel", "-cid", "3", "-d"}))
	assert.Equal(t, common.ChannelID(12), channelArg([]string{"./channel", "-cid=12"}))
	assert.Equal(t, common.ChannelID(2), channelArg([]string{"./channel", "--cid", "2"}))
	assert.Equal(t, common.NoChannel, channelArg([]string{"./channel", "-cid", "x"}))
	assert.Equal(t, common.NoChannel, channelArg([]string{"./channel"}))
}

func TestClassifyProcess(t *testing.T) {
	root := filepath.FromSlash("/srv/chanworld")

	kind, _, ok := classifyProcess(root, filepath.Join(root, "world"+BinaryExtension), nil)
	assert.T(t, ok)
	assert.Equal(t, kindWorld, kind)

	kind, _, ok = classifyProcess(root, filepath.Join(root, "bin", "login"+BinaryExtension), nil)
	assert.T(t, ok)
	assert.Equal(t, kindLogin, kind)

	kind, channel, ok := classifyProcess(root, filepath.Join(root, "channel"+BinaryExtension), []string{"channel", "-cid", "4"})
	assert.T(t, ok)
	assert.Equal(t, kindChannel, kind)
	assert.Equal(t, common.ChannelID(4), channel)

	_, _, ok = classifyProcess(root, filepath.Join(root, "channel"+BinaryExtension), []string{"channel"})
	assert.T(t, !ok)
	_, _, ok = classifyProcess(root, filepath.FromSlash("/usr/bin/world"), nil)
	assert.T(t, !ok)
	_, _, ok = classifyProcess(root, filepath.Join(root, "redis-server"), nil)
	assert.T(t, !ok)
}
