package proto

import (
	"net"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
)

func pipeConnections() (*ChanWorldConnection, *ChanWorldConnection) {
	c1, c2 := net.Pipe()
	return NewChanWorldConnection(netutil.NetConn{Conn: c1}), NewChanWorldConnection(netutil.NetConn{Conn: c2})
}

func testRecord() *presence.PlayerRecord {
	return &presence.PlayerRecord{
		ID:            42,
		Name:          "alice",
		Channel:       2,
		Map:           100000000,
		CashShop:      true,
		Level:         70,
		Job:           -1,
		GMLevel:       1,
		Party:         7,
		MutualBuddies: common.NewPlayerIDSet(1, 2, 3),
		IP:            "1.2.3.4",
		Initialized:   true,
	}
}

func TestFullRecordOverConnection(t *testing.T) {
	a, b := pipeConnections()
	defer a.Close()
	defer b.Close()

	rec := testRecord()
	go a.SendPlayerFull(rec)

	var msgtype MsgType
	pkt, err := b.Recv(&msgtype)
	assert.Equal(t, nil, err)
	assert.Equal(t, MsgType(MT_PLAYER_FULL), msgtype)
	assert.Equal(t, rec, ReadRecord(pkt))
	pkt.Release()
}

func TestDeltaOverConnection(t *testing.T) {
	a, b := pipeConnections()
	defer a.Close()
	defer b.Close()

	rec := testRecord()
	rec.Transferring = true
	go a.SendPlayerDelta(presence.NewDelta(rec, presence.Channel|presence.Transfer|presence.IP|presence.Map))

	var msgtype MsgType
	pkt, err := b.Recv(&msgtype)
	assert.Equal(t, nil, err)
	assert.Equal(t, MsgType(MT_PLAYER_DELTA), msgtype)
	u := ReadDelta(pkt)
	assert.Equal(t, presence.Channel|presence.Transfer|presence.IP|presence.Map, u.Bits)
	assert.Equal(t, rec.Channel, u.Record.Channel)
	assert.Equal(t, true, u.Record.Transferring)
	assert.Equal(t, rec.IP, u.Record.IP)
	assert.Equal(t, rec.Map, u.Record.Map)
	assert.Equal(t, uint8(0), u.Record.Level)
	assert.Equal(t, false, pkt.HasUnreadPayload())
	pkt.Release()
}

func TestSnapshotOverConnection(t *testing.T) {
	a, b := pipeConnections()
	defer a.Close()
	defer b.Close()

	p := party.New(7, 42, "alice")
	p.AddMember(43, "bob")
	go a.SendChannelSnapshot([]*presence.PlayerRecord{testRecord()}, []party.Snapshot{p.Snapshot()})

	var msgtype MsgType
	pkt, err := b.Recv(&msgtype)
	assert.Equal(t, nil, err)
	assert.Equal(t, MsgType(MT_CHANNEL_SNAPSHOT), msgtype)
	n := pkt.ReadUint32()
	assert.Equal(t, uint32(1), n)
	assert.Equal(t, testRecord(), ReadRecord(pkt))
	var parties []party.Snapshot
	pkt.ReadData(&parties)
	assert.Equal(t, []party.Snapshot{p.Snapshot()}, parties)
	pkt.Release()
}

func TestChatGroupOverConnection(t *testing.T) {
	a, b := pipeConnections()
	defer a.Close()
	defer b.Close()

	go a.SendChatGroup(CHAT_PARTY, 42, []common.PlayerID{5, 6}, "hi")

	var msgtype MsgType
	pkt, err := b.Recv(&msgtype)
	assert.Equal(t, nil, err)
	assert.Equal(t, MsgType(MT_CHAT_GROUP), msgtype)
	assert.Equal(t, CHAT_PARTY, ChatType(pkt.ReadOneByte()))
	assert.Equal(t, int32(42), pkt.ReadInt32())
	assert.Equal(t, []common.PlayerID{5, 6}, ReadPlayerIDs(pkt))
	assert.Equal(t, "hi", pkt.ReadVarStr())
	pkt.Release()
}
