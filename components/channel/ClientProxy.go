package main

import (
	"fmt"
	"net"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// ClientProxy is a game client connection managed by the channel
type ClientProxy struct {
	*proto.ChanWorldConnection
	owner    *ChannelService
	remoteIP string

	// set by MT_CLIENT_CONNECT, only touched by the channel main routine
	playerID common.PlayerID
}

func newClientProxy(owner *ChannelService, conn net.Conn) *ClientProxy {
	return &ClientProxy{
		ChanWorldConnection: proto.NewChanWorldConnection(netutil.NewConnection(conn, false)),
		owner:               owner,
		remoteIP:            netutil.RemoteIP(conn.RemoteAddr()),
	}
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%d@%s>", cp.playerID, cp.RemoteAddr())
}

// PlayerID returns the player the client connected as
func (cp *ClientProxy) PlayerID() common.PlayerID {
	return cp.playerID
}

// RemoteIP returns the ip the client connected from
func (cp *ClientProxy) RemoteIP() string {
	return cp.remoteIP
}

// CanChangeChannel returns false once the connection is closing
func (cp *ClientProxy) CanChangeChannel() bool {
	return !cp.IsClosed()
}

func (cp *ClientProxy) serve() {
	defer func() {
		cp.Close()
		// tell the channel service that this client is down
		cp.owner.posts.Post(func() {
			cp.owner.onClientProxyClose(cp)
		})

		if err := recover(); err != nil && !netutil.IsConnectionError(err) {
			gwlog.TraceError("%s error: %v", cp, err)
		} else if consts.DEBUG_CLIENTS {
			gwlog.Debugf("%s disconnected", cp)
		}
	}()

	for {
		var msgtype proto.MsgType
		pkt, err := cp.Recv(&msgtype)
		if err != nil {
			gwlog.Panic(err)
		}
		cp.owner.clientPacketQueue <- clientPacketQueueItem{cp: cp, msgtype: msgtype, packet: pkt}
	}
}
