package main

import (
	"fmt"
	"net"

	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// ClientProxy is a client connection to the login process
type ClientProxy struct {
	*proto.ChanWorldConnection
	owner    *LoginService
	remoteIP string
}

func newClientProxy(owner *LoginService, conn net.Conn) *ClientProxy {
	return &ClientProxy{
		ChanWorldConnection: proto.NewChanWorldConnection(netutil.NewConnection(conn, false)),
		owner:               owner,
		remoteIP:            netutil.RemoteIP(conn.RemoteAddr()),
	}
}

func (cp *ClientProxy) String() string {
	return fmt.Sprintf("ClientProxy<%s>", cp.RemoteAddr())
}

// RemoteIP returns the ip the client connected from
func (cp *ClientProxy) RemoteIP() string {
	return cp.remoteIP
}

func (cp *ClientProxy) serve() {
	defer func() {
		cp.Close()
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
