package main

import (
	"fmt"
	"net"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// WorldClientProxy is a channel or login connection accepted by the world
type WorldClientProxy struct {
	*proto.ChanWorldConnection
	owner *WorldService

	// set on registration, only touched by the world main routine
	channelID common.ChannelID
	isLogin   bool
}

func newWorldClientProxy(owner *WorldService, conn net.Conn) *WorldClientProxy {
	return &WorldClientProxy{
		ChanWorldConnection: proto.NewChanWorldConnection(netutil.NewConnection(conn, owner.config.CompressConnection)),
		owner:               owner,
	}
}

func (proxy *WorldClientProxy) serve() {
	defer func() {
		proxy.Close()
		proxy.owner.posts.Post(func() {
			proxy.owner.onProxyClose(proxy)
		})

		if err := recover(); err != nil && !netutil.IsConnectionError(err) {
			gwlog.TraceError("%s paniced with error: %v", proxy, err)
		} else {
			gwlog.Infof("%s disconnected", proxy)
		}
	}()

	gwlog.Infof("New world client: %s", proxy)
	for {
		var msgtype proto.MsgType
		pkt, err := proxy.Recv(&msgtype)
		if err != nil {
			gwlog.Panic(err)
		}
		proxy.owner.packetQueue <- packetQueueItem{proxy: proxy, msgtype: msgtype, packet: pkt}
	}
}

func (proxy *WorldClientProxy) String() string {
	return fmt.Sprintf("WorldClientProxy<%s>", proxy.RemoteAddr())
}
