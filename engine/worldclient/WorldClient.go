package worldclient

import (
	"net"

	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// WorldClient is a client connection to the world
type WorldClient struct {
	*proto.ChanWorldConnection
	isReconnect bool
}

func newWorldClient(conn net.Conn, compress bool, isReconnect bool) *WorldClient {
	return &WorldClient{
		ChanWorldConnection: proto.NewChanWorldConnection(netutil.NewConnection(conn, compress)),
		isReconnect:         isReconnect,
	}
}

// IsReconnect returns if the client replaces an earlier connection to the world
func (wc *WorldClient) IsReconnect() bool {
	return wc.isReconnect
}
