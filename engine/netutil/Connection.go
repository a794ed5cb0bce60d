package netutil

import (
	"net"

	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/netconnutil"
)

// Connection is a net.Conn that buffers writes until Flush
type Connection interface {
	netconnutil.FlushableConn
}

// NetConn makes a raw net.Conn a Connection
type NetConn struct {
	net.Conn
}

// Flush does nothing since raw connections are not buffered
func (n NetConn) Flush() error {
	return nil
}

// NewConnection wraps a raw connection with temp error retry, optional snappy compression and buffering
func NewConnection(conn net.Conn, compress bool) Connection {
	conn = netconnutil.NewNoTempErrorConn(conn)
	var c Connection = NetConn{conn}
	if compress {
		c = netconnutil.NewSnappyConn(c)
	}
	return netconnutil.NewBufferedConn(c, consts.BUFFERED_READ_BUFFSIZE, consts.BUFFERED_WRITE_BUFFSIZE)
}
