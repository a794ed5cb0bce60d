package netutil

import (
	"net"
	"time"

	"github.com/xiaonanln/chanworld/engine/gwlog"
)

const (
	_RESTART_TCP_SERVER_INTERVAL = 3 * time.Second
)

// TCPServerDelegate is the implementations that a TCP server should provide
type TCPServerDelegate interface {
	ServeTCPConnection(net.Conn)
}

// ServeTCPForever serves on specified address as TCP server, for ever ...
func ServeTCPForever(listenAddr string, delegate TCPServerDelegate) {
	for {
		err := serveTCPForeverOnce(listenAddr, delegate)
		gwlog.Errorf("server@%s failed with error: %v, will restart after %s", listenAddr, err, _RESTART_TCP_SERVER_INTERVAL)
		time.Sleep(_RESTART_TCP_SERVER_INTERVAL)
	}
}

func serveTCPForeverOnce(listenAddr string, delegate TCPServerDelegate) (err error) {
	defer func() {
		if e := recover(); e != nil {
			gwlog.TraceError("serveTCPForeverOnce: paniced with error %s", e)
		}
	}()

	return ServeTCP(listenAddr, delegate)
}

// ServeTCP serves on specified address as TCP server
func ServeTCP(listenAddr string, delegate TCPServerDelegate) error {
	ln, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return err
	}
	gwlog.Infof("Listening on TCP: %s ...", listenAddr)
	return ServeListener(ln, delegate)
}

// ServeListener accepts connections from the listener until it fails
func ServeListener(ln net.Listener, delegate TCPServerDelegate) error {
	defer ln.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if IsTemporaryError(err) {
				continue
			}
			return err
		}

		gwlog.Debugf("Connection from: %s", conn.RemoteAddr())
		go delegate.ServeTCPConnection(conn)
	}
}
