package netutil

import (
	"fmt"
	"io"
	"net"

	"github.com/pkg/errors"
)

// IsConnectionError check if the error is a connection error (close)
func IsConnectionError(_err interface{}) bool {
	err, ok := _err.(error)
	if !ok {
		return false
	}

	err = errors.Cause(err)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return true
	}

	neterr, ok := err.(net.Error)
	if !ok {
		return false
	}
	if neterr.Timeout() {
		return false
	}

	return true
}

// IsTemporaryError checks if the error is a timeout or temporary network error
func IsTemporaryError(err error) bool {
	neterr, ok := errors.Cause(err).(net.Error)
	return ok && (neterr.Timeout() || neterr.Temporary())
}

// ConnectTCP connects to host:port in TCP
func ConnectTCP(host string, port int) (net.Conn, error) {
	addr := fmt.Sprintf("%s:%d", host, port)
	conn, err := net.Dial("tcp", addr)
	return conn, errors.Wrapf(err, "connect %s failed", addr)
}

// RemoteIP returns the ip part of a remote address
func RemoteIP(addr net.Addr) string {
	if addr == nil {
		return ""
	}
	host, _, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String()
	}
	return host
}
