package netutil

import (
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/go-xnsyncutil/xnsyncutil"
)

// PacketConnection is a connection that send and receive length-prefixed packets upon a stream connection
type PacketConnection struct {
	conn     Connection
	sendLock sync.Mutex
	closed   xnsyncutil.AtomicBool
}

// NewPacketConnection creates a packet connection based on network connection
func NewPacketConnection(conn Connection) *PacketConnection {
	return &PacketConnection{
		conn: conn,
	}
}

// NewPacket allocates a new packet (usually for sending)
func (pc *PacketConnection) NewPacket() *Packet {
	return NewPacket()
}

// SendPacket writes and flushes the packet; packets from concurrent senders never interleave
func (pc *PacketConnection) SendPacket(packet *Packet) error {
	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s SEND PACKET: %v", pc, packet.Payload())
	}
	pc.sendLock.Lock()
	defer pc.sendLock.Unlock()
	if _, err := pc.conn.Write(packet.data()); err != nil {
		return err
	}
	return pc.conn.Flush()
}

// RecvPacket receives the next packet
func (pc *PacketConnection) RecvPacket() (*Packet, error) {
	var sizeField [SIZE_FIELD_SIZE]byte
	if _, err := io.ReadFull(pc.conn, sizeField[:]); err != nil {
		return nil, err
	}

	payloadLen := NETWORK_ENDIAN.Uint32(sizeField[:])
	if payloadLen > MAX_PAYLOAD_LENGTH {
		return nil, errors.Errorf("packet payload too large: %d", payloadLen)
	}

	packet := allocPacket()
	if _, err := io.ReadFull(pc.conn, packet.extend(int(payloadLen))); err != nil {
		packet.Release()
		return nil, err
	}
	return packet, nil
}

// Close the connection
func (pc *PacketConnection) Close() error {
	if pc.closed.Load() {
		return nil
	}
	pc.closed.Store(true)
	return pc.conn.Close()
}

// IsClosed returns if the connection is closed
func (pc *PacketConnection) IsClosed() bool {
	return pc.closed.Load()
}

// RemoteAddr return the remote address
func (pc *PacketConnection) RemoteAddr() net.Addr {
	return pc.conn.RemoteAddr()
}

// LocalAddr returns the local address
func (pc *PacketConnection) LocalAddr() net.Addr {
	return pc.conn.LocalAddr()
}

func (pc *PacketConnection) String() string {
	return fmt.Sprintf("[%s >>> %s]", pc.LocalAddr(), pc.RemoteAddr())
}
