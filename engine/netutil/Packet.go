package netutil

import (
	"encoding/binary"
	"sync"
	"sync/atomic"

	"github.com/xiaonanln/chanworld/engine/gwlog"
)

const (
	// MAX_PACKET_SIZE is the max size of a packet, including the size field
	MAX_PACKET_SIZE = 1 * 1024 * 1024
	// SIZE_FIELD_SIZE is the size of the payload length prefix
	SIZE_FIELD_SIZE = 4
	// MAX_PAYLOAD_LENGTH is the max payload length of a packet
	MAX_PAYLOAD_LENGTH = MAX_PACKET_SIZE - SIZE_FIELD_SIZE

	_PREPAYLOAD_SIZE = SIZE_FIELD_SIZE
	_MIN_PAYLOAD_CAP = 128
	_MAX_POOLED_CAP  = 64 * 1024
)

var (
	// NETWORK_ENDIAN is the byte order of all numbers in packets
	NETWORK_ENDIAN = binary.LittleEndian

	packetPool = sync.Pool{
		New: func() interface{} {
			return &Packet{
				bytes: make([]byte, _PREPAYLOAD_SIZE, _PREPAYLOAD_SIZE+_MIN_PAYLOAD_CAP),
			}
		},
	}
)

// Packet is a length-prefixed message buffer for sending and receiving
type Packet struct {
	readCursor uint32
	refcount   int64
	bytes      []byte
}

func allocPacket() *Packet {
	pkt := packetPool.Get().(*Packet)
	pkt.refcount = 1
	if len(pkt.bytes) != _PREPAYLOAD_SIZE {
		gwlog.Panicf("allocPacket: payload should be empty, but is %d", pkt.GetPayloadLen())
	}
	return pkt
}

// NewPacket allocates a new packet
func NewPacket() *Packet {
	return allocPacket()
}

// AddRefCount adds reference count of packet
func (p *Packet) AddRefCount(add int64) {
	atomic.AddInt64(&p.refcount, add)
}

// Release releases the packet to packet pool
func (p *Packet) Release() {
	refcount := atomic.AddInt64(&p.refcount, -1)
	if refcount == 0 {
		if cap(p.bytes) > _MAX_POOLED_CAP {
			p.bytes = make([]byte, _PREPAYLOAD_SIZE, _PREPAYLOAD_SIZE+_MIN_PAYLOAD_CAP)
		} else {
			p.bytes = p.bytes[:_PREPAYLOAD_SIZE]
		}
		p.readCursor = 0
		packetPool.Put(p)
	} else if refcount < 0 {
		gwlog.Panicf("releasing packet with refcount=%d", refcount)
	}
}

// GetPayloadLen returns the payload length
func (p *Packet) GetPayloadLen() uint32 {
	return uint32(len(p.bytes) - _PREPAYLOAD_SIZE)
}

// Payload returns the total payload of packet
func (p *Packet) Payload() []byte {
	return p.bytes[_PREPAYLOAD_SIZE:]
}

// UnreadPayload returns the unread payload
func (p *Packet) UnreadPayload() []byte {
	return p.bytes[_PREPAYLOAD_SIZE+p.readCursor:]
}

// HasUnreadPayload returns if any payload is left unread
func (p *Packet) HasUnreadPayload() bool {
	return p.readCursor < p.GetPayloadLen()
}

// ClearPayload clears packet payload
func (p *Packet) ClearPayload() {
	p.readCursor = 0
	p.bytes = p.bytes[:_PREPAYLOAD_SIZE]
}

// data returns the size field and the payload, ready to be written
func (p *Packet) data() []byte {
	NETWORK_ENDIAN.PutUint32(p.bytes[:SIZE_FIELD_SIZE], p.GetPayloadLen())
	return p.bytes
}

func (p *Packet) extend(n int) []byte {
	if p.GetPayloadLen()+uint32(n) > MAX_PAYLOAD_LENGTH {
		gwlog.Panicf("packet payload too long: %d + %d", p.GetPayloadLen(), n)
	}
	oldLen := len(p.bytes)
	if oldLen+n > cap(p.bytes) {
		grown := make([]byte, oldLen, 2*cap(p.bytes)+n)
		copy(grown, p.bytes)
		p.bytes = grown
	}
	p.bytes = p.bytes[:oldLen+n]
	return p.bytes[oldLen:]
}

func (p *Packet) next(n uint32) []byte {
	pos := _PREPAYLOAD_SIZE + p.readCursor
	if p.readCursor+n > p.GetPayloadLen() {
		gwlog.Panicf("packet underflow: read %d at %d, payload length %d", n, p.readCursor, p.GetPayloadLen())
	}
	p.readCursor += n
	return p.bytes[pos : pos+n]
}

// AppendByte appends one byte to the end of payload
func (p *Packet) AppendByte(b byte) {
	p.extend(1)[0] = b
}

// ReadOneByte reads one byte from the beginning of unread payload
func (p *Packet) ReadOneByte() byte {
	return p.next(1)[0]
}

// AppendBool appends one byte 1/0 to the end of payload
func (p *Packet) AppendBool(b bool) {
	if b {
		p.AppendByte(1)
	} else {
		p.AppendByte(0)
	}
}

// ReadBool reads one byte 1/0 from the beginning of unread payload
func (p *Packet) ReadBool() bool {
	return p.ReadOneByte() != 0
}

// AppendUint16 appends one uint16 to the end of payload
func (p *Packet) AppendUint16(v uint16) {
	NETWORK_ENDIAN.PutUint16(p.extend(2), v)
}

// ReadUint16 reads one uint16 from the beginning of unread payload
func (p *Packet) ReadUint16() uint16 {
	return NETWORK_ENDIAN.Uint16(p.next(2))
}

// AppendUint32 appends one uint32 to the end of payload
func (p *Packet) AppendUint32(v uint32) {
	NETWORK_ENDIAN.PutUint32(p.extend(4), v)
}

// ReadUint32 reads one uint32 from the beginning of unread payload
func (p *Packet) ReadUint32() uint32 {
	return NETWORK_ENDIAN.Uint32(p.next(4))
}

// AppendInt32 appends one int32 to the end of payload
func (p *Packet) AppendInt32(v int32) {
	p.AppendUint32(uint32(v))
}

// ReadInt32 reads one int32 from the beginning of unread payload
func (p *Packet) ReadInt32() int32 {
	return int32(p.ReadUint32())
}

// AppendUint64 appends one uint64 to the end of payload
func (p *Packet) AppendUint64(v uint64) {
	NETWORK_ENDIAN.PutUint64(p.extend(8), v)
}

// ReadUint64 reads one uint64 from the beginning of unread payload
func (p *Packet) ReadUint64() uint64 {
	return NETWORK_ENDIAN.Uint64(p.next(8))
}

// AppendBytes appends slice of bytes to the end of payload
func (p *Packet) AppendBytes(v []byte) {
	copy(p.extend(len(v)), v)
}

// ReadBytes reads bytes from the beginning of unread payload, the result is only valid before the packet is released
func (p *Packet) ReadBytes(size uint32) []byte {
	return p.next(size)
}

// AppendVarBytes appends bytes with a length prefix
func (p *Packet) AppendVarBytes(v []byte) {
	p.AppendUint32(uint32(len(v)))
	p.AppendBytes(v)
}

// ReadVarBytes reads a copy of length-prefixed bytes
func (p *Packet) ReadVarBytes() []byte {
	n := p.ReadUint32()
	if n == 0 {
		return nil
	}
	b := make([]byte, n)
	copy(b, p.ReadBytes(n))
	return b
}

// AppendVarStr appends a string with a length prefix
func (p *Packet) AppendVarStr(s string) {
	p.AppendUint32(uint32(len(s)))
	copy(p.extend(len(s)), s)
}

// ReadVarStr reads a length-prefixed string
func (p *Packet) ReadVarStr() string {
	n := p.ReadUint32()
	return string(p.ReadBytes(n))
}

// AppendData appends a value packed by MSG_PACKER
func (p *Packet) AppendData(msg interface{}) {
	data, err := MSG_PACKER.PackMsg(msg, nil)
	if err != nil {
		gwlog.Panic(err)
	}
	p.AppendVarBytes(data)
}

// ReadData reads a value packed by MSG_PACKER
func (p *Packet) ReadData(msg interface{}) {
	n := p.ReadUint32()
	if err := MSG_PACKER.UnpackMsg(p.ReadBytes(n), msg); err != nil {
		gwlog.Panic(err)
	}
}
