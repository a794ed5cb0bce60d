package netutil

import (
	"github.com/vmihailenco/msgpack"
)

// MSG_PACKER packs structured values carried inside packets (effect tables, listings, snapshots)
var MSG_PACKER MsgPacker = MessagePackMsgPacker{}

// MsgPacker packs and unpacks values
type MsgPacker interface {
	PackMsg(msg interface{}, buf []byte) ([]byte, error)
	UnpackMsg(data []byte, msg interface{}) error
}

// MessagePackMsgPacker packs and unpacks values in MessagePack format
type MessagePackMsgPacker struct{}

// PackMsg appends msg in MessagePack format to buf
func (mp MessagePackMsgPacker) PackMsg(msg interface{}, buf []byte) ([]byte, error) {
	data, err := msgpack.Marshal(msg)
	if err != nil {
		return buf, err
	}
	return append(buf, data...), nil
}

// UnpackMsg unpacks MessagePack data into msg
func (mp MessagePackMsgPacker) UnpackMsg(data []byte, msg interface{}) error {
	return msgpack.Unmarshal(data, msg)
}
