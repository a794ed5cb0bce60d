package proto

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/presence"
)

// AppendPlayerIDs appends a list of player ids
func AppendPlayerIDs(p *netutil.Packet, ids []common.PlayerID) {
	p.AppendUint32(uint32(len(ids)))
	for _, id := range ids {
		p.AppendInt32(int32(id))
	}
}

// ReadPlayerIDs reads a list of player ids
func ReadPlayerIDs(p *netutil.Packet) []common.PlayerID {
	n := p.ReadUint32()
	ids := make([]common.PlayerID, 0, n)
	for i := uint32(0); i < n; i++ {
		ids = append(ids, common.PlayerID(p.ReadInt32()))
	}
	return ids
}

// AppendRecord appends every field of a player record
func AppendRecord(p *netutil.Packet, r *presence.PlayerRecord) {
	p.AppendInt32(int32(r.ID))
	p.AppendVarStr(r.Name)
	p.AppendUint16(uint16(r.Channel))
	p.AppendInt32(int32(r.Map))
	p.AppendBool(r.CashShop)
	p.AppendBool(r.Mts)
	p.AppendBool(r.Transferring)
	p.AppendByte(r.Level)
	p.AppendUint16(uint16(r.Job))
	p.AppendInt32(r.GMLevel)
	p.AppendBool(r.Admin)
	p.AppendInt32(int32(r.Party))
	AppendPlayerIDs(p, r.MutualBuddies.ToList())
	p.AppendVarStr(r.IP)
	p.AppendBool(r.Initialized)
}

// ReadRecord reads a player record written by AppendRecord
func ReadRecord(p *netutil.Packet) *presence.PlayerRecord {
	r := &presence.PlayerRecord{}
	r.ID = common.PlayerID(p.ReadInt32())
	r.Name = p.ReadVarStr()
	r.Channel = common.ChannelID(p.ReadUint16())
	r.Map = common.MapID(p.ReadInt32())
	r.CashShop = p.ReadBool()
	r.Mts = p.ReadBool()
	r.Transferring = p.ReadBool()
	r.Level = p.ReadOneByte()
	r.Job = int16(p.ReadUint16())
	r.GMLevel = p.ReadInt32()
	r.Admin = p.ReadBool()
	r.Party = common.PartyID(p.ReadInt32())
	r.MutualBuddies = common.NewPlayerIDSet(ReadPlayerIDs(p)...)
	r.IP = p.ReadVarStr()
	r.Initialized = p.ReadBool()
	return r
}

// AppendDelta appends the id, the bits and the flagged fields of an update
func AppendDelta(p *netutil.Packet, u *presence.Update) {
	r := &u.Record
	p.AppendInt32(int32(r.ID))
	p.AppendUint16(uint16(u.Bits))
	if u.Bits.Has(presence.Job) {
		p.AppendUint16(uint16(r.Job))
	}
	if u.Bits.Has(presence.Level) {
		p.AppendByte(r.Level)
	}
	if u.Bits.Has(presence.Map) {
		p.AppendInt32(int32(r.Map))
	}
	if u.Bits.Has(presence.Transfer) {
		p.AppendBool(r.Transferring)
	}
	if u.Bits.Has(presence.Channel) {
		p.AppendUint16(uint16(r.Channel))
	}
	if u.Bits.Has(presence.IP) {
		p.AppendVarStr(r.IP)
	}
	if u.Bits.Has(presence.Cash) {
		p.AppendBool(r.CashShop)
	}
	if u.Bits.Has(presence.Mts) {
		p.AppendBool(r.Mts)
	}
}

// ReadDelta reads an update written by AppendDelta
func ReadDelta(p *netutil.Packet) *presence.Update {
	u := &presence.Update{}
	r := &u.Record
	r.ID = common.PlayerID(p.ReadInt32())
	u.Bits = presence.UpdateBits(p.ReadUint16())
	if u.Bits.Has(presence.Job) {
		r.Job = int16(p.ReadUint16())
	}
	if u.Bits.Has(presence.Level) {
		r.Level = p.ReadOneByte()
	}
	if u.Bits.Has(presence.Map) {
		r.Map = common.MapID(p.ReadInt32())
	}
	if u.Bits.Has(presence.Transfer) {
		r.Transferring = p.ReadBool()
	}
	if u.Bits.Has(presence.Channel) {
		r.Channel = common.ChannelID(p.ReadUint16())
	}
	if u.Bits.Has(presence.IP) {
		r.IP = p.ReadVarStr()
	}
	if u.Bits.Has(presence.Cash) {
		r.CashShop = p.ReadBool()
	}
	if u.Bits.Has(presence.Mts) {
		r.Mts = p.ReadBool()
	}
	return u
}

// PartyMemberView is what a client sees of a party member
type PartyMemberView struct {
	ID      common.PlayerID  `msgpack:"id"`
	Name    string           `msgpack:"n"`
	Channel common.ChannelID `msgpack:"ch"`
	Map     common.MapID     `msgpack:"m"`
	Level   uint8            `msgpack:"lv"`
	Job     int16            `msgpack:"j"`
}

// PartyView is what a client sees of its party, a zero ID means no party
type PartyView struct {
	ID      common.PartyID    `msgpack:"id"`
	Leader  common.PlayerID   `msgpack:"l"`
	Members []PartyMemberView `msgpack:"m"`
}

// EffectView is a timed effect as sent to clients
type EffectView struct {
	Kind        uint8 `msgpack:"k"`
	ID          int32 `msgpack:"i"`
	Level       uint8 `msgpack:"l"`
	RemainingMs int64 `msgpack:"r"`
}
