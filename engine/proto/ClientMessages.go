package proto

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/presence"
)

// Messages sent by servers to clients

// SendEstablished sends MT_CLIENT_ESTABLISHED message
func (cwc *ChanWorldConnection) SendEstablished(r *presence.PlayerRecord, effects []EffectView) error {
	packet := cwc.newPacket(MT_CLIENT_ESTABLISHED)
	AppendRecord(packet, r)
	packet.AppendData(effects)
	return cwc.SendPacketRelease(packet)
}

// SendClientChannelGo sends MT_CLIENT_CHANNEL_GO message
func (cwc *ChanWorldConnection) SendClientChannelGo(ip string, port int) error {
	packet := cwc.newPacket(MT_CLIENT_CHANNEL_GO)
	packet.AppendVarStr(ip)
	packet.AppendUint32(uint32(port))
	return cwc.SendPacketRelease(packet)
}

// SendCannotGo sends MT_CLIENT_CANNOT_GO message
func (cwc *ChanWorldConnection) SendCannotGo() error {
	return cwc.SendPacketRelease(cwc.newPacket(MT_CLIENT_CANNOT_GO))
}

// SendChangeMap sends MT_CLIENT_CHANGE_MAP message
func (cwc *ChanWorldConnection) SendChangeMap(m common.MapID) error {
	packet := cwc.newPacket(MT_CLIENT_CHANGE_MAP)
	packet.AppendInt32(int32(m))
	return cwc.SendPacketRelease(packet)
}

// SendAddEffect sends MT_CLIENT_ADD_EFFECT message
func (cwc *ChanWorldConnection) SendAddEffect(e EffectView) error {
	packet := cwc.newPacket(MT_CLIENT_ADD_EFFECT)
	packet.AppendData(e)
	return cwc.SendPacketRelease(packet)
}

// SendEffectExpired sends MT_CLIENT_EFFECT_EXPIRED message
func (cwc *ChanWorldConnection) SendEffectExpired(kind uint8, id int32) error {
	packet := cwc.newPacket(MT_CLIENT_EFFECT_EXPIRED)
	packet.AppendByte(kind)
	packet.AppendInt32(id)
	return cwc.SendPacketRelease(packet)
}

// SendChat sends MT_CLIENT_CHAT message
func (cwc *ChanWorldConnection) SendChat(chatType ChatType, from string, text string) error {
	packet := cwc.newPacket(MT_CLIENT_CHAT)
	packet.AppendByte(byte(chatType))
	packet.AppendVarStr(from)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendNotice sends MT_CLIENT_NOTICE message
func (cwc *ChanWorldConnection) SendNotice(text string) error {
	packet := cwc.newPacket(MT_CLIENT_NOTICE)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendPartyUpdate sends MT_CLIENT_PARTY_UPDATE message
func (cwc *ChanWorldConnection) SendPartyUpdate(view *PartyView) error {
	packet := cwc.newPacket(MT_CLIENT_PARTY_UPDATE)
	packet.AppendData(view)
	return cwc.SendPacketRelease(packet)
}

// SendBuddyInvited sends MT_CLIENT_BUDDY_INVITED message
func (cwc *ChanWorldConnection) SendBuddyInvited(inviter common.PlayerID, name string) error {
	packet := cwc.newPacket(MT_CLIENT_BUDDY_INVITED)
	packet.AppendInt32(int32(inviter))
	packet.AppendVarStr(name)
	return cwc.SendPacketRelease(packet)
}

// SendBuddyPresence sends MT_CLIENT_BUDDY_PRESENCE message
func (cwc *ChanWorldConnection) SendBuddyPresence(id common.PlayerID, channel common.ChannelID, cashShop bool) error {
	packet := cwc.newPacket(MT_CLIENT_BUDDY_PRESENCE)
	packet.AppendInt32(int32(id))
	packet.AppendUint16(uint16(channel))
	packet.AppendBool(cashShop)
	return cwc.SendPacketRelease(packet)
}

// SendCharacterCreatedToClient sends MT_CLIENT_CHARACTER_CREATED message, id 0 means the name is taken
func (cwc *ChanWorldConnection) SendCharacterCreatedToClient(id common.PlayerID) error {
	packet := cwc.newPacket(MT_CLIENT_CHARACTER_CREATED)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// Messages sent by clients

// SendConnect sends MT_CLIENT_CONNECT message
func (cwc *ChanWorldConnection) SendConnect(id common.PlayerID) error {
	packet := cwc.newPacket(MT_CLIENT_CONNECT)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendChangeChannel sends MT_CLIENT_CHANGE_CHANNEL message
func (cwc *ChanWorldConnection) SendChangeChannel(dest common.ChannelID) error {
	packet := cwc.newPacket(MT_CLIENT_CHANGE_CHANNEL)
	packet.AppendUint16(uint16(dest))
	return cwc.SendPacketRelease(packet)
}

// SendSetFlag sends MT_CLIENT_SET_CASH_SHOP or MT_CLIENT_SET_MTS message
func (cwc *ChanWorldConnection) SendSetFlag(msgtype MsgType, on bool) error {
	packet := cwc.newPacket(msgtype)
	packet.AppendBool(on)
	return cwc.SendPacketRelease(packet)
}

// SendProgress sends MT_CLIENT_PROGRESS message
func (cwc *ChanWorldConnection) SendProgress(level uint8, job int16) error {
	packet := cwc.newPacket(MT_CLIENT_PROGRESS)
	packet.AppendByte(level)
	packet.AppendUint16(uint16(job))
	return cwc.SendPacketRelease(packet)
}

// SendGroupChat sends MT_CLIENT_GROUP_CHAT message
func (cwc *ChanWorldConnection) SendGroupChat(chatType ChatType, recipients []common.PlayerID, text string) error {
	packet := cwc.newPacket(MT_CLIENT_GROUP_CHAT)
	packet.AppendByte(byte(chatType))
	AppendPlayerIDs(packet, recipients)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendGmChat sends MT_CLIENT_GM_CHAT message
func (cwc *ChanWorldConnection) SendGmChat(text string) error {
	packet := cwc.newPacket(MT_CLIENT_GM_CHAT)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendPlayerCommand sends a client message carrying one player id (follow, kick, change leader, buddy ops, delete character)
func (cwc *ChanWorldConnection) SendPlayerCommand(msgtype MsgType, id common.PlayerID) error {
	packet := cwc.newPacket(msgtype)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendCommand sends a client message without arguments (stop follow, create/leave/disband party)
func (cwc *ChanWorldConnection) SendCommand(msgtype MsgType) error {
	return cwc.SendPacketRelease(cwc.newPacket(msgtype))
}

// SendBuddyInviteByName sends MT_CLIENT_BUDDY_INVITE message
func (cwc *ChanWorldConnection) SendBuddyInviteByName(name string) error {
	packet := cwc.newPacket(MT_CLIENT_BUDDY_INVITE)
	packet.AppendVarStr(name)
	return cwc.SendPacketRelease(packet)
}

// SendCreateCharacter sends MT_CLIENT_CREATE_CHARACTER message
func (cwc *ChanWorldConnection) SendCreateCharacter(name string) error {
	packet := cwc.newPacket(MT_CLIENT_CREATE_CHARACTER)
	packet.AppendVarStr(name)
	return cwc.SendPacketRelease(packet)
}

// SendSelectCharacter sends MT_CLIENT_SELECT_CHARACTER message
func (cwc *ChanWorldConnection) SendSelectCharacter(id common.PlayerID, channel common.ChannelID) error {
	packet := cwc.newPacket(MT_CLIENT_SELECT_CHARACTER)
	packet.AppendInt32(int32(id))
	packet.AppendUint16(uint16(channel))
	return cwc.SendPacketRelease(packet)
}
