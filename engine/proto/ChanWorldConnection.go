package proto

import (
	"net"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
)

// ChanWorldConnection is the network protocol implementation of chanworld components (world, channel, login, client)
type ChanWorldConnection struct {
	packetConn *netutil.PacketConnection
}

// NewChanWorldConnection creates a ChanWorldConnection using network connection
func NewChanWorldConnection(conn netutil.Connection) *ChanWorldConnection {
	return &ChanWorldConnection{
		packetConn: netutil.NewPacketConnection(conn),
	}
}

func (cwc *ChanWorldConnection) newPacket(msgtype MsgType) *netutil.Packet {
	packet := cwc.packetConn.NewPacket()
	packet.AppendUint16(uint16(msgtype))
	return packet
}

// SendChannelRegister sends MT_CHANNEL_REGISTER message
func (cwc *ChanWorldConnection) SendChannelRegister(id common.ChannelID, externalIP string, port int) error {
	packet := cwc.newPacket(MT_CHANNEL_REGISTER)
	packet.AppendUint16(uint16(id))
	packet.AppendVarStr(externalIP)
	packet.AppendUint32(uint32(port))
	return cwc.SendPacketRelease(packet)
}

// SendChannelSnapshot sends MT_CHANNEL_SNAPSHOT message
func (cwc *ChanWorldConnection) SendChannelSnapshot(records []*presence.PlayerRecord, parties []party.Snapshot) error {
	packet := cwc.newPacket(MT_CHANNEL_SNAPSHOT)
	packet.AppendUint32(uint32(len(records)))
	for _, r := range records {
		AppendRecord(packet, r)
	}
	packet.AppendData(parties)
	return cwc.SendPacketRelease(packet)
}

// SendChannelLoad sends MT_CHANNEL_LOAD message
func (cwc *ChanWorldConnection) SendChannelLoad(info ChannelLoadInfo) error {
	packet := cwc.newPacket(MT_CHANNEL_LOAD)
	packet.AppendData(info)
	return cwc.SendPacketRelease(packet)
}

// SendLoginRegister sends MT_LOGIN_REGISTER message
func (cwc *ChanWorldConnection) SendLoginRegister() error {
	return cwc.SendPacketRelease(cwc.newPacket(MT_LOGIN_REGISTER))
}

// SendPlayerFull sends MT_PLAYER_FULL message
func (cwc *ChanWorldConnection) SendPlayerFull(r *presence.PlayerRecord) error {
	packet := cwc.newPacket(MT_PLAYER_FULL)
	AppendRecord(packet, r)
	return cwc.SendPacketRelease(packet)
}

// SendPlayerDelta sends MT_PLAYER_DELTA message, a Full update is sent as MT_PLAYER_FULL
func (cwc *ChanWorldConnection) SendPlayerDelta(u *presence.Update) error {
	if u.Bits.Has(presence.Full) {
		return cwc.SendPlayerFull(&u.Record)
	}
	packet := cwc.newPacket(MT_PLAYER_DELTA)
	AppendDelta(packet, u)
	return cwc.SendPacketRelease(packet)
}

// SendConnectableNew sends MT_PLAYER_CONNECTABLE_NEW message, switching is false for logins
func (cwc *ChanWorldConnection) SendConnectableNew(id common.PlayerID, ip string, switching bool, blob []byte) error {
	packet := cwc.newPacket(MT_PLAYER_CONNECTABLE_NEW)
	packet.AppendInt32(int32(id))
	packet.AppendVarStr(ip)
	packet.AppendBool(switching)
	packet.AppendVarBytes(blob)
	return cwc.SendPacketRelease(packet)
}

// SendConnectableEstablished sends MT_PLAYER_CONNECTABLE_ESTABLISHED message
func (cwc *ChanWorldConnection) SendConnectableEstablished(id common.PlayerID) error {
	packet := cwc.newPacket(MT_PLAYER_CONNECTABLE_ESTABLISHED)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendConnectableDelete sends MT_PLAYER_CONNECTABLE_DELETE message
func (cwc *ChanWorldConnection) SendConnectableDelete(id common.PlayerID) error {
	packet := cwc.newPacket(MT_PLAYER_CONNECTABLE_DELETE)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendChangeChannelRequest sends MT_PLAYER_CHANGE_CHANNEL_REQUEST message
func (cwc *ChanWorldConnection) SendChangeChannelRequest(id common.PlayerID, dest common.ChannelID, ip string, blob []byte) error {
	packet := cwc.newPacket(MT_PLAYER_CHANGE_CHANNEL_REQUEST)
	packet.AppendInt32(int32(id))
	packet.AppendUint16(uint16(dest))
	packet.AppendVarStr(ip)
	packet.AppendVarBytes(blob)
	return cwc.SendPacketRelease(packet)
}

// SendChangeChannelGo sends MT_PLAYER_CHANGE_CHANNEL_GO message, an empty ip means the switch is impossible
func (cwc *ChanWorldConnection) SendChangeChannelGo(id common.PlayerID, dest common.ChannelID, ip string, port int) error {
	packet := cwc.newPacket(MT_PLAYER_CHANGE_CHANNEL_GO)
	packet.AppendInt32(int32(id))
	packet.AppendUint16(uint16(dest))
	packet.AppendVarStr(ip)
	packet.AppendUint32(uint32(port))
	return cwc.SendPacketRelease(packet)
}

// SendPartyCreate sends MT_PARTY_CREATE message
func (cwc *ChanWorldConnection) SendPartyCreate(id common.PartyID, leader common.PlayerID) error {
	packet := cwc.newPacket(MT_PARTY_CREATE)
	packet.AppendInt32(int32(id))
	packet.AppendInt32(int32(leader))
	return cwc.SendPacketRelease(packet)
}

// SendPartyDisband sends MT_PARTY_DISBAND message
func (cwc *ChanWorldConnection) SendPartyDisband(id common.PartyID) error {
	packet := cwc.newPacket(MT_PARTY_DISBAND)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendPartySwitchLeader sends MT_PARTY_SWITCH_LEADER message
func (cwc *ChanWorldConnection) SendPartySwitchLeader(id common.PartyID, leader common.PlayerID) error {
	packet := cwc.newPacket(MT_PARTY_SWITCH_LEADER)
	packet.AppendInt32(int32(id))
	packet.AppendInt32(int32(leader))
	return cwc.SendPacketRelease(packet)
}

// SendPartyAddMember sends MT_PARTY_ADD_MEMBER message
func (cwc *ChanWorldConnection) SendPartyAddMember(id common.PartyID, player common.PlayerID) error {
	packet := cwc.newPacket(MT_PARTY_ADD_MEMBER)
	packet.AppendInt32(int32(id))
	packet.AppendInt32(int32(player))
	return cwc.SendPacketRelease(packet)
}

// SendPartyRemoveMember sends MT_PARTY_REMOVE_MEMBER message
func (cwc *ChanWorldConnection) SendPartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error {
	packet := cwc.newPacket(MT_PARTY_REMOVE_MEMBER)
	packet.AppendInt32(int32(id))
	packet.AppendInt32(int32(player))
	packet.AppendBool(kicked)
	return cwc.SendPacketRelease(packet)
}

// SendBuddyInvite sends MT_BUDDY_INVITE message
func (cwc *ChanWorldConnection) SendBuddyInvite(inviter, invitee common.PlayerID, name string) error {
	packet := cwc.newPacket(MT_BUDDY_INVITE)
	packet.AppendInt32(int32(inviter))
	packet.AppendInt32(int32(invitee))
	packet.AppendVarStr(name)
	return cwc.SendPacketRelease(packet)
}

// SendBuddyAcceptInvite sends MT_BUDDY_ACCEPT_INVITE message
func (cwc *ChanWorldConnection) SendBuddyAcceptInvite(invitee, inviter common.PlayerID) error {
	packet := cwc.newPacket(MT_BUDDY_ACCEPT_INVITE)
	packet.AppendInt32(int32(invitee))
	packet.AppendInt32(int32(inviter))
	return cwc.SendPacketRelease(packet)
}

// SendBuddyRemove sends MT_BUDDY_REMOVE message
func (cwc *ChanWorldConnection) SendBuddyRemove(owner, target common.PlayerID) error {
	packet := cwc.newPacket(MT_BUDDY_REMOVE)
	packet.AppendInt32(int32(owner))
	packet.AppendInt32(int32(target))
	return cwc.SendPacketRelease(packet)
}

// SendBuddyReadd sends MT_BUDDY_READD message
func (cwc *ChanWorldConnection) SendBuddyReadd(owner, target common.PlayerID) error {
	packet := cwc.newPacket(MT_BUDDY_READD)
	packet.AppendInt32(int32(owner))
	packet.AppendInt32(int32(target))
	return cwc.SendPacketRelease(packet)
}

// SendChatGroup sends MT_CHAT_GROUP message
func (cwc *ChanWorldConnection) SendChatGroup(chatType ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error {
	packet := cwc.newPacket(MT_CHAT_GROUP)
	packet.AppendByte(byte(chatType))
	packet.AppendInt32(int32(sender))
	AppendPlayerIDs(packet, recipients)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendChatBroadcast sends MT_CHAT_BROADCAST message
func (cwc *ChanWorldConnection) SendChatBroadcast(text string) error {
	packet := cwc.newPacket(MT_CHAT_BROADCAST)
	packet.AppendVarStr(text)
	return cwc.SendPacketRelease(packet)
}

// SendLoginConnectable sends MT_LOGIN_CONNECTABLE message
func (cwc *ChanWorldConnection) SendLoginConnectable(id common.PlayerID, channel common.ChannelID, ip string) error {
	packet := cwc.newPacket(MT_LOGIN_CONNECTABLE)
	packet.AppendInt32(int32(id))
	packet.AppendUint16(uint16(channel))
	packet.AppendVarStr(ip)
	return cwc.SendPacketRelease(packet)
}

// SendLoginChannelGo sends MT_LOGIN_CHANNEL_GO message, an empty ip means no channel is available
func (cwc *ChanWorldConnection) SendLoginChannelGo(id common.PlayerID, ip string, port int) error {
	packet := cwc.newPacket(MT_LOGIN_CHANNEL_GO)
	packet.AppendInt32(int32(id))
	packet.AppendVarStr(ip)
	packet.AppendUint32(uint32(port))
	return cwc.SendPacketRelease(packet)
}

// SendCharacterCreated sends MT_CHARACTER_CREATED message
func (cwc *ChanWorldConnection) SendCharacterCreated(r *presence.PlayerRecord) error {
	packet := cwc.newPacket(MT_CHARACTER_CREATED)
	AppendRecord(packet, r)
	return cwc.SendPacketRelease(packet)
}

// SendCharacterDeleted sends MT_CHARACTER_DELETED message
func (cwc *ChanWorldConnection) SendCharacterDeleted(id common.PlayerID) error {
	packet := cwc.newPacket(MT_CHARACTER_DELETED)
	packet.AppendInt32(int32(id))
	return cwc.SendPacketRelease(packet)
}

// SendPacket send a packet to remote
func (cwc *ChanWorldConnection) SendPacket(packet *netutil.Packet) error {
	return cwc.packetConn.SendPacket(packet)
}

// SendPacketRelease send a packet to remote and then release the packet
func (cwc *ChanWorldConnection) SendPacketRelease(packet *netutil.Packet) error {
	err := cwc.packetConn.SendPacket(packet)
	packet.Release()
	return err
}

// Recv receives the next packet and retrive the message type
func (cwc *ChanWorldConnection) Recv(msgtype *MsgType) (*netutil.Packet, error) {
	pkt, err := cwc.packetConn.RecvPacket()
	if err != nil {
		return nil, err
	}

	*msgtype = MsgType(pkt.ReadUint16())
	if consts.DEBUG_PACKETS {
		gwlog.Debugf("%s: Recv msgtype=%v, payload size=%d", cwc, *msgtype, pkt.GetPayloadLen())
	}
	return pkt, nil
}

// Close this connection
func (cwc *ChanWorldConnection) Close() error {
	return cwc.packetConn.Close()
}

// IsClosed returns if the connection is closed
func (cwc *ChanWorldConnection) IsClosed() bool {
	return cwc.packetConn.IsClosed()
}

// RemoteAddr returns the remote address
func (cwc *ChanWorldConnection) RemoteAddr() net.Addr {
	return cwc.packetConn.RemoteAddr()
}

// LocalAddr returns the local address
func (cwc *ChanWorldConnection) LocalAddr() net.Addr {
	return cwc.packetConn.LocalAddr()
}

func (cwc *ChanWorldConnection) String() string {
	return cwc.packetConn.String()
}
