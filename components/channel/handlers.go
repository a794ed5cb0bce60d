package main

import (
	"time"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/handover"
	"github.com/xiaonanln/chanworld/engine/netutil"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// handleWorldPacket applies a message from the world to the replica
func (service *ChannelService) handleWorldPacket(msgtype proto.MsgType, pkt *netutil.Packet) {
	cs := service.sync
	switch msgtype {
	case proto.MT_CHANNEL_SNAPSHOT:
		n := pkt.ReadUint32()
		records := make([]*presence.PlayerRecord, 0, n)
		for i := uint32(0); i < n; i++ {
			records = append(records, proto.ReadRecord(pkt))
		}
		var parties []party.Snapshot
		pkt.ReadData(&parties)
		cs.HandleSnapshot(records, parties)
	case proto.MT_PLAYER_FULL:
		cs.HandleUpdate(presence.NewFullUpdate(proto.ReadRecord(pkt)))
	case proto.MT_PLAYER_DELTA:
		cs.HandleUpdate(proto.ReadDelta(pkt))
	case proto.MT_PLAYER_CONNECTABLE_NEW:
		id := common.PlayerID(pkt.ReadInt32())
		ip := pkt.ReadVarStr()
		switching := pkt.ReadBool()
		held := append([]byte(nil), pkt.ReadVarBytes()...) // outlives the packet
		cs.HandleConnectableNew(id, ip, switching, held)
	case proto.MT_PLAYER_CONNECTABLE_DELETE:
		cs.HandleConnectableDelete(common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PLAYER_CHANGE_CHANNEL_GO:
		id := common.PlayerID(pkt.ReadInt32())
		dest := common.ChannelID(pkt.ReadUint16())
		ip := pkt.ReadVarStr()
		port := int(pkt.ReadUint32())
		cs.HandleChangeChannelGo(id, dest, ip, port)
	case proto.MT_PARTY_CREATE:
		id := common.PartyID(pkt.ReadInt32())
		cs.HandlePartyCreate(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_DISBAND:
		cs.HandlePartyDisband(common.PartyID(pkt.ReadInt32()))
	case proto.MT_PARTY_SWITCH_LEADER:
		id := common.PartyID(pkt.ReadInt32())
		cs.HandlePartySwitchLeader(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_ADD_MEMBER:
		id := common.PartyID(pkt.ReadInt32())
		cs.HandlePartyAddMember(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_PARTY_REMOVE_MEMBER:
		id := common.PartyID(pkt.ReadInt32())
		player := common.PlayerID(pkt.ReadInt32())
		cs.HandlePartyRemoveMember(id, player, pkt.ReadBool())
	case proto.MT_BUDDY_INVITE:
		inviter := common.PlayerID(pkt.ReadInt32())
		invitee := common.PlayerID(pkt.ReadInt32())
		cs.HandleBuddyInvite(inviter, invitee, pkt.ReadVarStr())
	case proto.MT_BUDDY_ACCEPT_INVITE:
		invitee := common.PlayerID(pkt.ReadInt32())
		cs.HandleBuddyAcceptInvite(invitee, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_BUDDY_REMOVE:
		owner := common.PlayerID(pkt.ReadInt32())
		cs.HandleBuddyRemove(owner, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_BUDDY_READD:
		owner := common.PlayerID(pkt.ReadInt32())
		cs.HandleBuddyReadd(owner, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CHAT_GROUP:
		chatType := proto.ChatType(pkt.ReadOneByte())
		sender := common.PlayerID(pkt.ReadInt32())
		recipients := proto.ReadPlayerIDs(pkt)
		cs.HandleChatGroup(chatType, sender, recipients, pkt.ReadVarStr())
	case proto.MT_CHAT_BROADCAST:
		cs.HandleBroadcast(pkt.ReadVarStr())
	default:
		gwlog.TraceError("%s: unknown msgtype %d from world", service, msgtype)
	}
}

// handleClientPacket runs a client request of an established player
func (service *ChannelService) handleClientPacket(cp *ClientProxy, msgtype proto.MsgType, pkt *netutil.Packet) {
	cs := service.sync
	if msgtype == proto.MT_CLIENT_CONNECT {
		id := common.PlayerID(pkt.ReadInt32())
		if cp.playerID != 0 {
			gwlog.Warnf("%s: connects twice", cp)
			cp.Close()
			return
		}
		if cp.IsClosed() {
			// its close was already handled with no player to disconnect
			return
		}
		cp.playerID = id
		cs.Connect(cp, id)
		return
	}

	id := cp.playerID
	if id == 0 || cs.Session(id) != cp {
		gwlog.Warnf("%s: msgtype %d before established", cp, msgtype)
		return
	}

	var err error
	switch msgtype {
	case proto.MT_CLIENT_CHANGE_CHANNEL:
		if err = cs.RequestChangeChannel(id, common.ChannelID(pkt.ReadUint16())); err != nil {
			cp.SendCannotGo()
		}
	case proto.MT_CLIENT_CHANGE_MAP:
		err = cs.UpdatePlayerMap(id, common.MapID(pkt.ReadInt32()))
	case proto.MT_CLIENT_SET_CASH_SHOP:
		err = cs.SetCashShop(id, pkt.ReadBool())
	case proto.MT_CLIENT_SET_MTS:
		err = cs.SetMts(id, pkt.ReadBool())
	case proto.MT_CLIENT_PROGRESS:
		level := pkt.ReadOneByte()
		err = cs.SetProgress(id, level, int16(pkt.ReadUint16()))
	case proto.MT_CLIENT_ADD_EFFECT:
		var e proto.EffectView
		pkt.ReadData(&e)
		err = cs.AddEffect(id, handover.EffectKind(e.Kind), e.ID, e.Level, time.Duration(e.RemainingMs)*time.Millisecond)
	case proto.MT_CLIENT_GROUP_CHAT:
		chatType := proto.ChatType(pkt.ReadOneByte())
		recipients := proto.ReadPlayerIDs(pkt)
		err = cs.GroupChat(chatType, id, recipients, pkt.ReadVarStr())
	case proto.MT_CLIENT_GM_CHAT:
		err = cs.GmChat(id, pkt.ReadVarStr())
	case proto.MT_CLIENT_FOLLOW:
		err = cs.AddFollower(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_STOP_FOLLOW:
		cs.StopFollowing(id)
	case proto.MT_CLIENT_PARTY_CREATE:
		err = cs.CreateParty(id)
	case proto.MT_CLIENT_PARTY_JOIN:
		// joining accepts the invitation of the leader
		err = cs.AddToParty(common.PlayerID(pkt.ReadInt32()), id)
	case proto.MT_CLIENT_PARTY_LEAVE:
		err = cs.LeaveParty(id)
	case proto.MT_CLIENT_PARTY_KICK:
		err = cs.KickMember(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_PARTY_CHANGE_LEADER:
		err = cs.ChangePartyLeader(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_PARTY_DISBAND:
		err = cs.DisbandParty(id)
	case proto.MT_CLIENT_BUDDY_INVITE:
		err = cs.InviteBuddy(id, pkt.ReadVarStr())
	case proto.MT_CLIENT_BUDDY_ACCEPT:
		err = cs.AcceptBuddy(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_BUDDY_REMOVE:
		err = cs.RemoveBuddy(id, common.PlayerID(pkt.ReadInt32()))
	case proto.MT_CLIENT_BUDDY_READD:
		err = cs.ReaddBuddy(id, common.PlayerID(pkt.ReadInt32()))
	default:
		gwlog.TraceError("%s: unknown msgtype %d", cp, msgtype)
	}

	if err != nil {
		gwlog.Infof("%s: msgtype %d failed: %s", cp, msgtype, err)
	}
}
