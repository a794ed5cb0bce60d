package channelsync

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

// Session is a client connection owned by this channel
type Session interface {
	PlayerID() common.PlayerID
	RemoteIP() string
	// CanChangeChannel is consulted before a channel change is requested
	CanChangeChannel() bool
	Close() error

	SendEstablished(r *presence.PlayerRecord, effects []proto.EffectView) error
	SendClientChannelGo(ip string, port int) error
	SendCannotGo() error
	SendChangeMap(m common.MapID) error
	SendAddEffect(e proto.EffectView) error
	SendEffectExpired(kind uint8, id int32) error
	SendChat(chatType proto.ChatType, from string, text string) error
	SendNotice(text string) error
	SendPartyUpdate(view *proto.PartyView) error
	SendBuddyInvited(inviter common.PlayerID, name string) error
	SendBuddyPresence(id common.PlayerID, channel common.ChannelID, cashShop bool) error
}

// WorldLink sends sync messages to the world, sends are dropped while the world is not connected
type WorldLink interface {
	SendPlayerFull(r *presence.PlayerRecord) error
	SendPlayerDelta(u *presence.Update) error
	SendConnectableEstablished(id common.PlayerID) error
	SendChangeChannelRequest(id common.PlayerID, dest common.ChannelID, ip string, blob []byte) error
	SendPartyCreate(id common.PartyID, leader common.PlayerID) error
	SendPartyDisband(id common.PartyID) error
	SendPartySwitchLeader(id common.PartyID, leader common.PlayerID) error
	SendPartyAddMember(id common.PartyID, player common.PlayerID) error
	SendPartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error
	SendBuddyInvite(inviter, invitee common.PlayerID, name string) error
	SendBuddyAcceptInvite(invitee, inviter common.PlayerID) error
	SendBuddyRemove(owner, target common.PlayerID) error
	SendBuddyReadd(owner, target common.PlayerID) error
	SendChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error
}

// CharacterStore loads and saves characters, callbacks run on the main routine
type CharacterStore interface {
	SaveCharacter(c *storage.Character, callback storage.SaveCallbackFunc)
	LoadCharacter(id common.PlayerID, callback func(c *storage.Character, err error))
}
