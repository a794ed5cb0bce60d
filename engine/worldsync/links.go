package worldsync

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

// ChannelLink sends sync messages to one connected channel
type ChannelLink interface {
	SendChannelSnapshot(records []*presence.PlayerRecord, parties []party.Snapshot) error
	SendPlayerFull(r *presence.PlayerRecord) error
	SendPlayerDelta(u *presence.Update) error
	SendConnectableNew(id common.PlayerID, ip string, switching bool, blob []byte) error
	SendConnectableDelete(id common.PlayerID) error
	SendChangeChannelGo(id common.PlayerID, dest common.ChannelID, ip string, port int) error
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
	SendChatBroadcast(text string) error
}

// LoginLink sends sync messages to the login process
type LoginLink interface {
	SendLoginChannelGo(id common.PlayerID, ip string, port int) error
}

// ChannelRouter resolves the links of connected processes.
//
// Channel and Login must return an untyped nil when the process is not connected.
type ChannelRouter interface {
	Channel(id common.ChannelID) ChannelLink
	Channels() []common.ChannelID
	Login() LoginLink
}

// PlayerStore persists the world's player documents
type PlayerStore interface {
	SavePlayer(p *storage.PlayerDocument, callback storage.SaveCallbackFunc)
	DeletePlayer(id common.PlayerID, callback storage.SaveCallbackFunc)
}
