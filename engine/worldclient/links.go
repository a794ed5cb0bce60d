package worldclient

import (
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
)

// Messages of channels

func (wcm *WorldConnMgr) SendChannelLoad(info proto.ChannelLoadInfo) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendChannelLoad(info) })
}

func (wcm *WorldConnMgr) SendPlayerFull(r *presence.PlayerRecord) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPlayerFull(r) })
}

func (wcm *WorldConnMgr) SendPlayerDelta(u *presence.Update) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPlayerDelta(u) })
}

func (wcm *WorldConnMgr) SendConnectableEstablished(id common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendConnectableEstablished(id) })
}

func (wcm *WorldConnMgr) SendChangeChannelRequest(id common.PlayerID, dest common.ChannelID, ip string, blob []byte) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendChangeChannelRequest(id, dest, ip, blob) })
}

func (wcm *WorldConnMgr) SendPartyCreate(id common.PartyID, leader common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPartyCreate(id, leader) })
}

func (wcm *WorldConnMgr) SendPartyDisband(id common.PartyID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPartyDisband(id) })
}

func (wcm *WorldConnMgr) SendPartySwitchLeader(id common.PartyID, leader common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPartySwitchLeader(id, leader) })
}

func (wcm *WorldConnMgr) SendPartyAddMember(id common.PartyID, player common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPartyAddMember(id, player) })
}

func (wcm *WorldConnMgr) SendPartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendPartyRemoveMember(id, player, kicked) })
}

func (wcm *WorldConnMgr) SendBuddyInvite(inviter, invitee common.PlayerID, name string) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendBuddyInvite(inviter, invitee, name) })
}

func (wcm *WorldConnMgr) SendBuddyAcceptInvite(invitee, inviter common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendBuddyAcceptInvite(invitee, inviter) })
}

func (wcm *WorldConnMgr) SendBuddyRemove(owner, target common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendBuddyRemove(owner, target) })
}

func (wcm *WorldConnMgr) SendBuddyReadd(owner, target common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendBuddyReadd(owner, target) })
}

func (wcm *WorldConnMgr) SendChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendChatGroup(chatType, sender, recipients, text) })
}

// Messages of the login process

func (wcm *WorldConnMgr) SendLoginConnectable(id common.PlayerID, channel common.ChannelID, ip string) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendLoginConnectable(id, channel, ip) })
}

func (wcm *WorldConnMgr) SendCharacterCreated(r *presence.PlayerRecord) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendCharacterCreated(r) })
}

func (wcm *WorldConnMgr) SendCharacterDeleted(id common.PlayerID) error {
	return wcm.with(func(wc *WorldClient) error { return wc.SendCharacterDeleted(id) })
}
