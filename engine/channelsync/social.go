package channelsync

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/proto"
)

func (cs *ChannelSync) partyView(p *party.Party) *proto.PartyView {
	view := &proto.PartyView{ID: p.ID, Leader: p.Leader}
	for _, mid := range p.MemberIDs() {
		mv := proto.PartyMemberView{ID: mid, Name: p.Member(mid).Name}
		if r := cs.records.Get(mid); r != nil {
			mv.Channel = r.Channel
			mv.Map = r.Map
			mv.Level = r.Level
			mv.Job = r.Job
		}
		view.Members = append(view.Members, mv)
	}
	return view
}

// sendPartyUpdate sends the party view to members connected to this channel
func (cs *ChannelSync) sendPartyUpdate(p *party.Party) {
	view := cs.partyView(p)
	for _, mid := range p.ConnectedMemberIDs() {
		if s := cs.sessions[mid]; s != nil {
			s.SendPartyUpdate(view)
		}
	}
}

func (cs *ChannelSync) connected(id common.PlayerID) error {
	if cs.sessions[id] == nil || cs.records.Get(id) == nil {
		return errors.Wrapf(ErrNotConnected, "player %d", id)
	}
	return nil
}

func (cs *ChannelSync) partyOf(id common.PlayerID) (*party.Party, error) {
	if err := cs.connected(id); err != nil {
		return nil, err
	}
	p := cs.parties.Get(cs.records.Get(id).Party)
	if p == nil {
		return nil, errors.Wrapf(ErrNoParty, "player %d", id)
	}
	return p, nil
}

func (cs *ChannelSync) ledParty(leader common.PlayerID) (*party.Party, error) {
	p, err := cs.partyOf(leader)
	if err != nil {
		return nil, err
	}
	if p.Leader != leader {
		return nil, errors.Wrapf(ErrNotLeader, "player %d in party %d", leader, p.ID)
	}
	return p, nil
}

// CreateParty asks the world for a new party led by the player
func (cs *ChannelSync) CreateParty(id common.PlayerID) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	return cs.world.SendPartyCreate(common.NoParty, id)
}

// LeaveParty removes the player from its party, a leaving leader disbands it
func (cs *ChannelSync) LeaveParty(id common.PlayerID) error {
	p, err := cs.partyOf(id)
	if err != nil {
		return err
	}
	return cs.world.SendPartyRemoveMember(p.ID, id, false)
}

// KickMember removes another member from the party of the leader
func (cs *ChannelSync) KickMember(leader, target common.PlayerID) error {
	p, err := cs.ledParty(leader)
	if err != nil {
		return err
	}
	if target == leader || !p.HasMember(target) {
		return errors.Errorf("player %d can not kick player %d", leader, target)
	}
	return cs.world.SendPartyRemoveMember(p.ID, target, true)
}

// AddToParty adds a player to the party of the leader
func (cs *ChannelSync) AddToParty(leader, target common.PlayerID) error {
	p, err := cs.ledParty(leader)
	if err != nil {
		return err
	}
	if cs.records.Get(target) == nil {
		return errors.Wrapf(ErrUnknownPlayer, "player %d", target)
	}
	return cs.world.SendPartyAddMember(p.ID, target)
}

// ChangePartyLeader passes leadership to another member
func (cs *ChannelSync) ChangePartyLeader(leader, target common.PlayerID) error {
	p, err := cs.ledParty(leader)
	if err != nil {
		return err
	}
	if !p.HasMember(target) {
		return errors.Errorf("player %d is not in party %d", target, p.ID)
	}
	return cs.world.SendPartySwitchLeader(p.ID, target)
}

// DisbandParty disbands the party of the leader
func (cs *ChannelSync) DisbandParty(leader common.PlayerID) error {
	p, err := cs.ledParty(leader)
	if err != nil {
		return err
	}
	return cs.world.SendPartyDisband(p.ID)
}

// HandlePartyCreate adds a party created by the world
func (cs *ChannelSync) HandlePartyCreate(id common.PartyID, leader common.PlayerID) {
	r := cs.records.GetOrPlaceholder(leader)
	p := party.New(id, leader, r.Name)
	p.SetConnected(leader, cs.sessions[leader] != nil)
	cs.parties.Put(p)
	r.Party = id
	cs.sendPartyUpdate(p)
}

// HandlePartyDisband removes a party and clears the party of its members
func (cs *ChannelSync) HandlePartyDisband(id common.PartyID) {
	p := cs.parties.Delete(id)
	if p == nil {
		gwlog.Warnf("%s: disband of unknown party %d", cs, id)
		return
	}
	for _, mid := range p.MemberIDs() {
		if r := cs.records.Get(mid); r != nil && r.Party == id {
			r.Party = common.NoParty
		}
		if s := cs.sessions[mid]; s != nil {
			s.SendPartyUpdate(&proto.PartyView{})
		}
	}
}

// HandlePartySwitchLeader changes the leader of a party
func (cs *ChannelSync) HandlePartySwitchLeader(id common.PartyID, leader common.PlayerID) {
	p := cs.parties.Get(id)
	if p == nil || !p.HasMember(leader) {
		gwlog.Warnf("%s: switch leader of party %d to non member %d", cs, id, leader)
		return
	}
	p.Leader = leader
	cs.sendPartyUpdate(p)
}

// HandlePartyAddMember adds a member to a party
func (cs *ChannelSync) HandlePartyAddMember(id common.PartyID, player common.PlayerID) {
	p := cs.parties.Get(id)
	if p == nil {
		gwlog.Warnf("%s: add member %d to unknown party %d", cs, player, id)
		return
	}
	r := cs.records.GetOrPlaceholder(player)
	p.AddMember(player, r.Name)
	p.SetConnected(player, cs.sessions[player] != nil)
	r.Party = id
	cs.sendPartyUpdate(p)
}

// HandlePartyRemoveMember removes a member from a party
func (cs *ChannelSync) HandlePartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) {
	p := cs.parties.Get(id)
	if p == nil || !p.RemoveMember(player) {
		gwlog.Warnf("%s: remove non member %d from party %d", cs, player, id)
		return
	}
	if r := cs.records.Get(player); r != nil && r.Party == id {
		r.Party = common.NoParty
	}
	if s := cs.sessions[player]; s != nil {
		s.SendPartyUpdate(&proto.PartyView{})
		if kicked {
			s.SendNotice("You have been expelled from the party")
		}
	}
	cs.sendPartyUpdate(p)
}

// InviteBuddy lists the named player as a buddy of id and invites it back
func (cs *ChannelSync) InviteBuddy(id common.PlayerID, name string) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	target := cs.records.GetByName(name)
	if target == nil {
		return errors.Wrapf(ErrUnknownPlayer, "name %q", name)
	}
	return cs.world.SendBuddyInvite(id, target.ID, cs.records.Get(id).Name)
}

// AcceptBuddy accepts the buddy invite of the inviter
func (cs *ChannelSync) AcceptBuddy(id, inviter common.PlayerID) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	return cs.world.SendBuddyAcceptInvite(id, inviter)
}

// RemoveBuddy unlists a buddy
func (cs *ChannelSync) RemoveBuddy(id, target common.PlayerID) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	return cs.world.SendBuddyRemove(id, target)
}

// ReaddBuddy lists a removed buddy again
func (cs *ChannelSync) ReaddBuddy(id, target common.PlayerID) error {
	if err := cs.connected(id); err != nil {
		return err
	}
	return cs.world.SendBuddyReadd(id, target)
}

// HandleBuddyInvite delivers a buddy invite to a local player
func (cs *ChannelSync) HandleBuddyInvite(inviter, invitee common.PlayerID, name string) {
	if s := cs.sessions[invitee]; s != nil {
		s.SendBuddyInvited(inviter, name)
	}
}

// HandleBuddyAcceptInvite makes the pair mutual
func (cs *ChannelSync) HandleBuddyAcceptInvite(invitee, inviter common.PlayerID) {
	cs.linkBuddies(invitee, inviter)
}

// HandleBuddyReadd makes the pair mutual again
func (cs *ChannelSync) HandleBuddyReadd(owner, target common.PlayerID) {
	cs.linkBuddies(owner, target)
}

func (cs *ChannelSync) linkBuddies(a, b common.PlayerID) {
	ra, rb := cs.records.GetOrPlaceholder(a), cs.records.GetOrPlaceholder(b)
	ra.MutualBuddies.Add(b)
	rb.MutualBuddies.Add(a)
	if s := cs.sessions[a]; s != nil {
		s.SendBuddyPresence(b, rb.Channel, rb.CashShop)
	}
	if s := cs.sessions[b]; s != nil {
		s.SendBuddyPresence(a, ra.Channel, ra.CashShop)
	}
}

// HandleBuddyRemove breaks the mutual relation, each local side sees the other go offline once
func (cs *ChannelSync) HandleBuddyRemove(owner, target common.PlayerID) {
	ra, rb := cs.records.Get(owner), cs.records.Get(target)
	if ra == nil || rb == nil {
		return
	}
	if !ra.MutualBuddies.Contains(target) && !rb.MutualBuddies.Contains(owner) {
		return
	}
	ra.MutualBuddies.Del(target)
	rb.MutualBuddies.Del(owner)
	if s := cs.sessions[owner]; s != nil {
		s.SendBuddyPresence(target, common.NoChannel, false)
	}
	if s := cs.sessions[target]; s != nil {
		s.SendBuddyPresence(owner, common.NoChannel, false)
	}
}
