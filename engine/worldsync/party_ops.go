package worldsync

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/party"
)

func (ws *WorldSync) eachChannel(f func(link ChannelLink)) {
	for _, id := range ws.router.Channels() {
		if link := ws.router.Channel(id); link != nil {
			f(link)
		}
	}
}

func (ws *WorldSync) memberOf(id common.PartyID, player common.PlayerID) (*party.Party, error) {
	p := ws.parties.Get(id)
	if p == nil {
		return nil, errors.Wrapf(ErrNoParty, "party %d", id)
	}
	if !p.HasMember(player) {
		return nil, errors.Wrapf(ErrNotMember, "player %d in party %d", player, id)
	}
	return p, nil
}

// CreateParty creates a party led by the player
func (ws *WorldSync) CreateParty(leader common.PlayerID) (common.PartyID, error) {
	r := ws.records.Get(leader)
	if r == nil {
		return common.NoParty, errors.Wrapf(ErrUnknownPlayer, "player %d", leader)
	}
	if r.Party != common.NoParty {
		return common.NoParty, errors.Wrapf(ErrAlreadyInParty, "player %d in party %d", leader, r.Party)
	}

	id := ws.partyIDs.Acquire()
	p := party.New(id, leader, r.Name)
	ws.parties.Put(p)
	r.Party = id
	gwlog.Infof("%s: %s created %s", ws, r, p)
	ws.eachChannel(func(link ChannelLink) {
		link.SendPartyCreate(id, leader)
	})
	return id, nil
}

// DisbandParty clears the party of every member and releases the party id
func (ws *WorldSync) DisbandParty(id common.PartyID) error {
	p := ws.parties.Delete(id)
	if p == nil {
		return errors.Wrapf(ErrNoParty, "party %d", id)
	}
	for _, mid := range p.MemberIDs() {
		if r := ws.records.Get(mid); r != nil && r.Party == id {
			r.Party = common.NoParty
		}
	}
	ws.partyIDs.Release(id)
	gwlog.Infof("%s: %s disbanded", ws, p)
	ws.eachChannel(func(link ChannelLink) {
		link.SendPartyDisband(id)
	})
	return nil
}

// TransferLeadership makes another member the party leader
func (ws *WorldSync) TransferLeadership(id common.PartyID, newLeader common.PlayerID) error {
	p, err := ws.memberOf(id, newLeader)
	if err != nil {
		return err
	}
	if p.Leader == newLeader {
		return nil
	}
	p.Leader = newLeader
	ws.eachChannel(func(link ChannelLink) {
		link.SendPartySwitchLeader(id, newLeader)
	})
	return nil
}

// AddMember adds a player who is not in any party
func (ws *WorldSync) AddMember(id common.PartyID, player common.PlayerID) error {
	p := ws.parties.Get(id)
	if p == nil {
		return errors.Wrapf(ErrNoParty, "party %d", id)
	}
	r := ws.records.Get(player)
	if r == nil {
		return errors.Wrapf(ErrUnknownPlayer, "player %d", player)
	}
	if r.Party != common.NoParty {
		return errors.Wrapf(ErrAlreadyInParty, "player %d in party %d", player, r.Party)
	}
	if p.IsFull() {
		return errors.Wrapf(ErrPartyFull, "party %d", id)
	}

	p.AddMember(player, r.Name)
	r.Party = id
	ws.eachChannel(func(link ChannelLink) {
		link.SendPartyAddMember(id, player)
	})
	return nil
}

// RemoveMember removes a member; the party is disbanded when its leader leaves
func (ws *WorldSync) RemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error {
	p, err := ws.memberOf(id, player)
	if err != nil {
		return err
	}
	if p.Leader == player {
		if kicked {
			return errors.Errorf("leader %d of party %d can not be kicked", player, id)
		}
		return ws.DisbandParty(id)
	}

	p.RemoveMember(player)
	if r := ws.records.Get(player); r != nil {
		r.Party = common.NoParty
	}
	ws.eachChannel(func(link ChannelLink) {
		link.SendPartyRemoveMember(id, player, kicked)
	})
	return nil
}
