package worldsync

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

func (ws *WorldSync) lists(owner, target common.PlayerID) bool {
	return ws.listings[owner].Contains(target)
}

// IsMutual returns if both players list each other
func (ws *WorldSync) IsMutual(a, b common.PlayerID) bool {
	return ws.lists(a, b) && ws.lists(b, a)
}

func (ws *WorldSync) list(owner, target common.PlayerID) {
	listed := ws.listings[owner]
	if listed == nil {
		listed = common.PlayerIDSet{}
		ws.listings[owner] = listed
	}
	listed.Add(target)
}

func (ws *WorldSync) setMutual(a, b common.PlayerID, mutual bool) {
	ra, rb := ws.records.Get(a), ws.records.Get(b)
	if mutual {
		ra.MutualBuddies.Add(b)
		rb.MutualBuddies.Add(a)
	} else {
		ra.MutualBuddies.Del(b)
		rb.MutualBuddies.Del(a)
	}
}

func (ws *WorldSync) buddyPair(a, b common.PlayerID) error {
	if a == b {
		return errors.Errorf("player %d can not be its own buddy", a)
	}
	if ws.records.Get(a) == nil {
		return errors.Wrapf(ErrUnknownPlayer, "player %d", a)
	}
	if ws.records.Get(b) == nil {
		return errors.Wrapf(ErrUnknownPlayer, "player %d", b)
	}
	return nil
}

// Invite lists the invitee on the inviter's buddy list and asks the invitee to accept
func (ws *WorldSync) Invite(inviter, invitee common.PlayerID, name string) error {
	if err := ws.buddyPair(inviter, invitee); err != nil {
		return err
	}
	if ws.IsMutual(inviter, invitee) {
		return nil
	}

	ws.list(inviter, invitee)
	ws.persist(inviter)
	if ws.lists(invitee, inviter) {
		// the invitee asked first, so this completes the pair
		ws.invites[inviter].Del(invitee)
		ws.makeMutual(invitee, inviter)
		return nil
	}

	inviters := ws.invites[invitee]
	if inviters == nil {
		inviters = common.PlayerIDSet{}
		ws.invites[invitee] = inviters
	}
	inviters.Add(inviter)

	r := ws.records.Get(invitee)
	if link := ws.router.Channel(r.Channel); r.IsOnline() && link != nil {
		link.SendBuddyInvite(inviter, invitee, name)
	}
	return nil
}

// AcceptInvite completes a pending invite, both players become mutual buddies
func (ws *WorldSync) AcceptInvite(invitee, inviter common.PlayerID) error {
	if err := ws.buddyPair(invitee, inviter); err != nil {
		return err
	}
	if !ws.invites[invitee].Contains(inviter) {
		return errors.Wrapf(ErrNoInvite, "from %d to %d", inviter, invitee)
	}
	ws.invites[invitee].Del(inviter)
	if len(ws.invites[invitee]) == 0 {
		delete(ws.invites, invitee)
	}

	ws.list(invitee, inviter)
	ws.persist(invitee)
	if ws.lists(inviter, invitee) {
		ws.makeMutual(invitee, inviter)
	}
	return nil
}

func (ws *WorldSync) makeMutual(invitee, inviter common.PlayerID) {
	ws.setMutual(invitee, inviter, true)
	gwlog.Infof("%s: players %d and %d are buddies", ws, invitee, inviter)
	ws.eachChannel(func(link ChannelLink) {
		link.SendBuddyAcceptInvite(invitee, inviter)
	})
}

// Remove takes the target off the owner's list, which ends the mutual relation on both sides
func (ws *WorldSync) Remove(owner, target common.PlayerID) error {
	if err := ws.buddyPair(owner, target); err != nil {
		return err
	}
	wasMutual := ws.IsMutual(owner, target)
	ws.listings[owner].Del(target)
	ws.invites[target].Del(owner)
	ws.persist(owner)
	if !wasMutual {
		return nil
	}

	ws.setMutual(owner, target, false)
	ws.eachChannel(func(link ChannelLink) {
		link.SendBuddyRemove(owner, target)
	})
	return nil
}

// Readd lists the target again; the pair is restored at once if the target still lists the owner
func (ws *WorldSync) Readd(owner, target common.PlayerID) error {
	if err := ws.buddyPair(owner, target); err != nil {
		return err
	}
	if ws.IsMutual(owner, target) {
		return nil
	}
	if !ws.lists(target, owner) {
		return ws.Invite(owner, target, ws.records.Get(owner).Name)
	}

	ws.list(owner, target)
	ws.persist(owner)
	ws.setMutual(owner, target, true)
	ws.eachChannel(func(link ChannelLink) {
		link.SendBuddyReadd(owner, target)
	})
	return nil
}
