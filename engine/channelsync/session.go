package channelsync

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/handover"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

// HandleConnectableNew stores a pending handover and confirms it to the world.
// switching is false when the player comes from the login process.
func (cs *ChannelSync) HandleConnectableNew(id common.PlayerID, ip string, switching bool, blob []byte) {
	cs.pending.Add(id, ip, blob).Switching = switching
	if consts.DEBUG_HANDOVER {
		gwlog.Debugf("%s: expecting player %d from %s (%d bytes held)", cs, id, ip, len(blob))
	}
	cs.world.SendConnectableEstablished(id)
}

// HandleConnectableDelete drops a pending handover the world gave up on
func (cs *ChannelSync) HandleConnectableDelete(id common.PlayerID) {
	if cs.pending.Remove(id) {
		gwlog.Infof("%s: pending handover of player %d deleted", cs, id)
	}
}

// SweepPending removes the pending handovers whose window has passed
func (cs *ChannelSync) SweepPending() {
	for _, id := range cs.pending.Sweep() {
		gwlog.Infof("%s: pending handover of player %d expired", cs, id)
	}
}

// PendingCount returns the number of pending handovers
func (cs *ChannelSync) PendingCount() int {
	return cs.pending.Len()
}

// Connect validates a client connecting as the player. Any failure closes the session with no state change.
func (cs *ChannelSync) Connect(s Session, id common.PlayerID) error {
	fail := func(err error) error {
		gwlog.Infof("%s: rejected connection of player %d from %s: %s", cs, id, s.RemoteIP(), err)
		s.Close()
		return err
	}

	if cs.sessions[id] != nil {
		return fail(errors.Wrapf(ErrDuplicateSession, "player %d", id))
	}
	p, err := cs.pending.Consume(id, s.RemoteIP())
	if err != nil {
		return fail(err)
	}

	effects, err := handover.DecodeEffects(p.Held, cs.clock.Now())
	if err != nil {
		gwlog.Errorf("%s: dropping held effects of player %d: %s", cs, id, err)
		effects = handover.NewEffectTable()
	}
	cs.sessions[id] = s
	cs.effects[id] = effects

	if cs.store == nil {
		cs.establish(s, nil, p.Switching)
		return nil
	}
	cs.loading[id] = true
	cs.store.LoadCharacter(id, func(c *storage.Character, err error) {
		if cs.sessions[id] != s {
			return // disconnected while loading
		}
		delete(cs.loading, id)
		if err != nil || c == nil {
			gwlog.Errorf("%s: load character %d failed: %v", cs, id, err)
			delete(cs.sessions, id)
			delete(cs.effects, id)
			s.Close()
			return
		}
		cs.establish(s, c, p.Switching)
	})
	return nil
}

// establish finishes a validated connection; c is the stored character, if any
func (cs *ChannelSync) establish(s Session, c *storage.Character, switching bool) {
	id := s.PlayerID()
	r := cs.records.GetOrPlaceholder(id)
	next := r.Copy()
	next.Channel = cs.id
	next.Transferring = false
	next.IP = s.RemoteIP()
	if c != nil {
		next.Map = c.Map
	}

	p := cs.parties.Get(r.Party)
	if p != nil {
		p.SetConnected(id, true)
	}

	var res presence.ApplyResult
	if switching && r.Initialized && r.Transferring {
		// arriving from another channel: one delta carries the whole move
		r, res = cs.applyLocal(presence.NewDelta(next, presence.Channel|presence.Transfer|presence.IP|presence.Map))
	} else {
		if c != nil {
			next.Name = c.Name
			next.Level = c.Level
			next.Job = c.Job
			next.GMLevel = c.GMLevel
			next.Admin = c.Admin
		}
		next.CashShop = false
		next.Mts = false
		r, res = cs.applyLocal(presence.NewFullUpdate(next))
	}

	if p != nil && !res.Refresh {
		s.SendPartyUpdate(cs.partyView(p))
	}
	for _, bid := range r.MutualBuddies.ToList() {
		if b := cs.records.Get(bid); b != nil && b.IsOnline() && !b.Transferring {
			s.SendBuddyPresence(bid, b.Channel, b.CashShop)
		}
	}

	now := cs.clock.Now()
	var views []proto.EffectView
	for _, e := range cs.effects[id].List() {
		views = append(views, effectView(e, now))
	}
	s.SendEstablished(r, views)
	gwlog.Infof("%s: %s established from %s with %d effects", cs, r, r.IP, len(views))
}

// Disconnect handles a closed client connection
func (cs *ChannelSync) Disconnect(s Session) {
	id := s.PlayerID()
	if cs.sessions[id] != s {
		return // already closed silently, or never established
	}
	if cs.loading[id] {
		// nothing was announced yet
		delete(cs.loading, id)
		delete(cs.sessions, id)
		delete(cs.effects, id)
		gwlog.Infof("%s: player %d disconnected while loading", cs, id)
		return
	}
	if tr := cs.transfers[id]; tr != nil {
		if tr.redirecting {
			return // the redirect closes the session itself
		}
		tr.ackTimer.Cancel()
		delete(cs.transfers, id)
	}

	cs.saveCharacter(id, nil)
	cs.detach(id, true)

	r := cs.records.Get(id)
	if r == nil {
		return
	}
	next := r.Copy()
	next.Channel = common.NoChannel
	next.Transferring = false
	next.CashShop = false
	next.Mts = false
	bits := presence.Channel
	if r.Transferring {
		bits |= presence.Transfer
	}
	if r.CashShop {
		bits |= presence.Cash
	}
	if r.Mts {
		bits |= presence.Mts
	}
	cs.applyLocal(presence.NewDelta(next, bits))
	gwlog.Infof("%s: %s disconnected", cs, r)
}

// detach removes the session of the player with its followers, party connection flag and effects
func (cs *ChannelSync) detach(id common.PlayerID, notifyFollowers bool) {
	delete(cs.sessions, id)
	delete(cs.effects, id)

	r := cs.records.Get(id)
	if r == nil {
		return
	}
	for _, f := range cs.followersOf(id) {
		delete(cs.followers, f)
		if fs := cs.sessions[f]; fs != nil && notifyFollowers {
			fs.SendNotice(r.Name + " has disconnected")
		}
	}
	delete(cs.followers, id)

	if p := cs.parties.Get(r.Party); p != nil {
		p.SetConnected(id, false)
	}
}
