package channelsync

import (
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/presence"
	timer "github.com/xiaonanln/goTimer"
)

// RequestChangeChannel starts moving a local player to another channel
func (cs *ChannelSync) RequestChangeChannel(id common.PlayerID, dest common.ChannelID) error {
	s := cs.sessions[id]
	r := cs.records.Get(id)
	if s == nil || r == nil {
		return errors.Wrapf(ErrNotConnected, "player %d", id)
	}
	if dest == cs.id || !dest.IsOnline() || r.Transferring || r.CashShop || r.Mts || !s.CanChangeChannel() {
		return errors.Wrapf(ErrCannotChangeChannel, "player %d to channel %d", id, dest)
	}

	blob, err := cs.effects[id].Encode(cs.clock.Now())
	if err != nil {
		gwlog.Errorf("%s: %s", cs, err)
		blob = nil
	}

	next := r.Copy()
	next.Transferring = true
	cs.applyLocal(presence.NewDelta(next, presence.Transfer))
	cs.world.SendChangeChannelRequest(id, dest, s.RemoteIP(), blob)

	tr := &transfer{dest: dest}
	tr.ackTimer = timer.AddCallback(cs.ackTimeout, func() {
		cs.onHandoverAckTimeout(id, tr)
	})
	cs.transfers[id] = tr
	if consts.DEBUG_HANDOVER {
		gwlog.Debugf("%s: %s requested channel %d with %d bytes held", cs, r, dest, len(blob))
	}
	return nil
}

// HandleChangeChannelGo is the world's answer to a channel change request, an empty ip means the player can not go
func (cs *ChannelSync) HandleChangeChannelGo(id common.PlayerID, dest common.ChannelID, ip string, port int) {
	tr := cs.transfers[id]
	s := cs.sessions[id]
	if tr == nil || tr.redirecting || s == nil {
		gwlog.Warnf("%s: stale change channel go for player %d", cs, id)
		return
	}
	tr.ackTimer.Cancel()

	if ip == "" {
		delete(cs.transfers, id)
		s.SendCannotGo()
		next := cs.records.Get(id).Copy()
		next.Transferring = false
		cs.applyLocal(presence.NewDelta(next, presence.Transfer))
		return
	}

	tr.redirecting = true
	cs.saveCharacter(id, func() {
		if cs.sessions[id] != s {
			return
		}
		s.SendClientChannelGo(ip, port)
		cs.closeSilently(id)
		s.Close()
		gwlog.Infof("%s: player %d redirected to channel %d at %s:%d", cs, id, dest, ip, port)
	})
}

// closeSilently drops a session that moved to another channel; the destination reports the player
func (cs *ChannelSync) closeSilently(id common.PlayerID) {
	delete(cs.transfers, id)
	cs.detach(id, false)
}

// onHandoverAckTimeout falls back to a normal disconnect when the world never answered
func (cs *ChannelSync) onHandoverAckTimeout(id common.PlayerID, tr *transfer) {
	if cs.transfers[id] != tr || tr.redirecting {
		return
	}
	delete(cs.transfers, id)

	s := cs.sessions[id]
	if s == nil {
		return
	}
	gwlog.Warnf("%s: change channel of player %d to channel %d timed out", cs, id, tr.dest)
	cs.Disconnect(s)
	s.Close()
}

// Transferring returns if the player has an outgoing channel change in progress
func (cs *ChannelSync) Transferring(id common.PlayerID) bool {
	return cs.transfers[id] != nil
}
