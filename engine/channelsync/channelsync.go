package channelsync

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/handover"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/storage"
	timer "github.com/xiaonanln/goTimer"
)

var (
	// ErrNotConnected is returned for players without a session on this channel
	ErrNotConnected = errors.New("player not connected")
	// ErrDuplicateSession is returned when a player connects twice
	ErrDuplicateSession = errors.New("duplicate session")
	// ErrCannotChangeChannel is returned when a channel change is refused locally
	ErrCannotChangeChannel = errors.New("can not change channel")
	// ErrNotLeader is returned for party operations from members who do not lead the party
	ErrNotLeader = errors.New("not the party leader")
	// ErrNoParty is returned when the player is not in a party
	ErrNoParty = errors.New("not in a party")
	// ErrUnknownPlayer is returned for players this channel has no record of
	ErrUnknownPlayer = errors.New("unknown player")
)

// transfer is an outgoing channel change of a local player
type transfer struct {
	dest        common.ChannelID
	ackTimer    *timer.Timer
	redirecting bool
}

// Config holds the tunables of a ChannelSync
type Config struct {
	ID                 common.ChannelID
	HandoverWindow     time.Duration
	HandoverAckTimeout time.Duration
}

// ChannelSync is the channel's replica of the world state plus the sessions of its own players.
//
// All methods must be called from the channel's main routine.
type ChannelSync struct {
	id         common.ChannelID
	ackTimeout time.Duration
	world      WorldLink
	clock      common.Clock
	store      CharacterStore

	records   *presence.Cache
	sessions  map[common.PlayerID]Session
	loading   map[common.PlayerID]bool // sessions waiting for their character
	parties   *party.Table
	followers map[common.PlayerID]common.PlayerID // follower -> target
	pending   *handover.PendingTable
	effects   map[common.PlayerID]*handover.EffectTable
	transfers map[common.PlayerID]*transfer
}

// New creates the ChannelSync of a channel, store may be nil to disable persistence
func New(cfg Config, world WorldLink, clock common.Clock, store CharacterStore) *ChannelSync {
	if cfg.HandoverWindow <= 0 {
		cfg.HandoverWindow = consts.MAX_HANDOVER_WINDOW
	}
	if cfg.HandoverAckTimeout <= 0 {
		cfg.HandoverAckTimeout = consts.DEFAULT_HANDOVER_ACK_TIMEOUT
	}
	return &ChannelSync{
		id:         cfg.ID,
		ackTimeout: cfg.HandoverAckTimeout,
		world:      world,
		clock:      clock,
		store:      store,
		records:    presence.NewCache(),
		sessions:   map[common.PlayerID]Session{},
		loading:    map[common.PlayerID]bool{},
		parties:    party.NewTable(),
		followers:  map[common.PlayerID]common.PlayerID{},
		pending:    handover.NewPendingTable(clock, cfg.HandoverWindow),
		effects:    map[common.PlayerID]*handover.EffectTable{},
		transfers:  map[common.PlayerID]*transfer{},
	}
}

func (cs *ChannelSync) String() string {
	return fmt.Sprintf("ChannelSync<%d|S%d|P%d>", cs.id, len(cs.sessions), cs.records.Len())
}

// ID returns the channel id
func (cs *ChannelSync) ID() common.ChannelID {
	return cs.id
}

// Record returns the cached record of the player, or nil
func (cs *ChannelSync) Record(id common.PlayerID) *presence.PlayerRecord {
	return cs.records.Get(id)
}

// RecordByName looks up a player by name, ignoring case
func (cs *ChannelSync) RecordByName(name string) *presence.PlayerRecord {
	return cs.records.GetByName(name)
}

// Session returns the session of a local player, or nil
func (cs *ChannelSync) Session(id common.PlayerID) Session {
	return cs.sessions[id]
}

// Party returns the local view of a party, or nil
func (cs *ChannelSync) Party(id common.PartyID) *party.Party {
	return cs.parties.Get(id)
}

// Population returns the number of connected players
func (cs *ChannelSync) Population() int {
	return len(cs.sessions)
}

// HandleSnapshot merges the world snapshot and answers with a Full record of every local player
func (cs *ChannelSync) HandleSnapshot(records []*presence.PlayerRecord, parties []party.Snapshot) {
	for _, r := range records {
		if local := cs.records.Get(r.ID); local != nil && cs.sessions[r.ID] != nil {
			local.Party = r.Party
			local.MutualBuddies = r.MutualBuddies.Copy()
			continue
		}
		cs.records.Put(r)
	}

	cs.parties = party.NewTable()
	for _, s := range parties {
		p := party.FromSnapshot(s)
		for _, mid := range p.MemberIDs() {
			p.SetConnected(mid, cs.sessions[mid] != nil)
		}
		cs.parties.Put(p)
	}

	for id := range cs.sessions {
		cs.world.SendPlayerFull(cs.records.Get(id))
	}
	gwlog.Infof("%s: merged snapshot of %d players and %d parties, sent %d local players", cs, len(records), len(parties), len(cs.sessions))
}

// HandleUpdate applies an update relayed by the world
func (cs *ChannelSync) HandleUpdate(u *presence.Update) {
	if !u.Bits.Valid() {
		gwlog.TraceError("%s: invalid update bits %d for player %d", cs, u.Bits, u.ID())
		return
	}
	r, res := cs.records.Apply(u)
	if res.NameChanged && r.Party != common.NoParty {
		if p := cs.parties.Get(r.Party); p != nil {
			p.SetName(r.ID, r.Name)
		}
	}
	cs.refresh(r, res)
}

// applyLocal applies a change of a local player and reports it to the world
func (cs *ChannelSync) applyLocal(u *presence.Update) (*presence.PlayerRecord, presence.ApplyResult) {
	r, res := cs.records.Apply(u)
	cs.refresh(r, res)
	cs.world.SendPlayerDelta(u)
	return r, res
}

// refresh re-sends the views that depend on the presence of r
func (cs *ChannelSync) refresh(r *presence.PlayerRecord, res presence.ApplyResult) {
	if res.Refresh && r.Party != common.NoParty {
		if p := cs.parties.Get(r.Party); p != nil {
			cs.sendPartyUpdate(p)
		}
	}
	if !res.RefreshBuddies {
		return
	}
	for _, bid := range r.MutualBuddies.ToList() {
		if s := cs.sessions[bid]; s != nil {
			s.SendBuddyPresence(r.ID, r.Channel, r.CashShop)
		}
	}
}

func (cs *ChannelSync) localDelta(id common.PlayerID, bits presence.UpdateBits, mutate func(r *presence.PlayerRecord)) error {
	r := cs.records.Get(id)
	if r == nil || cs.sessions[id] == nil {
		return errors.Wrapf(ErrNotConnected, "player %d", id)
	}
	next := r.Copy()
	mutate(next)
	cs.applyLocal(presence.NewDelta(next, bits))
	return nil
}

// SetCashShop moves the player in or out of the cash shop
func (cs *ChannelSync) SetCashShop(id common.PlayerID, on bool) error {
	return cs.localDelta(id, presence.Cash, func(r *presence.PlayerRecord) {
		r.CashShop = on
	})
}

// SetMts moves the player in or out of the trading system
func (cs *ChannelSync) SetMts(id common.PlayerID, on bool) error {
	return cs.localDelta(id, presence.Mts, func(r *presence.PlayerRecord) {
		r.Mts = on
	})
}

// SetProgress records a level up or job advance
func (cs *ChannelSync) SetProgress(id common.PlayerID, level uint8, job int16) error {
	return cs.localDelta(id, presence.Level|presence.Job, func(r *presence.PlayerRecord) {
		r.Level = level
		r.Job = job
	})
}

func characterOf(r *presence.PlayerRecord) *storage.Character {
	return &storage.Character{
		ID:      r.ID,
		Name:    r.Name,
		Level:   r.Level,
		Job:     r.Job,
		Map:     r.Map,
		GMLevel: r.GMLevel,
		Admin:   r.Admin,
	}
}

func (cs *ChannelSync) saveCharacter(id common.PlayerID, callback storage.SaveCallbackFunc) {
	r := cs.records.Get(id)
	if cs.store == nil || r == nil {
		if callback != nil {
			callback()
		}
		return
	}
	if consts.DEBUG_SAVE_LOAD {
		gwlog.Debugf("%s: saving %s", cs, r)
	}
	cs.store.SaveCharacter(characterOf(r), callback)
}

// SaveAll saves the characters of all connected players
func (cs *ChannelSync) SaveAll() {
	for id := range cs.sessions {
		cs.saveCharacter(id, nil)
	}
}
