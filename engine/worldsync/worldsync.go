package worldsync

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/gwlog"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

var (
	// ErrUnknownPlayer is returned for ids the world has no record of
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrNoParty is returned when the party does not exist
	ErrNoParty = errors.New("party not found")
	// ErrNotMember is returned when the player is not a member of the party
	ErrNotMember = errors.New("not a party member")
	// ErrAlreadyInParty is returned when the player already belongs to a party
	ErrAlreadyInParty = errors.New("already in a party")
	// ErrPartyFull is returned when the party has no room left
	ErrPartyFull = errors.New("party is full")
	// ErrNoInvite is returned when accepting a buddy invite that was never sent
	ErrNoInvite = errors.New("no pending buddy invite")
)

type channelInfo struct {
	id         common.ChannelID
	ip         string
	port       int
	population int
	load       proto.ChannelLoadInfo
}

// pendingSwitch is a channel change the world has brokered but not yet seen complete
type pendingSwitch struct {
	origin common.ChannelID
	dest   common.ChannelID
}

// WorldSync is the world's authoritative state: player records, parties and buddy listings.
//
// All methods must be called from the world's main routine.
type WorldSync struct {
	router        ChannelRouter
	store         PlayerStore
	maxPopulation int

	records  *presence.Cache
	parties  *party.Table
	partyIDs *party.IDPool
	listings map[common.PlayerID]common.PlayerIDSet // one-way buddy lists
	invites  map[common.PlayerID]common.PlayerIDSet // invitee -> inviters
	channels map[common.ChannelID]*channelInfo
	switches map[common.PlayerID]*pendingSwitch
	logins   map[common.PlayerID]common.ChannelID
}

// New creates the WorldSync, store may be nil to disable persistence
func New(router ChannelRouter, store PlayerStore, maxPopulation int) *WorldSync {
	return &WorldSync{
		router:        router,
		store:         store,
		maxPopulation: maxPopulation,
		records:       presence.NewCache(),
		parties:       party.NewTable(),
		partyIDs:      party.NewIDPool(),
		listings:      map[common.PlayerID]common.PlayerIDSet{},
		invites:       map[common.PlayerID]common.PlayerIDSet{},
		channels:      map[common.ChannelID]*channelInfo{},
		switches:      map[common.PlayerID]*pendingSwitch{},
		logins:        map[common.PlayerID]common.ChannelID{},
	}
}

func (ws *WorldSync) String() string {
	return fmt.Sprintf("WorldSync<P%d|C%d|party%d>", ws.records.Len(), len(ws.channels), ws.parties.Len())
}

// Record returns the canonical record of the player, or nil
func (ws *WorldSync) Record(id common.PlayerID) *presence.PlayerRecord {
	return ws.records.Get(id)
}

// Party returns the canonical party, or nil
func (ws *WorldSync) Party(id common.PartyID) *party.Party {
	return ws.parties.Get(id)
}

// LoadPlayers fills the world with the stored player documents, every player starts offline
func (ws *WorldSync) LoadPlayers(players []*storage.PlayerDocument) {
	for _, p := range players {
		r := &presence.PlayerRecord{
			ID:            p.ID,
			Name:          p.Name,
			Map:           p.Map,
			Level:         p.Level,
			Job:           p.Job,
			GMLevel:       p.GMLevel,
			Admin:         p.Admin,
			MutualBuddies: common.PlayerIDSet{},
			Initialized:   true,
		}
		ws.records.Put(r)
		ws.listings[p.ID] = common.NewPlayerIDSet(p.Listed...)
	}
	for _, p := range players {
		r := ws.records.Get(p.ID)
		for target := range ws.listings[p.ID] {
			if ws.lists(target, p.ID) {
				r.MutualBuddies.Add(target)
			}
		}
	}
	gwlog.Infof("%s: loaded %d players", ws, len(players))
}

// RegisterChannel records a (re)connected channel and sends it the full snapshot
func (ws *WorldSync) RegisterChannel(id common.ChannelID, ip string, port int) {
	info := &channelInfo{id: id, ip: ip, port: port}
	ws.channels[id] = info
	for _, r := range ws.records.All() {
		if r.Channel == id {
			info.population++
		}
	}

	gwlog.Infof("%s: channel %d registered at %s:%d", ws, id, ip, port)
	if link := ws.router.Channel(id); link != nil {
		link.SendChannelSnapshot(ws.records.All(), ws.parties.Snapshots())
	}
}

// ChannelDisconnected marks the players of a lost channel offline and drops its pending switches
func (ws *WorldSync) ChannelDisconnected(id common.ChannelID) {
	gwlog.Warnf("%s: channel %d disconnected", ws, id)
	delete(ws.channels, id)

	for pid, sw := range ws.switches {
		if sw.dest == id {
			delete(ws.switches, pid)
			if link := ws.router.Channel(sw.origin); link != nil {
				link.SendChangeChannelGo(pid, sw.dest, "", 0)
			}
		} else if sw.origin == id {
			delete(ws.switches, pid)
		}
	}
	for pid, ch := range ws.logins {
		if ch == id {
			delete(ws.logins, pid)
			if login := ws.router.Login(); login != nil {
				login.SendLoginChannelGo(pid, "", 0)
			}
		}
	}

	for _, r := range ws.records.All() {
		if r.Channel != id || r.Transferring {
			continue
		}
		r.Channel = common.NoChannel
		ws.broadcastDelta(id, presence.NewDelta(r, presence.Channel))
		ws.persist(r.ID)
	}
}

// ChannelLoad records the load reported by a channel
func (ws *WorldSync) ChannelLoad(id common.ChannelID, load proto.ChannelLoadInfo) {
	info := ws.channels[id]
	if info == nil {
		return
	}
	info.load = load
	gwlog.Debugf("%s: channel %d load: cpu=%.1f%% population=%d/%d", ws, id, load.CPUPercent, load.Population, info.population)
}

// Population returns how many players the world believes are on the channel
func (ws *WorldSync) Population(id common.ChannelID) int {
	if info := ws.channels[id]; info != nil {
		return info.population
	}
	return 0
}

// FirstAvailableChannel returns the lowest registered channel below max population, or NoChannel
func (ws *WorldSync) FirstAvailableChannel() common.ChannelID {
	ids := make([]int, 0, len(ws.channels))
	for id := range ws.channels {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		if ws.channels[common.ChannelID(id)].population < ws.maxPopulation {
			return common.ChannelID(id)
		}
	}
	return common.NoChannel
}

func (ws *WorldSync) adjustPopulation(from, to common.ChannelID) {
	if from == to {
		return
	}
	if info := ws.channels[from]; info != nil && info.population > 0 {
		info.population--
	}
	if info := ws.channels[to]; info != nil {
		info.population++
	}
}

// RouteUpdate merges an update from a channel into the canonical table and re-emits it to the other channels
func (ws *WorldSync) RouteUpdate(origin common.ChannelID, u *presence.Update) {
	if !u.Bits.Valid() {
		gwlog.TraceError("%s: invalid update bits %d for player %d from channel %d", ws, u.Bits, u.ID(), origin)
		return
	}

	r := ws.records.Get(u.ID())
	if r == nil && !u.Bits.Has(presence.Full) {
		gwlog.Warnf("%s: delta %s for unknown player %d from channel %d", ws, u.Bits, u.ID(), origin)
		return
	}

	prevChannel := common.NoChannel
	var canonParty common.PartyID
	canonBuddies := common.PlayerIDSet{}
	if r != nil {
		prevChannel = r.Channel
		canonParty = r.Party
		canonBuddies = r.MutualBuddies.Copy()
	}

	r, _ = ws.records.Apply(u)
	if consts.DEBUG_HANDOVER {
		gwlog.Debugf("%s: player %d %s from channel %d", ws, r.ID, u.Bits, origin)
	}

	if u.Bits.Has(presence.Full) {
		corrected := !r.SocialEqual(&presence.PlayerRecord{Party: canonParty, MutualBuddies: canonBuddies})
		r.Party = canonParty
		r.MutualBuddies = canonBuddies
		if _, ok := ws.listings[r.ID]; !ok {
			ws.listings[r.ID] = common.PlayerIDSet{}
		}
		full := presence.NewFullUpdate(r)
		ws.broadcastDelta(origin, full)
		if corrected {
			gwlog.Infof("%s: correcting party/buddies of %s on channel %d", ws, r, origin)
			if link := ws.router.Channel(origin); link != nil {
				link.SendPlayerFull(r)
			}
		}
	} else {
		ws.broadcastDelta(origin, u)
	}

	if r.Channel != prevChannel {
		ws.adjustPopulation(prevChannel, r.Channel)
		ws.onChannelChanged(r)
	}
}

func (ws *WorldSync) onChannelChanged(r *presence.PlayerRecord) {
	if sw := ws.switches[r.ID]; sw != nil && r.Channel != sw.origin {
		delete(ws.switches, r.ID)
		if r.Channel != sw.dest {
			// the origin gave up waiting, so the destination must forget the handover
			gwlog.Infof("%s: stale switch of %s to channel %d", ws, r, sw.dest)
			if link := ws.router.Channel(sw.dest); link != nil {
				link.SendConnectableDelete(r.ID)
			}
		}
	}
	if dest, ok := ws.logins[r.ID]; ok && r.Channel == dest {
		delete(ws.logins, r.ID)
	}
	if !r.IsOnline() {
		ws.persist(r.ID)
	}
}

func (ws *WorldSync) broadcastDelta(origin common.ChannelID, u *presence.Update) {
	for _, id := range ws.router.Channels() {
		if id == origin {
			continue
		}
		if link := ws.router.Channel(id); link != nil {
			link.SendPlayerDelta(u)
		}
	}
}

// ChangeChannelRequest brokers a channel change: the destination is told to expect the player
func (ws *WorldSync) ChangeChannelRequest(origin common.ChannelID, id common.PlayerID, dest common.ChannelID, ip string, blob []byte) {
	originLink := ws.router.Channel(origin)
	cannotGo := func(reason string) {
		gwlog.Infof("%s: player %d can not go from channel %d to %d: %s", ws, id, origin, dest, reason)
		if originLink != nil {
			originLink.SendChangeChannelGo(id, dest, "", 0)
		}
	}

	if ws.records.Get(id) == nil {
		cannotGo("unknown player")
		return
	}
	if dest == origin {
		cannotGo("same channel")
		return
	}
	info := ws.channels[dest]
	destLink := ws.router.Channel(dest)
	if info == nil || destLink == nil {
		cannotGo("channel not connected")
		return
	}
	if info.population >= ws.maxPopulation {
		cannotGo("channel is full")
		return
	}

	ws.switches[id] = &pendingSwitch{origin: origin, dest: dest}
	destLink.SendConnectableNew(id, ip, true, blob)
}

// ConnectableEstablished is the destination's confirmation that it expects the player
func (ws *WorldSync) ConnectableEstablished(from common.ChannelID, id common.PlayerID) {
	info := ws.channels[from]
	if info == nil {
		return
	}

	if sw := ws.switches[id]; sw != nil && sw.dest == from {
		if link := ws.router.Channel(sw.origin); link != nil {
			link.SendChangeChannelGo(id, from, info.ip, info.port)
		}
		return
	}
	if dest, ok := ws.logins[id]; ok && dest == from {
		if login := ws.router.Login(); login != nil {
			login.SendLoginChannelGo(id, info.ip, info.port)
		}
		return
	}
	gwlog.Warnf("%s: unexpected connectable established for player %d from channel %d", ws, id, from)
}

// LoginConnectable asks a channel to expect a player coming from the login process, NoChannel picks any channel
func (ws *WorldSync) LoginConnectable(id common.PlayerID, channel common.ChannelID, ip string) {
	reject := func(reason string) {
		gwlog.Infof("%s: login of player %d to channel %d rejected: %s", ws, id, channel, reason)
		if login := ws.router.Login(); login != nil {
			login.SendLoginChannelGo(id, "", 0)
		}
	}

	r := ws.records.Get(id)
	if r == nil {
		reject("unknown player")
		return
	}
	if r.IsOnline() && !r.Transferring {
		reject("already online")
		return
	}
	if channel == common.NoChannel {
		channel = ws.FirstAvailableChannel()
	}
	info := ws.channels[channel]
	link := ws.router.Channel(channel)
	if info == nil || link == nil {
		reject("channel not connected")
		return
	}
	if info.population >= ws.maxPopulation {
		reject("channel is full")
		return
	}

	ws.logins[id] = channel
	link.SendConnectableNew(id, ip, false, nil)
}

// CharacterCreated adds a new character to the world
func (ws *WorldSync) CharacterCreated(r *presence.PlayerRecord) {
	if ws.records.Get(r.ID) != nil {
		gwlog.TraceError("%s: character %d created twice", ws, r.ID)
		return
	}
	if other := ws.records.GetByName(r.Name); other != nil {
		gwlog.TraceError("%s: character name %s is already used by %d", ws, r.Name, other.ID)
		return
	}

	nr := r.Copy()
	nr.Channel = common.NoChannel
	nr.Transferring = false
	nr.Party = common.NoParty
	nr.MutualBuddies = common.PlayerIDSet{}
	nr.Initialized = true
	ws.records.Put(nr)
	ws.listings[nr.ID] = common.PlayerIDSet{}
	ws.persist(nr.ID)
	ws.broadcastDelta(common.NoChannel, presence.NewFullUpdate(nr))
}

// CharacterDeleted removes a character with all its party and buddy relations
func (ws *WorldSync) CharacterDeleted(id common.PlayerID) {
	r := ws.records.Get(id)
	if r == nil {
		return
	}
	if r.Party != common.NoParty {
		if err := ws.RemoveMember(r.Party, id, false); err != nil {
			gwlog.Errorf("%s: remove deleted %s from party: %s", ws, r, err)
		}
	}
	for target := range ws.listings[id].Copy() {
		ws.Remove(id, target)
	}
	for owner, listed := range ws.listings {
		if listed.Contains(id) {
			listed.Del(id)
			ws.persist(owner)
		}
	}
	for _, inviters := range ws.invites {
		inviters.Del(id)
	}
	delete(ws.invites, id)
	delete(ws.listings, id)
	delete(ws.switches, id)
	delete(ws.logins, id)
	ws.records.Remove(id)

	if ws.store != nil {
		ws.store.DeletePlayer(id, nil)
	}
}

// ChatGroup forwards a chat to the channels of the recipients, each channel gets only its own recipients
func (ws *WorldSync) ChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) {
	byChannel := map[common.ChannelID][]common.PlayerID{}
	for _, rid := range recipients {
		r := ws.records.Get(rid)
		if r == nil || !r.IsOnline() {
			continue
		}
		byChannel[r.Channel] = append(byChannel[r.Channel], rid)
	}
	for ch, ids := range byChannel {
		if link := ws.router.Channel(ch); link != nil {
			link.SendChatGroup(chatType, sender, ids, text)
		}
	}
}

// Broadcast sends a notice to every player on every channel
func (ws *WorldSync) Broadcast(text string) {
	ws.eachChannel(func(link ChannelLink) {
		link.SendChatBroadcast(text)
	})
}

func (ws *WorldSync) playerDocument(r *presence.PlayerRecord) *storage.PlayerDocument {
	return &storage.PlayerDocument{
		Character: storage.Character{
			ID:      r.ID,
			Name:    r.Name,
			Level:   r.Level,
			Job:     r.Job,
			Map:     r.Map,
			GMLevel: r.GMLevel,
			Admin:   r.Admin,
		},
		Listed: ws.listings[r.ID].ToList(),
	}
}

func (ws *WorldSync) persist(id common.PlayerID) {
	if ws.store == nil {
		return
	}
	r := ws.records.Get(id)
	if r == nil || !r.Initialized {
		return
	}
	ws.store.SavePlayer(ws.playerDocument(r), nil)
}
