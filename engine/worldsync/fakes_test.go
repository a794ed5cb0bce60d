package worldsync

import (
	"fmt"
	"sort"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

// fakeLink records every message sent to a channel as a short string
type fakeLink struct {
	sent    []string
	updates []*presence.Update
}

func (l *fakeLink) record(format string, args ...interface{}) error {
	l.sent = append(l.sent, fmt.Sprintf(format, args...))
	return nil
}

func (l *fakeLink) reset() {
	l.sent = nil
	l.updates = nil
}

func (l *fakeLink) SendChannelSnapshot(records []*presence.PlayerRecord, parties []party.Snapshot) error {
	return l.record("Snapshot(%d,%d)", len(records), len(parties))
}

func (l *fakeLink) SendPlayerFull(r *presence.PlayerRecord) error {
	l.updates = append(l.updates, presence.NewFullUpdate(r))
	return l.record("Full(%d)", r.ID)
}

func (l *fakeLink) SendPlayerDelta(u *presence.Update) error {
	l.updates = append(l.updates, u)
	if u.Bits.Has(presence.Full) {
		return l.record("Full(%d)", u.ID())
	}
	return l.record("Delta(%d,%s)", u.ID(), u.Bits)
}

func (l *fakeLink) SendConnectableNew(id common.PlayerID, ip string, switching bool, blob []byte) error {
	return l.record("ConnectableNew(%d,%s,%v,%d)", id, ip, switching, len(blob))
}

func (l *fakeLink) SendConnectableDelete(id common.PlayerID) error {
	return l.record("ConnectableDelete(%d)", id)
}

func (l *fakeLink) SendChangeChannelGo(id common.PlayerID, dest common.ChannelID, ip string, port int) error {
	return l.record("ChangeChannelGo(%d,%d,%s,%d)", id, dest, ip, port)
}

func (l *fakeLink) SendPartyCreate(id common.PartyID, leader common.PlayerID) error {
	return l.record("PartyCreate(%d,%d)", id, leader)
}

func (l *fakeLink) SendPartyDisband(id common.PartyID) error {
	return l.record("PartyDisband(%d)", id)
}

func (l *fakeLink) SendPartySwitchLeader(id common.PartyID, leader common.PlayerID) error {
	return l.record("PartySwitchLeader(%d,%d)", id, leader)
}

func (l *fakeLink) SendPartyAddMember(id common.PartyID, player common.PlayerID) error {
	return l.record("PartyAddMember(%d,%d)", id, player)
}

func (l *fakeLink) SendPartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error {
	return l.record("PartyRemoveMember(%d,%d,%v)", id, player, kicked)
}

func (l *fakeLink) SendBuddyInvite(inviter, invitee common.PlayerID, name string) error {
	return l.record("BuddyInvite(%d,%d,%s)", inviter, invitee, name)
}

func (l *fakeLink) SendBuddyAcceptInvite(invitee, inviter common.PlayerID) error {
	return l.record("BuddyAcceptInvite(%d,%d)", invitee, inviter)
}

func (l *fakeLink) SendBuddyRemove(owner, target common.PlayerID) error {
	return l.record("BuddyRemove(%d,%d)", owner, target)
}

func (l *fakeLink) SendBuddyReadd(owner, target common.PlayerID) error {
	return l.record("BuddyReadd(%d,%d)", owner, target)
}

func (l *fakeLink) SendChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error {
	return l.record("ChatGroup(%d,%d,%v,%s)", chatType, sender, recipients, text)
}

func (l *fakeLink) SendChatBroadcast(text string) error {
	return l.record("Broadcast(%s)", text)
}

type fakeLogin struct {
	sent []string
}

func (l *fakeLogin) SendLoginChannelGo(id common.PlayerID, ip string, port int) error {
	l.sent = append(l.sent, fmt.Sprintf("LoginChannelGo(%d,%s,%d)", id, ip, port))
	return nil
}

type fakeRouter struct {
	links map[common.ChannelID]*fakeLink
	login *fakeLogin
}

func newFakeRouter(ids ...common.ChannelID) *fakeRouter {
	r := &fakeRouter{
		links: map[common.ChannelID]*fakeLink{},
		login: &fakeLogin{},
	}
	for _, id := range ids {
		r.links[id] = &fakeLink{}
	}
	return r
}

func (r *fakeRouter) Channel(id common.ChannelID) ChannelLink {
	if link, ok := r.links[id]; ok {
		return link
	}
	return nil
}

func (r *fakeRouter) Channels() []common.ChannelID {
	var ids []common.ChannelID
	for id := range r.links {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

func (r *fakeRouter) Login() LoginLink {
	return r.login
}

func (r *fakeRouter) resetAll() {
	for _, l := range r.links {
		l.reset()
	}
	r.login.sent = nil
}

type fakeStore struct {
	saved   map[common.PlayerID]*storage.PlayerDocument
	deleted []common.PlayerID
}

func newFakeStore() *fakeStore {
	return &fakeStore{saved: map[common.PlayerID]*storage.PlayerDocument{}}
}

func (s *fakeStore) SavePlayer(p *storage.PlayerDocument, callback storage.SaveCallbackFunc) {
	s.saved[p.ID] = p
	if callback != nil {
		callback()
	}
}

func (s *fakeStore) DeletePlayer(id common.PlayerID, callback storage.SaveCallbackFunc) {
	s.deleted = append(s.deleted, id)
	if callback != nil {
		callback()
	}
}

// newTestWorld creates a world with channels 1..n registered and players 1..m offline
func newTestWorld(channels int, players int) (*WorldSync, *fakeRouter, *fakeStore) {
	var ids []common.ChannelID
	for i := 1; i <= channels; i++ {
		ids = append(ids, common.ChannelID(i))
	}
	router := newFakeRouter(ids...)
	store := newFakeStore()
	ws := New(router, store, 100)

	var docs []*storage.PlayerDocument
	for i := 1; i <= players; i++ {
		docs = append(docs, &storage.PlayerDocument{
			Character: storage.Character{ID: common.PlayerID(i), Name: fmt.Sprintf("Player%d", i), Level: 10},
		})
	}
	ws.LoadPlayers(docs)
	for i, id := range ids {
		ws.RegisterChannel(id, "10.0.0.1", 8000+i+1)
	}
	router.resetAll()
	return ws, router, store
}

// login puts the player on the channel the way a channel reports a new session
func login(ws *WorldSync, id common.PlayerID, ch common.ChannelID) {
	r := ws.Record(id).Copy()
	r.Channel = ch
	r.IP = "1.2.3.4"
	ws.RouteUpdate(ch, presence.NewFullUpdate(r))
}
