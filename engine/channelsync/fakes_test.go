package channelsync

import (
	"fmt"
	"time"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/proto"
	"github.com/xiaonanln/chanworld/engine/storage"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type fakeSession struct {
	id          common.PlayerID
	ip          string
	canChange   bool
	closed      bool
	sent        []string
	established [][]proto.EffectView
}

func newFakeSession(id common.PlayerID, ip string) *fakeSession {
	return &fakeSession{id: id, ip: ip, canChange: true}
}

func (s *fakeSession) record(format string, args ...interface{}) error {
	s.sent = append(s.sent, fmt.Sprintf(format, args...))
	return nil
}

func (s *fakeSession) reset() {
	s.sent = nil
}

func (s *fakeSession) PlayerID() common.PlayerID { return s.id }
func (s *fakeSession) RemoteIP() string { return s.ip }
func (s *fakeSession) CanChangeChannel() bool { return s.canChange }

func (s *fakeSession) Close() error {
	s.closed = true
	return nil
}

func (s *fakeSession) SendEstablished(r *presence.PlayerRecord, effects []proto.EffectView) error {
	s.established = append(s.established, effects)
	return s.record("Established(%d)", len(effects))
}

func (s *fakeSession) SendClientChannelGo(ip string, port int) error {
	return s.record("ChannelGo(%s,%d)", ip, port)
}

func (s *fakeSession) SendCannotGo() error {
	return s.record("CannotGo")
}

func (s *fakeSession) SendChangeMap(m common.MapID) error {
	return s.record("ChangeMap(%d)", m)
}

func (s *fakeSession) SendAddEffect(e proto.EffectView) error {
	return s.record("AddEffect(%d,%d)", e.Kind, e.ID)
}

func (s *fakeSession) SendEffectExpired(kind uint8, id int32) error {
	return s.record("EffectExpired(%d,%d)", kind, id)
}

func (s *fakeSession) SendChat(chatType proto.ChatType, from string, text string) error {
	return s.record("Chat(%d,%s,%s)", chatType, from, text)
}

func (s *fakeSession) SendNotice(text string) error {
	return s.record("Notice(%s)", text)
}

func (s *fakeSession) SendPartyUpdate(view *proto.PartyView) error {
	return s.record("Party(%d,%d)", view.ID, len(view.Members))
}

func (s *fakeSession) SendBuddyInvited(inviter common.PlayerID, name string) error {
	return s.record("BuddyInvited(%d,%s)", inviter, name)
}

func (s *fakeSession) SendBuddyPresence(id common.PlayerID, channel common.ChannelID, cashShop bool) error {
	return s.record("BuddyPresence(%d,%d,%v)", id, channel, cashShop)
}

// fakeWorld records every message sent to the world as a short string
type fakeWorld struct {
	sent     []string
	lastBlob []byte
}

func (w *fakeWorld) record(format string, args ...interface{}) error {
	w.sent = append(w.sent, fmt.Sprintf(format, args...))
	return nil
}

func (w *fakeWorld) reset() {
	w.sent = nil
}

func (w *fakeWorld) SendPlayerFull(r *presence.PlayerRecord) error {
	return w.record("Full(%d)", r.ID)
}

func (w *fakeWorld) SendPlayerDelta(u *presence.Update) error {
	if u.Bits.Has(presence.Full) {
		return w.record("Full(%d)", u.ID())
	}
	return w.record("Delta(%d,%s)", u.ID(), u.Bits)
}

func (w *fakeWorld) SendConnectableEstablished(id common.PlayerID) error {
	return w.record("ConnectableEstablished(%d)", id)
}

func (w *fakeWorld) SendChangeChannelRequest(id common.PlayerID, dest common.ChannelID, ip string, blob []byte) error {
	w.lastBlob = blob
	return w.record("ChangeChannelRequest(%d,%d,%s)", id, dest, ip)
}

func (w *fakeWorld) SendPartyCreate(id common.PartyID, leader common.PlayerID) error {
	return w.record("PartyCreate(%d,%d)", id, leader)
}

func (w *fakeWorld) SendPartyDisband(id common.PartyID) error {
	return w.record("PartyDisband(%d)", id)
}

func (w *fakeWorld) SendPartySwitchLeader(id common.PartyID, leader common.PlayerID) error {
	return w.record("PartySwitchLeader(%d,%d)", id, leader)
}

func (w *fakeWorld) SendPartyAddMember(id common.PartyID, player common.PlayerID) error {
	return w.record("PartyAddMember(%d,%d)", id, player)
}

func (w *fakeWorld) SendPartyRemoveMember(id common.PartyID, player common.PlayerID, kicked bool) error {
	return w.record("PartyRemoveMember(%d,%d,%v)", id, player, kicked)
}

func (w *fakeWorld) SendBuddyInvite(inviter, invitee common.PlayerID, name string) error {
	return w.record("BuddyInvite(%d,%d,%s)", inviter, invitee, name)
}

func (w *fakeWorld) SendBuddyAcceptInvite(invitee, inviter common.PlayerID) error {
	return w.record("BuddyAcceptInvite(%d,%d)", invitee, inviter)
}

func (w *fakeWorld) SendBuddyRemove(owner, target common.PlayerID) error {
	return w.record("BuddyRemove(%d,%d)", owner, target)
}

func (w *fakeWorld) SendBuddyReadd(owner, target common.PlayerID) error {
	return w.record("BuddyReadd(%d,%d)", owner, target)
}

func (w *fakeWorld) SendChatGroup(chatType proto.ChatType, sender common.PlayerID, recipients []common.PlayerID, text string) error {
	return w.record("ChatGroup(%d,%d,%v,%s)", chatType, sender, recipients, text)
}

// fakeStore runs callbacks synchronously
type fakeStore struct {
	chars map[common.PlayerID]*storage.Character
	saved map[common.PlayerID]*storage.Character
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		chars: map[common.PlayerID]*storage.Character{},
		saved: map[common.PlayerID]*storage.Character{},
	}
}

func (st *fakeStore) SaveCharacter(c *storage.Character, callback storage.SaveCallbackFunc) {
	st.saved[c.ID] = c
	st.chars[c.ID] = c
	if callback != nil {
		callback()
	}
}

func (st *fakeStore) LoadCharacter(id common.PlayerID, callback func(c *storage.Character, err error)) {
	c := st.chars[id]
	if c == nil {
		callback(nil, fmt.Errorf("character %d not found", id))
		return
	}
	callback(c, nil)
}

const testIP = "1.2.3.4"

func newTestChannel(id common.ChannelID) (*ChannelSync, *fakeWorld, *fakeClock) {
	world := &fakeWorld{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	cs := New(Config{ID: id}, world, clock, nil)
	return cs, world, clock
}

func playerRecord(id common.PlayerID, ch common.ChannelID) *presence.PlayerRecord {
	return &presence.PlayerRecord{
		ID:            id,
		Name:          fmt.Sprintf("Player%d", id),
		Level:         10,
		Channel:       ch,
		MutualBuddies: common.PlayerIDSet{},
	}
}

// seed replicates a player record to the channel as the world would
func seed(cs *ChannelSync, id common.PlayerID, ch common.ChannelID) {
	cs.HandleUpdate(presence.NewFullUpdate(playerRecord(id, ch)))
}

// connect logs the player into the channel through the pending handover path
func connect(cs *ChannelSync, id common.PlayerID) *fakeSession {
	cs.HandleConnectableNew(id, testIP, false, nil)
	s := newFakeSession(id, testIP)
	if err := cs.Connect(s, id); err != nil {
		panic(err)
	}
	return s
}

// slowStore holds load callbacks until release is called
type slowStore struct {
	fakeStore
	waiting map[common.PlayerID]func(c *storage.Character, err error)
}

func newSlowStore() *slowStore {
	return &slowStore{
		fakeStore: *newFakeStore(),
		waiting:   map[common.PlayerID]func(c *storage.Character, err error){},
	}
}

func (st *slowStore) LoadCharacter(id common.PlayerID, callback func(c *storage.Character, err error)) {
	st.waiting[id] = callback
}

func (st *slowStore) release(id common.PlayerID) {
	cb := st.waiting[id]
	delete(st.waiting, id)
	st.fakeStore.LoadCharacter(id, cb)
}
