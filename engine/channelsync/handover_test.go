package channelsync

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/handover"
	"github.com/xiaonanln/chanworld/engine/party"
	"github.com/xiaonanln/chanworld/engine/presence"
	"github.com/xiaonanln/chanworld/engine/storage"
)

func TestConnectDeliversHeldEffects(t *testing.T) {
	cs, world, clock := newTestChannel(1)
	seed(cs, 42, 0)

	et := handover.NewEffectTable()
	et.Add(handover.EffectBuff, 2001002, 5, 30*time.Second, clock.Now())
	blob, err := et.Encode(clock.Now())
	assert.Equal(t, nil, err)

	cs.HandleConnectableNew(42, "1.2.3.4", true, blob)
	assert.Equal(t, []string{"ConnectableEstablished(42)"}, world.sent)
	assert.Equal(t, 1, cs.PendingCount())

	clock.Advance(4000 * time.Millisecond)
	s := newFakeSession(42, "1.2.3.4")
	assert.Equal(t, nil, cs.Connect(s, 42))
	assert.Equal(t, 0, cs.PendingCount())
	assert.Equal(t, false, s.closed)
	assert.Equal(t, []string{"Established(1)"}, s.sent)
	assert.Equal(t, int32(2001002), s.established[0][0].ID)
	assert.Equal(t, int64(30000), s.established[0][0].RemainingMs)
	assert.Equal(t, common.ChannelID(1), cs.Record(42).Channel)
	assert.Equal(t, "1.2.3.4", cs.Record(42).IP)
}

func TestConnectWrongIPKeepsEntry(t *testing.T) {
	cs, world, clock := newTestChannel(1)
	seed(cs, 42, 0)
	cs.HandleConnectableNew(42, "1.2.3.4", false, nil)
	world.reset()

	s := newFakeSession(42, "5.6.7.8")
	err := cs.Connect(s, 42)
	assert.Equal(t, handover.ErrIPMismatch, errors.Cause(err))
	assert.T(t, s.closed)
	assert.Equal(t, 1, cs.PendingCount())
	assert.T(t, cs.Session(42) == nil)
	assert.Equal(t, 0, len(world.sent))

	clock.Advance(5000 * time.Millisecond)
	s = newFakeSession(42, "1.2.3.4")
	assert.Equal(t, handover.ErrExpired, errors.Cause(cs.Connect(s, 42)))
	assert.Equal(t, 0, cs.PendingCount())
}

func TestConnectIsOneShot(t *testing.T) {
	cs, _, _ := newTestChannel(1)
	seed(cs, 42, 0)
	s := connect(cs, 42)
	cs.Disconnect(s)

	s2 := newFakeSession(42, testIP)
	assert.Equal(t, handover.ErrNoPending, errors.Cause(cs.Connect(s2, 42)))
	assert.T(t, s2.closed)
}

func TestConnectTimeBound(t *testing.T) {
	cs, _, clock := newTestChannel(1)
	seed(cs, 1, 0)
	seed(cs, 2, 0)

	cs.HandleConnectableNew(1, testIP, false, nil)
	clock.Advance(5000*time.Millisecond - time.Millisecond)
	assert.Equal(t, nil, cs.Connect(newFakeSession(1, testIP), 1))

	cs.HandleConnectableNew(2, testIP, false, nil)
	clock.Advance(5000*time.Millisecond + time.Millisecond)
	assert.Equal(t, handover.ErrExpired, errors.Cause(cs.Connect(newFakeSession(2, testIP), 2)))
}

func TestDuplicateSessionRejected(t *testing.T) {
	cs, _, _ := newTestChannel(1)
	seed(cs, 1, 0)
	first := connect(cs, 1)

	cs.HandleConnectableNew(1, testIP, false, nil)
	second := newFakeSession(1, testIP)
	assert.Equal(t, ErrDuplicateSession, errors.Cause(cs.Connect(second, 1)))
	assert.T(t, second.closed)
	assert.Equal(t, false, first.closed)
	assert.Equal(t, Session(first), cs.Session(1))
}

func TestSweepAndDeletePending(t *testing.T) {
	cs, _, clock := newTestChannel(1)
	cs.HandleConnectableNew(1, testIP, false, nil)
	clock.Advance(time.Second)
	cs.HandleConnectableNew(2, testIP, false, nil)
	cs.HandleConnectableNew(3, testIP, false, nil)

	cs.HandleConnectableDelete(3)
	assert.Equal(t, 2, cs.PendingCount())

	clock.Advance(4000 * time.Millisecond)
	cs.SweepPending()
	assert.Equal(t, 1, cs.PendingCount())
	clock.Advance(time.Second)
	cs.SweepPending()
	assert.Equal(t, 0, cs.PendingCount())
}

func TestArrivalEmitsOneDeltaAndOneRefresh(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 7, 0)
	seed(cs, 42, 2)
	cs.HandleBuddyAcceptInvite(7, 42)
	buddy := connect(cs, 7)
	assert.Equal(t, []string{"BuddyPresence(42,2,false)", "Established(0)"}, buddy.sent)
	buddy.reset()
	world.reset()

	// the origin channel starts the move
	r := cs.Record(42).Copy()
	r.Transferring = true
	cs.HandleUpdate(presence.NewDelta(r, presence.Transfer))
	assert.Equal(t, 0, len(buddy.sent))

	cs.HandleConnectableNew(42, "5.6.7.8", true, nil)
	s := newFakeSession(42, "5.6.7.8")
	assert.Equal(t, nil, cs.Connect(s, 42))
	assert.Equal(t, []string{"ConnectableEstablished(42)", "Delta(42,Map|Transfer|Channel|IP)"}, world.sent)
	assert.Equal(t, []string{"BuddyPresence(42,1,false)"}, buddy.sent)
	assert.Equal(t, []string{"BuddyPresence(7,1,false)", "Established(0)"}, s.sent)
	assert.Equal(t, false, cs.Record(42).Transferring)
}

func TestDisconnectKeepsPartyMember(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	seed(cs, 2, 0)
	s1 := connect(cs, 1)
	s2 := connect(cs, 2)
	cs.HandlePartyCreate(5, 1)
	cs.HandlePartyAddMember(5, 2)
	s1.reset()
	world.reset()

	cs.Disconnect(s2)
	p := cs.Party(5)
	assert.Equal(t, 2, p.Len())
	assert.Equal(t, false, p.Member(2).Connected)
	assert.Equal(t, common.PartyID(5), cs.Record(2).Party)
	assert.Equal(t, common.NoChannel, cs.Record(2).Channel)
	assert.Equal(t, []string{"Delta(2,Channel)"}, world.sent)
	assert.Equal(t, []string{"Party(5,2)"}, s1.sent)
	assert.T(t, cs.Session(2) == nil)
}

func TestChangeChannelRedirect(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	s := connect(cs, 1)
	cs.HandlePartyCreate(5, 1)
	assert.Equal(t, nil, cs.AddEffect(1, handover.EffectSummon, 3101, 1, time.Minute))
	world.reset()
	s.reset()

	assert.Equal(t, nil, cs.RequestChangeChannel(1, 2))
	assert.Equal(t, []string{"Delta(1,Transfer)", "ChangeChannelRequest(1,2,1.2.3.4)"}, world.sent)
	assert.T(t, cs.Record(1).Transferring)
	assert.T(t, cs.Transferring(1))
	held, err := handover.DecodeEffects(world.lastBlob, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, held.Len())

	assert.Equal(t, ErrCannotChangeChannel, errors.Cause(cs.RequestChangeChannel(1, 3)))

	world.reset()
	cs.HandleChangeChannelGo(1, 2, "10.0.0.2", 8002)
	assert.Equal(t, []string{"ChannelGo(10.0.0.2,8002)"}, s.sent)
	assert.T(t, s.closed)
	assert.T(t, cs.Session(1) == nil)
	assert.Equal(t, false, cs.Party(5).Member(1).Connected)
	assert.Equal(t, 0, len(world.sent))

	// the socket close that follows the redirect is not a logout
	cs.Disconnect(s)
	assert.Equal(t, 0, len(world.sent))
	assert.Equal(t, common.ChannelID(1), cs.Record(1).Channel)
}

func TestChangeChannelCannotGo(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	s := connect(cs, 1)
	cs.RequestChangeChannel(1, 2)
	world.reset()
	s.reset()

	cs.HandleChangeChannelGo(1, 2, "", 0)
	assert.Equal(t, []string{"CannotGo"}, s.sent)
	assert.Equal(t, []string{"Delta(1,Transfer)"}, world.sent)
	assert.Equal(t, false, cs.Record(1).Transferring)
	assert.Equal(t, false, cs.Transferring(1))
	assert.Equal(t, false, s.closed)
}

func TestChangeChannelRefused(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	s := connect(cs, 1)
	world.reset()

	assert.Equal(t, ErrCannotChangeChannel, errors.Cause(cs.RequestChangeChannel(1, 1)))
	s.canChange = false
	assert.Equal(t, ErrCannotChangeChannel, errors.Cause(cs.RequestChangeChannel(1, 2)))
	s.canChange = true
	cs.SetCashShop(1, true)
	world.reset()
	assert.Equal(t, ErrCannotChangeChannel, errors.Cause(cs.RequestChangeChannel(1, 2)))
	assert.Equal(t, 0, len(world.sent))
	assert.Equal(t, ErrNotConnected, errors.Cause(cs.RequestChangeChannel(9, 2)))
}

func TestChangeChannelAckTimeout(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	s := connect(cs, 1)
	cs.RequestChangeChannel(1, 2)
	world.reset()

	cs.onHandoverAckTimeout(1, cs.transfers[1])
	assert.Equal(t, []string{"Delta(1,Transfer|Channel)"}, world.sent)
	assert.T(t, s.closed)
	assert.Equal(t, common.NoChannel, cs.Record(1).Channel)
	assert.Equal(t, false, cs.Record(1).Transferring)

	// a late answer is ignored
	cs.HandleChangeChannelGo(1, 2, "10.0.0.2", 8002)
	assert.Equal(t, 1, len(world.sent))
}

func TestSnapshotKeepsLocalPresence(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 1, 0)
	connect(cs, 1)
	world.reset()

	stale := playerRecord(1, 0)
	stale.Party = 5
	stale.MutualBuddies = common.NewPlayerIDSet(3)
	stale.Initialized = true
	other := playerRecord(3, 2)
	other.Initialized = true
	snap := party.Snapshot{ID: 5, Leader: 1, Members: []party.MemberInfo{{ID: 1, Name: "Player1"}, {ID: 3, Name: "Player3"}}}

	cs.HandleSnapshot([]*presence.PlayerRecord{stale, other}, []party.Snapshot{snap})
	r := cs.Record(1)
	assert.Equal(t, common.ChannelID(1), r.Channel)
	assert.Equal(t, common.PartyID(5), r.Party)
	assert.T(t, r.MutualBuddies.Contains(3))
	assert.Equal(t, common.ChannelID(2), cs.Record(3).Channel)
	assert.T(t, cs.Party(5).Member(1).Connected)
	assert.Equal(t, false, cs.Party(5).Member(3).Connected)
	assert.Equal(t, []string{"Full(1)"}, world.sent)
}

func TestCharacterLoadedAndSaved(t *testing.T) {
	world := &fakeWorld{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := newFakeStore()
	store.chars[1] = &storage.Character{ID: 1, Name: "Player1", Level: 30, Job: 100, Map: 5000}
	cs := New(Config{ID: 1}, world, clock, store)
	seed(cs, 1, 0)

	s := connect(cs, 1)
	r := cs.Record(1)
	assert.Equal(t, uint8(30), r.Level)
	assert.Equal(t, int16(100), r.Job)
	assert.Equal(t, common.MapID(5000), r.Map)

	cs.SetProgress(1, 31, 110)
	cs.Disconnect(s)
	assert.Equal(t, uint8(31), store.saved[1].Level)
	assert.Equal(t, int16(110), store.saved[1].Job)

	// a missing character drops the connection
	seed(cs, 2, 0)
	cs.HandleConnectableNew(2, testIP, false, nil)
	s2 := newFakeSession(2, testIP)
	cs.Connect(s2, 2)
	assert.T(t, s2.closed)
	assert.T(t, cs.Session(2) == nil)
}

func TestEffectsExpire(t *testing.T) {
	cs, _, clock := newTestChannel(1)
	seed(cs, 1, 0)
	s := connect(cs, 1)
	s.reset()

	cs.AddEffect(1, handover.EffectBuff, 100, 2, 10*time.Second)
	cs.AddEffect(1, handover.EffectSummon, 200, 1, time.Minute)
	assert.Equal(t, []string{"AddEffect(1,100)", "AddEffect(2,200)"}, s.sent)

	s.reset()
	clock.Advance(10 * time.Second)
	cs.ExpireEffects()
	assert.Equal(t, []string{"EffectExpired(1,100)"}, s.sent)
	assert.Equal(t, 1, cs.Effects(1).Len())

	assert.Equal(t, ErrNotConnected, errors.Cause(cs.AddEffect(9, handover.EffectBuff, 1, 1, time.Second)))
}

func TestLoginOverStaleTransferIsFull(t *testing.T) {
	cs, world, _ := newTestChannel(1)
	seed(cs, 7, 2)
	r := cs.Record(7).Copy()
	r.Transferring = true
	cs.HandleUpdate(presence.NewDelta(r, presence.Transfer))
	world.reset()

	s := connect(cs, 7)
	assert.Equal(t, []string{"ConnectableEstablished(7)", "Full(7)"}, world.sent)
	assert.Equal(t, false, cs.Record(7).Transferring)
	assert.Equal(t, common.ChannelID(1), cs.Record(7).Channel)
	assert.Equal(t, []string{"Established(0)"}, s.sent)
}

func TestDisconnectWhileLoading(t *testing.T) {
	world := &fakeWorld{}
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	store := newSlowStore()
	store.chars[1] = &storage.Character{ID: 1, Name: "Player1", Level: 30}
	store.chars[2] = &storage.Character{ID: 2, Name: "Player2", Level: 40}
	cs := New(Config{ID: 1}, world, clock, store)
	seed(cs, 1, 0)

	// player 2 has no replicated record yet
	s1 := connect(cs, 1)
	s2 := connect(cs, 2)
	cs.Disconnect(s1)
	cs.Disconnect(s2)
	assert.T(t, cs.Session(1) == nil)
	assert.T(t, cs.Session(2) == nil)
	assert.Equal(t, []string{"ConnectableEstablished(1)", "ConnectableEstablished(2)"}, world.sent)
	assert.Equal(t, 0, len(store.saved))

	store.release(1)
	store.release(2)
	assert.Equal(t, 2, len(world.sent))
	assert.Equal(t, 0, len(s1.sent))
	assert.Equal(t, common.NoChannel, cs.Record(1).Channel)
	assert.Equal(t, uint8(10), cs.Record(1).Level)
}
