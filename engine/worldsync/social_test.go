package worldsync

import (
	"fmt"
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
	"github.com/xiaonanln/chanworld/engine/presence"
)

func TestCreateParty(t *testing.T) {
	ws, router, _ := newTestWorld(2, 3)
	id, err := ws.CreateParty(1)
	assert.Equal(t, nil, err)
	assert.Equal(t, common.PartyID(consts.PARTY_ID_START), id)
	assert.Equal(t, id, ws.Record(1).Party)
	assert.Equal(t, common.PlayerID(1), ws.Party(id).Leader)
	assert.Equal(t, []string{"PartyCreate(1,1)"}, router.links[1].sent)
	assert.Equal(t, []string{"PartyCreate(1,1)"}, router.links[2].sent)

	_, err = ws.CreateParty(1)
	assert.Equal(t, ErrAlreadyInParty, errors.Cause(err))
	_, err = ws.CreateParty(99)
	assert.Equal(t, ErrUnknownPlayer, errors.Cause(err))
}

func TestPartyMembers(t *testing.T) {
	ws, router, _ := newTestWorld(1, 8)
	id, _ := ws.CreateParty(1)
	for i := 2; i <= consts.MAX_PARTY_MEMBERS; i++ {
		assert.Equal(t, nil, ws.AddMember(id, common.PlayerID(i)))
		assert.Equal(t, id, ws.Record(common.PlayerID(i)).Party)
	}
	err := ws.AddMember(id, common.PlayerID(consts.MAX_PARTY_MEMBERS+1))
	assert.Equal(t, ErrPartyFull, errors.Cause(err))
	assert.Equal(t, ErrAlreadyInParty, errors.Cause(ws.AddMember(id, 2)))
	assert.Equal(t, ErrNoParty, errors.Cause(ws.AddMember(id+1, 8)))

	router.resetAll()
	assert.Equal(t, nil, ws.RemoveMember(id, 3, true))
	assert.Equal(t, common.NoParty, ws.Record(3).Party)
	assert.Equal(t, consts.MAX_PARTY_MEMBERS-1, ws.Party(id).Len())
	assert.Equal(t, []string{"PartyRemoveMember(1,3,true)"}, router.links[1].sent)
	assert.Equal(t, ErrNotMember, errors.Cause(ws.RemoveMember(id, 3, false)))
}

func TestPartyLeaderLeavingDisbands(t *testing.T) {
	ws, router, _ := newTestWorld(1, 3)
	id, _ := ws.CreateParty(1)
	ws.AddMember(id, 2)
	router.resetAll()

	assert.T(t, ws.RemoveMember(id, 1, true) != nil, "leader can not be kicked")
	assert.Equal(t, nil, ws.RemoveMember(id, 1, false))
	assert.T(t, ws.Party(id) == nil)
	assert.Equal(t, common.NoParty, ws.Record(1).Party)
	assert.Equal(t, common.NoParty, ws.Record(2).Party)
	assert.Equal(t, []string{"PartyDisband(1)"}, router.links[1].sent)

	// the released id is reused
	id2, _ := ws.CreateParty(3)
	assert.Equal(t, id, id2)
}

func TestTransferLeadership(t *testing.T) {
	ws, router, _ := newTestWorld(1, 3)
	id, _ := ws.CreateParty(1)
	ws.AddMember(id, 2)
	router.resetAll()

	assert.Equal(t, ErrNotMember, errors.Cause(ws.TransferLeadership(id, 3)))
	assert.Equal(t, nil, ws.TransferLeadership(id, 2))
	assert.Equal(t, common.PlayerID(2), ws.Party(id).Leader)
	assert.Equal(t, []string{"PartySwitchLeader(1,2)"}, router.links[1].sent)

	// the old leader is now a plain member who may leave
	assert.Equal(t, nil, ws.RemoveMember(id, 1, false))
	assert.T(t, ws.Party(id) != nil)
}

func TestPartyPersistsWhileOffline(t *testing.T) {
	ws, _, _ := newTestWorld(1, 2)
	login(ws, 1, 1)
	login(ws, 2, 1)
	id, _ := ws.CreateParty(1)
	ws.AddMember(id, 2)

	r := ws.Record(2).Copy()
	r.Channel = common.NoChannel
	ws.RouteUpdate(1, presence.NewDelta(r, presence.Channel))
	assert.Equal(t, 2, ws.Party(id).Len())
	assert.Equal(t, id, ws.Record(2).Party)
}

func TestBuddyInviteAndAccept(t *testing.T) {
	ws, router, store := newTestWorld(2, 3)
	login(ws, 1, 1)
	login(ws, 2, 2)
	router.resetAll()

	assert.Equal(t, nil, ws.Invite(1, 2, "Player1"))
	assert.Equal(t, []string{"BuddyInvite(1,2,Player1)"}, router.links[2].sent)
	assert.Equal(t, 0, len(router.links[1].sent))
	assert.Equal(t, false, ws.IsMutual(1, 2))
	assert.Equal(t, []common.PlayerID{2}, store.saved[1].Listed)

	assert.Equal(t, ErrNoInvite, errors.Cause(ws.AcceptInvite(2, 3)))
	assert.Equal(t, nil, ws.AcceptInvite(2, 1))
	assert.T(t, ws.IsMutual(1, 2))
	assert.T(t, ws.Record(1).MutualBuddies.Contains(2))
	assert.T(t, ws.Record(2).MutualBuddies.Contains(1))
	assert.Equal(t, "BuddyAcceptInvite(2,1)", router.links[1].sent[0])
	assert.Equal(t, "BuddyAcceptInvite(2,1)", router.links[2].sent[1])

	// a duplicate accept changes nothing
	router.resetAll()
	assert.Equal(t, ErrNoInvite, errors.Cause(ws.AcceptInvite(2, 1)))
	assert.Equal(t, 0, len(router.links[1].sent))
}

func TestBuddyCrossInviteCompletesPair(t *testing.T) {
	ws, router, _ := newTestWorld(1, 2)
	ws.Invite(1, 2, "Player1")
	router.resetAll()
	assert.Equal(t, nil, ws.Invite(2, 1, "Player2"))
	assert.T(t, ws.IsMutual(1, 2))
	assert.Equal(t, []string{"BuddyAcceptInvite(1,2)"}, router.links[1].sent)
	assert.Equal(t, 0, len(ws.invites[2]))
}

func TestBuddyRemove(t *testing.T) {
	ws, router, _ := newTestWorld(2, 2)
	ws.Invite(1, 2, "Player1")
	ws.AcceptInvite(2, 1)
	router.resetAll()

	assert.Equal(t, nil, ws.Remove(1, 2))
	assert.Equal(t, false, ws.Record(1).MutualBuddies.Contains(2))
	assert.Equal(t, false, ws.Record(2).MutualBuddies.Contains(1))
	assert.Equal(t, []string{"BuddyRemove(1,2)"}, router.links[1].sent)
	assert.Equal(t, []string{"BuddyRemove(1,2)"}, router.links[2].sent)
	// the other side still lists the owner
	assert.T(t, ws.lists(2, 1))

	// removing again is silent
	router.resetAll()
	assert.Equal(t, nil, ws.Remove(1, 2))
	assert.Equal(t, 0, len(router.links[1].sent))
}

func TestBuddyReadd(t *testing.T) {
	ws, router, _ := newTestWorld(1, 3)
	ws.Invite(1, 2, "Player1")
	ws.AcceptInvite(2, 1)
	ws.Remove(1, 2)
	router.resetAll()

	assert.Equal(t, nil, ws.Readd(1, 2))
	assert.T(t, ws.IsMutual(1, 2))
	assert.T(t, ws.Record(2).MutualBuddies.Contains(1))
	assert.Equal(t, []string{"BuddyReadd(1,2)"}, router.links[1].sent)

	// without the other side listing the owner, readd is an invite
	router.resetAll()
	assert.Equal(t, nil, ws.Readd(1, 3))
	assert.Equal(t, false, ws.IsMutual(1, 3))
	assert.T(t, ws.invites[3].Contains(1))
}

func TestBuddySelfRejected(t *testing.T) {
	ws, _, _ := newTestWorld(1, 1)
	assert.T(t, ws.Invite(1, 1, "Player1") != nil)
	assert.Equal(t, ErrUnknownPlayer, errors.Cause(ws.Invite(1, 5, "Player1")))
}

func TestLoadedMutualBuddiesSurviveLogin(t *testing.T) {
	ws, router, _ := newTestWorld(2, 2)
	ws.Invite(1, 2, "Player1")
	ws.AcceptInvite(2, 1)
	router.resetAll()

	// a channel that lost the relation gets the world's view back
	r := ws.Record(1).Copy()
	r.Channel = 1
	r.MutualBuddies = common.PlayerIDSet{}
	ws.RouteUpdate(1, presence.NewFullUpdate(r))
	assert.Equal(t, []string{"Full(1)"}, router.links[1].sent)
	assert.T(t, ws.Record(1).MutualBuddies.Contains(2))
	assert.Equal(t, fmt.Sprint([]common.PlayerID{2}), fmt.Sprint(router.links[1].updates[0].Record.MutualBuddies.ToList()))
}
