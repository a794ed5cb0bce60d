package party

import (
	"fmt"
	"sort"

	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
)

// Member is one party member as seen by a process
type Member struct {
	Name string
	// Connected is set while the member has a session on this process
	Connected bool
}

// Party is a group of players with a leader
type Party struct {
	ID      common.PartyID
	Leader  common.PlayerID
	members map[common.PlayerID]*Member
}

// New creates a party containing only the leader
func New(id common.PartyID, leader common.PlayerID, leaderName string) *Party {
	p := &Party{
		ID:      id,
		Leader:  leader,
		members: map[common.PlayerID]*Member{},
	}
	p.members[leader] = &Member{Name: leaderName}
	return p
}

func (p *Party) String() string {
	return fmt.Sprintf("Party<%d|leader=%d|%d members>", p.ID, p.Leader, len(p.members))
}

// AddMember adds a member, returns false if already a member
func (p *Party) AddMember(id common.PlayerID, name string) bool {
	if _, ok := p.members[id]; ok {
		return false
	}
	p.members[id] = &Member{Name: name}
	return true
}

// RemoveMember removes a member, returns false if not a member
func (p *Party) RemoveMember(id common.PlayerID) bool {
	if _, ok := p.members[id]; !ok {
		return false
	}
	delete(p.members, id)
	return true
}

// HasMember returns if the player is a member
func (p *Party) HasMember(id common.PlayerID) bool {
	_, ok := p.members[id]
	return ok
}

// Member returns the member info of the player, or nil
func (p *Party) Member(id common.PlayerID) *Member {
	return p.members[id]
}

// SetName updates the display name of a member
func (p *Party) SetName(id common.PlayerID, name string) {
	if m := p.members[id]; m != nil {
		m.Name = name
	}
}

// SetConnected updates the local connection flag of a member
func (p *Party) SetConnected(id common.PlayerID, connected bool) {
	if m := p.members[id]; m != nil {
		m.Connected = connected
	}
}

// Len returns the member count
func (p *Party) Len() int {
	return len(p.members)
}

// IsFull returns if no more members can join
func (p *Party) IsFull() bool {
	return len(p.members) >= consts.MAX_PARTY_MEMBERS
}

// MemberIDs returns the member ids in ascending order
func (p *Party) MemberIDs() []common.PlayerID {
	ids := make([]common.PlayerID, 0, len(p.members))
	for id := range p.members {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// ConnectedMemberIDs returns ids of members connected to this process
func (p *Party) ConnectedMemberIDs() []common.PlayerID {
	var ids []common.PlayerID
	for _, id := range p.MemberIDs() {
		if p.members[id].Connected {
			ids = append(ids, id)
		}
	}
	return ids
}

// MemberInfo is a member entry of a Snapshot
type MemberInfo struct {
	ID   common.PlayerID `msgpack:"id"`
	Name string          `msgpack:"n"`
}

// Snapshot is the process-independent view of a party, sent over the wire
type Snapshot struct {
	ID      common.PartyID  `msgpack:"id"`
	Leader  common.PlayerID `msgpack:"l"`
	Members []MemberInfo    `msgpack:"m"`
}

// Snapshot returns the process-independent view of the party
func (p *Party) Snapshot() Snapshot {
	s := Snapshot{ID: p.ID, Leader: p.Leader}
	for _, id := range p.MemberIDs() {
		s.Members = append(s.Members, MemberInfo{ID: id, Name: p.members[id].Name})
	}
	return s
}

// FromSnapshot builds a party from a snapshot, all members start disconnected
func FromSnapshot(s Snapshot) *Party {
	p := &Party{
		ID:      s.ID,
		Leader:  s.Leader,
		members: map[common.PlayerID]*Member{},
	}
	for _, m := range s.Members {
		p.members[m.ID] = &Member{Name: m.Name}
	}
	return p
}
