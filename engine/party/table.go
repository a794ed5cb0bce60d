package party

import (
	"sort"

	"github.com/xiaonanln/chanworld/engine/common"
)

// Table holds the parties known to a process
type Table struct {
	parties map[common.PartyID]*Party
}

// NewTable creates an empty party table
func NewTable() *Table {
	return &Table{parties: map[common.PartyID]*Party{}}
}

// Get returns the party, or nil
func (t *Table) Get(id common.PartyID) *Party {
	return t.parties[id]
}

// Put adds or replaces a party
func (t *Table) Put(p *Party) {
	t.parties[p.ID] = p
}

// Delete removes the party and returns it
func (t *Table) Delete(id common.PartyID) *Party {
	p := t.parties[id]
	delete(t.parties, id)
	return p
}

// Len returns the number of parties
func (t *Table) Len() int {
	return len(t.parties)
}

// All returns all parties ordered by id
func (t *Table) All() []*Party {
	list := make([]*Party, 0, len(t.parties))
	for _, p := range t.parties {
		list = append(list, p)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

// Snapshots returns the snapshots of all parties
func (t *Table) Snapshots() []Snapshot {
	all := t.All()
	snaps := make([]Snapshot, len(all))
	for i, p := range all {
		snaps[i] = p.Snapshot()
	}
	return snaps
}
