package handover

import (
	"math"
	"time"

	"github.com/petar/GoLLRB/llrb"
	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
)

var (
	// ErrNoPending is returned when no handover is expected for the player
	ErrNoPending = errors.New("no pending handover")
	// ErrIPMismatch is returned when the connecting ip is not the ip the handover was issued for
	ErrIPMismatch = errors.New("source ip mismatch")
	// ErrExpired is returned when the handover window has passed
	ErrExpired = errors.New("handover window expired")
)

// Pending authorizes one player to take over a session on this channel for a bounded time
type Pending struct {
	ID        common.PlayerID
	SourceIP  string
	CreatedAt time.Time
	Held      []byte
	// Switching is set when the player comes from another channel, not from login
	Switching bool
}

type expiryItem struct {
	createdAt int64
	id        common.PlayerID
}

func (it *expiryItem) Less(_other llrb.Item) bool {
	other := _other.(*expiryItem)
	if it.createdAt != other.createdAt {
		return it.createdAt < other.createdAt
	}
	return it.id < other.id
}

// PendingTable holds the pending handovers of a channel, at most one per player
type PendingTable struct {
	clock   common.Clock
	window  time.Duration
	entries map[common.PlayerID]*Pending
	expiry  *llrb.LLRB
}

// NewPendingTable creates a table whose entries are valid for window
func NewPendingTable(clock common.Clock, window time.Duration) *PendingTable {
	return &PendingTable{
		clock:   clock,
		window:  window,
		entries: map[common.PlayerID]*Pending{},
		expiry:  llrb.New(),
	}
}

// Add records a pending handover, replacing any previous one for the player
func (t *PendingTable) Add(id common.PlayerID, sourceIP string, held []byte) *Pending {
	t.Remove(id)
	p := &Pending{
		ID:        id,
		SourceIP:  sourceIP,
		CreatedAt: t.clock.Now(),
		Held:      held,
	}
	t.entries[id] = p
	t.expiry.ReplaceOrInsert(&expiryItem{p.CreatedAt.UnixNano(), id})
	return p
}

// Get returns the pending handover of the player without consuming it
func (t *PendingTable) Get(id common.PlayerID) *Pending {
	return t.entries[id]
}

// Remove drops the pending handover of the player, returns false if there was none
func (t *PendingTable) Remove(id common.PlayerID) bool {
	p := t.entries[id]
	if p == nil {
		return false
	}
	delete(t.entries, id)
	t.expiry.Delete(&expiryItem{p.CreatedAt.UnixNano(), id})
	return true
}

func (t *PendingTable) expired(p *Pending, now time.Time) bool {
	return now.Sub(p.CreatedAt) >= t.window
}

// Consume validates a connection from ip for the player and removes the entry on success.
// A mismatched ip leaves the entry in place; an expired entry is removed.
func (t *PendingTable) Consume(id common.PlayerID, ip string) (*Pending, error) {
	p := t.entries[id]
	if p == nil {
		return nil, ErrNoPending
	}
	if t.expired(p, t.clock.Now()) {
		t.Remove(id)
		return nil, ErrExpired
	}
	if p.SourceIP != ip {
		return nil, ErrIPMismatch
	}
	t.Remove(id)
	return p, nil
}

// Sweep removes all expired entries and returns their ids
func (t *PendingTable) Sweep() []common.PlayerID {
	cutoff := t.clock.Now().Add(-t.window).UnixNano()
	var ids []common.PlayerID
	t.expiry.AscendLessThan(&expiryItem{cutoff + 1, math.MinInt32}, func(_item llrb.Item) bool {
		ids = append(ids, _item.(*expiryItem).id)
		return true
	})
	for _, id := range ids {
		t.Remove(id)
	}
	return ids
}

// Len returns the number of pending handovers
func (t *PendingTable) Len() int {
	return len(t.entries)
}
