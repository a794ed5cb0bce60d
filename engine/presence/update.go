package presence

import (
	"strings"

	"github.com/xiaonanln/chanworld/engine/common"
)

// UpdateBits names the fields carried by an Update
type UpdateBits uint16

const (
	// Full carries every field of the record
	Full UpdateBits = 1 << iota
	// Job carries the job id
	Job
	// Level carries the level
	Level
	// Map carries the current map
	Map
	// Transfer carries the transferring flag
	Transfer
	// Channel carries the current channel
	Channel
	// IP carries the last known ip
	IP
	// Cash carries the cash shop flag
	Cash
	// Mts carries the mts flag
	Mts

	allBits = Full | Job | Level | Map | Transfer | Channel | IP | Cash | Mts
)

var bitNames = []struct {
	bit  UpdateBits
	name string
}{
	{Full, "Full"},
	{Job, "Job"},
	{Level, "Level"},
	{Map, "Map"},
	{Transfer, "Transfer"},
	{Channel, "Channel"},
	{IP, "IP"},
	{Cash, "Cash"},
	{Mts, "Mts"},
}

// Has returns if all bits in b are set
func (bits UpdateBits) Has(b UpdateBits) bool {
	return bits&b == b
}

// Valid returns if bits only contains known fields
func (bits UpdateBits) Valid() bool {
	return bits != 0 && bits&^allBits == 0
}

func (bits UpdateBits) String() string {
	var names []string
	for _, bn := range bitNames {
		if bits.Has(bn.bit) {
			names = append(names, bn.name)
		}
	}
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, "|")
}

// Update is a full snapshot or a delta of one player record
type Update struct {
	Bits UpdateBits
	// Record holds the values of the flagged fields, the rest are ignored
	Record PlayerRecord
}

// ID returns the id of the updated player
func (u *Update) ID() common.PlayerID {
	return u.Record.ID
}

// NewFullUpdate builds a Full update from a record
func NewFullUpdate(r *PlayerRecord) *Update {
	return &Update{Bits: Full, Record: *r.Copy()}
}

// NewDelta builds a delta carrying the given fields of r
func NewDelta(r *PlayerRecord, bits UpdateBits) *Update {
	if bits.Has(Full) {
		return NewFullUpdate(r)
	}
	u := &Update{Bits: bits}
	u.Record.ID = r.ID
	u.Record.copyFields(r, bits)
	return u
}

func (r *PlayerRecord) copyFields(src *PlayerRecord, bits UpdateBits) {
	if bits.Has(Job) {
		r.Job = src.Job
	}
	if bits.Has(Level) {
		r.Level = src.Level
	}
	if bits.Has(Map) {
		r.Map = src.Map
	}
	if bits.Has(Transfer) {
		r.Transferring = src.Transferring
	}
	if bits.Has(Channel) {
		r.Channel = src.Channel
	}
	if bits.Has(IP) {
		r.IP = src.IP
	}
	if bits.Has(Cash) {
		r.CashShop = src.CashShop
	}
	if bits.Has(Mts) {
		r.Mts = src.Mts
	}
}

// ApplyResult describes what an applied update changed
type ApplyResult struct {
	// Changed is set when an observable presence field differs
	Changed bool
	// TransferEnded is set when Transferring went from true to false
	TransferEnded bool
	// Refresh is set when dependent party views must be refreshed
	Refresh bool
	// RefreshBuddies is set when mutual buddies must get a presence notice
	RefreshBuddies bool
	// GMChanged is set when the player joined or left the GM set
	GMChanged bool
	// NameChanged is set when a Full update renamed the player
	NameChanged bool
	// OldName is the name before the update
	OldName string
}

// Apply merges the update into the record, touching only the flagged fields
func (r *PlayerRecord) Apply(u *Update) ApplyResult {
	before := *r
	wasGM := r.IsGM()

	if u.Bits.Has(Full) {
		buddies := u.Record.MutualBuddies
		*r = u.Record
		if buddies != nil {
			r.MutualBuddies = buddies.Copy()
		} else {
			r.MutualBuddies = common.PlayerIDSet{}
		}
		r.Initialized = true
	} else {
		r.copyFields(&u.Record, u.Bits)
	}

	res := ApplyResult{
		Changed:       !before.presenceEqual(r),
		TransferEnded: before.Transferring && !r.Transferring,
		GMChanged:     wasGM != r.IsGM(),
		NameChanged:   before.Name != r.Name,
		OldName:       before.Name,
	}
	res.Refresh = (res.Changed || res.TransferEnded) && !r.Transferring
	buddyChanged := !before.buddyPresenceEqual(r) || (u.Bits.Has(Full) && res.Changed)
	res.RefreshBuddies = (buddyChanged || res.TransferEnded) && !r.Transferring
	return res
}
