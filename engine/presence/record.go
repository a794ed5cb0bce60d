package presence

import (
	"fmt"

	"github.com/xiaonanln/chanworld/engine/common"
)

// PlayerRecord is the minimal player state replicated to the world and every channel
type PlayerRecord struct {
	ID            common.PlayerID
	Name          string
	Channel       common.ChannelID
	Map           common.MapID
	CashShop      bool
	Mts           bool
	Transferring  bool
	Level         uint8
	Job           int16
	GMLevel       int32
	Admin         bool
	Party         common.PartyID
	MutualBuddies common.PlayerIDSet
	IP            string
	Initialized   bool
}

// NewPlaceholder creates a record that is referenced before its full data is known
func NewPlaceholder(id common.PlayerID) *PlayerRecord {
	return &PlayerRecord{
		ID:            id,
		MutualBuddies: common.PlayerIDSet{},
	}
}

// IsGM returns if the player belongs to the GM set
func (r *PlayerRecord) IsGM() bool {
	return r.GMLevel > 0 || r.Admin
}

// IsOnline returns if the player is on some channel
func (r *PlayerRecord) IsOnline() bool {
	return r.Channel.IsOnline()
}

// Copy returns a deep copy of the record
func (r *PlayerRecord) Copy() *PlayerRecord {
	c := *r
	if r.MutualBuddies != nil {
		c.MutualBuddies = r.MutualBuddies.Copy()
	} else {
		c.MutualBuddies = common.PlayerIDSet{}
	}
	return &c
}

// presenceEqual compares the fields that other players can observe
func (r *PlayerRecord) presenceEqual(o *PlayerRecord) bool {
	return r.Job == o.Job &&
		r.Level == o.Level &&
		r.Map == o.Map &&
		r.Channel == o.Channel &&
		r.CashShop == o.CashShop &&
		r.Mts == o.Mts
}

// buddyPresenceEqual compares the fields shown on buddy lists
func (r *PlayerRecord) buddyPresenceEqual(o *PlayerRecord) bool {
	return r.Channel == o.Channel &&
		r.CashShop == o.CashShop &&
		r.Mts == o.Mts
}

// SocialEqual returns if both records agree on party and mutual buddies
func (r *PlayerRecord) SocialEqual(o *PlayerRecord) bool {
	return r.Party == o.Party && r.MutualBuddies.Equal(o.MutualBuddies)
}

func (r *PlayerRecord) String() string {
	return fmt.Sprintf("Player<%d|%s|%s>", r.ID, r.Name, r.Channel)
}
