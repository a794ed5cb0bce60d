// Package gwvar publishes the state of a chanworld process on /debug/vars of its http server
package gwvar

import "expvar"

// Bool is a boolean expvar
type Bool struct {
	val *expvar.Int
}

// NewBool creates and publishes a boolean var
func NewBool(name string) *Bool {
	return &Bool{
		val: expvar.NewInt(name),
	}
}

// Value returns the value of the var
func (b *Bool) Value() bool {
	return b.val.Value() > 0
}

// Set sets the value of the var
func (b *Bool) Set(v bool) {
	if v {
		b.val.Set(1)
	} else {
		b.val.Set(0)
	}
}

var (
	// IsWorldConnected is set on channels and login while the world link is up
	IsWorldConnected = NewBool("IsWorldConnected")
	// Population is the number of players connected to a channel
	Population = expvar.NewInt("Population")
	// PendingHandovers is the number of connectables a channel is holding
	PendingHandovers = expvar.NewInt("PendingHandovers")
	// ConnectedChannels is the number of channels connected to the world
	ConnectedChannels = expvar.NewInt("ConnectedChannels")
)
