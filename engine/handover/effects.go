package handover

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/vmihailenco/msgpack"
)

// EffectKind is the kind of a timed effect
type EffectKind uint8

const (
	// EffectBuff is a timed buff
	EffectBuff EffectKind = 1 + iota
	// EffectSummon is a summoned creature
	EffectSummon
)

func (k EffectKind) String() string {
	switch k {
	case EffectBuff:
		return "buff"
	case EffectSummon:
		return "summon"
	default:
		return "unknown"
	}
}

// Effect is one timed effect of a player
type Effect struct {
	Kind      EffectKind
	ID        int32
	Level     uint8
	ExpiresAt time.Time
}

// Remaining returns the remaining duration at now
func (e *Effect) Remaining(now time.Time) time.Duration {
	d := e.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type effectKey struct {
	kind EffectKind
	id   int32
}

// EffectTable holds the buffs and summons of one player with their expiry times
type EffectTable struct {
	effects map[effectKey]*Effect
}

// NewEffectTable creates an empty effect table
func NewEffectTable() *EffectTable {
	return &EffectTable{effects: map[effectKey]*Effect{}}
}

// Add starts or refreshes an effect lasting d from now
func (et *EffectTable) Add(kind EffectKind, id int32, level uint8, d time.Duration, now time.Time) *Effect {
	e := &Effect{Kind: kind, ID: id, Level: level, ExpiresAt: now.Add(d)}
	et.effects[effectKey{kind, id}] = e
	return e
}

// Get returns the effect, or nil
func (et *EffectTable) Get(kind EffectKind, id int32) *Effect {
	return et.effects[effectKey{kind, id}]
}

// Remove cancels an effect
func (et *EffectTable) Remove(kind EffectKind, id int32) bool {
	k := effectKey{kind, id}
	if _, ok := et.effects[k]; !ok {
		return false
	}
	delete(et.effects, k)
	return true
}

// Expire removes and returns the effects that have run out at now
func (et *EffectTable) Expire(now time.Time) []*Effect {
	var expired []*Effect
	for k, e := range et.effects {
		if !now.Before(e.ExpiresAt) {
			expired = append(expired, e)
			delete(et.effects, k)
		}
	}
	sortEffects(expired)
	return expired
}

// Len returns the number of active effects
func (et *EffectTable) Len() int {
	return len(et.effects)
}

// List returns the active effects ordered by kind and id
func (et *EffectTable) List() []*Effect {
	list := make([]*Effect, 0, len(et.effects))
	for _, e := range et.effects {
		list = append(list, e)
	}
	sortEffects(list)
	return list
}

func sortEffects(list []*Effect) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Kind != list[j].Kind {
			return list[i].Kind < list[j].Kind
		}
		return list[i].ID < list[j].ID
	})
}

// heldEffect is the serialized form of an effect; processes do not share a clock, so only the remaining time travels
type heldEffect struct {
	Kind        EffectKind `msgpack:"k"`
	ID          int32      `msgpack:"i"`
	Level       uint8      `msgpack:"l"`
	RemainingMs int64      `msgpack:"r"`
}

// Encode serializes the unexpired effects with their remaining durations at now
func (et *EffectTable) Encode(now time.Time) ([]byte, error) {
	var held []heldEffect
	for _, e := range et.List() {
		remaining := e.Remaining(now)
		if remaining <= 0 {
			continue
		}
		held = append(held, heldEffect{
			Kind:        e.Kind,
			ID:          e.ID,
			Level:       e.Level,
			RemainingMs: int64(remaining / time.Millisecond),
		})
	}
	if len(held) == 0 {
		return nil, nil
	}
	data, err := msgpack.Marshal(held)
	return data, errors.Wrap(err, "encode effects")
}

// DecodeEffects rebuilds an effect table from Encode output, restarting the remaining durations at now
func DecodeEffects(data []byte, now time.Time) (*EffectTable, error) {
	et := NewEffectTable()
	if len(data) == 0 {
		return et, nil
	}
	var held []heldEffect
	if err := msgpack.Unmarshal(data, &held); err != nil {
		return nil, errors.Wrap(err, "decode effects")
	}
	for _, h := range held {
		et.Add(h.Kind, h.ID, h.Level, time.Duration(h.RemainingMs)*time.Millisecond, now)
	}
	return et, nil
}
