package channelsync

import (
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/handover"
	"github.com/xiaonanln/chanworld/engine/proto"
)

func effectView(e *handover.Effect, now time.Time) proto.EffectView {
	return proto.EffectView{
		Kind:        uint8(e.Kind),
		ID:          e.ID,
		Level:       e.Level,
		RemainingMs: int64(e.Remaining(now) / time.Millisecond),
	}
}

// AddEffect starts a buff or summon of a local player lasting d
func (cs *ChannelSync) AddEffect(id common.PlayerID, kind handover.EffectKind, effectID int32, level uint8, d time.Duration) error {
	s := cs.sessions[id]
	et := cs.effects[id]
	if s == nil || et == nil {
		return errors.Wrapf(ErrNotConnected, "player %d", id)
	}
	now := cs.clock.Now()
	e := et.Add(kind, effectID, level, d, now)
	return s.SendAddEffect(effectView(e, now))
}

// Effects returns the effect table of a local player, or nil
func (cs *ChannelSync) Effects(id common.PlayerID) *handover.EffectTable {
	return cs.effects[id]
}

// ExpireEffects removes the effects that ran out and tells their owners
func (cs *ChannelSync) ExpireEffects() {
	now := cs.clock.Now()
	ids := make([]common.PlayerID, 0, len(cs.effects))
	for id := range cs.effects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})

	for _, id := range ids {
		expired := cs.effects[id].Expire(now)
		if len(expired) == 0 {
			continue
		}
		s := cs.sessions[id]
		for _, e := range expired {
			if s != nil {
				s.SendEffectExpired(uint8(e.Kind), e.ID)
			}
		}
	}
}
