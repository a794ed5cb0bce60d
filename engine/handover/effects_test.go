package handover

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestEffectExpire(t *testing.T) {
	now := time.Unix(1700000000, 0)
	et := NewEffectTable()
	et.Add(EffectBuff, 2001002, 10, 2*time.Second, now)
	et.Add(EffectSummon, 3111002, 5, 5*time.Second, now)

	assert.Equal(t, 0, len(et.Expire(now.Add(time.Second))))
	expired := et.Expire(now.Add(2 * time.Second))
	assert.Equal(t, 1, len(expired))
	assert.Equal(t, EffectBuff, expired[0].Kind)
	assert.Equal(t, 1, et.Len())
}

func TestEffectsEncodeReplaysRemaining(t *testing.T) {
	origin := time.Unix(1700000000, 0)
	et := NewEffectTable()
	et.Add(EffectBuff, 1, 3, 10*time.Second, origin)
	et.Add(EffectSummon, 2, 4, time.Second, origin)

	blob, err := et.Encode(origin.Add(4 * time.Second))
	assert.Equal(t, nil, err)

	dest := origin.Add(time.Hour)
	replayed, err := DecodeEffects(blob, dest)
	assert.Equal(t, nil, err)
	assert.Equal(t, 1, replayed.Len())
	buff := replayed.Get(EffectBuff, 1)
	assert.Equal(t, uint8(3), buff.Level)
	assert.Equal(t, 6*time.Second, buff.Remaining(dest))
}

func TestDecodeEmptyBlob(t *testing.T) {
	et, err := DecodeEffects(nil, time.Now())
	assert.Equal(t, nil, err)
	assert.Equal(t, 0, et.Len())

	_, err = DecodeEffects([]byte{0xc1}, time.Now())
	assert.T(t, err != nil)
}
