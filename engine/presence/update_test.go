package presence

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
)

func sampleRecord() *PlayerRecord {
	return &PlayerRecord{
		ID:            42,
		Name:          "Alice",
		Channel:       1,
		Map:           100000000,
		Level:         30,
		Job:           200,
		Party:         7,
		MutualBuddies: common.NewPlayerIDSet(43, 44),
		IP:            "1.2.3.4",
	}
}

func TestUpdateBitsString(t *testing.T) {
	assert.Equal(t, "Transfer|Channel|IP", (Channel | Transfer | IP).String())
	assert.Equal(t, "None", UpdateBits(0).String())
	assert.T(t, (Map | Level).Valid())
	assert.T(t, !UpdateBits(1<<12).Valid())
}

func TestDeltaCarriesOnlyFlaggedFields(t *testing.T) {
	src := sampleRecord()
	u := NewDelta(src, Map|Level)
	assert.Equal(t, src.Map, u.Record.Map)
	assert.Equal(t, src.Level, u.Record.Level)
	assert.Equal(t, int16(0), u.Record.Job)
	assert.Equal(t, common.NoChannel, u.Record.Channel)

	dst := sampleRecord()
	dst.Map = 1
	dst.Level = 1
	dst.Job = 999
	dst.Apply(u)
	assert.Equal(t, src.Map, dst.Map)
	assert.Equal(t, src.Level, dst.Level)
	assert.Equal(t, int16(999), dst.Job)
}

// deltas in delivery order yield the same record however the fields are grouped
func TestOrderedDeltasComposition(t *testing.T) {
	steps := []struct {
		mutate func(r *PlayerRecord)
		bits   UpdateBits
	}{
		{func(r *PlayerRecord) { r.Map = 2 }, Map},
		{func(r *PlayerRecord) { r.Level = 31; r.Job = 210 }, Level | Job},
		{func(r *PlayerRecord) { r.Map = 3; r.CashShop = true }, Map | Cash},
		{func(r *PlayerRecord) { r.CashShop = false; r.Mts = true }, Cash | Mts},
		{func(r *PlayerRecord) { r.Channel = 2; r.IP = "5.6.7.8" }, Channel | IP},
	}

	source := sampleRecord()
	perStep := sampleRecord()
	for _, s := range steps {
		s.mutate(source)
		perStep.Apply(NewDelta(source, s.bits))
	}

	var union UpdateBits
	for _, s := range steps {
		union |= s.bits
	}
	merged := sampleRecord()
	merged.Apply(NewDelta(source, union))

	assert.Equal(t, source, perStep)
	assert.Equal(t, source, merged)
}

func TestFullTwiceIsIdempotent(t *testing.T) {
	r := NewPlaceholder(42)
	full := NewFullUpdate(sampleRecord())

	res := r.Apply(full)
	assert.T(t, res.Refresh)
	assert.T(t, r.Initialized)
	once := r.Copy()

	res = r.Apply(full)
	assert.Equal(t, false, res.Changed)
	assert.Equal(t, false, res.Refresh)
	assert.Equal(t, once, r)
}

func TestFullDoesNotAliasBuddies(t *testing.T) {
	src := sampleRecord()
	r := NewPlaceholder(42)
	r.Apply(NewFullUpdate(src))
	src.MutualBuddies.Add(99)
	assert.Equal(t, false, r.MutualBuddies.Contains(99))
}

func TestTransferSuppressesRefresh(t *testing.T) {
	r := sampleRecord()
	src := sampleRecord()

	src.Transferring = true
	res := r.Apply(NewDelta(src, Transfer))
	assert.Equal(t, false, res.Refresh)

	src.Map = 5
	res = r.Apply(NewDelta(src, Map))
	assert.T(t, res.Changed)
	assert.Equal(t, false, res.Refresh)

	src.Channel = 0
	res = r.Apply(NewDelta(src, Channel))
	assert.Equal(t, false, res.Refresh)

	src.Channel = 2
	src.Transferring = false
	src.Map = 6
	src.IP = "1.2.3.4"
	res = r.Apply(NewDelta(src, Channel|Transfer|IP|Map))
	assert.T(t, res.TransferEnded)
	assert.T(t, res.Refresh)

	res = r.Apply(NewDelta(src, Channel|Transfer|IP|Map))
	assert.Equal(t, false, res.Refresh)
}

func TestTransferEndedWithoutChangeRefreshes(t *testing.T) {
	r := sampleRecord()
	r.Transferring = true
	src := sampleRecord()
	res := r.Apply(NewDelta(src, Transfer))
	assert.Equal(t, false, res.Changed)
	assert.T(t, res.TransferEnded)
	assert.T(t, res.Refresh)
}

func TestGMChanged(t *testing.T) {
	r := sampleRecord()
	gm := sampleRecord()
	gm.GMLevel = 3
	res := r.Apply(NewFullUpdate(gm))
	assert.T(t, res.GMChanged)
	assert.T(t, r.IsGM())
}

func TestBuddyRefreshOnlyForShownFields(t *testing.T) {
	r := sampleRecord()
	src := sampleRecord()

	src.Map = 5
	src.Level = 31
	res := r.Apply(NewDelta(src, Map|Level))
	assert.T(t, res.Refresh)
	assert.Equal(t, false, res.RefreshBuddies)

	src.CashShop = true
	res = r.Apply(NewDelta(src, Cash))
	assert.T(t, res.Refresh)
	assert.T(t, res.RefreshBuddies)

	src.Channel = 2
	res = r.Apply(NewFullUpdate(src))
	assert.T(t, res.RefreshBuddies)
}
