package handover

import (
	"testing"
	"time"

	"github.com/bmizerany/assert"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/consts"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestTable() (*PendingTable, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	return NewPendingTable(clock, consts.MAX_HANDOVER_WINDOW), clock
}

func TestConsumeWithinWindow(t *testing.T) {
	table, clock := newTestTable()
	table.Add(42, "1.2.3.4", []byte("B"))

	clock.Advance(4000 * time.Millisecond)
	p, err := table.Consume(42, "1.2.3.4")
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("B"), p.Held)
	assert.Equal(t, 0, table.Len())
}

func TestConsumeIsOneShot(t *testing.T) {
	table, _ := newTestTable()
	table.Add(42, "1.2.3.4", nil)

	_, err := table.Consume(42, "1.2.3.4")
	assert.Equal(t, nil, err)
	_, err = table.Consume(42, "1.2.3.4")
	assert.Equal(t, ErrNoPending, err)
}

func TestConsumeTimeBound(t *testing.T) {
	table, clock := newTestTable()
	table.Add(42, "1.2.3.4", nil)
	clock.Advance(consts.MAX_HANDOVER_WINDOW + time.Millisecond)
	_, err := table.Consume(42, "1.2.3.4")
	assert.Equal(t, ErrExpired, err)
	assert.Equal(t, 0, table.Len())

	table.Add(42, "1.2.3.4", nil)
	clock.Advance(consts.MAX_HANDOVER_WINDOW - time.Millisecond)
	_, err = table.Consume(42, "1.2.3.4")
	assert.Equal(t, nil, err)
}

func TestConsumeIPBinding(t *testing.T) {
	table, clock := newTestTable()
	table.Add(42, "1.2.3.4", []byte("B"))

	clock.Advance(time.Second)
	_, err := table.Consume(42, "9.9.9.9")
	assert.Equal(t, ErrIPMismatch, err)
	assert.T(t, table.Get(42) != nil)

	clock.Advance(consts.MAX_HANDOVER_WINDOW)
	_, err = table.Consume(42, "9.9.9.9")
	assert.T(t, err != nil)
	_, err = table.Consume(42, "1.2.3.4")
	assert.T(t, err != nil)
}

func TestAddOverwrites(t *testing.T) {
	table, clock := newTestTable()
	table.Add(42, "1.2.3.4", []byte("old"))
	clock.Advance(3 * time.Second)
	table.Add(42, "5.6.7.8", []byte("new"))
	assert.Equal(t, 1, table.Len())

	clock.Advance(3 * time.Second)
	_, err := table.Consume(42, "1.2.3.4")
	assert.Equal(t, ErrIPMismatch, err)
	p, err := table.Consume(42, "5.6.7.8")
	assert.Equal(t, nil, err)
	assert.Equal(t, []byte("new"), p.Held)
}

func TestSweep(t *testing.T) {
	table, clock := newTestTable()
	table.Add(1, "a", nil)
	clock.Advance(time.Second)
	table.Add(2, "b", nil)
	table.Add(3, "c", nil)
	clock.Advance(time.Second)
	table.Add(4, "d", nil)

	clock.Advance(consts.MAX_HANDOVER_WINDOW - 2*time.Second)
	assert.Equal(t, []common.PlayerID{1}, table.Sweep())

	clock.Advance(time.Second)
	assert.Equal(t, []common.PlayerID{2, 3}, table.Sweep())
	assert.Equal(t, 1, table.Len())
	assert.T(t, table.Get(4) != nil)
	assert.Equal(t, 0, len(table.Sweep()))
}
