package opmon

import (
	"strings"
	"testing"
	"time"

	"github.com/bmizerany/assert"
)

func TestOperation(t *testing.T) {
	Stats() // reset
	for i := 0; i < 3; i++ {
		op := StartOperation("test.op")
		op.Finish(time.Hour)
	}
	StartOperation("test.another").Finish(time.Hour)

	stats := Stats()
	assert.Equal(t, 2, len(stats))
	assert.Equal(t, "test.another", stats[0].Name)
	assert.Equal(t, uint64(3), stats[1].Count)
	assert.T(t, stats[1].MaxDuration >= stats[1].AvgDuration(), "max should not be less than avg")
	assert.Equal(t, 0, len(Stats()))
}

func TestDump(t *testing.T) {
	StartOperation("test.dump").Finish(time.Hour)
	assert.T(t, strings.Contains(Dump(), "test.dump"), "dump should contain the op")
}
