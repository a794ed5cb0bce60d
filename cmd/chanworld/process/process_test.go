package process

import (
	"os"
	"testing"

	"github.com/bmizerany/assert"
)

func TestProcessesContainsSelf(t *testing.T) {
	ps, err := Processes()
	assert.Equal(t, nil, err)

	found := false
	for _, p := range ps {
		if p.Pid() == int32(os.Getpid()) {
			found = true
			assert.T(t, p.IsRunning())
		}
	}
	assert.T(t, found)
}
