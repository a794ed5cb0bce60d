package gwvar

import (
	"expvar"
	"testing"

	"github.com/bmizerany/assert"
)

func TestBool(t *testing.T) {
	b := NewBool("testBool")
	assert.T(t, !b.Value())
	b.Set(true)
	assert.T(t, b.Value())
	assert.Equal(t, "1", expvar.Get("testBool").String())
	b.Set(false)
	assert.T(t, !b.Value())
}
