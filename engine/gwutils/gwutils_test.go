package gwutils

import (
	"fmt"
	"strings"
	"testing"

	"github.com/bmizerany/assert"
)

func TestRunPanicless(t *testing.T) {
	assert.T(t, RunPanicless(func() {
		panic(1)
	}), "should report panic")
	assert.T(t, RunPanicless(func() {
		panic(fmt.Errorf("bad"))
	}), "should report panic")
	assert.T(t, !RunPanicless(func() {}), "should not report panic")
}

func TestRepeatUntilPanicless(t *testing.T) {
	n := 0
	RepeatUntilPanicless(func() {
		n++
		if n < 3 {
			panic(n)
		}
	})
	assert.Equal(t, 3, n)
}

func TestFuncName(t *testing.T) {
	assert.T(t, strings.HasSuffix(FuncName(TestFuncName), "TestFuncName"), FuncName(TestFuncName))
}
