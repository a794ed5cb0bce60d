package gwutils

import (
	"reflect"
	"runtime"

	"github.com/xiaonanln/chanworld/engine/gwlog"
)

// RunPanicless calls a function panic-freely
func RunPanicless(f func()) (panicked bool) {
	defer func() {
		err := recover()
		if err != nil {
			gwlog.TraceError("%s panic: %v", FuncName(f), err)
			panicked = true
		}
	}()

	f()
	return
}

// RepeatUntilPanicless runs the function repeatly until there is no panic
func RepeatUntilPanicless(f func()) {
	for RunPanicless(f) {
	}
}

// FuncName returns the name of a function value for logging
func FuncName(f interface{}) string {
	pc := reflect.ValueOf(f).Pointer()
	fn := runtime.FuncForPC(pc)
	if fn == nil {
		return "<unknown>"
	}
	return fn.Name()
}
