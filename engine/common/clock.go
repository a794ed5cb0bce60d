package common

import "time"

// Clock supplies the current time to services
type Clock interface {
	Now() time.Time
}

// SystemClock is the Clock of the running process
type SystemClock struct{}

// Now returns the wall-clock time
func (SystemClock) Now() time.Time {
	return time.Now()
}
