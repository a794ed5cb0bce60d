// +build !windows

package main

import (
	"syscall"
)

const (
	// BinaryExtension extension used on unix
	BinaryExtension = ""
	// StopSignal lets a process save and exit gracefully
	StopSignal = syscall.SIGTERM
	// KillSignal stops a process at once
	KillSignal = syscall.SIGKILL
)
