// +build windows

package main

import (
	"syscall"

	_ "github.com/go-ole/go-ole" // gopsutil queries processes through WMI on windows
)

const (
	// BinaryExtension extension used on windows
	BinaryExtension = ".exe"
	// StopSignal is the only signal windows processes can receive
	StopSignal = syscall.SIGKILL
	// KillSignal stops a process at once
	KillSignal = syscall.SIGKILL
)
