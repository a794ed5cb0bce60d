package main

import (
	"syscall"
	"time"

	"github.com/xiaonanln/chanworld/cmd/chanworld/process"
)

const stopTimeout = time.Minute

// stop stops the channels first so that they save their players while the world is still up
func stop(rootDir string, signal syscall.Signal) {
	cs := detectClusterStatus(rootDir)
	showClusterStatus(cs)
	if !cs.IsRunning() {
		showMsgAndQuit("no chanworld process is running currently")
	}

	if len(cs.LoginProcs) > 0 {
		showMsg("stop login ...")
		stopProcs(cs.LoginProcs, signal)
	}
	if len(cs.ChannelProcs) > 0 {
		showMsg("stop %d channels ...", len(cs.ChannelProcs))
		var procs []process.Process
		for _, id := range cs.ChannelIDs() {
			procs = append(procs, cs.ChannelProcs[id])
		}
		stopProcs(procs, signal)
	}
	if len(cs.WorldProcs) > 0 {
		showMsg("stop world ...")
		stopProcs(cs.WorldProcs, signal)
	}
}

// stopProcs signals all the processes and waits until they are gone
func stopProcs(procs []process.Process, signal syscall.Signal) {
	for _, proc := range procs {
		showMsg("stop process %s pid=%d", proc.Executable(), proc.Pid())
		err := proc.Signal(signal)
		checkErrorOrQuit(err, "stop process failed")
	}

	deadline := time.Now().Add(stopTimeout)
	for _, proc := range procs {
		for proc.IsRunning() {
			if time.Now().After(deadline) {
				showMsgAndQuit("process %d is still running after %s", proc.Pid(), stopTimeout)
			}
			time.Sleep(time.Millisecond * 100)
		}
	}
}
