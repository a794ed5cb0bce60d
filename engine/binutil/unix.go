// +build !windows

package binutil

import (
	"os"

	"github.com/sevlyar/go-daemon"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

// Daemonize re-runs the process in background; the parent exits and the child gets the context to release on exit
func Daemonize(pidFile string) *daemon.Context {
	context := &daemon.Context{
		PidFileName: pidFile,
		PidFilePerm: 0644,
	}
	child, err := context.Reborn()
	if err != nil {
		gwlog.Panicf("daemonize failed: %v", err)
	}

	if child != nil {
		gwlog.Infof("run in daemon mode")
		os.Exit(0)
	}
	return context
}
