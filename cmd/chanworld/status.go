package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/xiaonanln/chanworld/cmd/chanworld/process"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/config"
)

type componentKind int

const (
	kindWorld componentKind = iota
	kindLogin
	kindChannel
)

// ClusterStatus represents the running processes of a chanworld cluster
type ClusterStatus struct {
	WorldProcs   []process.Process
	LoginProcs   []process.Process
	ChannelProcs map[common.ChannelID]process.Process
}

// IsRunning returns if any process of the cluster is running
func (cs *ClusterStatus) IsRunning() bool {
	return len(cs.WorldProcs) > 0 || len(cs.LoginProcs) > 0 || len(cs.ChannelProcs) > 0
}

// ChannelIDs returns the ids of running channels in ascending order
func (cs *ClusterStatus) ChannelIDs() []common.ChannelID {
	ids := make([]common.ChannelID, 0, len(cs.ChannelProcs))
	for id := range cs.ChannelProcs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	return ids
}

// classifyProcess tells which component a process under the root directory is
func classifyProcess(rootDir string, path string, cmdline []string) (kind componentKind, channel common.ChannelID, ok bool) {
	relpath, err := filepath.Rel(rootDir, path)
	if err != nil || strings.HasPrefix(relpath, "..") {
		return
	}

	switch filepath.Base(relpath) {
	case "world" + BinaryExtension:
		return kindWorld, common.NoChannel, true
	case "login" + BinaryExtension:
		return kindLogin, common.NoChannel, true
	case "channel" + BinaryExtension:
		channel = channelArg(cmdline)
		return kindChannel, channel, channel.IsOnline()
	}
	return
}

// channelArg finds the -cid argument of a channel command line
func channelArg(cmdline []string) common.ChannelID {
	for i, arg := range cmdline {
		arg = strings.TrimLeft(arg, "-")
		var val string
		if arg == "cid" && i+1 < len(cmdline) {
			val = cmdline[i+1]
		} else if strings.HasPrefix(arg, "cid=") {
			val = arg[len("cid="):]
		} else {
			continue
		}
		id, err := strconv.ParseUint(val, 10, 16)
		if err != nil {
			return common.NoChannel
		}
		return common.ChannelID(id)
	}
	return common.NoChannel
}

func processPath(proc process.Process) (string, []string, bool) {
	cmdline, err := proc.CmdlineSlice()
	if err != nil || len(cmdline) == 0 {
		return "", nil, false
	}
	path, err := proc.Path()
	if err == nil && isexists(path) {
		return path, cmdline, true
	}

	path = cmdline[0]
	if !filepath.IsAbs(path) {
		cwd, err := proc.Cwd()
		if err != nil {
			return "", nil, false
		}
		path = filepath.Join(cwd, path)
	}
	return path, cmdline, true
}

func detectClusterStatus(rootDir string) *ClusterStatus {
	cs := &ClusterStatus{ChannelProcs: map[common.ChannelID]process.Process{}}
	procs, err := process.Processes()
	checkErrorOrQuit(err, "list processes failed")

	self := int32(os.Getpid())
	for _, proc := range procs {
		if proc.Pid() == self {
			continue
		}
		path, cmdline, ok := processPath(proc)
		if !ok {
			continue
		}
		kind, channel, ok := classifyProcess(rootDir, path, cmdline)
		if !ok {
			continue
		}

		switch kind {
		case kindWorld:
			cs.WorldProcs = append(cs.WorldProcs, proc)
		case kindLogin:
			cs.LoginProcs = append(cs.LoginProcs, proc)
		case kindChannel:
			if old := cs.ChannelProcs[channel]; old != nil {
				showMsg("channel %d is running twice: pid %d and %d", channel, old.Pid(), proc.Pid())
			}
			cs.ChannelProcs[channel] = proc
		}
	}
	return cs
}

func status(rootDir string) {
	showClusterStatus(detectClusterStatus(rootDir))
}

func showClusterStatus(cs *ClusterStatus) {
	configured := config.GetChannelIDs()
	showMsg("%d world running, %d login running, %d/%d channels running %v", len(cs.WorldProcs), len(cs.LoginProcs),
		len(cs.ChannelProcs), len(configured), cs.ChannelIDs())

	for _, id := range configured {
		if cs.ChannelProcs[id] == nil {
			showMsg("channel %d is not running", id)
		}
	}

	var listProcs []process.Process
	listProcs = append(listProcs, cs.WorldProcs...)
	listProcs = append(listProcs, cs.LoginProcs...)
	for _, id := range cs.ChannelIDs() {
		listProcs = append(listProcs, cs.ChannelProcs[id])
	}
	for _, proc := range listProcs {
		cmdlineSlice, err := proc.CmdlineSlice()
		var cmdline string
		if err == nil {
			cmdline = strings.Join(cmdlineSlice, " ")
		} else {
			cmdline = fmt.Sprintf("get cmdline failed: %v", err)
		}

		showMsg("\t%-10d%-16s%s", proc.Pid(), proc.Executable(), cmdline)
	}
}

func isexists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
