package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"

	"github.com/xiaonanln/chanworld/engine/config"
)

var args struct {
	configFile string
	rootDir    string
}

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.rootDir, "root", "", "directory of the chanworld binaries, current directory by default")
	flag.Usage = func() {
		showMsg("usage: chanworld [-configfile file] [-root dir] status|stop|kill")
		flag.PrintDefaults()
	}
	flag.Parse()
}

func main() {
	parseArgs()
	cmdArgs := flag.Args()
	showMsg("arguments: %s", strings.Join(cmdArgs, " "))

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}
	rootDir := args.rootDir
	if rootDir == "" {
		var err error
		rootDir, err = os.Getwd()
		checkErrorOrQuit(err, "get working directory failed")
	}
	rootDir, err := filepath.Abs(rootDir)
	checkErrorOrQuit(err, "bad root directory")

	if len(cmdArgs) != 1 {
		showMsg("should specify exactly one command")
		flag.Usage()
		os.Exit(1)
	}

	switch cmd := cmdArgs[0]; cmd {
	case "status":
		status(rootDir)
	case "stop":
		stop(rootDir, StopSignal)
	case "kill":
		stop(rootDir, KillSignal)
	default:
		showMsgAndQuit("unknown command: %s", cmd)
	}
}
