package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/xiaonanln/chanworld/engine/binutil"
	"github.com/xiaonanln/chanworld/engine/common"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

var (
	args struct {
		channelID       common.ChannelID
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	channelService *ChannelService
	signalChan     = make(chan os.Signal, 1)
)

func parseArgs() {
	var channelIDArg int
	flag.IntVar(&channelIDArg, "cid", 0, "set channel id")
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
	args.channelID = common.ChannelID(channelIDArg)
}

func main() {
	parseArgs()
	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize(fmt.Sprintf("channel%d.pid", args.channelID))
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	if !args.channelID.IsOnline() {
		gwlog.Errorf("channel id %d is not valid, should be one of %v", args.channelID, config.GetChannelIDs())
		os.Exit(1)
	}
	channelConfig := config.GetChannel(args.channelID)
	if channelConfig == nil {
		gwlog.Errorf("channel %d is not configured, should be one of %v", args.channelID, config.GetChannelIDs())
		os.Exit(1)
	}
	if channelConfig.GoMaxProcs > 0 {
		gwlog.Infof("SET GOMAXPROCS = %d", channelConfig.GoMaxProcs)
		runtime.GOMAXPROCS(channelConfig.GoMaxProcs)
	}
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = channelConfig.LogLevel
	}
	binutil.SetupGWLog(fmt.Sprintf("channel%d", args.channelID), logLevel, channelConfig.LogFile, channelConfig.LogStderr)
	gwlog.Infof("Read channel %d config: \n%s\n", args.channelID, config.DumpPretty(channelConfig))

	channelService = newChannelService(args.channelID, channelConfig)
	binutil.SetupHTTPServer(channelConfig.HTTPIp, channelConfig.HTTPPort, channelService.handleWebSocketConn)
	setupSignals()
	channelService.run()
}

func setupSignals() {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating channel service ...")
				channelService.posts.Post(channelService.terminate)
				channelService.terminated.Wait()
				gwlog.Infof("Channel %d terminated gracefully.", args.channelID)
				gwlog.Sync()
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
