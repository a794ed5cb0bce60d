package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/xiaonanln/chanworld/engine/binutil"
	"github.com/xiaonanln/chanworld/engine/config"
	"github.com/xiaonanln/chanworld/engine/gwlog"
)

var (
	args struct {
		configFile      string
		logLevel        string
		runInDaemonMode bool
	}
	worldService *WorldService
	signalChan   = make(chan os.Signal, 1)
)

func parseArgs() {
	flag.StringVar(&args.configFile, "configfile", "", "set config file path")
	flag.StringVar(&args.logLevel, "log", "", "set log level, will override log level in config")
	flag.BoolVar(&args.runInDaemonMode, "d", false, "run in daemon mode")
	flag.Parse()
}

func main() {
	parseArgs()
	if args.runInDaemonMode {
		daemoncontext := binutil.Daemonize("world.pid")
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	worldConfig := config.GetWorld()
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = worldConfig.LogLevel
	}
	binutil.SetupGWLog("world", logLevel, worldConfig.LogFile, worldConfig.LogStderr)
	binutil.SetupHTTPServer(worldConfig.HTTPIp, worldConfig.HTTPPort, nil)
	gwlog.Infof("Read world config: \n%s\n", config.DumpPretty(worldConfig))

	worldService = newWorldService(worldConfig)
	setupSignals() // after worldService is created to avoid data race
	worldService.run()
}

func setupSignals() {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating world service ...")
				worldService.posts.Post(worldService.terminate)
				worldService.terminated.Wait()
				gwlog.Infof("World terminated gracefully.")
				gwlog.Sync()
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
