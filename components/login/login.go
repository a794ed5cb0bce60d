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
	loginService *LoginService
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
		daemoncontext := binutil.Daemonize("login.pid")
		defer daemoncontext.Release()
	}

	if args.configFile != "" {
		config.SetConfigFile(args.configFile)
	}

	loginConfig := config.GetLogin()
	logLevel := args.logLevel
	if logLevel == "" {
		logLevel = loginConfig.LogLevel
	}
	binutil.SetupGWLog("login", logLevel, loginConfig.LogFile, loginConfig.LogStderr)
	gwlog.Infof("Read login config: \n%s\n", config.DumpPretty(loginConfig))

	loginService = newLoginService(loginConfig)
	binutil.SetupHTTPServer(loginConfig.HTTPIp, loginConfig.HTTPPort, nil)
	setupSignals()
	loginService.run()
}

func setupSignals() {
	gwlog.Infof("Setup signals ...")
	signal.Ignore(syscall.SIGPIPE, syscall.SIGHUP)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			sig := <-signalChan
			if sig == syscall.SIGINT || sig == syscall.SIGTERM {
				gwlog.Infof("Terminating login service ...")
				loginService.posts.Post(loginService.terminate)
				loginService.terminated.Wait()
				gwlog.Infof("Login terminated gracefully.")
				gwlog.Sync()
				os.Exit(0)
			} else {
				gwlog.Errorf("unexpected signal: %s", sig)
			}
		}
	}()
}
